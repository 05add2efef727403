package pack

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
	"github.com/mogaika/haydee_tools/vfs"
)

// FileLoader decodes one asset file into the scene model.
type FileLoader func(src utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error)

// FileEmitter encodes an asset into the bytes of one file format.
type FileEmitter func(a *scene.Asset, format config.FileFormat) ([]byte, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)
var gEmitters map[string]FileEmitter = make(map[string]FileEmitter, 0)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func SetEmitter(format string, em FileEmitter) {
	gEmitters[strings.ToUpper(format)] = em
}

func HasHandler(name string) bool {
	_, found := gHandlers[strings.ToUpper(filepath.Ext(name))]
	return found
}

// Extensions lists the registered loader extensions, sorted.
func Extensions() []string {
	result := make([]string, 0, len(gHandlers))
	for ext := range gHandlers {
		result = append(result, strings.ToLower(ext))
	}
	sort.Strings(result)
	return result
}

// Emitters lists the registered emitter extensions, sorted.
func Emitters() []string {
	result := make([]string, 0, len(gEmitters))
	for ext := range gEmitters {
		result = append(result, strings.ToLower(ext))
	}
	sort.Strings(result)
	return result
}

func CallHandler(s utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))

	if h, found := gHandlers[ext]; found {
		return h(s, r)
	} else {
		return nil, fmt.Errorf("[pack] Cannot find handler for '%s' extension", ext)
	}
}

// CallEmitter encodes a for the format named by the extension of name.
func CallEmitter(name string, a *scene.Asset, format config.FileFormat) ([]byte, error) {
	ext := strings.ToUpper(filepath.Ext(name))

	if em, found := gEmitters[ext]; found {
		return em(a, format)
	} else {
		return nil, fmt.Errorf("[pack] Cannot find emitter for '%s' extension", ext)
	}
}

type PackResSrc struct {
	pf vfs.File
	d  vfs.Directory
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

// Path is the file system path of the source when the directory has one.
func (s *PackResSrc) Path() string {
	if dd, ok := s.d.(*vfs.DirectoryDriver); ok {
		return filepath.Join(dd.Path(), s.pf.Name())
	}
	return s.pf.Name()
}

func (s *PackResSrc) Save(in *io.SectionReader) error {
	return vfs.OpenFileAndCopy(s.pf, in)
}

// AssetName is the file name of src without its extension.
func AssetName(src utils.ResourceSource) string {
	name := filepath.Base(src.Name())
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ReadAll reads the whole section of r.
func ReadAll(r *io.SectionReader) ([]byte, error) {
	data := make([]byte, r.Size())
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "[pack] Failed to read %d bytes", len(data))
	}
	return data, nil
}

// DataHandler adapts a whole buffer decoder into a FileLoader.
func DataHandler(decode func(data []byte, name string) (*scene.Asset, error)) FileLoader {
	return func(src utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error) {
		data, err := ReadAll(r)
		if err != nil {
			return nil, err
		}
		a, err := decode(data, AssetName(src))
		if a != nil {
			a.Source = src.Name()
		}
		return a, err
	}
}

// SourcePath returns the location used to resolve files referenced by src.
func SourcePath(src utils.ResourceSource) string {
	if p, ok := src.(interface{ Path() string }); ok {
		return p.Path()
	}
	return src.Name()
}

func GetInstanceHandler(d vfs.Directory, fileName string) (*scene.Asset, error) {
	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get file '%s'", fileName)
	}

	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Cannot get instance of '%s'", fileName)
	}
	defer f.Close()

	inst, err := CallHandler(&PackResSrc{d: d, pf: f}, r)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] Handler error for '%s'", fileName)
	}

	return inst, nil
}

// LoadFile loads an asset by file system path.
func LoadFile(path string) (*scene.Asset, error) {
	return GetInstanceHandler(vfs.NewDirectoryDriver(filepath.Dir(path)), filepath.Base(path))
}

// LoadBatch loads every path on its own: a failing or panicking file is
// reported to f and does not stop the others.
func LoadBatch(paths []string, f func(path string, a *scene.Asset, err error)) {
	for _, path := range paths {
		a, err := loadIsolated(path)
		if err != nil {
			log.Printf("[pack] Failed to load '%s': %v", path, err)
		}
		f(path, a, err)
	}
}

func loadIsolated(path string) (a *scene.Asset, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, errors.Errorf("[pack] Panic while loading '%s': %v", path, r)
		}
	}()
	return LoadFile(path)
}
