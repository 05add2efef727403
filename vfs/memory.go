package vfs

import (
	"bytes"
	"io"
	"sort"

	"github.com/pkg/errors"
)

// MemoryDirectory is a flat in memory directory.
type MemoryDirectory struct {
	name  string
	files map[string]*MemoryFile
}

func NewMemoryDirectory(name string) *MemoryDirectory {
	return &MemoryDirectory{name: name, files: make(map[string]*MemoryFile)}
}

func (md *MemoryDirectory) Init(parent Directory) {}
func (md *MemoryDirectory) Name() string          { return md.name }
func (md *MemoryDirectory) IsDirectory() bool     { return true }

func (md *MemoryDirectory) Put(name string, data []byte) *MemoryFile {
	f := &MemoryFile{name: name, data: data}
	md.files[name] = f
	return f
}

func (md *MemoryDirectory) List() ([]string, error) {
	result := make([]string, 0, len(md.files))
	for name := range md.files {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

func (md *MemoryDirectory) GetElement(name string) (Element, error) {
	if f, ok := md.files[name]; ok {
		return f, nil
	}
	return nil, errors.Errorf("Element '%s' not found", name)
}

type MemoryFile struct {
	name string
	data []byte
}

func (mf *MemoryFile) Init(parent Directory)    {}
func (mf *MemoryFile) Name() string             { return mf.name }
func (mf *MemoryFile) IsDirectory() bool        { return false }
func (mf *MemoryFile) Size() int64              { return int64(len(mf.data)) }
func (mf *MemoryFile) Open(readonly bool) error { return nil }
func (mf *MemoryFile) Close() error             { return nil }
func (mf *MemoryFile) Bytes() []byte            { return mf.data }

func (mf *MemoryFile) Reader() (*io.SectionReader, error) {
	return io.NewSectionReader(bytes.NewReader(mf.data), 0, int64(len(mf.data))), nil
}

func (mf *MemoryFile) Copy(src io.Reader) error {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return err
	}
	mf.data = buf.Bytes()
	return nil
}
