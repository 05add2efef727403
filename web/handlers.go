package web

import (
	"bytes"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/mtl"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils/fbxbuilder"
	"github.com/mogaika/haydee_tools/utils/gltfutils"
	"github.com/mogaika/haydee_tools/vfs"
	"github.com/mogaika/haydee_tools/webutils"
)

type server struct {
	root *vfs.DirectoryDriver
}

type DirEntry struct {
	Name      string `json:"name"`
	Dir       bool   `json:"dir"`
	Supported bool   `json:"supported"`
}

type MeshInfo struct {
	Name     string `json:"name"`
	Material string `json:"material,omitempty"`
	Vertices int    `json:"vertices"`
	Faces    int    `json:"faces"`
	Weighted bool   `json:"weighted"`
}

type MotionInfo struct {
	Name      string `json:"name"`
	FrameRate int    `json:"frameRate"`
	Frames    int    `json:"frames"`
	Tracks    int    `json:"tracks"`
}

// AssetInfo is the browser summary of one loaded file.
type AssetInfo struct {
	Name        string        `json:"name"`
	Source      string        `json:"source"`
	Bones       []string      `json:"bones,omitempty"`
	Meshes      []MeshInfo    `json:"meshes,omitempty"`
	Materials   []string      `json:"materials,omitempty"`
	Poses       []string      `json:"poses,omitempty"`
	Motions     []MotionInfo  `json:"motions,omitempty"`
	Outfit      *scene.Outfit `json:"outfit,omitempty"`
	Diagnostics []string      `json:"diagnostics,omitempty"`
	Emitters    []string      `json:"emitters"`
}

func NewAssetInfo(a *scene.Asset) *AssetInfo {
	info := &AssetInfo{Name: a.Name, Source: a.Source, Outfit: a.Outfit, Emitters: pack.Emitters()}
	if a.Skeleton != nil {
		info.Bones = a.Skeleton.Names()
	}
	for _, m := range a.Meshes {
		info.Meshes = append(info.Meshes, MeshInfo{
			Name:     m.Name,
			Material: m.Material,
			Vertices: len(m.Positions),
			Faces:    len(m.Faces),
			Weighted: len(m.Weights) == len(m.Positions) && len(m.Weights) != 0,
		})
	}
	for _, m := range a.Materials {
		info.Materials = append(info.Materials, m.Name)
	}
	for _, p := range a.Poses {
		info.Poses = append(info.Poses, p.Name)
	}
	for _, m := range a.Motions {
		info.Motions = append(info.Motions, MotionInfo{
			Name:      m.Name,
			FrameRate: m.FrameRate,
			Frames:    m.NumFrames,
			Tracks:    len(m.Tracks),
		})
	}
	for _, d := range a.Diagnostics {
		info.Diagnostics = append(info.Diagnostics, d.String())
	}
	return info
}

// directory walks to the directory holding the slash separated path rel.
func (s *server) directory(rel string) (*vfs.DirectoryDriver, string, error) {
	dir, name := path.Split(strings.Trim(rel, "/"))
	e, err := s.root.Walk(dir)
	if err != nil {
		return nil, "", err
	}
	d, ok := e.(*vfs.DirectoryDriver)
	if !ok {
		return nil, "", errors.Errorf("'%s' is not a directory", dir)
	}
	return d, name, nil
}

func (s *server) asset(r *http.Request) (*scene.Asset, error) {
	d, name, err := s.directory(mux.Vars(r)["path"])
	if err != nil {
		return nil, err
	}
	return pack.GetInstanceHandler(d, name)
}

func (s *server) HandlerAjaxDir(w http.ResponseWriter, r *http.Request) {
	e, err := s.root.Walk(mux.Vars(r)["path"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	d, ok := e.(*vfs.DirectoryDriver)
	if !ok {
		webutils.WriteError(w, errors.Errorf("'%s' is not a directory", e.Name()))
		return
	}
	names, err := d.List()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	entries := make([]DirEntry, 0, len(names))
	for _, name := range names {
		el, err := d.GetElement(name)
		if err != nil {
			continue
		}
		entries = append(entries, DirEntry{
			Name:      name,
			Dir:       el.IsDirectory(),
			Supported: !el.IsDirectory() && (pack.HasHandler(name) || mtl.IsTexture(name)),
		})
	}
	webutils.WriteJson(w, entries)
}

func (s *server) HandlerAjaxAsset(w http.ResponseWriter, r *http.Request) {
	if a, err := s.asset(r); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, NewAssetInfo(a))
	}
}

func (s *server) HandlerDumpYaml(w http.ResponseWriter, r *http.Request) {
	if a, err := s.asset(r); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteYaml(w, a)
	}
}

func (s *server) HandlerDumpJson(w http.ResponseWriter, r *http.Request) {
	if a, err := s.asset(r); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJsonFile(w, a, a.Name)
	}
}

func (s *server) HandlerDumpRaw(w http.ResponseWriter, r *http.Request) {
	d, name, err := s.directory(mux.Vars(r)["path"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	f, err := vfs.DirectoryGetFile(d, name)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	reader, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, reader, name)
}

func (s *server) HandlerExportGltf(w http.ResponseWriter, r *http.Request) {
	a, err := s.asset(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, a, mtl.LoadPNG); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, a.Name+".glb")
}

func (s *server) HandlerExportFbx(w http.ResponseWriter, r *http.Request) {
	a, err := s.asset(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := fbxbuilder.Export(&buf, a); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, &buf, a.Name+".fbx")
}

// HandlerExportEmit re-encodes the asset to the format named by ext.
// The format query parameter selects H1 or H2, default is the server one.
func (s *server) HandlerExportEmit(w http.ResponseWriter, r *http.Request) {
	ext := "." + strings.TrimPrefix(mux.Vars(r)["ext"], ".")
	format := config.GetFileFormat()
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := config.ParseFileFormat(q)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		format = f
	}

	a, err := s.asset(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	data, err := pack.CallEmitter(ext, a, format)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteFile(w, bytes.NewReader(data), a.Name+strings.ToLower(ext))
}

// HandlerTexture sends a webp preview no larger than the size query
// parameter.
func (s *server) HandlerTexture(w http.ResponseWriter, r *http.Request) {
	d, name, err := s.directory(mux.Vars(r)["path"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	limit := mtl.THUMBNAIL_SIZE
	if q := r.URL.Query().Get("size"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil || limit <= 0 {
			webutils.WriteError(w, errors.Errorf("Invalid size %q", q))
			return
		}
	}

	img, err := mtl.LoadTexture(filepath.Join(d.Path(), name))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/webp")
	if err := mtl.EncodeWebP(w, mtl.Thumbnail(img, limit)); err != nil {
		webutils.WriteError(w, err)
	}
}
