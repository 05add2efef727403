package convert

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/mtl"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/status"
	"github.com/mogaika/haydee_tools/utils"
	"github.com/mogaika/haydee_tools/utils/fbxbuilder"
	"github.com/mogaika/haydee_tools/utils/gltfutils"

	_ "github.com/mogaika/haydee_tools/pack/mesh"
	_ "github.com/mogaika/haydee_tools/pack/motion"
	_ "github.com/mogaika/haydee_tools/pack/outfit"
	_ "github.com/mogaika/haydee_tools/pack/pose"
	_ "github.com/mogaika/haydee_tools/pack/skel"
	_ "github.com/mogaika/haydee_tools/pack/skin"
)

const (
	EXPORT_GLTF = "gltf"
	EXPORT_FBX  = "fbx"
	EXPORT_YAML = "yaml"
)

// Converter writes every loaded asset to Output in the Export target:
// gltf, fbx, yaml or the extension of a registered emitter.
type Converter struct {
	Export string
	Output string
	Format config.FileFormat
	// spew dumps of loaded assets go here when set
	Dump io.Writer
}

func (c *Converter) extension() string {
	switch strings.ToLower(c.Export) {
	case EXPORT_GLTF, "glb":
		return ".glb"
	case EXPORT_FBX:
		return ".fbx"
	case EXPORT_YAML:
		return ".yaml"
	}
	return "." + strings.ToLower(strings.TrimPrefix(c.Export, "."))
}

// Encode renders a in the export target.
func (c *Converter) Encode(a *scene.Asset) ([]byte, error) {
	var buf bytes.Buffer
	switch c.extension() {
	case ".glb":
		if err := gltfutils.ExportBinary(&buf, a, mtl.LoadPNG); err != nil {
			return nil, err
		}
	case ".fbx":
		if err := fbxbuilder.Export(&buf, a); err != nil {
			return nil, err
		}
	case ".yaml":
		if err := utils.DumpYaml(&buf, a); err != nil {
			return nil, err
		}
	default:
		return pack.CallEmitter(c.extension(), a, c.Format)
	}
	return buf.Bytes(), nil
}

// Target is the output file name of a.
func (c *Converter) Target(a *scene.Asset) string {
	return filepath.Join(c.Output, a.Name+c.extension())
}

func (c *Converter) write(a *scene.Asset) (string, error) {
	data, err := c.Encode(a)
	if err != nil {
		return "", errors.Wrapf(err, "[convert] Failed to encode %q", a.Name)
	}
	if err := os.MkdirAll(c.Output, 0777); err != nil {
		return "", errors.Wrapf(err, "[convert] Failed to create %q", c.Output)
	}
	target := c.Target(a)
	if err := os.WriteFile(target, data, 0666); err != nil {
		return "", errors.Wrapf(err, "[convert] Failed to write %q", target)
	}
	return target, nil
}

// Result is the outcome of one input file.
type Result struct {
	Path   string
	Target string
	Err    error
}

// Run converts paths one by one. A failing file does not stop the batch.
func (c *Converter) Run(paths []string) []Result {
	results := make([]Result, 0, len(paths))
	pack.LoadBatch(paths, func(path string, a *scene.Asset, err error) {
		progress := float32(len(results)+1) / float32(len(paths))
		res := Result{Path: path, Err: err}
		if err == nil {
			a.Diagnostics.Log(filepath.Base(path))
			if c.Dump != nil {
				fmt.Fprintln(c.Dump, utils.SDump(a))
			}
			res.Target, res.Err = c.write(a)
		}

		if res.Err != nil {
			log.Printf("[convert] %s: %v", path, res.Err)
			status.Error("%s: %v", filepath.Base(path), res.Err)
		} else {
			log.Printf("[convert] %s -> %s", path, res.Target)
			status.Progress(progress, "%s converted", filepath.Base(path))
		}
		results = append(results, res)
	})
	return results
}

// Failed counts the results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
