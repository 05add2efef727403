package pack_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
	"github.com/mogaika/haydee_tools/vfs"
)

func init() {
	pack.SetHandler(".probe", pack.DataHandler(func(data []byte, name string) (*scene.Asset, error) {
		return &scene.Asset{Name: name + ":" + string(data)}, nil
	}))
	pack.SetHandler(".panic", func(src utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error) {
		panic("corrupt record table")
	})
	pack.SetEmitter(".probe", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		return []byte(a.Name + "@" + format.String()), nil
	})
}

func TestRegistry(t *testing.T) {
	assert.True(t, pack.HasHandler("Body.PROBE"))
	assert.False(t, pack.HasHandler("body.txt"))
	assert.Contains(t, pack.Extensions(), ".probe")
	assert.Contains(t, pack.Emitters(), ".probe")

	data, err := pack.CallEmitter("x.probe", &scene.Asset{Name: "body"}, config.FormatH1)
	require.NoError(t, err)
	assert.Equal(t, "body@H1", string(data))

	_, err = pack.CallEmitter("x.obj", &scene.Asset{}, config.FormatH1)
	assert.Error(t, err)
}

func TestInstanceFromMemory(t *testing.T) {
	md := vfs.NewMemoryDirectory("mem")
	md.Put("body.probe", []byte("data"))

	a, err := pack.GetInstanceHandler(md, "body.probe")
	require.NoError(t, err)
	assert.Equal(t, "body:data", a.Name)
	assert.Equal(t, "body.probe", a.Source)

	_, err = pack.GetInstanceHandler(md, "body.mesh")
	assert.Error(t, err)
}

func TestLoadBatchIsolation(t *testing.T) {
	dir := t.TempDir()
	good := dir + "/body.probe"
	touch(t, good)
	bad := dir + "/body.panic"
	touch(t, bad)

	var loaded []string
	var failed []string
	pack.LoadBatch([]string{bad, good, dir + "/missing.probe"}, func(path string, a *scene.Asset, err error) {
		if err != nil {
			failed = append(failed, path)
		} else {
			loaded = append(loaded, a.Name)
		}
	})
	assert.Equal(t, []string{"body:"}, loaded)
	assert.Equal(t, []string{bad, dir + "/missing.probe"}, failed)
}
