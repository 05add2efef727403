package vfs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/vfs"
)

func TestDirectoryDriver(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Outfits", "Suit"), 0777))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Outfits", "Suit", "suit.outfit"), []byte("outfit"), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Outfits", "a.mesh"), nil, 0666))

	d := vfs.NewDirectoryDriver(root)
	e, err := d.Walk("Outfits")
	require.NoError(t, err)
	names, err := e.(vfs.Directory).List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Suit", "a.mesh"}, names)

	e, err = d.Walk("Outfits/Suit/suit.outfit")
	require.NoError(t, err)
	data, err := vfs.ReadFile(e.(vfs.File))
	require.NoError(t, err)
	assert.Equal(t, "outfit", string(data))

	_, err = d.Walk("Outfits/../..")
	assert.Error(t, err)
	_, err = d.Walk("Outfits/a.mesh/x")
	assert.Error(t, err)
	_, err = vfs.DirectoryGetFile(d, "Outfits")
	assert.Error(t, err)
}

func TestDirectoryFileCopy(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "body.mesh"), []byte("old"), 0666))

	f, err := vfs.DirectoryGetFile(vfs.NewDirectoryDriver(root), "body.mesh")
	require.NoError(t, err)
	require.NoError(t, vfs.OpenFileAndCopy(f, bytes.NewReader([]byte("new data"))))

	data, err := os.ReadFile(filepath.Join(root, "body.mesh"))
	require.NoError(t, err)
	assert.Equal(t, "new data", string(data))
	assert.Equal(t, int64(8), f.Size())
}

func TestMemoryDirectory(t *testing.T) {
	md := vfs.NewMemoryDirectory("mem")
	md.Put("b.pose", []byte("pose"))
	md.Put("a.skel", []byte("skel"))

	names, err := md.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.skel", "b.pose"}, names)

	f, err := vfs.DirectoryGetFile(md, "b.pose")
	require.NoError(t, err)
	require.NoError(t, vfs.OpenFileAndCopy(f, bytes.NewReader([]byte("changed"))))
	data, err := vfs.ReadFile(f)
	require.NoError(t, err)
	assert.Equal(t, "changed", string(data))

	_, err = md.GetElement("c.mesh")
	assert.Error(t, err)
}
