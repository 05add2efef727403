package pack_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/pack"
)

func touch(t *testing.T, path string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, nil, 0666))
}

func TestResolveMaterialRef(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Outfits", "Suit")
	shared := filepath.Join(root, "Textures", "skin.png")
	touch(t, shared)

	assert.Equal(t, filepath.Join(dir, "body.png"), pack.ResolveMaterialRef(dir, "body.png"))
	assert.Equal(t, shared, pack.ResolveMaterialRef(dir, `Textures\skin.png`))

	// unresolved references end up at the file system root
	missing := pack.ResolveMaterialRef(dir, `Nowhere\x.png`)
	assert.Equal(t, "x.png", filepath.Base(missing))
	assert.NotContains(t, missing, "Outfits")
}

func TestResolveOutfitRef(t *testing.T) {
	root := t.TempDir()
	outfit := filepath.Join(root, "Outfits", "Suit", "suit.outfit")
	local := filepath.Join(root, "Outfits", "Suit", "Suit", "body.mesh")
	touch(t, local)

	assert.Equal(t, local, pack.ResolveOutfitRef(outfit, `Outfits\Suit\body.mesh`))
	assert.Equal(t, filepath.Join(root, "Outfits", "Shared", "hair.mesh"),
		pack.ResolveOutfitRef(outfit, `Outfits\Shared\hair.mesh`))
	// missing files fall back to the game root
	assert.Equal(t, filepath.Join(root, "helmet.mesh"), pack.ResolveOutfitRef(outfit, "helmet.mesh"))
}
