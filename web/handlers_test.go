package web_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/pack/skel"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/vfs"
	"github.com/mogaika/haydee_tools/web"
)

func testTree(t *testing.T) string {
	root := t.TempDir()
	dir := filepath.Join(root, "Outfits")
	require.NoError(t, os.MkdirAll(dir, 0777))

	var diags scene.Diagnostics
	s, err := armature.NewBuilder(armature.FamilySkel, &diags).Build("body", []armature.Joint{
		{Name: "SK_Hips", Parent: -1, Matrix: mgl64.Translate3D(0, 0, 1), Length: 1},
		{Name: "SK_Spine", Parent: 0, Matrix: mgl64.Translate3D(0, 0, 1), Length: 1},
	})
	require.NoError(t, err)
	data, err := skel.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "body.skel"), data, 0666))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 512, 512))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skin.png"), buf.Bytes(), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0666))
	return root
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestDirListing(t *testing.T) {
	h := web.NewRouter(vfs.NewDirectoryDriver(testTree(t)), "")

	rec := get(t, h, "/json/dir")
	require.Equal(t, http.StatusOK, rec.Code)
	var top []web.DirEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &top))
	assert.Equal(t, []web.DirEntry{{Name: "Outfits", Dir: true}}, top)

	rec = get(t, h, "/json/dir/Outfits")
	var entries []web.DirEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, []web.DirEntry{
		{Name: "body.skel", Supported: true},
		{Name: "readme.txt"},
		{Name: "skin.png", Supported: true},
	}, entries)
}

func TestAssetInfo(t *testing.T) {
	h := web.NewRouter(vfs.NewDirectoryDriver(testTree(t)), "")

	rec := get(t, h, "/json/asset/Outfits/body.skel")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info web.AssetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "body", info.Name)
	assert.Equal(t, []string{"SK_Hips", "SK_Spine"}, info.Bones)
	assert.Contains(t, info.Emitters, ".dskel")

	rec = get(t, h, "/dump/yaml/Outfits/body.skel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SK_Spine")

	rec = get(t, h, "/json/asset/Outfits/missing.skel")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestExports(t *testing.T) {
	h := web.NewRouter(vfs.NewDirectoryDriver(testTree(t)), "")

	rec := get(t, h, "/export/gltf/Outfits/body.skel")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "glTF", rec.Body.String()[:4])
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "body.glb")

	rec = get(t, h, "/export/fbx/Outfits/body.skel")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = get(t, h, "/export/emit/dskel/Outfits/body.skel")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "SK_Hips")

	rec = get(t, h, "/export/emit/dskel/Outfits/body.skel?format=H3")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTexturePreview(t *testing.T) {
	h := web.NewRouter(vfs.NewDirectoryDriver(testTree(t)), "")

	rec := get(t, h, "/texture/Outfits/skin.png?size=64")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", rec.Body.String()[:4])

	rec = get(t, h, "/texture/Outfits/skin.png?size=-1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
