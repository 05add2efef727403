package pack

import (
	"os"
	"path/filepath"
	"strings"
)

// game files reference each other with windows separators
func normalizeRef(ref string) string {
	return filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/"))
}

func isAbsRef(ref string) bool {
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "\\") {
		return true
	}
	return len(ref) > 2 && ref[1] == ':' && (ref[2] == '\\' || ref[2] == '/')
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// ResolveMaterialRef locates a file referenced from a material in dir.
// Bare file names live next to the material. Relative paths are tried
// against every parent of dir up to the root.
func ResolveMaterialRef(dir, ref string) string {
	if isAbsRef(ref) {
		return normalizeRef(ref)
	}
	if !strings.ContainsAny(ref, "\\/") {
		return filepath.Join(dir, ref)
	}

	rel := normalizeRef(ref)
	for {
		parent := filepath.Dir(dir)
		full := filepath.Join(parent, rel)
		if isFile(full) || parent == dir {
			return full
		}
		dir = parent
	}
}

// ResolveOutfitRef locates a file referenced from the outfit file at path.
// References are rooted at the outfits directory of the game; files next
// to the outfit win.
func ResolveOutfitRef(path, ref string) string {
	if isAbsRef(ref) {
		return normalizeRef(ref)
	}
	rel := normalizeRef(ref)
	dir := filepath.Dir(path)

	local := rel
	if parts := strings.SplitN(filepath.ToSlash(rel), "/", 2); len(parts) == 2 && strings.EqualFold(parts[0], "outfits") {
		local = filepath.FromSlash(parts[1])
	}
	if full := filepath.Join(dir, local); isFile(full) {
		return full
	}

	// game root is the parent of the outfits directory
	slashed := filepath.ToSlash(dir)
	if idx := strings.LastIndex(strings.ToLower(slashed), "/outfits"); idx >= 0 {
		return filepath.Join(filepath.FromSlash(slashed[:idx]), rel)
	}
	return filepath.Join(dir, rel)
}
