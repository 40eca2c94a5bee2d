package model

import (
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileSize bounds each uploaded image or asset.
const MaxFileSize int64 = 100 * 1024 * 1024

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
	}
	assetExtensions = map[string]struct{}{
		".blend1": {}, ".x3d": {}, ".blend": {}, ".glb": {}, ".gltf": {}, ".ply": {}, ".stl": {},
		".obj": {}, ".usdc": {}, ".svg": {}, ".mtl": {}, ".fbx": {}, ".dae": {}, ".abc": {},
	}
	imageMIMETypes = map[string]struct{}{
		"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/webp": {},
	}

	folderDisallowed = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns       = regexp.MustCompile(`-+`)
	fileDisallowed   = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// Classify maps a key or file name onto its category by extension.
func Classify(name string) Category {
	ext := strings.ToLower(path.Ext(name))
	if _, ok := imageExtensions[ext]; ok {
		return CategoryImage
	}
	if _, ok := assetExtensions[ext]; ok {
		return CategoryAsset
	}
	return CategoryOther
}

// IsAcceptedImageType reports whether mime is an accepted preview image type.
func IsAcceptedImageType(mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	_, ok := imageMIMETypes[mime]
	return ok
}

// SanitizeFolder lowercases name, keeps [a-z0-9-] and collapses hyphens.
func SanitizeFolder(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = folderDisallowed.ReplaceAllString(name, "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}

// Title turns "red-office-chair" into "Red Office Chair".
func Title(folder string) string {
	words := strings.Split(folder, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = fileDisallowed.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// headerValue keeps printable ASCII so the value is a valid metadata header.
func headerValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 && r <= 126 {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
