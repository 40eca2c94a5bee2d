package model

import (
	"testing"
	"unicode/utf8"
)

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"chair/preview.PNG":  CategoryImage,
		"chair/preview.jpeg": CategoryImage,
		"chair/preview.webp": CategoryImage,
		"chair/chair.glb":    CategoryAsset,
		"chair/chair.Blend1": CategoryAsset,
		"chair/scene.gltf":   CategoryAsset,
		"chair/readme.txt":   CategoryOther,
		"chair/noext":        CategoryOther,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Errorf("Classify(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestIsAcceptedImageType(t *testing.T) {
	for _, mime := range []string{"image/png", "IMAGE/JPEG", "image/jpg", "image/webp; charset=binary"} {
		if !IsAcceptedImageType(mime) {
			t.Errorf("expected %q to be accepted", mime)
		}
	}
	for _, mime := range []string{"", "image/gif", "application/octet-stream", "text/html"} {
		if IsAcceptedImageType(mime) {
			t.Errorf("expected %q to be rejected", mime)
		}
	}
}

func TestSanitizeFolder(t *testing.T) {
	cases := map[string]string{
		"Red Office Chair": "red-office-chair",
		"  --Lamp__v2!!  ": "lamp-v2",
		"table.final":      "table-final",
		"???":              "",
		"":                 "",
	}
	for in, want := range cases {
		if got := SanitizeFolder(in); got != want {
			t.Errorf("SanitizeFolder(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := Title("red-office-chair"); got != "Red Office Chair" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := Title("lamp"); got != "Lamp" {
		t.Fatalf("unexpected title %q", got)
	}
	got := Title("été-chair")
	if got != "Été Chair" || !utf8.ValidString(got) {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"my chair.glb":        "my_chair.glb",
		"../../etc/passwd":    "passwd",
		`C:\models\lamp.obj`:  "lamp.obj",
		"":                    "upload",
		"стул.glb":            "____.glb",
	}
	for in, want := range cases {
		if got := sanitizeFileName(in); got != want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHeaderValueReplacesNonASCII(t *testing.T) {
	if got := headerValue("José\n"); got != "Jos__" {
		t.Fatalf("unexpected header value %q", got)
	}
}
