package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestPutDownscalesLargeImages(t *testing.T) {
	s := NewStore(64)
	id := s.Put("image/png", encodePNG(t, 256, 128))

	p, ok := s.Get(id)
	if !ok {
		t.Fatal("preview not stored")
	}
	if p.ContentType != "image/jpeg" {
		t.Fatalf("ContentType = %q, want image/jpeg", p.ContentType)
	}
	decoded, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("preview bounds = %v, want 64x32", b)
	}
}

func TestPutKeepsSmallImagesAsIs(t *testing.T) {
	s := NewStore(64)
	data := encodePNG(t, 16, 16)
	id := s.Put("image/png", data)

	p, _ := s.Get(id)
	if p.ContentType != "image/png" {
		t.Fatalf("ContentType = %q, want image/png", p.ContentType)
	}
	if !bytes.Equal(p.Data, data) {
		t.Fatal("small image should be stored unchanged")
	}
}

func TestPutFallsBackToRawBytes(t *testing.T) {
	s := NewStore(0)
	id := s.Put("image/heic", []byte("not decodable"))

	p, ok := s.Get(id)
	if !ok {
		t.Fatal("preview not stored")
	}
	if p.ContentType != "image/heic" || string(p.Data) != "not decodable" {
		t.Fatalf("preview = %+v, want raw fallback", p)
	}
}

func TestReleaseDropsPreview(t *testing.T) {
	s := NewStore(0)
	a := s.Put("image/png", encodePNG(t, 4, 4))
	b := s.Put("image/png", encodePNG(t, 4, 4))
	if a == b {
		t.Fatal("ids must be unique")
	}

	s.Release(a)
	s.Release("")
	s.Release("missing")

	if _, ok := s.Get(a); ok {
		t.Fatal("released preview still present")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}
