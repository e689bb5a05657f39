// Package preview holds downscaled copies of selected images so the page can show them
// without keeping the upload in the browser.
package preview

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/aidetect/aidetect/internal/metrics"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxDimension bounds the longest preview edge in pixels.
	DefaultMaxDimension = 480

	thumbnailContentType = "image/jpeg"
	thumbnailQuality     = 85
)

// Preview is a stored preview resource.
type Preview struct {
	ContentType string
	Data        []byte
}

// Store is an in-memory, id-addressed preview store. The zero value is not usable.
type Store struct {
	maxDimension int

	mu      sync.RWMutex
	entries map[string]Preview
}

// NewStore returns a Store that scales previews to fit maxDimension.
func NewStore(maxDimension int) *Store {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Store{
		maxDimension: maxDimension,
		entries:      make(map[string]Preview),
	}
}

// Put derives a preview from data and returns its id. Images the decoders cannot read are kept
// as-is under their original content type.
func (s *Store) Put(contentType string, data []byte) string {
	p := s.derive(contentType, data)
	id := uuid.NewString()

	s.mu.Lock()
	s.entries[id] = p
	n := len(s.entries)
	s.mu.Unlock()

	metrics.PreviewsStored.Set(float64(n))
	return id
}

// Get returns the preview stored under id.
func (s *Store) Get(id string) (Preview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[id]
	return p, ok
}

// Release drops the preview stored under id. Unknown ids are ignored.
func (s *Store) Release(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	delete(s.entries, id)
	n := len(s.entries)
	s.mu.Unlock()

	metrics.PreviewsStored.Set(float64(n))
}

// Len returns the number of stored previews.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) derive(contentType string, data []byte) Preview {
	raw := Preview{ContentType: normalizeContentType(contentType), Data: data}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return raw
	}
	if fitsWithin(img.Bounds(), s.maxDimension) && raw.ContentType != "" {
		return raw
	}

	thumb := imaging.Fit(img, s.maxDimension, s.maxDimension, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return raw
	}
	return Preview{ContentType: thumbnailContentType, Data: buf.Bytes()}
}

func fitsWithin(b image.Rectangle, max int) bool {
	return b.Dx() <= max && b.Dy() <= max
}

func normalizeContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return ""
	}
	return contentType
}
