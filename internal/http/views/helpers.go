package views

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/aidetect/aidetect/internal/detector"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

// FormatConfidence renders a [0,1] confidence as a percentage with one decimal, e.g. "87.0%".
func FormatConfidence(confidence float64) string {
	return strconv.FormatFloat(clampConfidence(confidence)*100, 'f', 1, 64) + "%"
}

// ConfidenceBarWidth maps a [0,1] confidence linearly onto a CSS width in [0%,100%].
func ConfidenceBarWidth(confidence float64) string {
	width := math.Round(clampConfidence(confidence)*10000) / 100
	return strconv.FormatFloat(width, 'f', -1, 64) + "%"
}

// IsPositive reports whether a classification gets the positive ("real") styling.
func IsPositive(classification string) bool {
	return classification == detector.ClassificationReal
}

// ResultClass returns the CSS classes of the result card.
func ResultClass(classification string) string {
	if IsPositive(classification) {
		return "result real"
	}
	return "result fake"
}

func FormatBytes(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func PreviewURL(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "/preview/" + url.PathEscape(id)
}

func clampConfidence(confidence float64) float64 {
	if math.IsNaN(confidence) {
		return 0
	}
	return lo.Clamp(confidence, 0, 1)
}
