package views

import (
	"math"
	"testing"
)

func TestFormatConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0.87, want: "87.0%"},
		{in: 0.123, want: "12.3%"},
		{in: 0.5, want: "50.0%"},
		{in: 0, want: "0.0%"},
		{in: 1, want: "100.0%"},
		{in: 1.7, want: "100.0%"},
		{in: -0.2, want: "0.0%"},
		{in: math.NaN(), want: "0.0%"},
	}
	for _, tc := range tests {
		if got := FormatConfidence(tc.in); got != tc.want {
			t.Fatalf("FormatConfidence(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConfidenceBarWidthIsLinear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0%"},
		{in: 0.25, want: "25%"},
		{in: 0.87, want: "87%"},
		{in: 0.3333, want: "33.33%"},
		{in: 1, want: "100%"},
		{in: 2, want: "100%"},
	}
	for _, tc := range tests {
		if got := ConfidenceBarWidth(tc.in); got != tc.want {
			t.Fatalf("ConfidenceBarWidth(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResultClass(t *testing.T) {
	t.Parallel()

	if got := ResultClass("Real"); got != "result real" {
		t.Fatalf("ResultClass(Real) = %q", got)
	}
	for _, label := range []string{"Fake", "real", "AI-Generated", ""} {
		if got := ResultClass(label); got != "result fake" {
			t.Fatalf("ResultClass(%q) = %q, want negative styling", label, got)
		}
	}
}

func TestFormatBytesAndPreviewURL(t *testing.T) {
	t.Parallel()

	if got := FormatBytes(10 * 1024); got != "10 kB" {
		t.Fatalf("FormatBytes(10240) = %q, want %q", got, "10 kB")
	}
	if got := PreviewURL(""); got != "" {
		t.Fatalf("PreviewURL(\"\") = %q, want empty", got)
	}
	if got := PreviewURL("abc-123"); got != "/preview/abc-123" {
		t.Fatalf("PreviewURL() = %q", got)
	}
}
