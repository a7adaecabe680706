// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestNewProcessorDefaults(t *testing.T) {
	p := NewProcessor(Options{Quality: 500})
	if p.MaxBytes() != DefaultMaxBytes {
		t.Errorf("MaxBytes() = %d, want %d", p.MaxBytes(), DefaultMaxBytes)
	}
	if p.maxDim != DefaultMaxDimension || p.thumbDim != DefaultThumbnailSize || p.quality != DefaultQuality {
		t.Errorf("defaults = %d/%d/%d", p.maxDim, p.thumbDim, p.quality)
	}
}

func TestPreparePNG(t *testing.T) {
	p := NewProcessor(Options{ThumbnailSize: 10})
	up, err := p.Prepare(bytes.NewReader(encodePNG(t, createTestImage(40, 20))), "My Photo (1).PNG")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if up.Name != "my-photo-1.png" {
		t.Errorf("Name = %q, want my-photo-1.png", up.Name)
	}
	if up.MimeType != MimeTypePNG {
		t.Errorf("MimeType = %q", up.MimeType)
	}
	if up.Width != 40 || up.Height != 20 {
		t.Errorf("size = %dx%d, want 40x20", up.Width, up.Height)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(up.DataURL, prefix) {
		t.Fatalf("DataURL prefix = %q", up.DataURL[:30])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(up.DataURL, prefix))
	if err != nil {
		t.Fatalf("decoding data URL: %v", err)
	}
	if len(raw) != up.Size {
		t.Errorf("Size = %d, decoded %d bytes", up.Size, len(raw))
	}

	thumbRaw, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(up.Thumbnail, prefix))
	cfg, _, err := image.DecodeConfig(bytes.NewReader(thumbRaw))
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	if cfg.Width != 10 || cfg.Height != 5 {
		t.Errorf("thumbnail = %dx%d, want 10x5", cfg.Width, cfg.Height)
	}
}

func TestPrepareScalesDown(t *testing.T) {
	p := NewProcessor(Options{MaxDimension: 100})
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createTestImage(400, 200), nil); err != nil {
		t.Fatal(err)
	}

	up, err := p.Prepare(&buf, "wide.jpeg")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if up.Width != 100 || up.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", up.Width, up.Height)
	}
	if up.Name != "wide.jpg" || up.MimeType != MimeTypeJPEG {
		t.Errorf("got %q %q", up.Name, up.MimeType)
	}
}

func TestPrepareGIFBecomesPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, createTestImage(8, 8), nil); err != nil {
		t.Fatal(err)
	}
	up, err := NewProcessor(Options{}).Prepare(&buf, "anim.gif")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if up.Name != "anim.png" || up.MimeType != MimeTypePNG {
		t.Errorf("got %q %q, want anim.png image/png", up.Name, up.MimeType)
	}
	if !strings.HasPrefix(up.DataURL, "data:image/png;base64,") {
		t.Errorf("DataURL prefix = %q", up.DataURL[:22])
	}
	if !strings.HasPrefix(up.Thumbnail, "data:image/png;base64,") {
		t.Errorf("Thumbnail should be PNG")
	}
}

func TestPrepareErrors(t *testing.T) {
	p := NewProcessor(Options{MaxBytes: 64})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"text", []byte("hello, this is not an image"), ErrUnsupported},
		{"too large", bytes.Repeat([]byte{0xff}, 65), ErrTooLarge},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00"), ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Prepare(bytes.NewReader(tt.data), "x.png")
			if !errors.Is(err, tt.want) {
				t.Errorf("Prepare() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		filename string
		format   string
		want     string
	}{
		{"photo.png", "png", "photo.png"},
		{"Фото 1.PNG", "png", "foto-1.png"},
		{"C:\\Users\\me\\Pic.webp", "jpeg", "pic.jpg"},
		{"../../etc/passwd", "gif", "passwd.gif"},
		{"???.jpg", "jpeg", "image.jpg"},
		{"", "webp", "image.webp"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := SafeName(tt.filename, tt.format); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(40, 20)
	tests := []struct {
		orientation int
		wantW       int
		wantH       int
	}{
		{1, 40, 20},
		{2, 40, 20},
		{3, 40, 20},
		{4, 40, 20},
		{5, 20, 40},
		{6, 20, 40},
		{7, 20, 40},
		{8, 20, 40},
		{0, 40, 20},
	}
	for _, tt := range tests {
		b := applyOrientation(img, tt.orientation).Bounds()
		if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
			t.Errorf("orientation %d: got %dx%d, want %dx%d", tt.orientation, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestReadExifOrientationWithoutExif(t *testing.T) {
	if got := readExifOrientation(bytes.NewReader(encodePNG(t, createTestImage(2, 2)))); got != 1 {
		t.Errorf("readExifOrientation() = %d, want 1", got)
	}
}

func TestDataURL(t *testing.T) {
	if got := DataURL("image/gif", []byte("GIF")); got != "data:image/gif;base64,R0lG" {
		t.Errorf("DataURL() = %q", got)
	}
}
