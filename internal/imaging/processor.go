// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging prepares uploaded images for the blog API, which accepts
// images only as base64 data URLs.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mozillazg/go-unidecode"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Supported MIME types.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Default processing limits.
const (
	DefaultMaxBytes      = 8 << 20
	DefaultMaxDimension  = 1920
	DefaultThumbnailSize = 240
	DefaultQuality       = 88
)

var (
	// ErrUnsupported is returned for data that is not a JPEG, PNG, GIF or WebP image.
	ErrUnsupported = errors.New("unsupported image format")
	// ErrTooLarge is returned when the upload exceeds the byte limit.
	ErrTooLarge = errors.New("image is too large")
)

// Options configures a Processor. Zero values select the defaults.
type Options struct {
	MaxBytes      int64
	MaxDimension  int
	ThumbnailSize int
	Quality       int
}

// Upload is an image ready to be posted to the blog API.
type Upload struct {
	Name      string // ASCII file name with an extension matching MimeType
	MimeType  string
	Width     int
	Height    int
	Size      int // encoded bytes
	DataURL   string
	Thumbnail string // data URL of a small preview
}

// Processor decodes, orients, bounds and re-encodes uploads.
type Processor struct {
	maxBytes int64
	maxDim   int
	thumbDim int
	quality  int
}

// NewProcessor creates an image processor.
func NewProcessor(opts Options) *Processor {
	p := &Processor{
		maxBytes: opts.MaxBytes,
		maxDim:   opts.MaxDimension,
		thumbDim: opts.ThumbnailSize,
		quality:  opts.Quality,
	}
	if p.maxBytes <= 0 {
		p.maxBytes = DefaultMaxBytes
	}
	if p.maxDim <= 0 {
		p.maxDim = DefaultMaxDimension
	}
	if p.thumbDim <= 0 {
		p.thumbDim = DefaultThumbnailSize
	}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = DefaultQuality
	}
	return p
}

// MaxBytes returns the upload size limit.
func (p *Processor) MaxBytes() int64 {
	return p.maxBytes
}

// Prepare reads an uploaded image and returns it as a data URL. EXIF
// orientation is applied, and images larger than the maximum dimension are
// scaled down. Metadata is not preserved.
func (p *Processor) Prepare(r io.Reader, filename string) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupported
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", ErrUnsupported)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	b := img.Bounds()
	if b.Dx() > p.maxDim || b.Dy() > p.maxDim {
		img = imaging.Fit(img, p.maxDim, p.maxDim, imaging.Lanczos)
	}

	// The blog API decodes PNG and JPEG data URLs only. There is no pure Go
	// WebP encoder, and a decoded GIF is a single frame anyway.
	switch format {
	case "webp":
		format = "jpeg"
	case "gif":
		format = "png"
	}
	encoded, err := encodeImage(img, format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	thumb, err := encodeImage(imaging.Fit(img, p.thumbDim, p.thumbDim, imaging.Lanczos), format, p.quality)
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	mime := formatToMimeType(format)
	b = img.Bounds()
	return &Upload{
		Name:      SafeName(filename, format),
		MimeType:  mime,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Size:      len(encoded),
		DataURL:   DataURL(mime, encoded),
		Thumbnail: DataURL(mime, thumb),
	}, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var (
	nameRegex       = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// SafeName transliterates filename to lower-case ASCII and gives it the
// extension of format, e.g. "Фото 1.PNG" becomes "foto-1.png".
func SafeName(filename, format string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	name := strings.ToLower(unidecode.Unidecode(base))
	name = nameRegex.ReplaceAllString(name, "-")
	name = multipleHyphens.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "image"
	}
	return name + formatExtension(format)
}

// readExifOrientation returns the EXIF orientation tag, or 1 (normal) when
// it cannot be read.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes an EXIF orientation (1-8) so the image displays upright.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat sniffs the image format. TIFF is rejected (CVE-2023-36308 in
// disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "png":
		return MimeTypePNG
	case "gif":
		return MimeTypeGIF
	case "webp":
		return MimeTypeWebP
	default:
		return MimeTypeJPEG
	}
}

func formatExtension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	case "webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
