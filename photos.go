package main

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanoberholster/imagemeta"
	"github.com/evanoberholster/imagemeta/exif2"
	"golang.org/x/image/draw"
)

// PhotoFile is a photo read from disk and ready to upload
type PhotoFile struct {
	Path        string
	FileName    string
	ContentType string
	Description string
	Data        []byte
	Resized     bool
}

// allowedPhoto reports whether the file extension is in the allow-list (case-insensitive)
func allowedPhoto(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// photoContentType derives the MIME type from the extension
func photoContentType(name string) string {
	if strings.ToLower(filepath.Ext(name)) == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}

// readPhoto loads a photo, extracts a description from its EXIF data and
// scales it down when it is wider than settings.MaxWidth.
func readPhoto(path string, settings PhotoSettings) (*PhotoFile, error) {
	name := filepath.Base(path)
	if !allowedPhoto(name, settings.AllowedExtensions) {
		return nil, &UploadError{Path: path, Err: fmt.Errorf("unsupported file type %q (allowed: %s)", filepath.Ext(name), strings.Join(settings.AllowedExtensions, ", "))}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &UploadError{Path: path, Err: err}
	}

	photo := &PhotoFile{
		Path:        path,
		FileName:    name,
		ContentType: photoContentType(name),
		Description: describePhoto(data, path),
		Data:        data,
	}

	if settings.MaxWidth > 0 {
		resized, ok, err := downscale(data, photo.ContentType, settings.MaxWidth, settings.JPEGQuality)
		if err != nil {
			return nil, &UploadError{Path: path, Err: err}
		}
		if ok {
			photo.Data = resized
			photo.Resized = true
		}
	}

	return photo, nil
}

// downscale re-encodes the image at maxWidth when it is wider, keeping its format.
// It reports false when the image already fits.
func downscale(data []byte, contentType string, maxWidth, quality int) ([]byte, bool, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= maxWidth {
		return nil, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	newH := bounds.Dy() * maxWidth / bounds.Dx()
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if contentType == "image/png" {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, false, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), true, nil
}

// describePhoto builds an asset description from EXIF capture time and camera.
// Photos without readable EXIF get an empty description.
func describePhoto(data []byte, path string) string {
	ex, err := decodeExifSafe(bytes.NewReader(data), path)
	if err != nil {
		return ""
	}

	var parts []string
	ts := ex.DateTimeOriginal()
	if !ts.IsZero() {
		parts = append(parts, "Captured "+ts.Format("2006-01-02"))
	}
	camera := strings.TrimSpace(strings.TrimSpace(ex.Make) + " " + strings.TrimSpace(ex.Model))
	if camera != "" {
		parts = append(parts, "with "+camera)
	}
	return strings.Join(parts, " ")
}

// decodeExifSafe protects against panics from the decoder on malformed files.
func decodeExifSafe(r io.ReadSeeker, path string) (ex exif2.Exif, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while decoding %s: %v", path, rec)
		}
	}()

	ex, err = imagemeta.Decode(r)
	return ex, err
}
