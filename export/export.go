// Package export writes rendered grids to image files and records passes
// to video.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var ErrUnknownFormat = errors.New("unknown image format")

type Format int

const (
	PNG Format = iota
	TIFF
	BMP
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case TIFF:
		return "tiff"
	case BMP:
		return "bmp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
}

// Save encodes img to path in the format its extension names. A partially
// written file is removed.
func Save(path string, img image.Image) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(file.Name())
		}
	}()

	if err := Encode(file, img, format); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}
