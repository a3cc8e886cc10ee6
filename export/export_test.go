package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(2, 1, color.NRGBA{0, 0, 255, 255})
	return img
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.png", PNG},
		{"OUT.PNG", PNG},
		{"dir/out.tif", TIFF},
		{"out.tiff", TIFF},
		{"out.bmp", BMP},
	}
	for _, test := range tests {
		got, err := FormatFromPath(test.path)
		if err != nil || got != test.want {
			t.Errorf("FormatFromPath(%q) = %v, %v; want %v", test.path, got, err, test.want)
		}
	}

	for _, path := range []string{"out.jpg", "out", ""} {
		if _, err := FormatFromPath(path); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FormatFromPath(%q) error = %v", path, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := testImage()
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		PNG:  func(b *bytes.Buffer) (image.Image, error) { img, _, err := image.Decode(b); return img, err },
		TIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
		BMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
	}

	for format, decode := range decoders {
		var buf bytes.Buffer
		if err := Encode(&buf, src, format); err != nil {
			t.Fatalf("Encode(%v) error = %v", format, err)
		}
		got, err := decode(&buf)
		if err != nil {
			t.Fatalf("decoding %v: %v", format, err)
		}
		if got.Bounds() != src.Bounds() {
			t.Fatalf("%v bounds = %v", format, got.Bounds())
		}
		for _, p := range []image.Point{{0, 0}, {2, 1}, {1, 1}} {
			r1, g1, b1, _ := got.At(p.X, p.Y).RGBA()
			r2, g2, b2, _ := src.At(p.X, p.Y).RGBA()
			if r1>>8 != r2>>8 || g1>>8 != g2>>8 || b1>>8 != b2>>8 {
				t.Errorf("%v pixel %v = %v, want %v", format, p, got.At(p.X, p.Y), src.At(p.X, p.Y))
			}
		}
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, testImage(), Format(7)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Encode(Format(7)) error = %v", err)
	}
	if s := Format(7).String(); s != "Format(7)" {
		t.Errorf("String() = %q", s)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "out.png")
	if err := Save(path, testImage()); err != nil {
		t.Fatal(err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if _, format, err := image.Decode(file); err != nil || format != "png" {
		t.Errorf("decoding saved file: %v, %v", format, err)
	}

	bad := filepath.Join(dir, "out.gif")
	if err := Save(bad, testImage()); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Save(%q) error = %v", bad, err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Errorf("Save left %q behind", bad)
	}
}

func TestWriteFrame(t *testing.T) {
	img := testImage()

	var buf bytes.Buffer
	if err := writeFrame(&buf, img, 3, 2); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 3*2*4 {
		t.Fatalf("wrote %d bytes", buf.Len())
	}
	if got := buf.Bytes()[:4]; !bytes.Equal(got, []byte{255, 0, 0, 255}) {
		t.Errorf("first pixel = %v", got)
	}
	if got := buf.Bytes()[20:]; !bytes.Equal(got, []byte{0, 0, 255, 255}) {
		t.Errorf("last pixel = %v", got)
	}

	sub := img.SubImage(image.Rect(1, 0, 3, 2)).(*image.NRGBA)
	buf.Reset()
	if err := writeFrame(&buf, sub, 2, 2); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes()[12:]; !bytes.Equal(got, []byte{0, 0, 255, 255}) {
		t.Errorf("sub-image last pixel = %v", got)
	}

	if err := writeFrame(&buf, img, 4, 2); !errors.Is(err, ErrFrameSize) {
		t.Errorf("writeFrame with wrong size error = %v", err)
	}
}

func TestRecordStreamArgs(t *testing.T) {
	args := recordStream(RecorderOptions{
		Path:   "out.mp4",
		Width:  640,
		Height: 480,
		FPS:    24,
	}, &bytes.Buffer{}).GetArgs()

	joined := strings.Join(args, " ")
	for _, want := range []string{"-f rawvideo", "-pix_fmt rgba", "-s 640x480", "-framerate 24", "-i pipe:", "-c:v libx264", "out.mp4", "-y"} {
		if !strings.Contains(joined, want) {
			t.Errorf("ffmpeg args %q missing %q", joined, want)
		}
	}
}
