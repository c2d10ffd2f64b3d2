package testsupport

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Backdrop and Subject are the colours used by SubjectImage.
var (
	Backdrop = color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	Subject  = color.NRGBA{R: 30, G: 90, B: 200, A: 255}
)

// SubjectImage returns a w x h image with a centred subject covering half of
// each dimension on a plain backdrop.
func SubjectImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	inner := image.Rect(w/4, h/4, w-w/4, h-h/4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(inner) {
				img.SetNRGBA(x, y, Subject)
			} else {
				img.SetNRGBA(x, y, Backdrop)
			}
		}
	}
	return img
}

// EncodePNG encodes img or fails the test.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SubjectPNG is SubjectImage encoded as PNG.
func SubjectPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	return EncodePNG(t, SubjectImage(w, h))
}

// WriteImageFile writes a SubjectPNG to path, creating parent directories.
func WriteImageFile(t testing.TB, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, SubjectPNG(t, w, h), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SolidOutputImages returns an opaque mask and cutout of the given size.
func SolidOutputImages(w, h int) (*image.Gray, *image.NRGBA) {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	cutout := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}
	for i := 0; i < len(cutout.Pix); i += 4 {
		cutout.Pix[i] = Subject.R
		cutout.Pix[i+1] = Subject.G
		cutout.Pix[i+2] = Subject.B
		cutout.Pix[i+3] = 255
	}
	return mask, cutout
}

// OversizedPNG returns a grayscale PNG whose header declares w x h pixels but
// carries no image data. Anything that tries to decode it fails, so a limit
// check on the header is the only way to get a size error out of it.
func OversizedPNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth; colour type, compression, filter and interlace stay 0
	writePNGChunk(&buf, "IHDR", ihdr)
	writePNGChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writePNGChunk(buf *bytes.Buffer, kind string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])
	crc := crc32.NewIEEE()
	crc.Write([]byte(kind))
	crc.Write(data)
	buf.WriteString(kind)
	buf.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	buf.Write(n[:])
}
