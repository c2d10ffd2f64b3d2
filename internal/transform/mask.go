package transform

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// ResizeMask scales mask to w x h with Catmull-Rom resampling. A mask already
// at the target size is returned unchanged.
func ResizeMask(mask *image.Gray, w, h int) *image.Gray {
	b := mask.Bounds()
	if b.Dx() == w && b.Dy() == h && b.Min == (image.Point{}) {
		return mask
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), mask, b, xdraw.Src, nil)
	return dst
}

// GrayMask converts an arbitrary image into a mask. Images carrying real
// transparency contribute their alpha channel; opaque images contribute
// luminance.
func GrayMask(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	useAlpha := hasTransparency(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.At(x, y)
			var v uint8
			if useAlpha {
				_, _, _, a := c.RGBA()
				v = uint8(a >> 8)
			} else {
				v = color.GrayModel.Convert(c).(color.Gray).Y
			}
			out.Pix[(y-b.Min.Y)*out.Stride+(x-b.Min.X)] = v
		}
	}
	return out
}

func hasTransparency(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}

// ToNRGBA copies img into a fresh NRGBA with origin (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// ApplyMask returns a copy of src whose alpha is the product of the source
// alpha and the mask. mask must match the source dimensions.
func ApplyMask(src image.Image, mask *image.Gray) *image.NRGBA {
	out := ToNRGBA(src)
	b := out.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := out.Pix[y*out.Stride:]
		mrow := mask.Pix[y*mask.Stride:]
		for x := 0; x < b.Dx(); x++ {
			a := uint16(row[x*4+3]) * uint16(mrow[x])
			row[x*4+3] = uint8((a + 127) / 255)
		}
	}
	return out
}

func compose(src image.Image, mask *image.Gray) Output {
	b := src.Bounds()
	mask = ResizeMask(mask, b.Dx(), b.Dy())
	return Output{
		Mask:   mask,
		Cutout: ApplyMask(src, mask),
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}
