package transform

import (
	"context"
	"image"
	"log/slog"
	"math"
	"slices"

	xdraw "golang.org/x/image/draw"

	"cutout/internal/logging"
	"cutout/internal/queue"
)

const (
	defaultWorkingSize = 1024
	defaultTolerance   = 0.12
	defaultSoftness    = 0.08
	// cancelCheckRows bounds how long the matting loop runs between context checks.
	cancelCheckRows = 64
)

// LocalOptions tunes the border-key matting engine.
type LocalOptions struct {
	// WorkingSize caps the longest edge processed; larger sources are downscaled.
	WorkingSize int
	// Tolerance is the normalized colour distance treated as background.
	Tolerance float64
	// Softness widens the ramp from background to foreground.
	Softness float64
	// MaxPixels rejects sources whose width*height exceeds it.
	MaxPixels int64
	Loader    *Loader
	Logger    *slog.Logger
}

// Local removes backgrounds without a model by keying the dominant border
// colour. It suits product shots and scans on plain backdrops.
type Local struct {
	opts   LocalOptions
	logger *slog.Logger
}

// NewLocal returns a Local engine with defaults applied.
func NewLocal(opts LocalOptions) *Local {
	if opts.WorkingSize <= 0 {
		opts.WorkingSize = defaultWorkingSize
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaultTolerance
	}
	if opts.Softness < 0 {
		opts.Softness = defaultSoftness
	}
	if opts.Loader == nil {
		opts.Loader = NewLoader(nil, 0)
	}
	return &Local{opts: opts, logger: logging.NewComponentLogger(opts.Logger, "transform.local")}
}

// Transform implements Transformer.
func (l *Local) Transform(ctx context.Context, src queue.Source) (Output, error) {
	data, err := l.opts.Loader.Load(ctx, src)
	if err != nil {
		return Output{}, newError("load", "could not read source image", err)
	}
	img, format, err := Decode(data, l.opts.MaxPixels)
	if err != nil {
		return Output{}, newError("decode", decodeMessage(err), err)
	}
	working := downscale(img, l.opts.WorkingSize)
	l.logger.Debug("matting source",
		logging.String("format", format),
		logging.Int("width", img.Bounds().Dx()),
		logging.Int("height", img.Bounds().Dy()),
		logging.Int("working_width", working.Bounds().Dx()),
	)
	mask, err := l.matte(ctx, working)
	if err != nil {
		return Output{}, newError("matte", "background keying aborted", err)
	}
	return compose(img, mask), nil
}

func downscale(img image.Image, limit int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if longest <= limit {
		return ToNRGBA(img)
	}
	scale := float64(limit) / float64(longest)
	tw := max(1, int(math.Round(float64(w)*scale)))
	th := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func (l *Local) matte(ctx context.Context, img *image.NRGBA) (*image.Gray, error) {
	bg := borderColor(img)
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	lo := l.opts.Tolerance
	hi := lo + l.opts.Softness
	for y := 0; y < b.Dy(); y++ {
		if y%cancelCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+4]
			if p[3] == 0 {
				continue
			}
			d := colorDistance(bg, [3]uint8{p[0], p[1], p[2]})
			mask.Pix[y*mask.Stride+x] = uint8(math.Round(ramp(d, lo, hi) * 255))
		}
	}
	return mask, nil
}

// borderColor estimates the backdrop as the per-channel median of the
// outermost ring of pixels.
func borderColor(img *image.NRGBA) [3]uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var rs, gs, bs []uint8
	add := func(x, y int) {
		i := y*img.Stride + x*4
		rs = append(rs, img.Pix[i])
		gs = append(gs, img.Pix[i+1])
		bs = append(bs, img.Pix[i+2])
	}
	for x := 0; x < w; x++ {
		add(x, 0)
		if h > 1 {
			add(x, h-1)
		}
	}
	for y := 1; y < h-1; y++ {
		add(0, y)
		if w > 1 {
			add(w-1, y)
		}
	}
	return [3]uint8{median(rs), median(gs), median(bs)}
}

func median(values []uint8) uint8 {
	if len(values) == 0 {
		return 0
	}
	slices.Sort(values)
	return values[len(values)/2]
}

// colorDistance is the Euclidean RGB distance scaled to [0,1].
func colorDistance(a, b [3]uint8) float64 {
	dr := float64(a[0]) - float64(b[0])
	dg := float64(a[1]) - float64(b[1])
	db := float64(a[2]) - float64(b[2])
	return math.Sqrt(dr*dr+dg*dg+db*db) / (255 * math.Sqrt(3))
}

// ramp maps d to 0 below lo, 1 above hi and a smoothstep in between.
func ramp(d, lo, hi float64) float64 {
	if d <= lo {
		return 0
	}
	if d >= hi {
		return 1
	}
	t := (d - lo) / (hi - lo)
	return t * t * (3 - 2*t)
}
