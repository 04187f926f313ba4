package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	BlurGaussian = "gaussian"
	BlurBox      = "box"
	BlurMotion   = "motion"

	EdgeDefault = "default"
	EdgeEnhance = "enhance"
	EdgeContour = "contour"

	EffectPoster   = "poster"
	EffectSketch   = "sketch"
	EffectOilPaint = "oil_paint"
	EffectCartoon  = "cartoon"
)

var (
	findEdgesKernel = [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}
	edgeEnhanceMoreKernel = [9]float64{
		-1, -1, -1,
		-1, 9, -1,
		-1, -1, -1,
	}
	contourKernel = [9]float64{
		1, 1, 1,
		1, -8, 1,
		1, 1, 1,
	}
	embossKernel = [9]float64{
		-1, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}
)

// Blur softens img. Unknown blur types fall back to a small box blur.
func Blur(img image.Image, radius float64, blurType string) (*image.NRGBA, error) {
	switch blurType {
	case BlurGaussian:
		return imaging.Blur(img, radius), nil
	case BlurBox:
		return boxBlur(img, int(math.Round(radius))), nil
	case BlurMotion:
		taps := int(radius)
		if taps < 1 {
			return nil, fmt.Errorf("motion blur needs a radius of at least 1, got %v", radius)
		}
		return motionBlur(img, taps), nil
	default:
		return boxBlur(img, 2), nil
	}
}

// boxBlur averages every pixel over a (2r+1) square window, clamping at the edges.
func boxBlur(img image.Image, r int) *image.NRGBA {
	src := imaging.Clone(img)
	if r <= 0 {
		return src
	}
	return horizontalMean(verticalMean(src, r), -r, r)
}

// motionBlur averages taps pixels along the horizontal axis.
func motionBlur(img image.Image, taps int) *image.NRGBA {
	src := imaging.Clone(img)
	lo := -(taps / 2)
	return horizontalMean(src, lo, lo+taps-1)
}

func horizontalMean(src *image.NRGBA, from, to int) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := float64(to - from + 1)

	for y := range h {
		row := src.Pix[y*src.Stride:]
		for x := range w {
			var sum [4]float64
			for k := from; k <= to; k++ {
				xx := min(max(x+k, 0), w-1)
				for c := range 4 {
					sum[c] += float64(row[xx*4+c])
				}
			}
			for c := range 4 {
				dst.Pix[y*dst.Stride+x*4+c] = clamp(sum[c] / n)
			}
		}
	}
	return dst
}

func verticalMean(src *image.NRGBA, r int) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := float64(2*r + 1)

	for y := range h {
		for x := range w {
			var sum [4]float64
			for k := -r; k <= r; k++ {
				yy := min(max(y+k, 0), h-1)
				for c := range 4 {
					sum[c] += float64(src.Pix[yy*src.Stride+x*4+c])
				}
			}
			for c := range 4 {
				dst.Pix[y*dst.Stride+x*4+c] = clamp(sum[c] / n)
			}
		}
	}
	return dst
}

// EdgeDetect runs one of the 3x3 edge kernels. Unknown methods use the default kernel.
func EdgeDetect(img image.Image, method string) *image.NRGBA {
	switch method {
	case EdgeEnhance:
		return imaging.Convolve3x3(img, edgeEnhanceMoreKernel, nil)
	case EdgeContour:
		return imaging.Convolve3x3(img, contourKernel, &imaging.ConvolveOptions{Bias: 255})
	default:
		return imaging.Convolve3x3(img, findEdgesKernel, nil)
	}
}

func Emboss(img image.Image) *image.NRGBA {
	return imaging.Convolve3x3(img, embossKernel, &imaging.ConvolveOptions{Bias: 128})
}

// Pixelate shrinks img by pixelSize with nearest-neighbour sampling and scales it back up.
func Pixelate(img image.Image, pixelSize int) (*image.NRGBA, error) {
	if pixelSize < 1 {
		return nil, fmt.Errorf("pixel size must be at least 1, got %d", pixelSize)
	}

	b := img.Bounds()
	w, h := b.Dx()/pixelSize, b.Dy()/pixelSize
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("pixel size %d is larger than the %dx%d image", pixelSize, b.Dx(), b.Dy())
	}

	small := imaging.Resize(img, w, h, imaging.NearestNeighbor)
	return imaging.Resize(small, b.Dx(), b.Dy(), imaging.NearestNeighbor), nil
}

// Vignette darkens the image toward its edges. The center keeps full brightness and the border of the inscribed
// ellipse, as well as everything outside it, is scaled by 1-strength.
func Vignette(img image.Image, strength float64) *image.NRGBA {
	dst := DropAlpha(img)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h)/2

	for y := range h {
		dy := (float64(y) + 0.5 - cy) / cy
		for x := range w {
			dx := (float64(x) + 0.5 - cx) / cx
			d := math.Min(math.Sqrt(dx*dx+dy*dy), 1)
			factor := 1 - strength*d

			i := y*dst.Stride + x*4
			for c := range 3 {
				dst.Pix[i+c] = truncate(float64(dst.Pix[i+c]) * factor)
			}
		}
	}
	return dst
}

// Posterize keeps the top bits of every color channel.
func Posterize(img image.Image, bits uint) *image.NRGBA {
	mask := ^uint8(1<<(8-bits) - 1)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R &= mask
		c.G &= mask
		c.B &= mask
		return c
	})
}

// ArtEffect applies one of the stylised effects.
func ArtEffect(img image.Image, effect string) (*image.NRGBA, error) {
	switch effect {
	case EffectPoster:
		return Posterize(DropAlpha(img), 3), nil
	case EffectSketch:
		return sketch(img), nil
	case EffectOilPaint:
		return EdgeDetect(modeFilter(img, 2), EdgeEnhance), nil
	case EffectCartoon:
		return cartoon(img), nil
	default:
		return nil, fmt.Errorf("unknown effect type: %s", effect)
	}
}

func sketch(img image.Image) *image.NRGBA {
	gray := Grayscale(img)
	blurred := imaging.Blur(Invert(gray), 21)
	return blend(Invert(blurred), gray, 0.5)
}

func cartoon(img image.Image) *image.NRGBA {
	mask := Invert(EdgeDetect(Grayscale(img), EdgeDefault))
	posterized := Posterize(DropAlpha(img), 4)

	dst := imaging.Clone(posterized)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		m := float64(mask.Pix[i]) / 255
		for c := range 3 {
			dst.Pix[i+c] = clamp(float64(posterized.Pix[i+c])*m + 255*(1-m))
		}
	}
	return dst
}

// modeFilter replaces each channel value with the most frequent value in a (2r+1) window. A pixel whose
// neighbourhood has no repeated value is left unchanged.
func modeFilter(img image.Image, r int) *image.NRGBA {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := imaging.Clone(src)

	var hist [256]int
	for y := range h {
		for x := range w {
			for c := range 3 {
				best, bestCount := 0, 1
				for yy := max(y-r, 0); yy <= min(y+r, h-1); yy++ {
					for xx := max(x-r, 0); xx <= min(x+r, w-1); xx++ {
						v := int(src.Pix[yy*src.Stride+xx*4+c])
						hist[v]++
						if hist[v] > bestCount {
							best, bestCount = v, hist[v]
						}
					}
				}
				if bestCount > 1 {
					dst.Pix[y*dst.Stride+x*4+c] = uint8(best)
				}
				for yy := max(y-r, 0); yy <= min(y+r, h-1); yy++ {
					for xx := max(x-r, 0); xx <= min(x+r, w-1); xx++ {
						hist[src.Pix[yy*src.Stride+xx*4+c]] = 0
					}
				}
			}
		}
	}
	return dst
}
