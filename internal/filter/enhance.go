package filter

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// Brightness scales every color channel by factor. 0 gives black, 1 the original.
func Brightness(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()
	black := imaging.New(b.Dx(), b.Dy(), color.NRGBA{A: 255})
	return blend(src, black, factor)
}

// Contrast moves pixels away from (factor > 1) or toward (factor < 1) the mean gray level.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()

	var sum float64
	n := 0
	for i := 0; i+3 < len(src.Pix); i += 4 {
		sum += float64(uint8(luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2])))
		n++
	}
	mean := uint8(0)
	if n > 0 {
		mean = clamp(sum / float64(n))
	}

	gray := imaging.New(b.Dx(), b.Dy(), color.NRGBA{R: mean, G: mean, B: mean, A: 255})
	return blend(src, gray, factor)
}

// Saturation interpolates between the grayscale image (0) and the original (1).
func Saturation(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	return blend(src, Grayscale(src), factor)
}

// Sharpness interpolates between a smoothed image (0), the original (1) and a sharpened one (> 1).
func Sharpness(img image.Image, factor float64) *image.NRGBA {
	src := imaging.Clone(img)
	smooth := imaging.Convolve3x3(src, smoothKernel, &imaging.ConvolveOptions{Normalize: true})
	return blend(src, smooth, factor)
}
