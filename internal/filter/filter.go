// Package filter holds the pixel operations behind the worker actions. Every function takes an image and returns
// a new *image.NRGBA anchored at the origin; inputs are never modified.
package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// luma uses the ITU-R 601-2 weights.
func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func clamp(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// truncate converts like a uint8 cast of a clipped float array.
func truncate(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// blend returns deg + factor*(img-deg) for the color channels. Alpha comes from img. Both images must share
// their bounds.
func blend(img, deg *image.NRGBA, factor float64) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		for c := range 3 {
			d := float64(deg.Pix[i+c])
			dst.Pix[i+c] = clamp(d + factor*(float64(img.Pix[i+c])-d))
		}
	}
	return dst
}

// DropAlpha makes every pixel opaque without compositing, the way an RGBA to RGB conversion discards alpha.
func DropAlpha(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return dst
}

// Flatten composites img onto an opaque background.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// IsGray reports whether every pixel has equal color channels.
func IsGray(img *image.NRGBA) bool {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] != img.Pix[i+1] || img.Pix[i] != img.Pix[i+2] {
			return false
		}
	}
	return true
}
