package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Grayscale converts to luminance. The result is opaque.
func Grayscale(img image.Image) *image.NRGBA {
	return DropAlpha(imaging.Grayscale(img))
}

// Invert negates the color channels and keeps alpha.
func Invert(img image.Image) *image.NRGBA {
	return imaging.Invert(img)
}

// Sepia applies the classic sepia matrix, blended with the source by intensity.
func Sepia(img image.Image, intensity float64) *image.NRGBA {
	return imaging.AdjustFunc(DropAlpha(img), func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		sr := 0.393*r + 0.769*g + 0.189*b
		sg := 0.349*r + 0.686*g + 0.168*b
		sb := 0.272*r + 0.534*g + 0.131*b
		return color.NRGBA{
			R: truncate(r*(1-intensity) + sr*intensity),
			G: truncate(g*(1-intensity) + sg*intensity),
			B: truncate(b*(1-intensity) + sb*intensity),
			A: 255,
		}
	})
}

// HueShift rotates the hue of every pixel by degrees in HSV space.
func HueShift(img image.Image, degrees float64) *image.NRGBA {
	shift := degrees / 360.0
	return imaging.AdjustFunc(DropAlpha(img), func(c color.NRGBA) color.NRGBA {
		h, s, v := rgbToHSV(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
		h = math.Mod(h+shift, 1.0)
		if h < 0 {
			h++
		}
		r, g, b := hsvToRGB(h, s, v)
		return color.NRGBA{R: clamp(r * 255), G: clamp(g * 255), B: clamp(b * 255), A: 255}
	})
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	v = maxc
	if maxc == minc {
		return 0, 0, v
	}

	s = (maxc - minc) / maxc
	rc := (maxc - r) / (maxc - minc)
	gc := (maxc - g) / (maxc - minc)
	bc := (maxc - b) / (maxc - minc)

	switch {
	case r == maxc:
		h = bc - gc
	case g == maxc:
		h = 2.0 + rc - bc
	default:
		h = 4.0 + gc - rc
	}
	h = math.Mod(h/6.0, 1.0)
	if h < 0 {
		h++
	}
	return h, s, v
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}

	i := math.Floor(h * 6.0)
	f := h*6.0 - i
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// ColorTemperature warms (below 6500K) or cools (above 6500K) the image by scaling red and blue.
func ColorTemperature(img image.Image, kelvin float64) *image.NRGBA {
	var rGain, bGain float64
	if kelvin < 6500 {
		f := (6500 - kelvin) / 4500
		rGain, bGain = 1+0.2*f, 1-0.2*f
	} else {
		f := (kelvin - 6500) / 3500
		rGain, bGain = 1-0.2*f, 1+0.2*f
	}

	return imaging.AdjustFunc(DropAlpha(img), func(c color.NRGBA) color.NRGBA {
		c.R = truncate(float64(c.R) * rGain)
		c.B = truncate(float64(c.B) * bGain)
		return c
	})
}

// WhiteBalance applies gray-world gains so the three channel means become equal.
func WhiteBalance(img image.Image) *image.NRGBA {
	src := DropAlpha(img)

	var sum [3]float64
	n := 0
	for i := 0; i+3 < len(src.Pix); i += 4 {
		sum[0] += float64(src.Pix[i])
		sum[1] += float64(src.Pix[i+1])
		sum[2] += float64(src.Pix[i+2])
		n++
	}
	if n == 0 {
		return src
	}

	mr, mg, mb := sum[0]/float64(n), sum[1]/float64(n), sum[2]/float64(n)
	gray := (mr + mg + mb) / 3
	gains := [3]float64{gray / (mr + 1e-6), gray / (mg + 1e-6), gray / (mb + 1e-6)}

	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := range 3 {
			src.Pix[i+c] = truncate(float64(src.Pix[i+c]) * gains[c])
		}
	}
	return src
}

// AutoContrast stretches every color channel so its darkest and lightest values become 0 and 255. cutoff is the
// percentage of pixels ignored at each end of the histogram. Alpha is kept.
func AutoContrast(img image.Image, cutoff float64) *image.NRGBA {
	dst := imaging.Clone(img)
	total := len(dst.Pix) / 4
	if total == 0 {
		return dst
	}

	var luts [3][256]uint8
	for c := range 3 {
		var hist [256]int
		for i := c; i < len(dst.Pix); i += 4 {
			hist[dst.Pix[i]]++
		}
		luts[c] = stretchLUT(hist, total, cutoff)
	}

	for i := 0; i+3 < len(dst.Pix); i += 4 {
		for c := range 3 {
			dst.Pix[i+c] = luts[c][dst.Pix[i+c]]
		}
	}
	return dst
}

func stretchLUT(hist [256]int, total int, cutoff float64) [256]uint8 {
	var lut [256]uint8

	cut := int(float64(total) * cutoff / 100)
	lo, hi := 0, 255

	for n := 0; lo < 256; lo++ {
		n += hist[lo]
		if n > cut {
			break
		}
	}
	for n := 0; hi >= 0; hi-- {
		n += hist[hi]
		if n > cut {
			break
		}
	}

	if hi <= lo {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	scale := 255.0 / float64(hi-lo)
	offset := -float64(lo) * scale
	for i := range lut {
		lut[i] = clamp(float64(i)*scale + offset)
	}
	return lut
}

// Equalize flattens the histogram of the luma channel. Chroma and alpha are kept.
func Equalize(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	n := len(dst.Pix) / 4
	if n == 0 {
		return dst
	}

	ys := make([]uint8, n)
	cbs := make([]uint8, n)
	crs := make([]uint8, n)
	var hist [256]int
	for i := range n {
		p := dst.Pix[i*4 : i*4+3]
		ys[i], cbs[i], crs[i] = color.RGBToYCbCr(p[0], p[1], p[2])
		hist[ys[i]]++
	}

	lut := equalizeLUT(hist)
	for i := range n {
		r, g, b := color.YCbCrToRGB(lut[ys[i]], cbs[i], crs[i])
		dst.Pix[i*4], dst.Pix[i*4+1], dst.Pix[i*4+2] = r, g, b
	}
	return dst
}

// equalizeLUT spreads the histogram over the full range. The highest non-empty bucket does not count toward the
// step size.
func equalizeLUT(hist [256]int) [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(i)
	}

	var nonZero []int
	for _, h := range hist {
		if h > 0 {
			nonZero = append(nonZero, h)
		}
	}
	if len(nonZero) <= 1 {
		return lut
	}

	total := 0
	for _, h := range nonZero {
		total += h
	}
	step := (total - nonZero[len(nonZero)-1]) / 255
	if step == 0 {
		return lut
	}

	n := step / 2
	for i := range 256 {
		v := n / step
		if v > 255 {
			v = 255
		}
		lut[i] = uint8(v)
		n += hist[i]
	}
	return lut
}
