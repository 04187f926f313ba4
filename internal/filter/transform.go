package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const (
	FlipHorizontal = "horizontal"
	FlipVertical   = "vertical"
)

// MaxPixels caps the size of any image an operation may allocate.
const MaxPixels = 1 << 28

func checkSize(width, height int) error {
	if width > MaxPixels || height > MaxPixels || int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("output size %dx%d exceeds the limit of %d pixels", width, height, MaxPixels)
	}
	return nil
}

// Thumbnail shrinks img to fit inside maxWidth x maxHeight keeping the aspect ratio. It never upscales.
func Thumbnail(img image.Image, maxWidth, maxHeight int) (*image.NRGBA, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("thumbnail box must be positive, got %dx%d", maxWidth, maxHeight)
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}

// Resize scales img to width x height. With keepAspect the image is scaled to the largest size that fits the box,
// which may be larger than the source.
func Resize(img image.Image, width, height int, keepAspect bool) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("size must be positive, got %dx%d", width, height)
	}

	if keepAspect {
		b := img.Bounds()
		scale := math.Min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
		width = max(1, int(float64(b.Dx())*scale))
		height = max(1, int(float64(b.Dy())*scale))
	}
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// Rotate turns img counter-clockwise by angle degrees. Uncovered areas are filled with fill. Without expand the
// result keeps the source dimensions.
func Rotate(img image.Image, angle float64, expand bool, fill color.Color) *image.NRGBA {
	rotated := imaging.Rotate(img, angle, fill)
	if expand {
		return rotated
	}

	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), fill)
	return imaging.PasteCenter(canvas, rotated)
}

// Crop cuts out the box (left, top)-(right, bottom). The box may extend past the image; the part outside is
// dropped.
func Crop(img image.Image, left, top, right, bottom int) (*image.NRGBA, error) {
	if right <= left || bottom <= top {
		return nil, fmt.Errorf("invalid crop box (%d, %d, %d, %d)", left, top, right, bottom)
	}

	b := img.Bounds()
	box := image.Rect(left, top, right, bottom).Add(b.Min)
	if !box.Overlaps(b) {
		return nil, fmt.Errorf("crop box (%d, %d, %d, %d) lies outside the %dx%d image",
			left, top, right, bottom, b.Dx(), b.Dy())
	}

	return imaging.Crop(img, box), nil
}

// CropCenter cuts a width x height box around the center.
func CropCenter(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("size must be positive, got %dx%d", width, height)
	}
	if err := checkSize(width, height); err != nil {
		return nil, err
	}

	b := img.Bounds()
	left := (b.Dx() - width) / 2
	top := (b.Dy() - height) / 2
	return Crop(img, left, top, left+width, top+height)
}

func Flip(img image.Image, direction string) (*image.NRGBA, error) {
	switch direction {
	case FlipHorizontal:
		return imaging.FlipH(img), nil
	case FlipVertical:
		return imaging.FlipV(img), nil
	default:
		return nil, fmt.Errorf("unknown flip direction: %s", direction)
	}
}

// AddBorder surrounds img with a border of the given width and color.
func AddBorder(img image.Image, width int, border color.Color) (*image.NRGBA, error) {
	if width < 0 {
		return nil, fmt.Errorf("border width must not be negative, got %d", width)
	}

	b := img.Bounds()
	if width > MaxPixels {
		return nil, fmt.Errorf("border width %d exceeds the limit of %d pixels", width, MaxPixels)
	}
	if err := checkSize(b.Dx()+2*width, b.Dy()+2*width); err != nil {
		return nil, err
	}

	canvas := imaging.New(b.Dx()+2*width, b.Dy()+2*width, border)
	return imaging.Paste(canvas, img, image.Pt(width, width)), nil
}
