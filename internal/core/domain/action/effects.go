package action

import (
	"fmt"
	"image/color"
	"picbridge/internal/core/domain"
	"picbridge/internal/filter"
)

const (
	defaultBlurRadius  = 2.0
	defaultPixelSize   = 10
	defaultVignette    = 0.5
	defaultBorderWidth = 10
)

var black = color.NRGBA{A: 255}

func parseBlur(request domain.Envelope) (operation, string, error) {
	radius, err := request.Float("radius", defaultBlurRadius)
	if err != nil {
		return nil, "", err
	}
	if radius < 0 {
		return nil, "", fmt.Errorf("radius must not be negative, got %g", radius)
	}
	blurType, err := request.String("blur_type", filter.BlurGaussian)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Blur(pic.Image, radius, blurType)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("%s blur applied (radius %g)", blurType, radius), nil
}

func parseEdgeDetect(request domain.Envelope) (operation, string, error) {
	method, err := request.String("method", filter.EdgeDefault)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.EdgeDetect(pic.Image, method), pic.Mode), nil
	}
	return op, fmt.Sprintf("edge detection applied (%s)", method), nil
}

func emboss(pic *domain.Picture) (*domain.Picture, error) {
	return pic.Derive(filter.Emboss(pic.Image), pic.Mode), nil
}

func parsePixelate(request domain.Envelope) (operation, string, error) {
	size, err := request.Int("pixel_size", defaultPixelSize)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Pixelate(pic.Image, size)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("pixelated (size %d)", size), nil
}

func parseVignette(request domain.Envelope) (operation, string, error) {
	strength, err := request.Float("strength", defaultVignette)
	if err != nil {
		return nil, "", err
	}
	if strength < 0 || strength > 1 {
		return nil, "", fmt.Errorf("strength must be between 0 and 1, got %g", strength)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.Vignette(pic.Image, strength), domain.ModeRGB), nil
	}
	return op, fmt.Sprintf("vignette applied (strength %g)", strength), nil
}

func parseArtEffect(request domain.Envelope) (operation, string, error) {
	effect, err := requireString(request, "effect_type")
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.ArtEffect(pic.Image, effect)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, artEffectMode(effect, pic.Mode)), nil
	}
	return op, fmt.Sprintf("%s effect applied", effect), nil
}

func artEffectMode(effect string, current domain.Mode) domain.Mode {
	switch effect {
	case filter.EffectSketch:
		return domain.ModeGray
	case filter.EffectOilPaint:
		return current
	default:
		return domain.ModeRGB
	}
}

func parseAddBorder(request domain.Envelope) (operation, string, error) {
	width, err := request.Int("border_width", defaultBorderWidth)
	if err != nil {
		return nil, "", err
	}
	border, err := request.Color("color", black)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.AddBorder(pic.Image, width, fillFor(pic, border))
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("added %dpx border", width), nil
}
