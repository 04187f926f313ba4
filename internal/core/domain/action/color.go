package action

import (
	"fmt"
	"image"
	"picbridge/internal/core/domain"
	"picbridge/internal/filter"
)

const (
	WhiteBalanceAuto      = "auto"
	WhiteBalanceGrayWorld = "gray_world"

	neutralTemperature = 6500
	minTemperature     = 2000
	maxTemperature     = 10000
)

// factorOp parses the factor of an enhancer. Enhancers keep the picture's mode.
func factorOp(fn func(image.Image, float64) *image.NRGBA, label string, required bool) parseFunc {
	return func(request domain.Envelope) (operation, string, error) {
		if required && !request.Has("factor") {
			return nil, "", fmt.Errorf("missing factor parameter")
		}
		factor, err := request.Float("factor", 1.0)
		if err != nil {
			return nil, "", err
		}
		if factor < 0 {
			return nil, "", fmt.Errorf("factor must not be negative, got %g", factor)
		}

		op := func(pic *domain.Picture) (*domain.Picture, error) {
			return pic.Derive(fn(pic.Image, factor), pic.Mode), nil
		}
		return op, fmt.Sprintf("%s adjusted (factor %g)", label, factor), nil
	}
}

func grayscale(pic *domain.Picture) (*domain.Picture, error) {
	return pic.Derive(filter.Grayscale(pic.Image), domain.ModeGray), nil
}

func invert(pic *domain.Picture) (*domain.Picture, error) {
	mode := domain.ModeRGB
	if pic.Mode == domain.ModeRGBA {
		mode = domain.ModeRGBA
	}
	return pic.Derive(filter.Invert(pic.Image), mode), nil
}

func equalize(pic *domain.Picture) (*domain.Picture, error) {
	return pic.Derive(filter.Equalize(pic.Image), pic.Mode), nil
}

func parseWhiteBalance(request domain.Envelope) (operation, string, error) {
	method, err := request.String("method", WhiteBalanceAuto)
	if err != nil {
		return nil, "", err
	}
	if method != WhiteBalanceAuto && method != WhiteBalanceGrayWorld {
		return nil, "", fmt.Errorf("unknown white balance method: %s", method)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.WhiteBalance(pic.Image), domain.ModeRGB), nil
	}
	return op, "white balance applied", nil
}

func parseColorTemperature(request domain.Envelope) (operation, string, error) {
	kelvin, err := request.Float("temperature", neutralTemperature)
	if err != nil {
		return nil, "", err
	}
	if kelvin < minTemperature || kelvin > maxTemperature {
		return nil, "", fmt.Errorf("temperature must be between %d and %d, got %g", minTemperature, maxTemperature, kelvin)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.ColorTemperature(pic.Image, kelvin), domain.ModeRGB), nil
	}
	return op, fmt.Sprintf("color temperature set to %gK", kelvin), nil
}

func parseHueShift(request domain.Envelope) (operation, string, error) {
	degrees, err := request.Float("degrees", 0)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.HueShift(pic.Image, degrees), domain.ModeRGB), nil
	}
	return op, fmt.Sprintf("hue shifted by %g degrees", degrees), nil
}

func parseAutoContrast(request domain.Envelope) (operation, string, error) {
	cutoff, err := request.Float("cutoff", 0)
	if err != nil {
		return nil, "", err
	}
	if cutoff < 0 || cutoff >= 50 {
		return nil, "", fmt.Errorf("cutoff must be in [0, 50), got %g", cutoff)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.AutoContrast(pic.Image, cutoff), pic.Mode), nil
	}
	return op, "auto contrast applied", nil
}

func parseSepia(request domain.Envelope) (operation, string, error) {
	intensity, err := request.Float("intensity", 1.0)
	if err != nil {
		return nil, "", err
	}
	if intensity < 0 || intensity > 1 {
		return nil, "", fmt.Errorf("intensity must be between 0 and 1, got %g", intensity)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.Sepia(pic.Image, intensity), domain.ModeRGB), nil
	}
	return op, fmt.Sprintf("sepia applied (intensity %g)", intensity), nil
}
