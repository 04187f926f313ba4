package action

import (
	"fmt"
	"image/color"
	"picbridge/internal/core/domain"
	"picbridge/internal/filter"
)

const defaultThumbnailSize = 128

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// fillFor maps a fill color into the picture's mode so grayscale images stay gray.
func fillFor(pic *domain.Picture, c color.NRGBA) color.NRGBA {
	if pic.Mode != domain.ModeGray {
		return c
	}
	g := color.GrayModel.Convert(c).(color.Gray)
	return color.NRGBA{R: g.Y, G: g.Y, B: g.Y, A: c.A}
}

func parseThumbnail(request domain.Envelope) (operation, string, error) {
	w, err := request.Int("max_width", defaultThumbnailSize)
	if err != nil {
		return nil, "", err
	}
	h, err := request.Int("max_height", defaultThumbnailSize)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Thumbnail(pic.Image, w, h)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("thumbnail fitted into %dx%d", w, h), nil
}

func parseResize(request domain.Envelope) (operation, string, error) {
	w, err := requireInt(request, "width")
	if err != nil {
		return nil, "", err
	}
	h, err := requireInt(request, "height")
	if err != nil {
		return nil, "", err
	}
	keep, err := request.Bool("keep_aspect", false)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Resize(pic.Image, w, h, keep)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("resized to %dx%d", w, h), nil
}

func parseRotate(request domain.Envelope) (operation, string, error) {
	if !request.Has("angle") {
		return nil, "", fmt.Errorf("missing angle parameter")
	}
	angle, err := request.Float("angle", 0)
	if err != nil {
		return nil, "", err
	}
	expand, err := request.Bool("expand", true)
	if err != nil {
		return nil, "", err
	}
	fill, err := request.Color("fill_color", white)
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		return pic.Derive(filter.Rotate(pic.Image, angle, expand, fillFor(pic, fill)), pic.Mode), nil
	}
	return op, fmt.Sprintf("rotated by %g degrees", angle), nil
}

func parseCrop(request domain.Envelope) (operation, string, error) {
	left, err := request.Int("left", 0)
	if err != nil {
		return nil, "", err
	}
	top, err := request.Int("top", 0)
	if err != nil {
		return nil, "", err
	}
	right, err := requireInt(request, "right")
	if err != nil {
		return nil, "", err
	}
	bottom, err := requireInt(request, "bottom")
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Crop(pic.Image, left, top, right, bottom)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("cropped to (%d, %d, %d, %d)", left, top, right, bottom), nil
}

func parseCropCenter(request domain.Envelope) (operation, string, error) {
	w, err := requireInt(request, "width")
	if err != nil {
		return nil, "", err
	}
	h, err := requireInt(request, "height")
	if err != nil {
		return nil, "", err
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.CropCenter(pic.Image, w, h)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("center cropped to %dx%d", w, h), nil
}

func parseFlip(request domain.Envelope) (operation, string, error) {
	direction, err := requireString(request, "direction")
	if err != nil {
		return nil, "", err
	}
	if direction != filter.FlipHorizontal && direction != filter.FlipVertical {
		return nil, "", fmt.Errorf("unknown flip direction: %s", direction)
	}

	op := func(pic *domain.Picture) (*domain.Picture, error) {
		img, err := filter.Flip(pic.Image, direction)
		if err != nil {
			return nil, err
		}
		return pic.Derive(img, pic.Mode), nil
	}
	return op, fmt.Sprintf("flipped %s", direction), nil
}
