package action

import (
	"context"
	"picbridge/internal/core/domain"
	"picbridge/internal/filter"
)

type ping struct{ ws *Workspace }

func (h ping) Name() string { return domain.ActionPing }

func (h ping) Handle(_ context.Context, _ domain.Envelope) (domain.Envelope, error) {
	return domain.Envelope{"message": "pong", "status": "running", "worker_id": h.ws.WorkerID}, nil
}

type listActions struct{}

func (listActions) Name() string { return domain.ActionListActions }

func (listActions) Handle(_ context.Context, _ domain.Envelope) (domain.Envelope, error) {
	return domain.Envelope{"actions": domain.Describe()}, nil
}

// NewRegistry returns a registry with a handler for every action of the catalog, bound to ws.
func NewRegistry(ws *Workspace) *Registry {
	r := &Registry{}

	for _, h := range []Handler{
		loadFile{ws}, loadBase64{ws}, saveFile{ws}, getBase64{ws},
		getInfo{ws}, batchLoad{ws}, reset{ws}, clearImage{ws},
		ping{ws}, listActions{},
	} {
		r.Register(h)
	}

	mutations := map[string]parseFunc{
		domain.ActionThumbnail:  parseThumbnail,
		domain.ActionResize:     parseResize,
		domain.ActionRotate:     parseRotate,
		domain.ActionCrop:       parseCrop,
		domain.ActionCropCenter: parseCropCenter,
		domain.ActionFlip:       parseFlip,

		domain.ActionGrayscale:        simple(grayscale, "converted to grayscale"),
		domain.ActionBrightness:       factorOp(filter.Brightness, "brightness", true),
		domain.ActionContrast:         factorOp(filter.Contrast, "contrast", true),
		domain.ActionSaturation:       factorOp(filter.Saturation, "saturation", true),
		domain.ActionWhiteBalance:     parseWhiteBalance,
		domain.ActionColorTemperature: parseColorTemperature,
		domain.ActionHueShift:         parseHueShift,
		domain.ActionAutoContrast:     parseAutoContrast,
		domain.ActionEqualize:         simple(equalize, "histogram equalized"),
		domain.ActionInvert:           simple(invert, "colors inverted"),
		domain.ActionSepia:            parseSepia,

		domain.ActionBlur:       parseBlur,
		domain.ActionSharpen:    factorOp(filter.Sharpness, "sharpness", false),
		domain.ActionEdgeDetect: parseEdgeDetect,
		domain.ActionEmboss:     simple(emboss, "emboss applied"),
		domain.ActionPixelate:   parsePixelate,
		domain.ActionVignette:   parseVignette,
		domain.ActionArtEffect:  parseArtEffect,
		domain.ActionAddBorder:  parseAddBorder,
	}
	for name, parse := range mutations {
		r.Register(newMutation(ws, name, parse))
	}

	return r
}
