package action

import (
	"context"
	"encoding/base64"
	"fmt"
	"picbridge/internal/core/domain"
	"strings"
)

const defaultSaveQuality = 95

type loadFile struct{ ws *Workspace }

func (h loadFile) Name() string { return domain.ActionLoadFile }

func (h loadFile) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	path, err := requireString(request, "file_path")
	if err != nil {
		return nil, err
	}

	pic, err := h.ws.Codec.Open(path)
	if err != nil {
		return nil, err
	}

	h.ws.State.Load(pic)
	return h.ws.show(pic, fmt.Sprintf("loaded %s", path))
}

type loadBase64 struct{ ws *Workspace }

func (h loadBase64) Name() string { return domain.ActionLoadBase64 }

func (h loadBase64) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	encoded, err := requireString(request, "base64")
	if err != nil {
		return nil, err
	}

	// tolerate data URLs
	if i := strings.Index(encoded, ";base64,"); i >= 0 {
		encoded = encoded[i+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}

	pic, err := h.ws.Codec.Decode(data)
	if err != nil {
		return nil, err
	}

	h.ws.State.Load(pic)
	return h.ws.show(pic, fmt.Sprintf("loaded %d bytes", len(data)))
}

type saveFile struct{ ws *Workspace }

func (h saveFile) Name() string { return domain.ActionSaveFile }

func (h saveFile) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	path, err := requireString(request, "output_path")
	if err != nil {
		return nil, err
	}
	quality, err := request.Int("quality", defaultSaveQuality)
	if err != nil {
		return nil, err
	}
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}

	pic, err := h.ws.State.Current()
	if err != nil {
		return nil, err
	}

	if err := h.ws.Codec.Save(pic, path, quality); err != nil {
		return nil, err
	}

	return domain.Envelope{"message": fmt.Sprintf("saved to %s", path), "path": path}, nil
}

type getBase64 struct{ ws *Workspace }

func (h getBase64) Name() string { return domain.ActionGetBase64 }

func (h getBase64) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	format, err := request.String("format", "PNG")
	if err != nil {
		return nil, err
	}

	pic, err := h.ws.State.Current()
	if err != nil {
		return nil, err
	}

	data, err := h.ws.Codec.Encode(pic, format)
	if err != nil {
		return nil, err
	}

	return domain.Envelope{
		"base64": base64.StdEncoding.EncodeToString(data),
		"info":   pic.Info(),
	}, nil
}

type getInfo struct{ ws *Workspace }

func (h getInfo) Name() string { return domain.ActionGetInfo }

func (h getInfo) Handle(_ context.Context, _ domain.Envelope) (domain.Envelope, error) {
	pic, err := h.ws.State.Current()
	if err != nil {
		return nil, err
	}
	return domain.Envelope{"info": pic.Info()}, nil
}

type batchLoad struct{ ws *Workspace }

func (h batchLoad) Name() string { return domain.ActionBatchLoad }

func (h batchLoad) Handle(_ context.Context, request domain.Envelope) (domain.Envelope, error) {
	folder, err := requireString(request, "folder_path")
	if err != nil {
		return nil, err
	}

	files, err := h.ws.Codec.ListImages(folder)
	if err != nil {
		return nil, err
	}

	return domain.Envelope{
		"message": fmt.Sprintf("found %d images", len(files)),
		"files":   files,
		"count":   len(files),
	}, nil
}

type reset struct{ ws *Workspace }

func (h reset) Name() string { return domain.ActionReset }

func (h reset) Handle(_ context.Context, _ domain.Envelope) (domain.Envelope, error) {
	pic, err := h.ws.State.Reset()
	if err != nil {
		return nil, err
	}
	return h.ws.show(pic, "image reset to original")
}

type clearImage struct{ ws *Workspace }

func (h clearImage) Name() string { return domain.ActionClear }

func (h clearImage) Handle(_ context.Context, _ domain.Envelope) (domain.Envelope, error) {
	h.ws.State.Clear()
	return domain.Envelope{"message": "image cleared"}, nil
}
