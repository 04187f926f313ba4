package service

import (
	"context"
	"image/color"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"
)

// ImageClient exposes one call per worker action. Every call builds a single request and returns the worker's
// response unchanged, including success=false responses.
type ImageClient struct {
	submitter port.Submitter
}

func NewImageClient(submitter port.Submitter) *ImageClient {
	return &ImageClient{submitter: submitter}
}

// Call submits an arbitrary action with the given parameters.
func (c *ImageClient) Call(ctx context.Context, action string, params domain.Envelope) (domain.Envelope, error) {
	req := domain.NewRequest(action)
	for k, v := range params {
		if k == "action" {
			continue
		}
		req[k] = v
	}
	return c.submitter.Submit(ctx, req)
}

func (c *ImageClient) do(ctx context.Context, req domain.Envelope) (domain.Envelope, error) {
	return c.submitter.Submit(ctx, req)
}

func rgb(c color.NRGBA) []int {
	return []int{int(c.R), int(c.G), int(c.B)}
}

func (c *ImageClient) LoadFile(ctx context.Context, path string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionLoadFile).With("file_path", path))
}

func (c *ImageClient) LoadBase64(ctx context.Context, data string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionLoadBase64).With("base64", data))
}

func (c *ImageClient) SaveFile(ctx context.Context, path string, quality int) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionSaveFile).With("output_path", path).With("quality", quality))
}

func (c *ImageClient) GetBase64(ctx context.Context, format string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionGetBase64).With("format", format))
}

func (c *ImageClient) GetInfo(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionGetInfo))
}

func (c *ImageClient) BatchLoad(ctx context.Context, folder string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionBatchLoad).With("folder_path", folder))
}

func (c *ImageClient) Reset(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionReset))
}

func (c *ImageClient) Clear(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionClear))
}

func (c *ImageClient) Thumbnail(ctx context.Context, maxWidth, maxHeight int) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionThumbnail).
		With("max_width", maxWidth).
		With("max_height", maxHeight))
}

func (c *ImageClient) Resize(ctx context.Context, width, height int, keepAspect bool) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionResize).
		With("width", width).
		With("height", height).
		With("keep_aspect", keepAspect))
}

func (c *ImageClient) Rotate(ctx context.Context, angle float64, expand bool, fill color.NRGBA) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionRotate).
		With("angle", angle).
		With("expand", expand).
		With("fill_color", rgb(fill)))
}

func (c *ImageClient) Crop(ctx context.Context, left, top, right, bottom int) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionCrop).
		With("left", left).
		With("top", top).
		With("right", right).
		With("bottom", bottom))
}

func (c *ImageClient) CropCenter(ctx context.Context, width, height int) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionCropCenter).With("width", width).With("height", height))
}

func (c *ImageClient) Flip(ctx context.Context, direction string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionFlip).With("direction", direction))
}

func (c *ImageClient) Grayscale(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionGrayscale))
}

func (c *ImageClient) Brightness(ctx context.Context, factor float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionBrightness).With("factor", factor))
}

func (c *ImageClient) Contrast(ctx context.Context, factor float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionContrast).With("factor", factor))
}

func (c *ImageClient) Saturation(ctx context.Context, factor float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionSaturation).With("factor", factor))
}

func (c *ImageClient) WhiteBalance(ctx context.Context, method string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionWhiteBalance).With("method", method))
}

func (c *ImageClient) ColorTemperature(ctx context.Context, kelvin float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionColorTemperature).With("temperature", kelvin))
}

func (c *ImageClient) HueShift(ctx context.Context, degrees float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionHueShift).With("degrees", degrees))
}

func (c *ImageClient) AutoContrast(ctx context.Context, cutoff float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionAutoContrast).With("cutoff", cutoff))
}

func (c *ImageClient) Equalize(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionEqualize))
}

func (c *ImageClient) Invert(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionInvert))
}

func (c *ImageClient) Sepia(ctx context.Context, intensity float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionSepia).With("intensity", intensity))
}

func (c *ImageClient) Blur(ctx context.Context, radius float64, blurType string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionBlur).With("radius", radius).With("blur_type", blurType))
}

func (c *ImageClient) Sharpen(ctx context.Context, factor float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionSharpen).With("factor", factor))
}

func (c *ImageClient) EdgeDetect(ctx context.Context, method string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionEdgeDetect).With("method", method))
}

func (c *ImageClient) Emboss(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionEmboss))
}

func (c *ImageClient) Pixelate(ctx context.Context, pixelSize int) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionPixelate).With("pixel_size", pixelSize))
}

func (c *ImageClient) Vignette(ctx context.Context, strength float64) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionVignette).With("strength", strength))
}

func (c *ImageClient) ArtEffect(ctx context.Context, effect string) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionArtEffect).With("effect_type", effect))
}

func (c *ImageClient) AddBorder(ctx context.Context, width int, border color.NRGBA) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionAddBorder).
		With("border_width", width).
		With("color", rgb(border)))
}

func (c *ImageClient) ListActions(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionListActions))
}

func (c *ImageClient) Ping(ctx context.Context) (domain.Envelope, error) {
	return c.do(ctx, domain.NewRequest(domain.ActionPing))
}
