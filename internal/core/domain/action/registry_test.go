package action

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"picbridge/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCodec struct {
	opened  []string
	decoded [][]byte
	saved   map[string]int
	encoded []string
	folders map[string][]string
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{saved: map[string]int{}, folders: map[string][]string{}}
}

func testPicture(mode domain.Mode) *domain.Picture {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 100, 50, 255
	}
	if mode == domain.ModeRGBA {
		img.Pix[3] = 10
	}
	return &domain.Picture{Image: img, Mode: mode, Format: "PNG"}
}

func (c *fakeCodec) Open(path string) (*domain.Picture, error) {
	if path == "/missing.png" {
		return nil, errors.New("failed to read image: no such file")
	}
	c.opened = append(c.opened, path)
	if path == "/alpha.png" {
		return testPicture(domain.ModeRGBA), nil
	}
	return testPicture(domain.ModeRGB), nil
}

func (c *fakeCodec) Decode(data []byte) (*domain.Picture, error) {
	c.decoded = append(c.decoded, data)
	return testPicture(domain.ModeRGB), nil
}

func (c *fakeCodec) Save(_ *domain.Picture, path string, quality int) error {
	c.saved[path] = quality
	return nil
}

func (c *fakeCodec) Encode(_ *domain.Picture, format string) ([]byte, error) {
	c.encoded = append(c.encoded, format)
	return []byte("encoded"), nil
}

func (c *fakeCodec) Preview(_ *domain.Picture) (string, error) {
	return "cHJldmlldw==", nil
}

func (c *fakeCodec) ListImages(dir string) ([]string, error) {
	files, ok := c.folders[dir]
	if !ok {
		return nil, errors.New("folder does not exist")
	}
	return files, nil
}

func newTestRegistry() (*Registry, *Workspace, *fakeCodec) {
	codec := newFakeCodec()
	ws := NewWorkspace(codec, "worker-1")
	return NewRegistry(ws), ws, codec
}

func dispatch(t *testing.T, r *Registry, request domain.Envelope) domain.Envelope {
	t.Helper()
	return r.Dispatch(context.Background(), request)
}

func load(t *testing.T, r *Registry, path string) {
	t.Helper()
	resp := dispatch(t, r, domain.NewRequest(domain.ActionLoadFile).With("file_path", path))
	require.True(t, resp.Success(), resp.ErrorMessage())
}

func TestNewRegistry_CoversCatalog(t *testing.T) {
	r, _, _ := newTestRegistry()

	for _, spec := range domain.Catalog {
		_, err := r.Get(spec.Name)
		assert.NoError(t, err, spec.Name)
	}
	assert.Len(t, r.Names(), len(domain.Catalog))
}

func TestRegistry_Get(t *testing.T) {
	var empty Registry
	_, err := empty.Get(domain.ActionPing)
	require.Error(t, err)

	r, _, _ := newTestRegistry()
	_, err = r.Get("nope")
	require.EqualError(t, err, "unknown action: nope")
}

func TestRegistry_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		loadFirst string
		request   domain.Envelope
		wantOK    bool
		wantError string
	}{
		{
			name:      "unknown action",
			request:   domain.NewRequest("sharpen_more"),
			wantError: "unknown action: sharpen_more",
		},
		{
			name:      "missing action",
			request:   domain.Envelope{"factor": 1.0},
			wantError: "unknown action: ",
		},
		{
			name:      "mutation without image",
			request:   domain.NewRequest(domain.ActionInvert),
			wantError: "no image loaded",
		},
		{
			name:      "parameters are checked before the image",
			request:   domain.NewRequest(domain.ActionBrightness),
			wantError: "missing factor parameter",
		},
		{
			name:      "wrong parameter type",
			loadFirst: "/cat.png",
			request:   domain.NewRequest(domain.ActionBrightness).With("factor", "bright"),
			wantError: "parameter factor must be a number",
		},
		{
			name:      "filter error is reported",
			loadFirst: "/cat.png",
			request:   domain.NewRequest(domain.ActionArtEffect).With("effect_type", "watercolor"),
			wantError: "unknown effect type: watercolor",
		},
		{
			name:      "load failure",
			request:   domain.NewRequest(domain.ActionLoadFile).With("file_path", "/missing.png"),
			wantError: "failed to read image: no such file",
		},
		{
			name:      "missing file path",
			request:   domain.NewRequest(domain.ActionLoadFile),
			wantError: "missing file_path parameter",
		},
		{
			name:      "bad flip direction",
			loadFirst: "/cat.png",
			request:   domain.NewRequest(domain.ActionFlip).With("direction", "diagonal"),
			wantError: "unknown flip direction: diagonal",
		},
		{
			name:      "brightness",
			loadFirst: "/cat.png",
			request:   domain.NewRequest(domain.ActionBrightness).With("factor", 1.2),
			wantOK:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newTestRegistry()
			if tc.loadFirst != "" {
				load(t, r, tc.loadFirst)
			}

			resp := dispatch(t, r, tc.request)

			assert.Equal(t, tc.wantOK, resp.Success())
			if tc.wantOK {
				assert.NotEmpty(t, resp.Message())
				assert.NotEmpty(t, resp.Preview())
				_, ok := resp.Info()
				assert.True(t, ok)
				return
			}
			assert.Equal(t, tc.wantError, resp.ErrorMessage())
		})
	}
}

type panicking struct{}

func (panicking) Name() string { return "explode" }

func (panicking) Handle(context.Context, domain.Envelope) (domain.Envelope, error) {
	panic("boom")
}

func TestRegistry_DispatchRecoversPanics(t *testing.T) {
	r := &Registry{}
	r.Register(panicking{})

	resp := dispatch(t, r, domain.NewRequest("explode"))
	assert.False(t, resp.Success())
	assert.Equal(t, "internal error: boom", resp.ErrorMessage())
}

func TestMutations_TrackMode(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		request  domain.Envelope
		wantMode domain.Mode
	}{
		{"grayscale", "/cat.png", domain.NewRequest(domain.ActionGrayscale), domain.ModeGray},
		{"invert keeps alpha", "/alpha.png", domain.NewRequest(domain.ActionInvert), domain.ModeRGBA},
		{"sepia", "/alpha.png", domain.NewRequest(domain.ActionSepia), domain.ModeRGB},
		{"hue shift", "/alpha.png", domain.NewRequest(domain.ActionHueShift).With("degrees", 90.0), domain.ModeRGB},
		{"blur keeps mode", "/alpha.png", domain.NewRequest(domain.ActionBlur), domain.ModeRGBA},
		{"sketch", "/cat.png", domain.NewRequest(domain.ActionArtEffect).With("effect_type", "sketch"), domain.ModeGray},
		{"poster", "/alpha.png", domain.NewRequest(domain.ActionArtEffect).With("effect_type", "poster"), domain.ModeRGB},
		{"vignette", "/alpha.png", domain.NewRequest(domain.ActionVignette), domain.ModeRGB},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, ws, _ := newTestRegistry()
			load(t, r, tc.source)

			resp := dispatch(t, r, tc.request)
			require.True(t, resp.Success(), resp.ErrorMessage())

			info, ok := resp.Info()
			require.True(t, ok)
			assert.Equal(t, string(tc.wantMode), info.Mode)
			assert.Equal(t, "PNG", info.Format)

			current, err := ws.State.Current()
			require.NoError(t, err)
			assert.Equal(t, tc.wantMode, current.Mode)
		})
	}
}

func TestTransforms_ChangeSize(t *testing.T) {
	tests := []struct {
		name          string
		request       domain.Envelope
		width, height int
	}{
		{"thumbnail never upscales", domain.NewRequest(domain.ActionThumbnail), 8, 6},
		{"thumbnail", domain.NewRequest(domain.ActionThumbnail).With("max_width", 4).With("max_height", 4), 4, 3},
		{"resize", domain.NewRequest(domain.ActionResize).With("width", 16).With("height", 2), 16, 2},
		{"crop", domain.NewRequest(domain.ActionCrop).With("right", 4).With("bottom", 3), 4, 3},
		{"crop center", domain.NewRequest(domain.ActionCropCenter).With("width", 2).With("height", 2), 2, 2},
		{"rotate expands", domain.NewRequest(domain.ActionRotate).With("angle", 90.0), 6, 8},
		{"rotate in place", domain.NewRequest(domain.ActionRotate).With("angle", 90.0).With("expand", false), 8, 6},
		{"border", domain.NewRequest(domain.ActionAddBorder).With("border_width", 2), 12, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newTestRegistry()
			load(t, r, "/cat.png")

			resp := dispatch(t, r, tc.request)
			require.True(t, resp.Success(), resp.ErrorMessage())

			info, _ := resp.Info()
			assert.Equal(t, tc.width, info.Width)
			assert.Equal(t, tc.height, info.Height)
		})
	}
}

func TestTransforms_RejectOversizedOutput(t *testing.T) {
	tests := []struct {
		name    string
		request domain.Envelope
	}{
		{"resize", domain.NewRequest(domain.ActionResize).With("width", 200000).With("height", 200000)},
		{"resize keeping aspect", domain.NewRequest(domain.ActionResize).
			With("width", 200000).With("height", 200000).With("keep_aspect", true)},
		{"border", domain.NewRequest(domain.ActionAddBorder).With("border_width", 100000)},
		{"crop center", domain.NewRequest(domain.ActionCropCenter).With("width", 1<<30).With("height", 1<<30)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, _ := newTestRegistry()
			load(t, r, "/cat.png")

			resp := dispatch(t, r, tc.request)
			assert.False(t, resp.Success())
			assert.Contains(t, resp.ErrorMessage(), "exceeds the limit")

			resp = dispatch(t, r, domain.NewRequest(domain.ActionGetInfo))
			require.True(t, resp.Success(), resp.ErrorMessage())
			info, _ := resp.Info()
			assert.Equal(t, 8, info.Width)
			assert.Equal(t, 6, info.Height)
		})
	}
}

func TestResetRestoresOriginal(t *testing.T) {
	r, ws, _ := newTestRegistry()

	resp := dispatch(t, r, domain.NewRequest(domain.ActionReset))
	assert.False(t, resp.Success())

	load(t, r, "/cat.png")
	require.True(t, dispatch(t, r, domain.NewRequest(domain.ActionGrayscale)).Success())

	resp = dispatch(t, r, domain.NewRequest(domain.ActionReset))
	require.True(t, resp.Success(), resp.ErrorMessage())
	assert.NotEmpty(t, resp.Preview())

	current, err := ws.State.Current()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeRGB, current.Mode)
	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, current.Image.NRGBAAt(0, 0))
}

func TestClear(t *testing.T) {
	r, _, _ := newTestRegistry()
	load(t, r, "/cat.png")

	resp := dispatch(t, r, domain.NewRequest(domain.ActionClear))
	require.True(t, resp.Success())

	resp = dispatch(t, r, domain.NewRequest(domain.ActionGetInfo))
	assert.Equal(t, "no image loaded", resp.ErrorMessage())
}

func TestFileActions(t *testing.T) {
	r, _, codec := newTestRegistry()
	codec.folders["/photos"] = []string{"/photos/a.jpg", "/photos/b.png"}

	resp := dispatch(t, r, domain.NewRequest(domain.ActionBatchLoad).With("folder_path", "/photos"))
	require.True(t, resp.Success())
	assert.Equal(t, 2, resp["count"])
	assert.Equal(t, []string{"/photos/a.jpg", "/photos/b.png"}, resp["files"])

	resp = dispatch(t, r, domain.NewRequest(domain.ActionSaveFile).With("output_path", "/out/cat.jpg"))
	assert.Equal(t, "no image loaded", resp.ErrorMessage())

	load(t, r, "/cat.png")

	resp = dispatch(t, r, domain.NewRequest(domain.ActionSaveFile).With("output_path", "/out/cat.jpg"))
	require.True(t, resp.Success(), resp.ErrorMessage())
	assert.Equal(t, "/out/cat.jpg", resp["path"])
	assert.Equal(t, 95, codec.saved["/out/cat.jpg"])

	resp = dispatch(t, r, domain.NewRequest(domain.ActionSaveFile).
		With("output_path", "/out/low.jpg").
		With("quality", 20.0))
	require.True(t, resp.Success(), resp.ErrorMessage())
	assert.Equal(t, 20, codec.saved["/out/low.jpg"])

	resp = dispatch(t, r, domain.NewRequest(domain.ActionGetBase64))
	require.True(t, resp.Success(), resp.ErrorMessage())
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("encoded")), resp["base64"])
	assert.Equal(t, []string{"PNG"}, codec.encoded)

	resp = dispatch(t, r, domain.NewRequest(domain.ActionGetInfo))
	require.True(t, resp.Success())
	info, _ := resp.Info()
	assert.Equal(t, domain.ImageInfo{Width: 8, Height: 6, Mode: "RGB", Format: "PNG"}, info)
}

func TestLoadBase64(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		want      []byte
		wantError string
	}{
		{name: "plain", data: base64.StdEncoding.EncodeToString([]byte("png bytes")), want: []byte("png bytes")},
		{
			name: "data url",
			data: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes")),
			want: []byte("png bytes"),
		},
		{name: "garbage", data: "!!!", wantError: "invalid base64 data"},
		{name: "empty", data: "", wantError: "missing base64 parameter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, codec := newTestRegistry()

			resp := dispatch(t, r, domain.NewRequest(domain.ActionLoadBase64).With("base64", tc.data))
			if tc.wantError != "" {
				assert.False(t, resp.Success())
				assert.Contains(t, resp.ErrorMessage(), tc.wantError)
				return
			}

			require.True(t, resp.Success(), resp.ErrorMessage())
			assert.Equal(t, [][]byte{tc.want}, codec.decoded)
		})
	}
}

func TestSystemActions(t *testing.T) {
	r, _, _ := newTestRegistry()

	resp := dispatch(t, r, domain.NewRequest(domain.ActionPing))
	require.True(t, resp.Success())
	assert.Equal(t, "pong", resp.Message())
	assert.Equal(t, "running", resp["status"])
	assert.Equal(t, "worker-1", resp["worker_id"])

	resp = dispatch(t, r, domain.NewRequest(domain.ActionListActions))
	require.True(t, resp.Success())
	actions, ok := resp["actions"].(map[string]map[string]any)
	require.True(t, ok)
	assert.Contains(t, actions, domain.CategoryColor)
	assert.Contains(t, actions[domain.CategoryColor], domain.ActionBrightness)
}
