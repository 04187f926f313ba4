package file

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"picbridge/internal/core/domain"
	"picbridge/internal/filter"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// ImageExtensions are the file extensions batch_load picks up.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

// Codec decodes and encodes pictures with imaging. Previews are JPEGs flattened onto white.
type Codec struct {
	previewMaxSize int
	previewQuality int
}

func NewCodec(previewMaxSize, previewQuality int) *Codec {
	return &Codec{previewMaxSize: previewMaxSize, previewQuality: previewQuality}
}

func (c *Codec) Open(path string) (*domain.Picture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return c.Decode(data)
}

func (c *Codec) Decode(data []byte) (*domain.Picture, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to identify image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	pixels := imaging.Clone(img)
	log.Debug().Str("format", format).Int("width", pixels.Bounds().Dx()).Int("height", pixels.Bounds().Dy()).
		Msg("decoded image")

	return &domain.Picture{Image: pixels, Mode: detectMode(img, pixels), Format: strings.ToUpper(format)}, nil
}

func detectMode(src image.Image, pixels *image.NRGBA) domain.Mode {
	switch src.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return domain.ModeGray
	}
	if !pixels.Opaque() {
		return domain.ModeRGBA
	}
	return domain.ModeRGB
}

// Save writes the picture to path in the format implied by its extension. The file is written to a temporary
// name in the target directory first and renamed into place.
func (c *Codec) Save(picture *domain.Picture, path string, quality int) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("unsupported output format %q: %w", filepath.Ext(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s%s", id.String(), filepath.Ext(path)))

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := imaging.Encode(f, encodable(picture.Image, format), format, imaging.JPEGQuality(quality)); err != nil {
		f.Close()
		RemoveTempFile(tmp)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		RemoveTempFile(tmp)
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		RemoveTempFile(tmp)
		return fmt.Errorf("failed to move output file into place: %w", err)
	}

	log.Debug().Str("path", path).Str("format", format.String()).Msg("saved image")
	return nil
}

// Encode returns the picture encoded in the named format (png, jpeg, gif, tiff, bmp).
func (c *Codec) Encode(picture *domain.Picture, format string) ([]byte, error) {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return nil, fmt.Errorf("unsupported format %q: %w", format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, encodable(picture.Image, f), f, imaging.JPEGQuality(c.previewQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview scales the picture down to the preview size and returns it as a base64 JPEG.
func (c *Codec) Preview(picture *domain.Picture) (string, error) {
	img := picture.Image
	b := img.Bounds()
	if b.Dx() > c.previewMaxSize || b.Dy() > c.previewMaxSize {
		img = imaging.Fit(img, c.previewMaxSize, c.previewMaxSize, imaging.Lanczos)
		log.Debug().Int("from_width", b.Dx()).Int("from_height", b.Dy()).
			Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("scaled preview")
	}

	var buf bytes.Buffer
	err := imaging.Encode(&buf, filter.Flatten(img, color.White), imaging.JPEG, imaging.JPEGQuality(c.previewQuality))
	if err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}

	log.Debug().Int("bytes", buf.Len()).Msg("encoded preview")
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ListImages returns the sorted paths of the image files directly inside dir.
func (c *Codec) ListImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a valid folder: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	return files, nil
}

func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range ImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// encodable flattens transparent images for JPEG, which has no alpha channel.
func encodable(img *image.NRGBA, format imaging.Format) image.Image {
	if format == imaging.JPEG && !img.Opaque() {
		return filter.Flatten(img, color.White)
	}
	return img
}
