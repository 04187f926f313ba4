package domain

import (
	"image"
	"sync"
)

type Mode string

const (
	ModeRGB  Mode = "RGB"
	ModeRGBA Mode = "RGBA"
	ModeGray Mode = "L"
)

const UnknownFormat = "Unknown"

// Picture is a decoded image plus the metadata reported back to the presentation layer.
type Picture struct {
	Image  *image.NRGBA
	Mode   Mode
	Format string
}

// Derive returns a picture sharing p's format with a new pixel buffer and mode.
func (p *Picture) Derive(img *image.NRGBA, mode Mode) *Picture {
	return &Picture{Image: img, Mode: mode, Format: p.Format}
}

func (p *Picture) Clone() *Picture {
	src := p.Image
	dst := &image.NRGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)

	return &Picture{Image: dst, Mode: p.Mode, Format: p.Format}
}

func (p *Picture) Info() ImageInfo {
	format := p.Format
	if format == "" {
		format = UnknownFormat
	}

	b := p.Image.Bounds()
	return ImageInfo{Width: b.Dx(), Height: b.Dy(), Mode: string(p.Mode), Format: format}
}

// ImageState is the worker's current image and the snapshot taken at load time for reset.
type ImageState struct {
	mu       sync.Mutex
	current  *Picture
	original *Picture
}

func (s *ImageState) Load(p *Picture) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = p
	s.original = p.Clone()
}

func (s *ImageState) Current() (*Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, ErrNoImage
	}
	return s.current, nil
}

func (s *ImageState) Replace(p *Picture) {
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}

// Reset replaces the current image with a copy of the original.
func (s *ImageState) Reset() (*Picture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.original == nil {
		return nil, ErrNoOriginal
	}
	s.current = s.original.Clone()
	return s.current, nil
}

func (s *ImageState) Clear() {
	s.mu.Lock()
	s.current = nil
	s.original = nil
	s.mu.Unlock()
}
