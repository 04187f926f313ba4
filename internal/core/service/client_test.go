package service

import (
	"context"
	"errors"
	"image/color"
	"picbridge/internal/core/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, request domain.Envelope) (domain.Envelope, error) {
	args := m.Called(ctx, request)
	resp, _ := args.Get(0).(domain.Envelope)
	return resp, args.Error(1)
}

func TestImageClient_BuildsRequests(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, c *ImageClient) (domain.Envelope, error)
		want domain.Envelope
	}{
		{
			name: "brightness",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) { return c.Brightness(ctx, 1.2) },
			want: domain.Envelope{"action": "brightness", "factor": 1.2},
		},
		{
			name: "rotate with fill",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) {
				return c.Rotate(ctx, 45, false, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
			},
			want: domain.Envelope{"action": "rotate", "angle": 45.0, "expand": false, "fill_color": []int{1, 2, 3}},
		},
		{
			name: "crop",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) { return c.Crop(ctx, 1, 2, 30, 40) },
			want: domain.Envelope{"action": "crop", "left": 1, "top": 2, "right": 30, "bottom": 40},
		},
		{
			name: "load file",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) {
				return c.LoadFile(ctx, "/tmp/cat.png")
			},
			want: domain.Envelope{"action": "load_file", "file_path": "/tmp/cat.png"},
		},
		{
			name: "art effect",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) {
				return c.ArtEffect(ctx, "sketch")
			},
			want: domain.Envelope{"action": "art_effect", "effect_type": "sketch"},
		},
		{
			name: "grayscale",
			call: func(ctx context.Context, c *ImageClient) (domain.Envelope, error) { return c.Grayscale(ctx) },
			want: domain.Envelope{"action": "grayscale"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := new(mockSubmitter)
			resp := domain.Success(domain.Envelope{"message": "ok"})
			s.On("Submit", mock.Anything, tc.want).Return(resp, nil).Once()

			got, err := tc.call(t.Context(), NewImageClient(s))
			require.NoError(t, err)
			assert.Equal(t, resp, got)
			s.AssertExpectations(t)
		})
	}
}

func TestImageClient_PassesThroughFailures(t *testing.T) {
	s := new(mockSubmitter)
	c := NewImageClient(s)

	failed := domain.Envelope{"success": false, "error": "no image loaded"}
	s.On("Submit", mock.Anything, domain.Envelope{"action": "invert"}).Return(failed, nil).Once()
	s.On("Submit", mock.Anything, domain.Envelope{"action": "equalize"}).
		Return(nil, domain.ErrTransportUnavailable).Once()

	resp, err := c.Invert(t.Context())
	require.NoError(t, err)
	assert.Equal(t, failed, resp)

	_, err = c.Equalize(t.Context())
	require.True(t, errors.Is(err, domain.ErrTransportUnavailable))
}

func TestImageClient_CallKeepsActionName(t *testing.T) {
	s := new(mockSubmitter)
	c := NewImageClient(s)

	s.On("Submit", mock.Anything, domain.Envelope{"action": "pixelate", "pixel_size": 4}).
		Return(domain.Success(nil), nil).Once()

	_, err := c.Call(t.Context(), "pixelate", domain.Envelope{"action": "blur", "pixel_size": 4})
	require.NoError(t, err)
	s.AssertExpectations(t)
}
