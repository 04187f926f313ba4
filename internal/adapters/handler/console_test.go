package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"picbridge/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConsole_Run(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		setup     func(r *MockRegistry, ch *MockCmdHandler)
		wantCalls int
		wantReply []string
	}{
		{
			name:  "slash is optional",
			input: "brightness 1.2\n/ping\n",
			setup: func(r *MockRegistry, ch *MockCmdHandler) {
				r.On("Get", "/brightness").Return(ch, nil).Once()
				r.On("Get", "/ping").Return(ch, nil).Once()
				ch.On("Respond", mock.Anything, time.Second, mock.MatchedBy(func(msg *domain.Message) bool {
					return msg.Text == "/brightness 1.2" && msg.ID == 1
				})).Return(nil).Once()
				ch.On("Respond", mock.Anything, time.Second, mock.MatchedBy(func(msg *domain.Message) bool {
					return msg.Text == "/ping" && msg.ID == 2
				})).Return(errors.New("worker is gone")).Once()
			},
			wantCalls: 2,
		},
		{
			name:  "unknown command",
			input: "/sharpen_more\n",
			setup: func(r *MockRegistry, _ *MockCmdHandler) {
				r.On("Get", "/sharpen_more").Return(nil, errors.New("command not found")).Once()
			},
			wantReply: []string{"unknown command /sharpen_more, try /help"},
		},
		{
			name:  "quit stops reading",
			input: "\n   \nquit\n/ping\n",
			setup: func(*MockRegistry, *MockCmdHandler) {},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := new(MockRegistry)
			handler := new(MockCmdHandler)
			reg.cmd = handler
			sender := &MockTextSender{}
			tc.setup(reg, handler)

			var out bytes.Buffer
			err := NewConsole(reg, sender, time.Second).Run(t.Context(), strings.NewReader(tc.input), &out)
			require.NoError(t, err)

			reg.AssertExpectations(t)
			handler.AssertExpectations(t)
			assert.Equal(t, int32(tc.wantCalls), handler.calls.Load())
			assert.Equal(t, tc.wantReply, sender.texts())
			assert.True(t, strings.HasPrefix(out.String(), prompt))
		})
	}
}

func TestConsole_RunStopsOnCancel(t *testing.T) {
	reader, writer := io.Pipe()
	t.Cleanup(func() { _ = writer.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- NewConsole(new(MockRegistry), &MockTextSender{}, time.Second).Run(ctx, reader, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("console did not stop")
	}
}
