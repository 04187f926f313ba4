package ipc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"picbridge/internal/core/domain"
	"picbridge/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Server is the worker end of the line protocol: one JSON request per line on in, exactly one JSON response per
// line on out, handled strictly in order.
type Server struct {
	dispatcher port.Dispatcher
}

func NewServer(dispatcher port.Dispatcher) *Server {
	return &Server{dispatcher: dispatcher}
}

// Serve processes requests until in reaches EOF. A trailing line without a newline is ignored. Serve returns nil
// on EOF and the read or write error otherwise.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	writer := bufio.NewWriter(out)

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(bytes.TrimSpace(line)) > 0 {
					log.Warn().Int("bytes", len(line)).Msg("ignoring unterminated request")
				}
				log.Info().Msg("EOF received, shutting down")
				return nil
			}
			return fmt.Errorf("failed reading request: %w", err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		resp := s.handle(ctx, line)

		if err := encoder.Encode(resp); err != nil {
			// an unencodable response still has to occupy its line
			log.Error().Err(err).Str("action", resp.Action()).Msg("failed encoding response")
			if err := encoder.Encode(domain.Failure(fmt.Errorf("failed encoding response: %w", err))); err != nil {
				return fmt.Errorf("failed writing response: %w", err)
			}
		}
		if err := writer.Flush(); err != nil {
			return fmt.Errorf("failed writing response: %w", err)
		}
	}
}

func (s *Server) handle(ctx context.Context, line []byte) domain.Envelope {
	var request domain.Envelope
	if err := json.Unmarshal(line, &request); err != nil {
		log.Warn().Err(err).Msg("received invalid request")
		return domain.Failure(fmt.Errorf("invalid JSON: %w", err))
	}
	if request == nil {
		return domain.Failure(errors.New("invalid JSON: request must be an object"))
	}

	log.Debug().Str("action", request.Action()).Msg("received request")
	return s.dispatcher.Dispatch(ctx, request)
}
