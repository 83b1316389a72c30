package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

const (
	maxFrameSize   = 1 << 20
	readBufferSize = 64 * 1024
	linePrefix     = 8
)

var _ livechannel.Dialer = (*Client)(nil)

// Dial opens the live notification stream for role.
func (c *Client) Dial(ctx context.Context, role notifications.Role) (livechannel.Stream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/notifications/stream", url.Values{"role": {role.String()}}, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, readAPIError(resp)
	}

	c.logger.DebugContext(ctx, "live stream opened", logger.Role(role))
	return NewEventStream(resp.Body), nil
}

// EventStream reads frames from a text/event-stream body. Each event's data
// lines are joined with "\n". Bare JSON lines outside an event are accepted
// as one frame each. An event or line over the size limit is skipped whole and
// reported as livechannel.ErrFrameTooLarge.
type EventStream struct {
	body io.ReadCloser
	r    *bufio.Reader
	max  int
	once sync.Once
}

func NewEventStream(body io.ReadCloser) *EventStream {
	return &EventStream{body: body, r: bufio.NewReaderSize(body, readBufferSize), max: maxFrameSize}
}

// Next returns the next frame. It returns io.EOF when the server ends the stream.
func (s *EventStream) Next() ([]byte, error) {
	var (
		data      [][]byte
		size      int
		oversized bool
	)
	for {
		line, long, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if oversized {
					return nil, s.tooLarge()
				}
				if len(data) > 0 {
					return bytes.Join(data, []byte("\n")), nil
				}
			}
			return nil, err
		}

		switch {
		case long && bytes.HasPrefix(line, []byte("data:")):
			oversized, data = true, nil
		case long && len(data) == 0 && !oversized && len(line) > 0 && (line[0] == '{' || line[0] == '['):
			return nil, s.tooLarge()
		case long:
			// oversized comment or field we ignore anyway
		case len(line) == 0:
			if oversized {
				return nil, s.tooLarge()
			}
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
		case oversized:
			// rest of an event that is already dropped
		case line[0] == ':':
			// comment, often used as keep-alive
		case bytes.HasPrefix(line, []byte("data:")):
			v := bytes.TrimPrefix(line[len("data:"):], []byte(" "))
			size += len(v) + 1
			if size > s.max {
				oversized, data = true, nil
				continue
			}
			data = append(data, v)
		case len(data) == 0 && (line[0] == '{' || line[0] == '['):
			return line, nil
		default:
			// event:, id:, retry: and unknown fields carry nothing we use
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// the limit is consumed whole and reported with long set; only its first
// linePrefix bytes are returned then.
func (s *EventStream) readLine() ([]byte, bool, error) {
	var (
		line []byte
		long bool
		read bool
	)
	for {
		chunk, err := s.r.ReadSlice('\n')
		read = read || len(chunk) > 0

		switch {
		case long:
		case len(line)+len(chunk) > s.max:
			if n := linePrefix - len(line); n > 0 {
				line = append(line, chunk[:min(n, len(chunk))]...)
			}
			long = true
		default:
			line = append(line, chunk...)
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && read:
			// last line without a terminator
		case err != nil:
			return nil, false, err
		}
		if !long {
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
		}
		return line, long, nil
	}
}

func (s *EventStream) tooLarge() error {
	return fmt.Errorf("%w: over %d bytes", livechannel.ErrFrameTooLarge, s.max)
}

// Close releases the body and unblocks a pending Next.
func (s *EventStream) Close() error {
	var err error
	s.once.Do(func() { err = s.body.Close() })
	return err
}
