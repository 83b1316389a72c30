package backend_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendezvous-app/webclient/pkg/backend"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
)

func TestEventStream_Next(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		": keep-alive",
		"",
		"event: message",
		"id: 1",
		`data: {"type":"connected"}`,
		"",
		`data: {"id":"n1",`,
		`data: "type":"booking_created"}`,
		"",
		`{"type":"heartbeat"}`,
		"retry: 3000",
		"data:{\"id\":\"n2\",\"type\":\"dispute_raised\"}\r",
		"\r",
		`data: {"id":"tail","type":"booking_completed"}`,
	}, "\n")

	s := backend.NewEventStream(io.NopCloser(strings.NewReader(raw)))

	want := []string{
		`{"type":"connected"}`,
		"{\"id\":\"n1\",\n\"type\":\"booking_created\"}",
		`{"type":"heartbeat"}`,
		`{"id":"n2","type":"dispute_raised"}`,
		`{"id":"tail","type":"booking_completed"}`,
	}
	for _, w := range want {
		frame, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, w, string(frame))
	}

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestEventStream_OversizedFrames(t *testing.T) {
	t.Parallel()

	huge := strings.Repeat("x", 1<<20)
	half := strings.Repeat("y", 600*1024)
	raw := strings.Join([]string{
		`data: {"id":"n1","type":"booking_created"}`,
		"",
		`data: {"id":"big","message":"` + huge + `"}`,
		`data: {"still":"part of the dropped event"}`,
		"",
		`data: {"id":"n2","type":"booking_created"}`,
		"",
		`{"id":"bare","message":"` + huge + `"}`,
		`{"id":"n3","type":"booking_created"}`,
		": " + huge,
		`data: "` + half + `"`,
		`data: "` + half + `"`,
		"",
		`data: {"id":"n4","type":"booking_created"}`,
		"",
		`data: {"id":"tail","message":"` + huge + `"}`,
	}, "\n")

	s := backend.NewEventStream(io.NopCloser(strings.NewReader(raw)))

	expect := func(id string) {
		t.Helper()
		frame, err := s.Next()
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"`+id+`","type":"booking_created"}`, string(frame))
	}
	tooLarge := func() {
		t.Helper()
		_, err := s.Next()
		require.ErrorIs(t, err, livechannel.ErrFrameTooLarge)
	}

	expect("n1")
	tooLarge()
	expect("n2")
	tooLarge()
	expect("n3")
	tooLarge()
	expect("n4")
	tooLarge()

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestClient_Dial(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/stream", r.URL.Path)
		assert.Equal(t, "customer", r.URL.Query().Get("role"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer tok_1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"connected\"}\n\n")
		_, _ = io.WriteString(w, "data: {\"id\":\"n1\",\"type\":\"booking_created\"}\n\n")
		w.(http.Flusher).Flush()

		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	stream, err := c.Dial(context.Background(), notifications.RoleCustomer)
	require.NoError(t, err)

	frame, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"connected"}`, string(frame))

	frame, err = stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1","type":"booking_created"}`, string(frame))

	done := make(chan error, 1)
	go func() {
		_, err := stream.Next()
		done <- err
	}()
	require.NoError(t, stream.Close())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not unblock Next")
	}
}

func TestClient_DialRejected(t *testing.T) {
	t.Parallel()

	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))

	_, err := c.Dial(context.Background(), notifications.RoleModel)
	require.ErrorIs(t, err, backend.ErrUnexpectedStatus)
	assert.Equal(t, http.StatusUnauthorized, backend.StatusCode(err))
}

func TestClient_DialHeaderTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := backend.New(backend.Config{
		BaseURL:             srv.URL,
		StreamHeaderTimeout: 50 * time.Millisecond,
	}, backend.WithLogger(logger.Discard()))
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Dial(context.Background(), notifications.RoleCustomer)
	require.ErrorIs(t, err, backend.ErrRequestFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}
