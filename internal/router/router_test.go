package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hovershell/core/internal/events"
	"github.com/hovershell/core/internal/infrastructure/config"
	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/provider"
	"github.com/hovershell/core/internal/session"
	"github.com/hovershell/core/internal/shared/types"
)

type captureTransport struct {
	writes []string
}

func (t *captureTransport) Write(p []byte) error {
	t.writes = append(t.writes, string(p))
	return nil
}
func (t *captureTransport) Resize(cols, rows int) error { return nil }
func (t *captureTransport) Close() error                { return nil }

type captureFactory struct {
	last *captureTransport
}

func (f *captureFactory) Open(shell, workingDir string, cols, rows int, onOutput func([]byte)) (session.Transport, error) {
	f.last = &captureTransport{}
	return f.last, nil
}

func testRouter(t *testing.T, providers []types.Provider) (*Router, *session.Registry, *captureFactory) {
	t.Helper()

	cfg := config.TerminalConfig{Shell: "/bin/sh", ScrollbackLimit: 100, HistoryMax: 10}
	factory := &captureFactory{}
	metrics := monitoring.NewMetrics()
	sessions := session.NewRegistry(cfg, factory, events.NewBus(), metrics, logging.NewNop())

	reg := provider.NewRegistry()
	require.NoError(t, reg.Load(providers))

	r := New(reg, provider.NewFactory(metrics, logging.NewNop()), sessions, metrics, logging.NewNop())
	sessions.SetDispatcher(r)
	return r, sessions, factory
}

func TestDispatchShellWritesToTransport(t *testing.T) {
	r, sessions, factory := testRouter(t, nil)
	s, err := sessions.Create(session.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ls -la"))
	require.Len(t, factory.last.writes, 1)
	assert.Equal(t, "ls -la\n", factory.last.writes[0])
}

func TestDispatchAIStreamsIntoScrollback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"hello "},"done":false}`)
		fmt.Fprintln(w, `{"message":{"content":"world"},"done":true}`)
	}))
	defer srv.Close()

	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Endpoint: srv.URL, Default: true, Enabled: true},
	})
	s, err := sessions.Create(session.CreateOptions{})
	require.NoError(t, err)

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ai chat hi"))
	r.Wait()

	lines, err := sessions.Scrollback(s.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello world", lines[0])
}

func TestDispatchAIUnknownProviderFailsFast(t *testing.T) {
	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Default: true, Enabled: true},
	})
	s, _ := sessions.Create(session.CreateOptions{})

	err := r.Dispatch(context.Background(), s.ID, "ai chat --provider missing hi")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestDispatchAIWithoutProviders(t *testing.T) {
	r, sessions, _ := testRouter(t, nil)
	s, _ := sessions.Create(session.CreateOptions{})

	err := r.Dispatch(context.Background(), s.ID, "ai chat hi")
	assert.True(t, errors.Is(err, types.ErrNoProvider))

	// The failure also lands in the session output.
	lines, _ := sessions.Scrollback(s.ID)
	require.Len(t, lines, 1)
	assert.Equal(t, err.Error(), lines[0])
}

func TestDispatchParseErrorIsSynchronous(t *testing.T) {
	r, sessions, _ := testRouter(t, nil)
	s, _ := sessions.Create(session.CreateOptions{})

	err := r.Dispatch(context.Background(), s.ID, `ai chat "unterminated`)
	assert.True(t, errors.Is(err, types.ErrParse))
}

func TestParseErrorSurfacesInScrollback(t *testing.T) {
	r, sessions, _ := testRouter(t, nil)
	s, _ := sessions.Create(session.CreateOptions{})

	require.Error(t, r.Dispatch(context.Background(), s.ID, `ai chat "unterminated`))
	require.Error(t, r.Dispatch(context.Background(), s.ID, "ai chat"))

	lines, err := sessions.Scrollback(s.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "missing prompt")
}

func TestProviderFailureSurfacesInOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Endpoint: srv.URL, Default: true, Enabled: true},
	})
	s, _ := sessions.Create(session.CreateOptions{})

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ai chat hi"))
	r.Wait()

	lines, _ := sessions.Scrollback(s.ID)
	require.NotEmpty(t, lines)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "local failed")
	assert.Contains(t, joined, "retry")
}

func TestDispatchAIAskCompletesWhole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, false, body["stream"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"message":{"content":"the answer"},"done":true,"prompt_eval_count":3,"eval_count":7}`)
	}))
	defer srv.Close()

	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Endpoint: srv.URL, Default: true, Enabled: true},
	})
	s, _ := sessions.Create(session.CreateOptions{})

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ai ask hi"))
	r.Wait()

	lines, err := sessions.Scrollback(s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"the answer"}, lines)
}

func TestCloseSessionCancelsStream(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"partial"},"done":false}`)
		w.(http.Flusher).Flush()
		close(started)
		<-req.Context().Done()
	}))
	defer srv.Close()

	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Endpoint: srv.URL, Default: true, Enabled: true},
	})
	s, _ := sessions.Create(session.CreateOptions{})

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ai chat hi"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never started")
	}

	// Closing the session must abort the in-flight stream; Wait hangs
	// otherwise.
	require.NoError(t, sessions.Close(s.ID))
	r.Wait()
}

func TestCancelMarksOutput(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, `{"message":{"content":"partial"},"done":false}`)
		w.(http.Flusher).Flush()
		close(started)
		<-req.Context().Done()
	}))
	defer srv.Close()

	r, sessions, _ := testRouter(t, []types.Provider{
		{ID: "local", Kind: types.ProviderOllama, Endpoint: srv.URL, Default: true, Enabled: true},
	})
	s, _ := sessions.Create(session.CreateOptions{})

	require.NoError(t, r.Dispatch(context.Background(), s.ID, "ai chat hi"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never started")
	}

	r.Cancel(s.ID)
	r.Wait()

	lines, _ := sessions.Scrollback(s.ID)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "[cancelled]")
}
