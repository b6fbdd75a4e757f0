// Package session owns the terminal session registry: session lifecycle,
// the single-active invariant, per-session input editors, and line-based
// scrollback with bounded eviction.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hovershell/core/internal/editor"
	"github.com/hovershell/core/internal/events"
	"github.com/hovershell/core/internal/infrastructure/config"
	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/shared/id"
	"github.com/hovershell/core/internal/shared/types"
)

// Dispatcher routes a submitted input line to its executor. The registry
// never interprets line content itself. Cancel aborts the session's
// in-flight ai request; the registry calls it whenever a session goes away
// so a closed session never leaves a stream running.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID, line string) error
	Cancel(sessionID string)
}

// Transport is a running shell process attached to one session.
type Transport interface {
	Write(p []byte) error
	Resize(cols, rows int) error
	Close() error
}

// TransportFactory opens a transport for a new session. Output is delivered
// through onOutput from the transport's reader goroutine.
type TransportFactory interface {
	Open(shell, workingDir string, cols, rows int, onOutput func([]byte)) (Transport, error)
}

// CreateOptions configures a new session. Zero values fall back to the
// terminal config defaults.
type CreateOptions struct {
	Title            string
	WorkingDirectory string
	Cols             int
	Rows             int

	// DedupKey makes creation idempotent: a second create with the same key
	// activates the existing session instead of opening another shell.
	DedupKey string
}

type session struct {
	id         string
	title      string
	workingDir string
	createdAt  time.Time
	dedupKey   string

	editor    *editor.Editor
	transport Transport

	scrollback []string
	partial    string
}

// Registry is the authoritative owner of all sessions. Every mutation
// happens under one lock so the single-active invariant and creation order
// are never observed mid-update.
type Registry struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	bus     *events.Bus
	cfg     config.TerminalConfig
	factory TransportFactory

	mu         sync.RWMutex
	sessions   map[string]*session
	order      []string // creation order, oldest first
	activeID   string
	dispatcher Dispatcher
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg config.TerminalConfig, factory TransportFactory, bus *events.Bus, metrics *monitoring.Metrics, log *logging.Logger) *Registry {
	return &Registry{
		log:      log,
		metrics:  metrics,
		bus:      bus,
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*session),
	}
}

// SetDispatcher installs the line dispatcher. The router is constructed after
// the registry, so this is wired late.
func (r *Registry) SetDispatcher(d Dispatcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatcher = d
}

// Create opens a new session and makes it active. With a DedupKey that
// matches an open session, the existing session is activated and returned
// instead.
func (r *Registry) Create(opts CreateOptions) (types.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.DedupKey != "" {
		for _, sid := range r.order {
			if r.sessions[sid].dedupKey == opts.DedupKey {
				r.activeID = sid
				r.publishSessionsLocked()
				return r.summaryLocked(r.sessions[sid]), nil
			}
		}
	}

	workingDir := opts.WorkingDirectory
	if workingDir == "" {
		workingDir = r.cfg.WorkingDirectory
	}

	sessionID := string(id.NewSessionID())

	var transport Transport
	if r.factory != nil {
		var err error
		transport, err = r.factory.Open(r.cfg.Shell, workingDir, opts.Cols, opts.Rows, func(p []byte) {
			r.FeedOutput(sessionID, string(p))
		})
		if err != nil {
			return types.SessionSummary{}, types.Providerf("open shell transport: %v", err)
		}
	}

	s := &session{
		id:         sessionID,
		title:      opts.Title,
		workingDir: workingDir,
		createdAt:  time.Now(),
		dedupKey:   opts.DedupKey,
		editor:     editor.New(r.cfg.HistoryMax),
		transport:  transport,
	}
	if s.title == "" {
		s.title = "shell"
	}

	r.sessions[sessionID] = s
	r.order = append(r.order, sessionID)
	r.activeID = sessionID

	r.metrics.SessionsCreated.Inc()
	r.metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.log.Info("session created",
		zap.String("session_id", sessionID),
		zap.String("working_dir", workingDir),
	)

	r.publishSessionsLocked()
	return r.summaryLocked(s), nil
}

// Close removes a session. Closing the active session passes activation to
// its predecessor in creation order (the successor when the first session
// closes); closing the last session leaves none active.
func (r *Registry) Close(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return types.NotFoundf("session %s", sessionID)
	}

	if r.dispatcher != nil {
		r.dispatcher.Cancel(sessionID)
	}
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			r.log.Warn("transport close failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	delete(r.sessions, sessionID)
	pos := 0
	for i, sid := range r.order {
		if sid == sessionID {
			pos = i
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.activeID == sessionID {
		switch {
		case len(r.order) == 0:
			r.activeID = ""
		case pos > 0:
			r.activeID = r.order[pos-1]
		default:
			r.activeID = r.order[0]
		}
	}

	r.metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.log.Info("session closed", zap.String("session_id", sessionID))

	r.publishSessionsLocked()
	return nil
}

// Activate makes an existing session the active one.
func (r *Registry) Activate(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return types.NotFoundf("session %s", sessionID)
	}
	if r.activeID != sessionID {
		r.activeID = sessionID
		r.publishSessionsLocked()
	}
	return nil
}

// ActivateNext cycles activation forward in creation order, wrapping.
func (r *Registry) ActivateNext() { r.cycle(1) }

// ActivatePrev cycles activation backward in creation order, wrapping.
func (r *Registry) ActivatePrev() { r.cycle(-1) }

func (r *Registry) cycle(step int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) < 2 {
		return
	}
	cur := 0
	for i, sid := range r.order {
		if sid == r.activeID {
			cur = i
			break
		}
	}
	next := (cur + step + len(r.order)) % len(r.order)
	r.activeID = r.order[next]
	r.publishSessionsLocked()
}

// ActiveID returns the active session id, empty when no session exists.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// List returns all sessions in creation order.
func (r *Registry) List() []types.SessionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.SessionSummary, 0, len(r.order))
	for _, sid := range r.order {
		out = append(out, r.summaryLocked(r.sessions[sid]))
	}
	return out
}

// Get returns one session's summary.
func (r *Registry) Get(sessionID string) (types.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return types.SessionSummary{}, types.NotFoundf("session %s", sessionID)
	}
	return r.summaryLocked(s), nil
}

// Scrollback returns a copy of the session's complete lines, oldest first.
func (r *Registry) Scrollback(sessionID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, types.NotFoundf("session %s", sessionID)
	}
	out := make([]string, len(s.scrollback))
	copy(out, s.scrollback)
	return out, nil
}

// FeedOutput appends raw shell output to a session's scrollback. A chunk
// without a trailing newline stays pending and merges with the next chunk,
// so a line split across reads is stored once.
func (r *Registry) FeedOutput(sessionID, chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		// Output racing a close is dropped.
		return
	}

	data := s.partial + chunk
	lines := strings.Split(data, "\n")
	s.partial = lines[len(lines)-1]
	s.scrollback = append(s.scrollback, lines[:len(lines)-1]...)

	if limit := r.cfg.ScrollbackLimit; limit > 0 && len(s.scrollback) > limit {
		evicted := len(s.scrollback) - limit
		s.scrollback = append([]string(nil), s.scrollback[evicted:]...)
		r.metrics.LinesEvicted.Add(float64(evicted))
	}

	r.bus.Publish(types.EventSessionOutputAppended, types.SessionOutputAppended{
		SessionID: sessionID,
		Chunk:     chunk,
	})
}

// Resize propagates new terminal dimensions to the session's shell.
func (r *Registry) Resize(sessionID string, cols, rows int) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return types.NotFoundf("session %s", sessionID)
	}
	if s.transport == nil {
		return nil
	}
	return s.transport.Resize(cols, rows)
}

// Editor operations. Each mutates one session's input buffer and publishes
// the resulting editor state.

func (r *Registry) InsertText(sessionID, text string) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.Insert(text)
		return nil
	})
}

func (r *Registry) DeleteBackward(sessionID string, n int) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.DeleteBackward(n)
		return nil
	})
}

func (r *Registry) DeleteForward(sessionID string, n int) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.DeleteForward(n)
		return nil
	})
}

func (r *Registry) MoveCursor(sessionID string, delta int) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.MoveCursor(delta)
		return nil
	})
}

func (r *Registry) SetCursor(sessionID string, pos int) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		return e.SetCursor(pos)
	})
}

func (r *Registry) HistoryPrev(sessionID string) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.HistoryPrev()
		return nil
	})
}

func (r *Registry) HistoryNext(sessionID string) error {
	return r.editorOp(sessionID, func(e *editor.Editor) error {
		e.HistoryNext()
		return nil
	})
}

// EditorState returns the session's current buffer and cursor.
func (r *Registry) EditorState(sessionID string) (string, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", 0, types.NotFoundf("session %s", sessionID)
	}
	return s.editor.Buffer(), s.editor.Cursor(), nil
}

// Submit finalizes the session's input buffer and hands the line to the
// dispatcher. Empty submissions clear the buffer without dispatching.
func (r *Registry) Submit(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return types.NotFoundf("session %s", sessionID)
	}

	line := s.editor.Submit()
	dispatcher := r.dispatcher
	r.publishEditorLocked(s)
	r.mu.Unlock()

	if line == "" || dispatcher == nil {
		return nil
	}
	return dispatcher.Dispatch(ctx, sessionID, line)
}

// WriteRaw passes bytes straight to the session's shell, bypassing the
// editor. Used for control sequences the rendering layer forwards verbatim.
func (r *Registry) WriteRaw(sessionID string, p []byte) error {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return types.NotFoundf("session %s", sessionID)
	}
	if s.transport == nil {
		return nil
	}
	return s.transport.Write(p)
}

// Shutdown aborts in-flight ai requests and closes every session transport.
// Used on server stop.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for sid, s := range r.sessions {
		if r.dispatcher != nil {
			r.dispatcher.Cancel(sid)
		}
		if s.transport != nil {
			if err := s.transport.Close(); err != nil {
				r.log.Warn("transport close failed",
					zap.String("session_id", sid),
					zap.Error(err),
				)
			}
		}
	}
}

func (r *Registry) editorOp(sessionID string, fn func(*editor.Editor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return types.NotFoundf("session %s", sessionID)
	}
	if err := fn(s.editor); err != nil {
		return err
	}
	r.publishEditorLocked(s)
	return nil
}

func (r *Registry) summaryLocked(s *session) types.SessionSummary {
	return types.SessionSummary{
		ID:               s.id,
		Title:            s.title,
		WorkingDirectory: s.workingDir,
		CreatedAt:        s.createdAt,
		Active:           s.id == r.activeID,
		Lines:            len(s.scrollback),
	}
}

func (r *Registry) publishSessionsLocked() {
	summaries := make([]types.SessionSummary, 0, len(r.order))
	for _, sid := range r.order {
		summaries = append(summaries, r.summaryLocked(r.sessions[sid]))
	}
	r.bus.Publish(types.EventSessionsChanged, types.SessionsChanged{
		ActiveID: r.activeID,
		Sessions: summaries,
	})
}

func (r *Registry) publishEditorLocked(s *session) {
	r.bus.Publish(types.EventEditorStateChanged, types.EditorStateChanged{
		SessionID: s.id,
		Buffer:    s.editor.Buffer(),
		Cursor:    s.editor.Cursor(),
	})
}
