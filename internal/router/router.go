package router

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/provider"
	"github.com/hovershell/core/internal/session"
	"github.com/hovershell/core/internal/shared/id"
	"github.com/hovershell/core/internal/shared/types"
)

// Router dispatches parsed commands. Shell lines go straight to the session
// transport; ai commands run off the dispatch path in their own goroutine so
// a slow provider never blocks input handling.
type Router struct {
	log       *logging.Logger
	metrics   *monitoring.Metrics
	providers *provider.Registry
	adapters  *provider.Factory
	sessions  *session.Registry

	mu       sync.Mutex
	inflight map[string]*inflightRequest // one ai request per session
	wg       sync.WaitGroup
}

type inflightRequest struct {
	cancel context.CancelFunc
}

// New creates a router.
func New(providers *provider.Registry, adapters *provider.Factory, sessions *session.Registry, metrics *monitoring.Metrics, log *logging.Logger) *Router {
	return &Router{
		log:       log,
		metrics:   metrics,
		providers: providers,
		adapters:  adapters,
		sessions:  sessions,
		inflight:  make(map[string]*inflightRequest),
	}
}

// Dispatch routes one submitted line. Parse and provider-resolution failures
// are returned synchronously and echoed into the session output, so the
// terminal shows why nothing ran.
func (r *Router) Dispatch(ctx context.Context, sessionID, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		r.surface(sessionID, err)
		return err
	}

	if cmd.Kind == KindShell {
		return r.sessions.WriteRaw(sessionID, []byte(cmd.Raw+"\n"))
	}

	p, err := r.providers.Resolve(cmd.Provider)
	if err != nil {
		r.surface(sessionID, err)
		return err
	}
	adapter, err := r.adapters.For(p)
	if err != nil {
		r.surface(sessionID, err)
		return err
	}

	reqID := id.NewRequestID()
	r.log.Debug("ai request dispatched",
		zap.String("request_id", reqID.String()),
		zap.String("session_id", sessionID),
		zap.String("provider", p.ID),
		zap.String("verb", cmd.Verb),
	)

	// A new ai request supersedes the session's in-flight one.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req := &inflightRequest{cancel: cancel}
	r.mu.Lock()
	if prev, ok := r.inflight[sessionID]; ok {
		prev.cancel()
	}
	r.inflight[sessionID] = req
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(runCtx, req, reqID, sessionID, p, adapter, cmd)
	return nil
}

// Cancel aborts the session's in-flight ai request, if any.
func (r *Router) Cancel(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.inflight[sessionID]; ok {
		req.cancel()
	}
}

// Wait blocks until all in-flight ai requests finish. Used on shutdown.
func (r *Router) Wait() { r.wg.Wait() }

// surface echoes a dispatch failure into the session scrollback.
func (r *Router) surface(sessionID string, err error) {
	r.sessions.FeedOutput(sessionID, err.Error()+"\n")
}

func (r *Router) run(ctx context.Context, handle *inflightRequest, reqID id.RequestID, sessionID string, p types.Provider, adapter provider.Adapter, cmd Command) {
	defer r.wg.Done()
	defer func() {
		handle.cancel()
		r.mu.Lock()
		// Only clear our own entry; a superseding request may have replaced it.
		if r.inflight[sessionID] == handle {
			delete(r.inflight, sessionID)
		}
		r.mu.Unlock()
	}()

	req := provider.Request{Prompt: expandPrompt(cmd.Verb, cmd.Prompt)}

	var err error
	if cmd.Verb == VerbAsk {
		err = r.complete(ctx, reqID, sessionID, p, adapter, req)
	} else {
		err = adapter.Stream(ctx, req, func(fragment string) {
			r.sessions.FeedOutput(sessionID, fragment)
		})
		if err == nil {
			r.sessions.FeedOutput(sessionID, "\n")
		}
	}

	switch {
	case err == nil:
	case ctx.Err() != nil:
		r.sessions.FeedOutput(sessionID, "\n[cancelled]\n")
	default:
		r.log.Warn("ai request failed",
			zap.String("request_id", reqID.String()),
			zap.String("session_id", sessionID),
			zap.String("provider", p.ID),
			zap.Error(err),
		)
		r.sessions.FeedOutput(sessionID, "\nai: "+p.ID+" failed: "+err.Error()+" (re-run to retry)\n")
	}
}

// complete runs the non-streaming path and records the token usage the
// backend reports with the finished response.
func (r *Router) complete(ctx context.Context, reqID id.RequestID, sessionID string, p types.Provider, adapter provider.Adapter, req provider.Request) error {
	text, usage, err := adapter.Complete(ctx, req)
	if err != nil {
		return err
	}
	r.sessions.FeedOutput(sessionID, text+"\n")

	if usage.TotalTokens > 0 {
		r.metrics.AddTokens(p.ID, usage.PromptTokens, usage.CompletionTokens)
	}
	r.log.Debug("ai request completed",
		zap.String("request_id", reqID.String()),
		zap.String("provider", p.ID),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)
	return nil
}
