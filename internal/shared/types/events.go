package types

import "time"

// EventType names the notifications exposed to the rendering layer.
type EventType string

const (
	EventVisibilityChanged     EventType = "visibility_changed"
	EventSessionsChanged       EventType = "sessions_changed"
	EventSessionOutputAppended EventType = "session_output_appended"
	EventEditorStateChanged    EventType = "editor_state_changed"
	EventResizeDelta           EventType = "resize_delta"
)

// Event is one rendering-layer notification.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// VisibilityChanged reports a committed visibility transition.
type VisibilityChanged struct {
	State VisibilityState `json:"state"`
}

// SessionsChanged reports the session set after a create/close/activate.
type SessionsChanged struct {
	ActiveID string           `json:"active_id,omitempty"`
	Sessions []SessionSummary `json:"sessions"`
}

// SessionOutputAppended reports new scrollback content for one session.
type SessionOutputAppended struct {
	SessionID string `json:"session_id"`
	Chunk     string `json:"chunk"`
}

// EditorStateChanged reports the input buffer and cursor for one session.
type EditorStateChanged struct {
	SessionID string `json:"session_id"`
	Buffer    string `json:"buffer"`
	Cursor    int    `json:"cursor"`
}

// ResizeDelta reports a surface height change from scroll-at-edge, as a
// fraction of screen height after clamping.
type ResizeDelta struct {
	HeightFraction float64 `json:"height_fraction"`
}
