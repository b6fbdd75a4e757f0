package types

import "time"

// SessionSummary is the public representation of a terminal session, exposed
// to the rendering layer. The editor and scrollback live inside the registry.
type SessionSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	WorkingDirectory string    `json:"working_directory"`
	CreatedAt        time.Time `json:"created_at"`
	Active           bool      `json:"active"`
	Lines            int       `json:"lines"`
}
