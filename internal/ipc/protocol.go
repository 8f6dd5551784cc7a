// Package ipc carries daemon control commands over a JSON-line unix socket.
package ipc

// Commands understood by the daemon.
const (
	CommandStatus   = "status"
	CommandToggle   = "toggle"
	CommandHoldDown = "hold-down"
	CommandHoldUp   = "hold-up"
	CommandStop     = "stop"
	CommandCancel   = "cancel"
	CommandReload   = "reload"
)

// Request is one client command such as "toggle" or "status".
type Request struct {
	Command string `json:"command"`
}

// Response reports the daemon state after handling a Request.
type Response struct {
	OK               bool   `json:"ok"`
	State            string `json:"state,omitempty"`
	ShortcutsEnabled *bool  `json:"shortcuts_enabled,omitempty"`
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
}
