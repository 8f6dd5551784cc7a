package shortcut

import "context"

// KeyEvent is one physical key transition. Auto-repeat is filtered by the hook.
type KeyEvent struct {
	Code    uint16
	Pressed bool
}

// Hook delivers global key events until stopped.
type Hook interface {
	Start(ctx context.Context, handler func(KeyEvent)) error
	Stop() error
}

// Permission reports whether the process may read global key events.
type Permission interface {
	Granted() bool
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func() bool

func (f PermissionFunc) Granted() bool { return f() }
