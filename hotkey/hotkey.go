// Package hotkey listens for a system-wide key combination so captions can
// be started and stopped while another window has focus.
package hotkey

import "context"

// Combo is the key combination every backend listens for.
const Combo = "Ctrl+Shift+Space"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

// Watch calls toggle once per press until ctx is done. Releases are drained
// and otherwise ignored.
func Watch(ctx context.Context, hk Hotkey, toggle func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hk.Keydown():
			toggle()
		case <-hk.Keyup():
		}
	}
}
