package handlers

import (
	"fmt"
	"io"
	"sync"

	"cloudshare/api"
)

// TerminalNotifier prints notices to a terminal stream. It is safe for
// concurrent use so parallel requests never interleave a line.
type TerminalNotifier struct {
	mu      sync.Mutex
	w       io.Writer
	history []api.Notice
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (n *TerminalNotifier) Notify(notice api.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, notice)

	switch notice.Level {
	case api.LevelError:
		fmt.Fprintf(n.w, "✗ %s\n", notice.Message)
	case api.LevelSuccess:
		fmt.Fprintf(n.w, "✓ %s\n", notice.Message)
	default:
		fmt.Fprintf(n.w, "%s\n", notice.Message)
	}
}

// Notices returns every notice shown so far.
func (n *TerminalNotifier) Notices() []api.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]api.Notice(nil), n.history...)
}

// LoginNavigator points the user at the login command. Concurrent 401s in
// one invocation print the hint once.
type LoginNavigator struct {
	once sync.Once
	w    io.Writer
}

func NewLoginNavigator(w io.Writer) *LoginNavigator {
	return &LoginNavigator{w: w}
}

func (n *LoginNavigator) ToLogin() {
	n.once.Do(func() {
		fmt.Fprintln(n.w, "→ Run `cloudshare auth login` to sign in.")
	})
}
