// Package bootstrap runs the client's startup sequence: session validity
// and theme resolution run concurrently, and Run always returns a usable
// result even when every collaborator misbehaves.
package bootstrap

import (
	"context"
	"sync"

	"hunter/internal/session"
	"hunter/internal/theme"
)

// Result is the resolved startup state.
type Result struct {
	Session session.State
	Theme   theme.Mode
}

// Run resolves the startup state. Both checks are independent and run in
// parallel; neither can block the other.
func Run(ctx context.Context, sessions *session.Manager, themes *theme.Manager) Result {
	var result Result
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Session = sessions.BootstrapValidity(ctx)
	}()
	go func() {
		defer wg.Done()
		result.Theme = themes.InitialMode(ctx)
	}()
	wg.Wait()

	return result
}
