// Package controlplane implements the client-side state machines that drive
// the AI Office backend: the project registry, the branch workflow, the
// build/run executor, the process supervisor proxy, and the console tail.
// Each component owns its own status line and snapshot; a failing component
// never clears a sibling's state.
package controlplane

// StatusFunc receives one-line status messages for display. Components call
// it on every user-visible outcome; nil means discard.
type StatusFunc func(msg string)

func (f StatusFunc) set(msg string) {
	if f != nil {
		f(msg)
	}
}
