package controlplane

import (
	"sync"

	"github.com/ainick2469-sudo/AIOffice-sub002/pkg/models"
)

// Session is the channel-scoped shared state: the cached active-project
// binding and the autonomy mode. Components observing the same channel share
// one Session; a project switch broadcasts the new binding to every observer.
type Session struct {
	mu        sync.Mutex
	channel   string
	active    models.ActiveProjectBinding
	autonomy  string
	observers []func(models.ActiveProjectBinding)
}

// NewSession returns a session seeded with the default binding
// (ai-office on main) and autonomy mode SAFE.
func NewSession(channel string) *Session {
	return &Session{
		channel:  channel,
		active:   models.DefaultBinding(channel),
		autonomy: models.AutonomySafe,
	}
}

func (s *Session) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// Active returns the cached active-project binding.
func (s *Session) Active() models.ActiveProjectBinding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActive replaces the binding and notifies observers.
func (s *Session) SetActive(b models.ActiveProjectBinding) {
	s.mu.Lock()
	if b.Channel == "" {
		b.Channel = s.channel
	}
	s.active = b
	obs := make([]func(models.ActiveProjectBinding), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(b)
	}
}

// SetActiveBranch updates only the branch component of the binding, without
// notifying observers. Used when a branch switch response carries no full
// binding.
func (s *Session) SetActiveBranch(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active.Branch = branch
}

// Observe registers a callback invoked on every SetActive.
func (s *Session) Observe(fn func(models.ActiveProjectBinding)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Autonomy returns the cached autonomy mode for the active project.
func (s *Session) Autonomy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autonomy
}

// SetAutonomy updates the cached autonomy mode.
func (s *Session) SetAutonomy(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autonomy = mode
}
