// Package surface provides the server-side stand-in for the media element a
// player surface mounts. Exactly one source may be attached at a time; only
// the streaming engine adapter calls Attach/Detach.
package surface

import (
	"errors"
	"sync"
)

var ErrAlreadyAttached = errors.New("surface already has a source attached")

// Surface tracks the source currently attached to one media element.
type Surface struct {
	mu       sync.Mutex
	url      string
	attached bool

	// OnAttach/OnDetach let the transport layer forward surface changes
	// to the remote player element.
	OnAttach func(url string)
	OnDetach func()
}

func New() *Surface {
	return &Surface{}
}

func (s *Surface) AttachSource(url string) error {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.url = url
	s.attached = true
	onAttach := s.OnAttach
	s.mu.Unlock()

	if onAttach != nil {
		onAttach(url)
	}
	return nil
}

func (s *Surface) Detach() {
	s.mu.Lock()
	s.url = ""
	s.attached = false
	onDetach := s.OnDetach
	s.mu.Unlock()

	if onDetach != nil {
		onDetach()
	}
}

// Source returns the currently attached URL, if any.
func (s *Surface) Source() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, s.attached
}
