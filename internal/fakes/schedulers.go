package fakes

import (
	"sync"

	"github.com/meridianchain/statesync/collab"
)

// ApplyScheduler records ApplyStatePartsRequest sends and, unless
// SendErr is set, always succeeds.
type ApplyScheduler struct {
	mu       sync.Mutex
	Requests []collab.ApplyStatePartsRequest
	SendErr  error
}

func NewApplyScheduler() *ApplyScheduler { return &ApplyScheduler{} }

func (s *ApplyScheduler) Send(req collab.ApplyStatePartsRequest) error {
	if s.SendErr != nil {
		return s.SendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	return nil
}

// MemtrieScheduler records LoadMemtrieRequest sends.
type MemtrieScheduler struct {
	mu       sync.Mutex
	Requests []collab.LoadMemtrieRequest
}

func NewMemtrieScheduler() *MemtrieScheduler { return &MemtrieScheduler{} }

func (s *MemtrieScheduler) Send(req collab.LoadMemtrieRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
}
