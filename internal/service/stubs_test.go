package service

import (
	"context"
	"sync"
	"time"

	"panelsound/internal/models"
)

type stateRepoStub struct {
	mu       sync.Mutex
	loadResp models.PanelSnapshot
	loadErr  error
	saveErr  error
	saved    []models.PanelSnapshot
}

func (s *stateRepoStub) Load(ctx context.Context) (models.PanelSnapshot, error) {
	return s.loadResp, s.loadErr
}

func (s *stateRepoStub) Save(ctx context.Context, snap models.PanelSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	return s.saveErr
}

func (s *stateRepoStub) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type eventRepoStub struct {
	mu        sync.Mutex
	appended  []models.PanelEvent
	appendErr error

	listResp      []models.PanelEvent
	listErr       error
	lastFrom      time.Time
	lastTo        time.Time
	lastComponent string
	listCalls     int
}

func (r *eventRepoStub) Append(ctx context.Context, e models.PanelEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended = append(r.appended, e)
	return r.appendErr
}

func (r *eventRepoStub) List(ctx context.Context, from, to time.Time, component string) ([]models.PanelEvent, error) {
	r.listCalls++
	r.lastFrom, r.lastTo, r.lastComponent = from, to, component
	return r.listResp, r.listErr
}

func (r *eventRepoStub) entries() []models.PanelEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PanelEvent(nil), r.appended...)
}
