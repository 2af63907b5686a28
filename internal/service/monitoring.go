package service

import (
	"context"
	"time"

	"panelsound/internal/models"
	"panelsound/internal/repository"
)

type MonitoringService struct {
	stateRepo   repository.StateRepo
	controllers []string
}

func NewMonitoringService(stateRepo repository.StateRepo, controllers []string) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, controllers: controllers}
}

// GetState returns the latest persisted snapshot, or the boot-time baseline
// (key INVALID, no controller ready, zero UpdatedAt) when nothing has been
// recorded yet.
func (s *MonitoringService) GetState(ctx context.Context) (models.PanelSnapshot, error) {
	snap, err := s.stateRepo.Load(ctx)
	if err != nil {
		return models.PanelSnapshot{}, err
	}
	if snap.ID == 0 {
		return s.baselineState(), nil
	}
	snap.UpdatedAt = toUTC(snap.UpdatedAt)
	return snap, nil
}

func (s *MonitoringService) baselineState() models.PanelSnapshot {
	controllers := make(map[string]bool, len(s.controllers))
	for _, id := range s.controllers {
		controllers[id] = false
	}
	return models.PanelSnapshot{
		ID:          1,
		KeyStatus:   models.KeyInvalid,
		Controllers: controllers,
		Ready:       len(controllers) == 0,
		Components:  map[string]models.ComponentState{},
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
