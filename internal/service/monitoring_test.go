package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"panelsound/internal/models"
)

func TestMonitoringService_GetState(t *testing.T) {
	t.Parallel()

	nonUTC := time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 2*3600))

	cases := []struct {
		name       string
		repoResp   models.PanelSnapshot
		repoErr    error
		assertFunc func(t *testing.T, got models.PanelSnapshot, err error)
	}{
		{
			name:    "propagates repository error",
			repoErr: errors.New("db down"),
			assertFunc: func(t *testing.T, got models.PanelSnapshot, err error) {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if got.ID != 0 {
					t.Errorf("expected zero snapshot, got ID %d", got.ID)
				}
			},
		},
		{
			name: "returns baseline when nothing recorded",
			assertFunc: func(t *testing.T, got models.PanelSnapshot, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID != 1 || got.KeyStatus != models.KeyInvalid || got.Ready {
					t.Errorf("baseline: %+v", got)
				}
				if ready, ok := got.Controllers["controller02"]; !ok || ready {
					t.Errorf("baseline controllers: %+v", got.Controllers)
				}
				if !got.UpdatedAt.IsZero() {
					t.Errorf("baseline must not carry a timestamp: %v", got.UpdatedAt)
				}
			},
		},
		{
			name:     "returns stored snapshot in UTC",
			repoResp: models.PanelSnapshot{ID: 1, KeyStatus: models.KeyOn, Ready: true, UpdatedAt: nonUTC},
			assertFunc: func(t *testing.T, got models.PanelSnapshot, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.KeyStatus != models.KeyOn || !got.Ready {
					t.Errorf("snapshot: %+v", got)
				}
				if got.UpdatedAt.Location() != time.UTC || !got.UpdatedAt.Equal(nonUTC) {
					t.Errorf("UpdatedAt: %v", got.UpdatedAt)
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := NewMonitoringService(&stateRepoStub{loadResp: tc.repoResp, loadErr: tc.repoErr}, []string{"controller01", "controller02"})
			got, err := svc.GetState(context.Background())
			tc.assertFunc(t, got, err)
		})
	}
}

func TestMonitoringService_BaselineWithoutControllersIsReady(t *testing.T) {
	svc := NewMonitoringService(&stateRepoStub{}, nil)
	got, err := svc.GetState(context.Background())
	if err != nil || !got.Ready {
		t.Fatalf("got %+v, %v", got, err)
	}
}
