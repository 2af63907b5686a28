package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"panelsound/internal/models"
	"panelsound/internal/repository"
)

// LogFilter selects journal entries. Zero times mean unbounded.
type LogFilter struct {
	From      time.Time
	To        time.Time
	Component string
}

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")

func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	f.From = toUTC(f.From)
	f.To = toUTC(f.To)
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}
	f.Component = strings.TrimSpace(f.Component)
	return f, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.PanelEvent, error) {
	f, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, f.From, f.To, f.Component)
}
