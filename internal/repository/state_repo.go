package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"panelsound/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	panelStateRowID = 1

	insertOrUpdateStateSQL = `
		INSERT INTO panel_state (id, key_status, ready, controllers, components, events_processed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			key_status=excluded.key_status,
			ready=excluded.ready,
			controllers=excluded.controllers,
			components=excluded.components,
			events_processed=excluded.events_processed,
			updated_at=excluded.updated_at
	`

	selectStateSQL = `
		SELECT id, key_status, ready, controllers, components, events_processed, updated_at
		FROM panel_state WHERE id=?
	`
)

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalJSON(s string, dst any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

// Save upserts the panel_state row (id always 1).
func (r *StateSQLite) Save(ctx context.Context, s models.PanelSnapshot) error {
	controllers, err := marshalJSON(s.Controllers)
	if err != nil {
		return err
	}
	components, err := marshalJSON(s.Components)
	if err != nil {
		return err
	}

	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		panelStateRowID,
		string(s.KeyStatus),
		s.Ready,
		controllers,
		components,
		s.EventsProcessed,
		ts,
	)
	return err
}

// Load fetches the panel_state row. A zero snapshot (ID 0) means nothing has
// been saved yet.
func (r *StateSQLite) Load(ctx context.Context) (models.PanelSnapshot, error) {
	row := r.db.QueryRowContext(ctx, selectStateSQL, panelStateRowID)

	var (
		s           models.PanelSnapshot
		keyStatus   string
		controllers string
		components  string
	)
	if err := row.Scan(
		&s.ID,
		&keyStatus,
		&s.Ready,
		&controllers,
		&components,
		&s.EventsProcessed,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PanelSnapshot{}, nil
		}
		return models.PanelSnapshot{}, err
	}

	s.KeyStatus = models.KeyStatus(keyStatus)
	if err := unmarshalJSON(controllers, &s.Controllers); err != nil {
		return models.PanelSnapshot{}, err
	}
	if err := unmarshalJSON(components, &s.Components); err != nil {
		return models.PanelSnapshot{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
