package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"panelsound/internal/models"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

const insertEventSQL = `
		INSERT INTO panel_events (id, occurred_at, source, component, action, value, outcome, command)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

const selectEventsSQL = `SELECT id, occurred_at, source, component, action, value, outcome, command FROM panel_events`

// Append inserts a journal entry. Missing EventID and OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.PanelEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	} else {
		e.OccurredAt = e.OccurredAt.UTC()
	}

	var cmdPtr *string
	if e.Command != nil {
		b, err := json.Marshal(e.Command)
		if err != nil {
			return err
		}
		s := string(b)
		cmdPtr = &s
	}

	_, err := r.db.ExecContext(ctx, insertEventSQL,
		e.EventID,
		e.OccurredAt,
		e.Source,
		strings.TrimSpace(e.Component),
		e.Action,
		e.Value,
		e.Outcome,
		cmdPtr,
	)
	return err
}

// List returns entries within [from, to] (either bound optional), optionally
// for one component, oldest first.
func (r *EventSQLite) List(ctx context.Context, from, to time.Time, component string) ([]models.PanelEvent, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, to.UTC())
	}
	if component = strings.TrimSpace(component); component != "" {
		conds = append(conds, "component = ?")
		args = append(args, component)
	}

	q := selectEventsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PanelEvent, 0, 64)
	for rows.Next() {
		var (
			ev     models.PanelEvent
			value  sql.NullString
			cmdStr sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.OccurredAt, &ev.Source, &ev.Component, &ev.Action, &value, &ev.Outcome, &cmdStr); err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		ev.Value = value.String

		if cmdStr.Valid && cmdStr.String != "" {
			var cmd models.AudioCommand
			if err := json.Unmarshal([]byte(cmdStr.String), &cmd); err != nil {
				return nil, err
			}
			ev.Command = &cmd
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
