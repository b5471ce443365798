package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const eventPageSize = 100

// LogEvent appends one node event to the journal. The payload carries the
// node id, its type and the actor so clients can refresh the right views.
func (q *Queries) LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	query := `INSERT INTO event_journal (user_id, event_type, payload) VALUES ($1, $2, $3)`
	if _, err := q.db.Exec(ctx, query, userID, eventType, payloadBytes); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}

// GetEventsSince returns the user's events with an id greater than sinceID,
// oldest first, capped at one page. Clients poll with the last id they saw.
func (q *Queries) GetEventsSince(ctx context.Context, userID int64, sinceID int64) ([]Event, error) {
	query := `
		SELECT id, event_type, event_time, payload
		FROM event_journal
		WHERE user_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	rows, err := q.db.Query(ctx, query, userID, sinceID, eventPageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.EventType, &event.EventTime, &event.Payload); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
