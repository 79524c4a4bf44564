package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/xonecas/zoea-galaxy/internal/logging"
)

// Event is a journaled log event.
type Event struct {
	ID    string
	RunID string
	logging.Event
}

// AppendEvent stores e under run runID.
func (s *Store) AppendEvent(runID string, e logging.Event) error {
	var payload []byte
	if len(e.Payload) > 0 {
		var err error
		payload, err = cbor.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, run_id, ts, sender_kind, sender_id, receiver_kind, receiver_id, event_type, channel, message, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), runID, int64(e.Timestamp),
		string(e.Sender.Kind), e.Sender.ID,
		string(e.Receiver.Kind), e.Receiver.ID,
		string(e.Type), string(e.Channel), e.Message, payload)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent limit events of a run, oldest first.
func (s *Store) ListEvents(runID string, limit int) ([]*Event, error) {
	return s.queryEvents(`
		SELECT * FROM (
			SELECT id, run_id, ts, sender_kind, sender_id, receiver_kind, receiver_id, event_type, channel, message, payload
			FROM events WHERE run_id = ? ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC
	`, runID, limit)
}

// ActorEvents returns the most recent limit events sent by actor, oldest first.
func (s *Store) ActorEvents(runID string, actor logging.Actor, limit int) ([]*Event, error) {
	return s.queryEvents(`
		SELECT * FROM (
			SELECT id, run_id, ts, sender_kind, sender_id, receiver_kind, receiver_id, event_type, channel, message, payload
			FROM events WHERE run_id = ? AND sender_kind = ? AND sender_id = ?
			ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC
	`, runID, string(actor.Kind), actor.ID, limit)
}

// SearchEvents returns events of a run whose message contains query.
func (s *Store) SearchEvents(runID, query string, limit int) ([]*Event, error) {
	return s.queryEvents(`
		SELECT id, run_id, ts, sender_kind, sender_id, receiver_kind, receiver_id, event_type, channel, message, payload
		FROM events WHERE run_id = ? AND message LIKE ?
		ORDER BY ts DESC LIMIT ?
	`, runID, "%"+query+"%", limit)
}

// CountEvents returns the number of events stored for a run.
func (s *Store) CountEvents(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (s *Store) queryEvents(query string, args ...any) ([]*Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		e            Event
		ts           int64
		senderKind   string
		receiverKind string
		eventType    string
		channel      string
		payload      []byte
	)
	if err := row.Scan(&e.ID, &e.RunID, &ts, &senderKind, &e.Sender.ID,
		&receiverKind, &e.Receiver.ID, &eventType, &channel, &e.Message, &payload); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.Timestamp = uint64(ts)
	e.Sender.Kind = logging.ActorKind(senderKind)
	e.Receiver.Kind = logging.ActorKind(receiverKind)
	e.Type = logging.EventType(eventType)
	e.Channel = logging.Channel(channel)
	if len(payload) > 0 {
		if err := cbor.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &e, nil
}
