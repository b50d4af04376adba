package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ events.Publisher = (*PostgresEventLog)(nil)

// PostgresEventLog appends published events to the event_log table so the
// history of a saga can be read back per aggregate.
type PostgresEventLog struct {
	db *sqlx.DB
}

func NewPostgresEventLog(db *sqlx.DB) *PostgresEventLog {
	return &PostgresEventLog{db: db}
}

type postgresEvent struct {
	ID            string    `db:"id"`
	AggregateID   string    `db:"aggregate_id"`
	Topic         string    `db:"topic"`
	Data          []byte    `db:"data"`
	Metadata      []byte    `db:"metadata"`
	Timestamp     time.Time `db:"timestamp"`
	CorrelationID string    `db:"correlation_id"`
}

const insertEventQuery = `
	INSERT INTO event_log (
		id, aggregate_id, topic, data, metadata, timestamp, correlation_id
	) VALUES (
		:id, :aggregate_id, :topic, :data, :metadata, :timestamp, :correlation_id
	)
	ON CONFLICT (id) DO NOTHING`

// Publish stores evts in a single transaction
func (l *PostgresEventLog) Publish(ctx context.Context, evts ...*events.Event) error {
	if len(evts) == 0 {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for _, event := range evts {
		row, err := toPostgresEvent(event)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, insertEventQuery, row); err != nil {
			return errors.Wrap(err, "failed to insert event")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit events")
}

// FindByAggregateID returns the events of aggregateID oldest first
func (l *PostgresEventLog) FindByAggregateID(ctx context.Context, aggregateID models.ID) ([]*events.Event, error) {
	query := `
		SELECT id, aggregate_id, topic, data, metadata, timestamp, correlation_id
		FROM event_log
		WHERE aggregate_id = $1
		ORDER BY timestamp ASC`

	var rows []postgresEvent
	if err := l.db.SelectContext(ctx, &rows, query, aggregateID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to get events")
	}

	out := make([]*events.Event, len(rows))
	for i := range rows {
		event, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out[i] = event
	}
	return out, nil
}

func toPostgresEvent(event *events.Event) (*postgresEvent, error) {
	data, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event data")
	}

	metadata, err := json.Marshal(transportFree(event.Metadata))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event metadata")
	}

	return &postgresEvent{
		ID:            event.ID.String(),
		AggregateID:   event.AggregateID.String(),
		Topic:         event.Topic.String(),
		Data:          data,
		Metadata:      metadata,
		Timestamp:     event.Timestamp,
		CorrelationID: event.CorrelationID.String(),
	}, nil
}

func (e *postgresEvent) toDomain() (*events.Event, error) {
	metadata := make(events.Metadata)
	if len(e.Metadata) > 0 {
		if err := json.Unmarshal(e.Metadata, &metadata); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal event metadata")
		}
		if metadata == nil {
			metadata = make(events.Metadata)
		}
	}

	return &events.Event{
		ID:            models.ID(e.ID),
		AggregateID:   models.ID(e.AggregateID),
		Topic:         events.Topic(e.Topic),
		Data:          json.RawMessage(e.Data),
		Metadata:      metadata,
		Timestamp:     e.Timestamp,
		CorrelationID: models.ID(e.CorrelationID),
	}, nil
}
