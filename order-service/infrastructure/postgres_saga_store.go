package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.SagaStore = (*PostgresSagaStore)(nil)

// PostgresSagaStore keeps one row per order in saga_executions with the
// record serialized as JSON
type PostgresSagaStore struct {
	db *sqlx.DB
}

func NewPostgresSagaStore(db *sqlx.DB) *PostgresSagaStore {
	return &PostgresSagaStore{db: db}
}

func (s *PostgresSagaStore) Save(ctx context.Context, record *domain.SagaRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal saga record")
	}

	query := `
		INSERT INTO saga_executions (order_id, status, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status, record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		record.OrderID,
		record.Status.String(),
		data,
		record.Timestamps.CreatedAt,
		record.Timestamps.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save saga record")
	}
	return nil
}

func (s *PostgresSagaStore) FindByOrderID(ctx context.Context, orderID string) (*domain.SagaRecord, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, "SELECT record FROM saga_executions WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSagaNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find saga record")
	}

	var record domain.SagaRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal saga record")
	}
	return &record, nil
}
