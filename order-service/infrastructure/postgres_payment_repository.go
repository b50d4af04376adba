package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.PaymentRepository = (*PostgresPaymentRepository)(nil)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *sqlx.DB
}

func NewPostgresPaymentRepository(db *sqlx.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// postgresPayment represents payment in database
type postgresPayment struct {
	ID        string    `db:"id"`
	OrderID   string    `db:"order_id"`
	UserID    string    `db:"user_id"`
	Amount    float64   `db:"amount"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const selectPayment = `
	SELECT id, order_id, user_id, amount, status, created_at, updated_at
	FROM payments`

// Save inserts the payment or updates its status when it already exists
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, user_id, amount, status, created_at, updated_at
		) VALUES (
			:id, :order_id, :user_id, :amount, :status, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, r.toPostgres(payment)); err != nil {
		return errors.Wrap(err, "failed to save payment")
	}
	return nil
}

func (r *PostgresPaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.findOne(ctx, selectPayment+" WHERE id = $1", id)
}

// FindByOrderID returns the most recent payment of the order
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.findOne(ctx, selectPayment+" WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
}

func (r *PostgresPaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3",
		string(status), time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update payment")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresPaymentRepository) findOne(ctx context.Context, query string, arg string) (*domain.Payment, error) {
	var row postgresPayment
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find payment")
	}
	return r.toDomain(&row), nil
}

func (r *PostgresPaymentRepository) toPostgres(payment *domain.Payment) *postgresPayment {
	return &postgresPayment{
		ID:        payment.ID,
		OrderID:   payment.OrderID,
		UserID:    payment.UserID,
		Amount:    payment.Amount,
		Status:    string(payment.Status),
		CreatedAt: payment.Timestamps.CreatedAt,
		UpdatedAt: payment.Timestamps.UpdatedAt,
	}
}

func (r *PostgresPaymentRepository) toDomain(row *postgresPayment) *domain.Payment {
	return &domain.Payment{
		ID:      row.ID,
		OrderID: row.OrderID,
		UserID:  row.UserID,
		Amount:  row.Amount,
		Status:  domain.PaymentStatus(row.Status),
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
	}
}
