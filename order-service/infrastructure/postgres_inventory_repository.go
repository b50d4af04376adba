package infrastructure

import (
	"context"
	"database/sql"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.InventoryRepository = (*PostgresInventoryRepository)(nil)

// PostgresInventoryRepository keeps stock in the inventory table and what each
// order took in inventory_reservations. Every reservation runs in one
// transaction and relies on the conditional UPDATE for per-item serialization.
type PostgresInventoryRepository struct {
	db *sqlx.DB
}

func NewPostgresInventoryRepository(db *sqlx.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

type postgresReservation struct {
	ItemID   string `db:"item_id"`
	Quantity int    `db:"quantity"`
}

func (r *PostgresInventoryRepository) Reserve(ctx context.Context, orderID string, items []domain.OrderItem) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var existing int
	if err := tx.GetContext(ctx, &existing,
		"SELECT COUNT(*) FROM inventory_reservations WHERE order_id = $1", orderID); err != nil {
		return errors.Wrap(err, "failed to check reservation")
	}
	if existing > 0 {
		return tx.Commit()
	}

	wanted := domain.Quantities(items)
	for _, itemID := range itemIDs(items) {
		qty := wanted[itemID]
		res, err := tx.ExecContext(ctx,
			"UPDATE inventory SET available = available - $1 WHERE item_id = $2 AND available >= $1",
			qty, itemID)
		if err != nil {
			return errors.Wrap(err, "failed to reserve item")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "failed to read affected rows")
		}
		if affected == 0 {
			available, err := availableIn(ctx, tx, itemID)
			if err != nil {
				return err
			}
			return &domain.InsufficientStockError{
				ItemID:    itemID,
				Name:      itemName(items, itemID),
				Requested: qty,
				Available: available,
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO inventory_reservations (order_id, item_id, quantity) VALUES ($1, $2, $3)",
			orderID, itemID, qty); err != nil {
			return errors.Wrap(err, "failed to record reservation")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit reservation")
}

func (r *PostgresInventoryRepository) Release(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var reserved []postgresReservation
	if err := tx.SelectContext(ctx, &reserved,
		"SELECT item_id, quantity FROM inventory_reservations WHERE order_id = $1 FOR UPDATE", orderID); err != nil {
		return errors.Wrap(err, "failed to load reservation")
	}
	if len(reserved) == 0 {
		return domain.ErrReservationNotFound
	}

	for _, item := range reserved {
		if _, err := tx.ExecContext(ctx,
			"UPDATE inventory SET available = available + $1 WHERE item_id = $2",
			item.Quantity, item.ItemID); err != nil {
			return errors.Wrap(err, "failed to release item")
		}
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM inventory_reservations WHERE order_id = $1", orderID); err != nil {
		return errors.Wrap(err, "failed to delete reservation")
	}

	return errors.Wrap(tx.Commit(), "failed to commit release")
}

func (r *PostgresInventoryRepository) Available(ctx context.Context, itemID string) (int, error) {
	return availableIn(ctx, r.db, itemID)
}

func availableIn(ctx context.Context, q sqlx.QueryerContext, itemID string) (int, error) {
	var available int
	err := sqlx.GetContext(ctx, q, &available, "SELECT available FROM inventory WHERE item_id = $1", itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to read available stock")
	}
	return available, nil
}
