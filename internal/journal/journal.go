// Package journal keeps an append-only Postgres record of published orders.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/orderbot/core/database"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/order"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the schema of the journal for database.RunMigrations.
func Migrations() database.Migrations {
	return database.Migrations{FS: migrationFS, Dir: "migrations"}
}

// DB is the subset of *sqlx.DB used by Repository.
type DB interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type row struct {
	ID             uuid.UUID      `db:"id"`
	Direction      string         `db:"direction"`
	Currency       string         `db:"currency"`
	TransferMethod sql.NullString `db:"transfer_method"`
	Amount         int64          `db:"amount"`
	Price          int64          `db:"price"`
	UserID         int64          `db:"user_id"`
	Username       sql.NullString `db:"username"`
	SubmittedAt    time.Time      `db:"submitted_at"`
}

const insertOrder = `
INSERT INTO published_orders (
	id, direction, currency, transfer_method, amount, price, user_id, username, submitted_at
) VALUES (
	:id, :direction, :currency, :transfer_method, :amount, :price, :user_id, :username, :submitted_at
)
ON CONFLICT (id) DO NOTHING`

const countOrders = `SELECT COUNT(*) FROM published_orders`

// Repository writes published orders. It implements order.Journal.
type Repository struct {
	db DB
}

// NewRepository wraps db.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

var _ order.Journal = (*Repository)(nil)

// Record stores o. Recording the same order twice keeps the first row.
func (r *Repository) Record(ctx context.Context, o order.Order) error {
	id, err := uuid.Parse(o.ID)
	if err != nil {
		return fmt.Errorf("journal: invalid order id %q: %w", o.ID, err)
	}
	rec := row{
		ID:             id,
		Direction:      o.Direction,
		Currency:       o.Currency,
		TransferMethod: nullString(o.TransferMethod),
		Amount:         o.Amount,
		Price:          o.Price,
		UserID:         o.UserID,
		Username:       nullString(strings.TrimPrefix(o.Username, "@")),
		SubmittedAt:    o.SubmittedAt.UTC(),
	}

	start := time.Now()
	if _, err := r.db.NamedExecContext(ctx, insertOrder, rec); err != nil {
		return fmt.Errorf("journal: insert order %s: %w", o.ID, err)
	}
	logger.Debug(ctx, "journal", "journal.record",
		slog.String("status", "ok"),
		slog.String("order_id", o.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Count returns the number of recorded orders.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, countOrders); err != nil {
		return 0, fmt.Errorf("journal: count orders: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
