package journal

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/orderbot/internal/order"
)

type fakeDB struct {
	query string
	arg   any
	err   error
	count int64
}

func (f *fakeDB) NamedExecContext(_ context.Context, query string, arg any) (sql.Result, error) {
	f.query, f.arg = query, arg
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeDB) GetContext(_ context.Context, dest any, query string, _ ...any) error {
	f.query = query
	if f.err != nil {
		return f.err
	}
	*(dest.(*int64)) = f.count
	return nil
}

func TestRecordMapsOrder(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db)
	id := uuid.New()
	at := time.Date(2024, 5, 1, 13, 4, 5, 0, time.FixedZone("IRST", 3*3600+1800))

	err := repo.Record(context.Background(), order.Order{
		ID:          id.String(),
		Direction:   "💰 Buy - خرید دارم",
		Currency:    "USDT",
		Amount:      1000,
		Price:       50000,
		UserID:      42,
		Username:    "@trader",
		SubmittedAt: at,
	})
	require.NoError(t, err)
	assert.Contains(t, db.query, "INSERT INTO published_orders")

	rec, ok := db.arg.(row)
	require.True(t, ok)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.TransferMethod.Valid)
	assert.Equal(t, sql.NullString{String: "trader", Valid: true}, rec.Username)
	assert.Equal(t, time.UTC, rec.SubmittedAt.Location())
	assert.True(t, at.Equal(rec.SubmittedAt))
}

func TestRecordRejectsInvalidID(t *testing.T) {
	db := &fakeDB{}
	err := NewRepository(db).Record(context.Background(), order.Order{ID: "order-1"})
	require.Error(t, err)
	assert.Empty(t, db.query)
}

func TestRecordWrapsDatabaseErrors(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	err := NewRepository(db).Record(context.Background(), order.Order{ID: uuid.NewString()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCount(t *testing.T) {
	db := &fakeDB{count: 7}
	n, err := NewRepository(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, countOrders, db.query)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	m := Migrations()
	entries, err := fs.ReadDir(m.FS, m.Dir)
	require.NoError(t, err)

	var up, down int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			up++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			down++
		}
	}
	assert.Equal(t, 1, up)
	assert.Equal(t, up, down)

	body, err := fs.ReadFile(m.FS, m.Dir+"/000001_create_published_orders.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS published_orders")
}
