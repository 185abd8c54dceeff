package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/order"
)

// fakeDB records statements and answers with canned rows.
type fakeDB struct {
	execErr error
	rows    [][]any
	rowErr  error

	sql  []string
	args [][]any
}

func (f *fakeDB) record(sql string, args []any) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	if f.rowErr != nil {
		return fakeRow{err: f.rowErr}
	}
	if len(f.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.rows[0]}
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.rowErr != nil {
		return nil, f.rowErr
	}
	return &fakeRows{values: f.rows, idx: -1}, nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	values [][]any
	idx    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.idx++; return r.idx < len(r.values) }
func (r *fakeRows) Scan(dest ...any) error                       { return assign(dest, r.values[r.idx]) }
func (r *fakeRows) Values() ([]any, error)                       { return r.values[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i := range dest {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

func orderRow(o order.Order) []any {
	return []any{o.ID, o.OwnerID, o.Nombre, o.Comision, o.Legajo, o.NombreArchivo, o.CantidadHojas,
		o.ImplementacionIA, string(o.Color), o.DobleFaz, o.Anillado, o.Cotizacion,
		o.PageCountSource, o.PageCountAgreement, o.StorageKey, o.CreatedAt}
}

func TestUserRepository_CreateLowercasesEmail(t *testing.T) {
	db := &fakeDB{}
	repo := NewUserRepository(db)

	err := repo.Create(context.Background(), auth.User{ID: uuid.New(), Email: "Ana@Example.COM", PasswordHash: "h"})
	require.NoError(t, err)
	require.Len(t, db.args, 1)
	assert.Equal(t, "ana@example.com", db.args[0][1])
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(&fakeDB{execErr: &pgconn.PgError{Code: "23505"}})

	err := repo.Create(context.Background(), auth.User{ID: uuid.New(), Email: "a@b.c"})
	require.ErrorIs(t, err, auth.ErrUserAlreadyExists)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("ART", -3*3600))
	db := &fakeDB{rows: [][]any{{id, "ana@example.com", "hash", "Ana", "Pérez", "5A", "123", created}}}
	repo := NewUserRepository(db)

	u, err := repo.GetByEmail(context.Background(), "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "5A", u.Commission)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.Equal(t, "ana@example.com", db.args[0][0])
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(&fakeDB{})

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, auth.ErrNotFound)
	_, err = repo.GetByEmail(context.Background(), "x@y.z")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestOrderRepository_CreateAssignsIDAndTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	in := order.Order{
		OwnerID: uuid.New(), Nombre: "Ana", Comision: "5A", Legajo: "123",
		NombreArchivo: "a.pdf", CantidadHojas: 3, Color: order.ColorModeMonochrome,
		DobleFaz: true, Cotizacion: "300", PageCountSource: "content", PageCountAgreement: true,
	}
	stored := in
	stored.ID = uuid.New()
	stored.CreatedAt = now
	db := &fakeDB{rows: [][]any{orderRow(stored)}}
	repo := NewOrderRepository(db)
	repo.now = func() time.Time { return now }

	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	require.Len(t, db.args, 1)
	args := db.args[0]
	assert.NotEqual(t, uuid.Nil, args[0])
	assert.Equal(t, in.OwnerID, args[1])
	assert.Equal(t, 3, args[6])
	assert.Equal(t, "BN", args[8])
	assert.Equal(t, now, args[15])
	assert.True(t, strings.Contains(db.sql[0], "RETURNING"))
}

func TestOrderRepository_QuotationPassesThroughAsText(t *testing.T) {
	in := order.Order{ID: uuid.New(), Color: order.ColorModeColor, Cotizacion: "007"}
	db := &fakeDB{rows: [][]any{orderRow(in)}}

	got, err := NewOrderRepository(db).Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "007", got.Cotizacion)
	assert.Equal(t, "007", db.args[0][11])
	assert.NotContains(t, db.sql[0], "::")

	data, err := Migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Regexp(t, `cotizacion\s+TEXT NOT NULL`, string(data))
}

func TestOrderRepository_CreateKeepsGivenID(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{rows: [][]any{orderRow(order.Order{ID: id, Color: order.ColorModeColor})}}

	_, err := NewOrderRepository(db).Create(context.Background(), order.Order{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, db.args[0][0])
}

func TestOrderRepository_CreateError(t *testing.T) {
	boom := errors.New("conn closed")
	_, err := NewOrderRepository(&fakeDB{rowErr: boom}).Create(context.Background(), order.Order{})
	require.ErrorIs(t, err, boom)
}

func TestOrderRepository_GetByIDForOwner(t *testing.T) {
	owner, id := uuid.New(), uuid.New()
	db := &fakeDB{rows: [][]any{orderRow(order.Order{ID: id, OwnerID: owner, Color: order.ColorModeColor, CantidadHojas: 2})}}

	got, err := NewOrderRepository(db).GetByIDForOwner(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, order.ColorModeColor, got.Color)
	assert.Equal(t, []any{id, owner}, db.args[0])

	_, err = NewOrderRepository(&fakeDB{}).GetByIDForOwner(context.Background(), owner, id)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestOrderRepository_ListByOwner(t *testing.T) {
	owner := uuid.New()
	db := &fakeDB{rows: [][]any{
		orderRow(order.Order{ID: uuid.New(), OwnerID: owner, Color: order.ColorModeColor}),
		orderRow(order.Order{ID: uuid.New(), OwnerID: owner, Color: order.ColorModeMonochrome}),
	}}

	items, err := NewOrderRepository(db).ListByOwner(context.Background(), owner, 10, 5)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, []any{owner, 10, 5}, db.args[0])
	assert.Contains(t, db.sql[0], "ORDER BY created_at DESC")
}

func TestMigrationsEmbedded(t *testing.T) {
	data, err := Migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "CREATE TABLE IF NOT EXISTS orders")
}
