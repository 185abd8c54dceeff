package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fotcopier/printshop/pkg/order"
)

// OrderRepository implements order.Repository. Orders are insert-only.
type OrderRepository struct {
	db  Querier
	now func() time.Time
}

func NewOrderRepository(db Querier) *OrderRepository {
	return &OrderRepository{db: db, now: time.Now}
}

const orderColumns = `id, owner_id, nombre, comision, legajo, nombre_archivo, cantidad_hojas,
	implementacion_ia, color, doble_faz, anillado, cotizacion,
	page_count_source, page_count_agreement, storage_key, created_at`

func (r *OrderRepository) Create(ctx context.Context, o order.Order) (order.Order, error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = r.now().UTC()
	row := r.db.QueryRow(ctx, `
		INSERT INTO orders (id, owner_id, nombre, comision, legajo, nombre_archivo, cantidad_hojas,
			implementacion_ia, color, doble_faz, anillado, cotizacion,
			page_count_source, page_count_agreement, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+orderColumns,
		o.ID, o.OwnerID, o.Nombre, o.Comision, o.Legajo, o.NombreArchivo, o.CantidadHojas,
		o.ImplementacionIA, string(o.Color), o.DobleFaz, o.Anillado, o.Cotizacion,
		o.PageCountSource, o.PageCountAgreement, o.StorageKey, o.CreatedAt)
	return scanOrder(row)
}

func (r *OrderRepository) GetByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (order.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE owner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]order.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	var color string
	if err := row.Scan(&o.ID, &o.OwnerID, &o.Nombre, &o.Comision, &o.Legajo, &o.NombreArchivo,
		&o.CantidadHojas, &o.ImplementacionIA, &color, &o.DobleFaz, &o.Anillado, &o.Cotizacion,
		&o.PageCountSource, &o.PageCountAgreement, &o.StorageKey, &o.CreatedAt); err != nil {
		return order.Order{}, err
	}
	o.Color = order.ColorMode(color)
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}
