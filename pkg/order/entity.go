package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ColorMode is the print color option as sent by the order form.
type ColorMode string

const (
	ColorModeColor      ColorMode = "color"
	ColorModeMonochrome ColorMode = "BN"
)

func (m ColorMode) Valid() bool {
	return m == ColorModeColor || m == ColorModeMonochrome
}

// Order is one persisted print request. It is never updated after creation.
//
// OwnerID is the authenticated subject that submitted the order and is the
// only authoritative identity. Nombre, Comision and Legajo are display labels:
// defaulted from the owner's profile, overridable by the client, never
// cross-checked.
type Order struct {
	ID                 uuid.UUID `json:"id"`
	OwnerID            uuid.UUID `json:"ownerId"`
	Nombre             string    `json:"nombre"`
	Comision           string    `json:"comision"`
	Legajo             string    `json:"legajo"`
	NombreArchivo      string    `json:"nombreArchivo"`
	CantidadHojas      int       `json:"cantidadHojas"`
	ImplementacionIA   bool      `json:"implementacionIA"`
	Color              ColorMode `json:"color"`
	DobleFaz           bool      `json:"dobleFaz"`
	Anillado           bool      `json:"anillado"`
	Cotizacion         string    `json:"cotizacion"`
	PageCountSource    string    `json:"pageCountSource"`
	PageCountAgreement bool      `json:"pageCountAgreement"`
	StorageKey         string    `json:"-"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Repository is the durable order store. Create is the only write.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	GetByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (Order, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Order, error)
}
