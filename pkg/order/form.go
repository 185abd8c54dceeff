package order

import (
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plainDecimal is the only quotation shape accepted: no sign, no exponent.
var plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Attachment is the uploaded document.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// Form is one submission as sent by the client. Boolean options arrive as the
// strings "true"/"false"; an empty value means false (unchecked box).
type Form struct {
	Nombre   string
	Comision string
	Legajo   string

	ImplementacionIA string
	Color            string
	DobleFaz         string
	Anillado         string
	Cotizacion       string

	// DeclaredPages is whatever page count the client typed, if any. It is
	// only logged; the stored count is always computed.
	DeclaredPages string

	File *Attachment
}

// options is the validated, typed part of a Form.
type options struct {
	ai         bool
	color      ColorMode
	duplex     bool
	binding    bool
	cotizacion string
}

func (f Form) validate() (options, error) {
	var opts options
	if f.File == nil || f.File.Content == nil {
		return opts, invalid("archivo", "a file attachment is required")
	}
	if strings.TrimSpace(f.File.Filename) == "" {
		return opts, invalid("archivo", "file name is empty")
	}

	opts.color = ColorMode(strings.TrimSpace(f.Color))
	if !opts.color.Valid() {
		return opts, invalid("color", `must be "color" or "BN"`)
	}

	var err error
	if opts.ai, err = parseFlag("implementacionIA", f.ImplementacionIA); err != nil {
		return opts, err
	}
	if opts.duplex, err = parseFlag("dobleFaz", f.DobleFaz); err != nil {
		return opts, err
	}
	if opts.binding, err = parseFlag("anillado", f.Anillado); err != nil {
		return opts, err
	}

	// The quotation is stored as typed; only its shape is checked.
	opts.cotizacion = strings.TrimSpace(f.Cotizacion)
	if opts.cotizacion == "" {
		return opts, invalid("cotizacion", "is required")
	}
	if strings.HasPrefix(opts.cotizacion, "-") {
		return opts, invalid("cotizacion", "must not be negative")
	}
	if !plainDecimal.MatchString(opts.cotizacion) {
		return opts, invalid("cotizacion", "must be a plain decimal number")
	}
	if _, err := decimal.NewFromString(opts.cotizacion); err != nil {
		return opts, invalid("cotizacion", "must be a decimal number")
	}
	return opts, nil
}

func parseFlag(field, v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, invalid(field, `must be "true" or "false"`)
	}
}
