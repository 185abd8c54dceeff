package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/metrics"
	"github.com/fotcopier/printshop/pkg/pagecount"
	"github.com/fotcopier/printshop/pkg/storage/blob"
)

// Identity is the verified subject of the request.
type Identity struct {
	SubjectID uuid.UUID
}

// PageCounter computes the authoritative page count of a document.
type PageCounter interface {
	CountPages(ctx context.Context, data []byte) (pagecount.Result, error)
}

// ProfileSource supplies the stored profile used for default display labels.
type ProfileSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (auth.User, error)
}

// UseCase is the order intake workflow.
//
// Submit is not idempotent: a resubmitted form creates another order.
type UseCase interface {
	Submit(ctx context.Context, id Identity, form Form) (Order, error)
	Get(ctx context.Context, id Identity, orderID uuid.UUID) (Order, error)
	List(ctx context.Context, id Identity, limit, offset int) ([]Order, error)
	OpenDocument(ctx context.Context, id Identity, orderID uuid.UUID) (Order, []byte, error)
}

type Options struct {
	MaxUploadBytes int64
	// Archive keeps the uploaded bytes; nil disables archiving.
	Archive blob.Store
}

type service struct {
	repo     Repository
	counter  PageCounter
	profiles ProfileSource
	archive  blob.Store
	maxBytes int64
	log      *slog.Logger
}

func NewService(repo Repository, counter PageCounter, profiles ProfileSource, opts Options, log *slog.Logger) UseCase {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 15 << 20 // 15MB
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{
		repo:     repo,
		counter:  counter,
		profiles: profiles,
		archive:  opts.Archive,
		maxBytes: opts.MaxUploadBytes,
		log:      log,
	}
}

func (s *service) Submit(ctx context.Context, id Identity, form Form) (Order, error) {
	log := s.log.With("owner", id.SubjectID.String())

	opts, err := form.validate()
	if err != nil {
		return Order{}, s.reject(ctx, log, err)
	}
	data, err := s.readAttachment(form.File)
	if err != nil {
		return Order{}, s.reject(ctx, log, err)
	}

	o := Order{
		OwnerID:          id.SubjectID,
		Nombre:           strings.TrimSpace(form.Nombre),
		Comision:         strings.TrimSpace(form.Comision),
		Legajo:           strings.TrimSpace(form.Legajo),
		NombreArchivo:    form.File.Filename,
		ImplementacionIA: opts.ai,
		Color:            opts.color,
		DobleFaz:         opts.duplex,
		Anillado:         opts.binding,
		Cotizacion:       opts.cotizacion,
	}
	if err := s.fillLabels(ctx, &o); err != nil {
		metrics.ObserveOrder("persistence_failed")
		log.ErrorContext(ctx, "profile lookup failed", "kind", "persistence", "error", err)
		return Order{}, err
	}

	res, err := s.counter.CountPages(ctx, data)
	if err != nil {
		metrics.ObserveOrder("page_count_failed")
		log.ErrorContext(ctx, "page count failed", "kind", "page_count", "file", o.NombreArchivo, "error", err)
		return Order{}, &PageCountError{Cause: err}
	}
	o.CantidadHojas = res.Pages
	o.PageCountSource = string(res.Source)
	o.PageCountAgreement = res.Agreement
	if declared := strings.TrimSpace(form.DeclaredPages); declared != "" && declared != strconv.Itoa(res.Pages) {
		log.InfoContext(ctx, "ignoring client-declared page count", "declared", declared, "computed", res.Pages)
	}

	o.ID = uuid.New()
	if s.archive != nil {
		o.StorageKey = fmt.Sprintf("orders/%s/%s.pdf", o.OwnerID, o.ID)
		if err := s.archive.Put(ctx, o.StorageKey, data, "application/pdf"); err != nil {
			metrics.ObserveOrder("persistence_failed")
			log.ErrorContext(ctx, "archive document failed", "kind", "persistence", "error", err)
			return Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	saved, err := s.repo.Create(ctx, o)
	if err != nil {
		s.discardArchived(ctx, log, o.StorageKey)
		metrics.ObserveOrder("persistence_failed")
		log.ErrorContext(ctx, "create order failed", "kind", "persistence", "error", err)
		return Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	metrics.ObserveOrder("created")
	log.InfoContext(ctx, "order created",
		"order", saved.ID.String(), "pages", saved.CantidadHojas,
		"source", saved.PageCountSource, "agreement", saved.PageCountAgreement)
	return saved, nil
}

func (s *service) reject(ctx context.Context, log *slog.Logger, err error) error {
	metrics.ObserveOrder("invalid")
	log.InfoContext(ctx, "order rejected", "kind", "validation", "error", err)
	return err
}

func (s *service) readAttachment(a *Attachment) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(a.Content, s.maxBytes+1))
	if err != nil {
		return nil, invalid("archivo", "could not be read")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, invalid("archivo", fmt.Sprintf("file too large: limit is %d bytes", s.maxBytes))
	}
	if len(data) == 0 {
		return nil, invalid("archivo", "file is empty")
	}
	return data, nil
}

// fillLabels defaults empty display labels from the owner's stored profile.
func (s *service) fillLabels(ctx context.Context, o *Order) error {
	if o.Nombre != "" && o.Comision != "" && o.Legajo != "" {
		return nil
	}
	if s.profiles == nil {
		return nil
	}
	u, err := s.profiles.GetByID(ctx, o.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: load profile: %v", ErrPersistence, err)
	}
	if o.Nombre == "" {
		o.Nombre = strings.TrimSpace(u.Name + " " + u.Lastname)
	}
	if o.Comision == "" {
		o.Comision = u.Commission
	}
	if o.Legajo == "" {
		o.Legajo = u.Legajo
	}
	return nil
}

func (s *service) discardArchived(ctx context.Context, log *slog.Logger, key string) {
	if s.archive == nil || key == "" {
		return
	}
	// the request context may already be done; cleanup still has to run
	if err := s.archive.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.ErrorContext(ctx, "remove archived document failed", "key", key, "error", err)
	}
}

func (s *service) Get(ctx context.Context, id Identity, orderID uuid.UUID) (Order, error) {
	o, err := s.repo.GetByIDForOwner(ctx, id.SubjectID, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return o, nil
}

func (s *service) List(ctx context.Context, id Identity, limit, offset int) ([]Order, error) {
	items, err := s.repo.ListByOwner(ctx, id.SubjectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if items == nil {
		items = []Order{}
	}
	return items, nil
}

func (s *service) OpenDocument(ctx context.Context, id Identity, orderID uuid.UUID) (Order, []byte, error) {
	o, err := s.Get(ctx, id, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	if s.archive == nil || o.StorageKey == "" {
		return Order{}, nil, ErrNoDocument
	}
	data, err := s.archive.Get(ctx, o.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return Order{}, nil, ErrNoDocument
		}
		return Order{}, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return o, data, nil
}
