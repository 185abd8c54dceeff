package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fotcopier/printshop/api/http/presenter"
	"github.com/fotcopier/printshop/pkg/order"
)

type OrderHandler struct {
	svc order.UseCase
}

func NewOrderHandler(svc order.UseCase) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Create accepts a print order with its document.
// @Summary Submit a print order
// @Description The stored page count is computed from the document; any client-declared count is ignored.
// @Tags    orders
// @Accept  multipart/form-data
// @Produce json
// @Param   archivo          formData file   true  "PDF document"
// @Param   color            formData string true  "color or BN"
// @Param   cotizacion       formData string true  "quoted price"
// @Param   dobleFaz         formData string false "true or false"
// @Param   anillado         formData string false "true or false"
// @Param   implementacionIA formData string false "true or false"
// @Param   nombre           formData string false "display name (defaults to profile)"
// @Param   comision         formData string false "commission (defaults to profile)"
// @Param   legajo           formData string false "student id (defaults to profile)"
// @Security BearerAuth
// @Success 201 {object} order.Order
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /api/pedidos [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	id, ok := subject(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "access denied: invalid or expired token")
	}

	form := order.Form{
		Nombre:           c.FormValue("nombre"),
		Comision:         c.FormValue("comision"),
		Legajo:           c.FormValue("legajo"),
		ImplementacionIA: c.FormValue("implementacionIA"),
		Color:            c.FormValue("color"),
		DobleFaz:         c.FormValue("dobleFaz"),
		Anillado:         c.FormValue("anillado"),
		Cotizacion:       c.FormValue("cotizacion"),
		DeclaredPages:    c.FormValue("cantidadHojas"),
	}
	if fh, err := c.FormFile("archivo"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			return presenter.FieldError(c, http.StatusBadRequest, "archivo", "failed to open uploaded file")
		}
		defer f.Close()
		form.File = &order.Attachment{Filename: fh.Filename, Content: f}
	}

	o, err := h.svc.Submit(c.UserContext(), order.Identity{SubjectID: id}, form)
	if err != nil {
		var verr *order.ValidationError
		switch {
		case errors.As(err, &verr):
			return presenter.FieldError(c, http.StatusBadRequest, verr.Field, verr.Error())
		case errors.Is(err, order.ErrPageCountFailed):
			return presenter.Error(c, http.StatusInternalServerError, "could not determine the page count of the document")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to create order")
		}
	}
	return presenter.JSON(c, http.StatusCreated, o)
}

// List returns the caller's orders, newest first.
// @Summary List own orders
// @Tags    orders
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "offset"
// @Security BearerAuth
// @Success 200 {array} order.Order
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /api/pedidos [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	id, ok := subject(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "access denied: invalid or expired token")
	}
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.svc.List(c.UserContext(), order.Identity{SubjectID: id}, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list orders")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Get returns one of the caller's orders.
// @Summary Get own order
// @Tags    orders
// @Produce json
// @Param   id path string true "order id"
// @Security BearerAuth
// @Success 200 {object} order.Order
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/pedidos/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := subject(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "access denied: invalid or expired token")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid order id")
	}
	o, err := h.svc.Get(c.UserContext(), order.Identity{SubjectID: id}, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "order not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to load order")
	}
	return presenter.JSON(c, http.StatusOK, o)
}

// Document streams the archived source document of an order.
// @Summary Download order document
// @Tags    orders
// @Produce application/pdf
// @Param   id path string true "order id"
// @Security BearerAuth
// @Success 200 {file} file
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /api/pedidos/{id}/archivo [get]
func (h *OrderHandler) Document(c *fiber.Ctx) error {
	id, ok := subject(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "access denied: invalid or expired token")
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid order id")
	}
	o, data, err := h.svc.OpenDocument(c.UserContext(), order.Identity{SubjectID: id}, orderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrNoDocument):
			return presenter.Error(c, http.StatusNotFound, "document not archived")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to load document")
		}
	}
	c.Attachment(o.NombreArchivo)
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Status(http.StatusOK).Send(data)
}
