package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fotcopier/printshop/api/http/presenter"
	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/security/jwt"
)

type AuthHandler struct {
	useCase auth.AuthUseCase
}

func NewAuthHandler(useCase auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{useCase: useCase}
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Commission string `json:"commission"`
	Legajo     string `json:"legajo"`
}

type registerResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// Register handles user registration.
// @Summary Register user
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body registerRequest true "registration payload"
// @Success 201 {object} registerResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.useCase.Register(c.UserContext(), auth.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Lastname:   req.Lastname,
		Commission: req.Commission,
		Legajo:     req.Legajo,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			return presenter.Error(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrUserAlreadyExists):
			return presenter.Error(c, http.StatusConflict, "user already exists")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to register user")
		}
	}

	return presenter.JSON(c, http.StatusCreated, registerResponse{
		Message: "user registered",
		ID:      result.User.ID.String(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login handles user login.
// @Summary Login
// @Tags    auth
// @Accept  json
// @Produce json
// @Param   input body loginRequest true "login payload"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 500 {object} presenter.ErrorResponse
// @Router  /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.useCase.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidInput) {
			return presenter.Error(c, http.StatusBadRequest, "invalid credentials")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to login")
	}
	return presenter.JSON(c, http.StatusOK, tokenResponse{Token: result.Token})
}

// Profile returns the authenticated user's stored profile.
// @Summary Current user
// @Tags    auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} auth.Profile
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /protected-route [get]
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	id, ok := subject(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "access denied: invalid or expired token")
	}
	p, err := h.useCase.Profile(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "user not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to load user")
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// subject is the identity placed in locals by the auth middleware.
func subject(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(jwt.LocalsUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
