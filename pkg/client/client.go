// Package client talks to the print-shop API the way the order form does:
// one request per action, no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/order"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api %d: %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	Token   string
	httpDo  *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{BaseURL: baseURL, Token: token, httpDo: &http.Client{Timeout: 2 * time.Minute}}
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Lastname   string `json:"lastname"`
	Commission string `json:"commission"`
	Legajo     string `json:"legajo"`
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/register", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Login returns a token and remembers it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", in, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

func (c *Client) Profile(ctx context.Context) (auth.Profile, error) {
	var p auth.Profile
	err := c.doJSON(ctx, http.MethodGet, "/protected-route", nil, &p)
	return p, err
}

func (c *Client) Order(ctx context.Context, id string) (order.Order, error) {
	var o order.Order
	err := c.doJSON(ctx, http.MethodGet, "/api/pedidos/"+id, nil, &o)
	return o, err
}

func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var items []order.Order
	err := c.doJSON(ctx, http.MethodGet, "/api/pedidos", nil, &items)
	return items, err
}

// OrderRequest is what the order form collects. Empty identity labels are
// filled by the server from the account profile.
type OrderRequest struct {
	Nombre           string
	Comision         string
	Legajo           string
	ImplementacionIA bool
	Color            order.ColorMode
	DobleFaz         bool
	Anillado         bool
	Cotizacion       string

	Filename string
	Document io.Reader
}

// SubmitOrder sends the form and the document as one multipart request.
func (c *Client) SubmitOrder(ctx context.Context, in OrderRequest) (order.Order, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"nombre", in.Nombre},
		{"comision", in.Comision},
		{"legajo", in.Legajo},
		{"implementacionIA", strconv.FormatBool(in.ImplementacionIA)},
		{"color", string(in.Color)},
		{"dobleFaz", strconv.FormatBool(in.DobleFaz)},
		{"anillado", strconv.FormatBool(in.Anillado)},
		{"cotizacion", in.Cotizacion},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return order.Order{}, err
		}
	}
	if in.Document != nil {
		fw, err := w.CreateFormFile("archivo", in.Filename)
		if err != nil {
			return order.Order{}, err
		}
		if _, err := io.Copy(fw, in.Document); err != nil {
			return order.Order{}, fmt.Errorf("read document: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return order.Order{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/pedidos", &buf)
	if err != nil {
		return order.Order{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var o order.Order
	err = c.do(req, &o)
	return o, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpDo.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Message, apiErr.Field = body.Message, body.Field
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
