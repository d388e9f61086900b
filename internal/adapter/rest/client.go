// Package rest is the HTTP client for the product backend.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/port"
)

const (
	headerRequestID   = "X-Request-Id"
	headerIdempotency = "Idempotency-Key"
	defaultTimeout    = 15 * time.Second
)

// Credentials supplies the bearer token and is told when the backend
// rejects it.
type Credentials interface {
	Token() string
	Invalidate(ctx context.Context)
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     *zap.Logger
}

var _ port.ProductGateway = (*Client)(nil)

// NewClient builds a client for baseURL, e.g. http://localhost:8000/api.
// timeout <= 0 selects the default.
func NewClient(baseURL string, creds Credentials, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     zap.L().Named("rest"),
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "list products", http.MethodGet, "/products/", nil, &raw); err != nil {
		return nil, err
	}
	products, err := decodeList(raw)
	if err != nil {
		return nil, &domain.TransportError{Op: "list products", Err: err}
	}
	return products, nil
}

func (c *Client) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, "create product", http.MethodPost, "/products/", product, &out)
	return out, err
}

func (c *Client) ReplaceProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, "replace product", http.MethodPut, productPath(product.ID), product, &out)
	return out, err
}

func (c *Client) PatchProduct(ctx context.Context, id string, fields map[string]any) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, "patch product", http.MethodPatch, productPath(id), fields, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "delete product", http.MethodDelete, productPath(id), nil, nil)
}

// StockByCategory reads the dashboard's stock breakdown.
func (c *Client) StockByCategory(ctx context.Context) ([]domain.CategoryStock, error) {
	var out struct {
		InventoryData []domain.CategoryStock `json:"inventory_data"`
	}
	if err := c.do(ctx, "dashboard stats", http.MethodGet, "/dashboard-stats/", nil, &out); err != nil {
		return nil, err
	}
	return out.InventoryData, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (port.Tokens, error) {
	var out port.Tokens
	body := map[string]string{"username": username, "password": password}
	err := c.send(ctx, "login", http.MethodPost, "/token/", body, &out, false)
	return out, err
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refresh string) (port.Tokens, error) {
	var out port.Tokens
	err := c.send(ctx, "refresh token", http.MethodPost, "/token/refresh/", map[string]string{"refresh": refresh}, &out, false)
	return out, err
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id) + "/"
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	return c.send(ctx, op, method, path, in, out, true)
}

// send performs one request. Token endpoints pass authed=false: they carry no
// bearer and a 401 from them leaves the session alone.
func (c *Client) send(ctx context.Context, op, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(headerIdempotency, uuid.NewString())
	}
	if authed && c.creds != nil {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", req.Header.Get(headerRequestID)),
	)

	if resp.StatusCode == http.StatusUnauthorized && authed && c.creds != nil {
		c.creds.Invalidate(ctx)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: readDetail(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// readDetail pulls the backend's {"detail": "..."} message when present.
func readDetail(r io.Reader) error {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Detail != "" {
		return errors.New(envelope.Detail)
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return errors.New(msg)
	}
	return errors.New("empty response")
}

// decodeList accepts either a bare array or a paginated {"results": [...]}.
func decodeList(raw json.RawMessage) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results []domain.Product `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decode product page: %w", err)
		}
		return page.Results, nil
	}
	var products []domain.Product
	if err := json.Unmarshal(trimmed, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}
