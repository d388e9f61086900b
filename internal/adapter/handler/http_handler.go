package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/core/service"
)

const maxBodyBytes = 1 << 20

type HTTPHandler struct {
	catalog *service.CatalogService
	auth    *Authenticator
	log     *zap.Logger
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func NewHTTPHandler(catalog *service.CatalogService, auth *Authenticator) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, auth: auth, log: zap.L().Named("http")}
}

// Routes mounts the API. Reads are public; writes and the dashboard need a
// bearer token.
func (h *HTTPHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/products/{$}", h.ListProducts)
	mux.HandleFunc("POST /api/products/{$}", h.RequireAuth(h.CreateProduct))
	mux.HandleFunc("GET /api/products/{id}/{$}", h.GetProduct)
	mux.HandleFunc("PUT /api/products/{id}/{$}", h.RequireAuth(h.ReplaceProduct))
	mux.HandleFunc("PATCH /api/products/{id}/{$}", h.RequireAuth(h.PatchProduct))
	mux.HandleFunc("DELETE /api/products/{id}/{$}", h.RequireAuth(h.DeleteProduct))

	mux.HandleFunc("GET /api/dashboard-stats/{$}", h.RequireAuth(h.DashboardStats))

	mux.HandleFunc("POST /api/token/{$}", h.Token)
	mux.HandleFunc("POST /api/token/refresh/{$}", h.TokenRefresh)

	return WithRequestID(WithLogging(h.log, mux))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := domain.Criteria{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Supplier: q.Get("supplier"),
	}

	products, err := h.catalog.List(r.Context(), criteria)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeBody(r, &p); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.catalog.Create(r.Context(), r.Header.Get("Idempotency-Key"), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeBody(r, &p); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.ID = r.PathValue("id")

	updated, err := h.catalog.Replace(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if err := decodeBody(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.catalog.Patch(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *HTTPHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	tokens, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		h.log.Warn("login rejected", zap.String("username", req.Username), zap.String("request_id", RequestIDFromContext(r.Context())))
		writeDetail(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (h *HTTPHandler) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		writeDetail(w, http.StatusBadRequest, "refresh is required")
		return
	}

	tokens, err := h.auth.Refresh(req.Refresh)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": tokens.Access})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeDetail(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrInvalidPayload):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrDuplicateProduct):
		writeDetail(w, http.StatusBadRequest, "product with this id already exists.")
	case errors.Is(err, service.ErrDuplicateRequest):
		writeDetail(w, http.StatusConflict, "duplicate request")
	default:
		subject, _ := r.Context().Value(ctxKeySubject).(string)
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("user", subject),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
