// Package httpapi exposes the order engine over a JSON REST API for
// strategies and operator tooling.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tradeflow/internal/creds"
	"tradeflow/internal/domain"
	"tradeflow/internal/engine"
	"tradeflow/internal/symbols"
)

// Server serves the order API. The acting principal comes from the
// X-Principal request header; an absent header resolves to the process-wide
// default credential, if configured.
type Server struct {
	engine *engine.Engine
	creds  *creds.Resolver
	log    *slog.Logger
}

// NewServer creates an API server over the engine and credential resolver.
func NewServer(e *engine.Engine, cr *creds.Resolver) *Server {
	return &Server{
		engine: e,
		creds:  cr,
		log:    slog.Default().With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", s.handlePlaceOrder)
	mux.HandleFunc("POST /api/orders/smart", s.handleSmartOrder)
	mux.HandleFunc("PUT /api/orders/{id}", s.handleModifyOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("POST /api/orders/cancel-all", s.handleCancelAll)
	mux.HandleFunc("POST /api/positions/squareoff-all", s.handleSquareoffAll)

	mux.HandleFunc("GET /api/orders", s.handleOrderBook)
	mux.HandleFunc("GET /api/trades", s.handleTradeBook)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/holdings", s.handleHoldings)

	mux.HandleFunc("PUT /api/credentials/{principal}", s.handlePutCredential)
	mux.HandleFunc("DELETE /api/credentials/{principal}", s.handleRevokeCredential)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Principal")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeEngineError maps the engine's error taxonomy onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		credErr  *domain.CredentialError
		valErr   *domain.ValidationError
		mapErr   *domain.MappingError
		rejErr   *domain.BrokerRejection
		transErr *domain.TransportError
		posErr   *domain.PositionUnavailableError
	)
	switch {
	case errors.As(err, &credErr):
		writeError(w, http.StatusUnauthorized, credErr.Error())
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, valErr.Error())
	case errors.As(err, &mapErr):
		writeError(w, http.StatusBadRequest, mapErr.Error())
	case errors.Is(err, symbols.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &rejErr):
		writeError(w, http.StatusUnprocessableEntity, rejErr.Error())
	case errors.As(err, &posErr):
		writeError(w, http.StatusServiceUnavailable, posErr.Error())
	case errors.As(err, &transErr):
		writeError(w, http.StatusBadGateway, transErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func principalOf(r *http.Request) string {
	return r.Header.Get("X-Principal")
}

// ---------------------------------------------------------------------------
// Order handlers
// ---------------------------------------------------------------------------

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body OrderJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.engine.PlaceOrder(r.Context(), principalOf(r), body.toDomain(""))
	if err != nil {
		var rej *domain.BrokerRejection
		if errors.As(err, &rej) && outcome != nil {
			// Rejections carry the broker's response; return it with the error
			// status so callers see both.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(outcome)
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, outcome)
}

func (s *Server) handleSmartOrder(w http.ResponseWriter, r *http.Request) {
	var body SmartOrderJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.engine.PlaceSmartOrder(r.Context(), principalOf(r), body.toDomain())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, outcome)
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	var body OrderJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.engine.ModifyOrder(r.Context(), principalOf(r), body.toDomain(orderID))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, outcome)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CancelOrder(r.Context(), principalOf(r), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.CancelAll(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleSquareoffAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.SquareoffAll(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, report)
}

// ---------------------------------------------------------------------------
// Book handlers
// ---------------------------------------------------------------------------

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.engine.OrderBook(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, book)
}

func (s *Server) handleTradeBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.engine.TradeBook(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, book)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.engine.Positions(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, positions)
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.engine.Holdings(r.Context(), principalOf(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, holdings)
}

// ---------------------------------------------------------------------------
// Credential handlers
// ---------------------------------------------------------------------------

func (s *Server) handlePutCredential(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	var body CredentialJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.AccessToken == "" || body.APIKey == "" {
		writeError(w, http.StatusBadRequest, "access_token and api_key required")
		return
	}

	cred := domain.Credential{
		Principal:   principal,
		AccessToken: body.AccessToken,
		APIKey:      body.APIKey,
	}
	if body.ExpiresAt != nil {
		cred.ExpiresAt = *body.ExpiresAt
	}
	if err := s.creds.Upsert(r.Context(), cred); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("credential stored", "principal", principal)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	principal := r.PathValue("principal")
	if err := s.creds.Revoke(r.Context(), principal); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
