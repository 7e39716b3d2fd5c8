package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	escrowmarketplace "curio/contexts/trading-core/escrow-marketplace"
	marketdomainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	markethttp "curio/contexts/trading-core/escrow-marketplace/transport/http"
	royaltyregistry "curio/contexts/trading-core/royalty-registry"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	marketplace escrowmarketplace.Module
	royalty     royaltyregistry.Module
}

func New(
	marketplace escrowmarketplace.Module,
	royalty royaltyregistry.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		marketplace: marketplace,
		royalty:     royalty,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /market/listings", s.handleListItem)
	s.mux.HandleFunc("GET /market/listings", s.handleListListings)
	s.mux.HandleFunc("GET /market/listings/{item_id}", s.handleGetListing)
	s.mux.HandleFunc("DELETE /market/listings/{item_id}", s.handleDelistItem)
	s.mux.HandleFunc("POST /market/listings/{item_id}/price", s.handleChangePrice)
	s.mux.HandleFunc("POST /market/listings/{item_id}/buy", s.handleBuyItem)

	s.mux.HandleFunc("POST /market/admin/force-delist", s.handleForceDelist)
	s.mux.HandleFunc("POST /market/admin/config", s.handleSetMarketplace)
	s.mux.HandleFunc("POST /market/admin/status", s.handleSetStatus)
	s.mux.HandleFunc("POST /market/admin/withdraw", s.handleWithdrawFees)

	s.mux.HandleFunc("GET /market/accounts/{account}/balance", s.handleBalance)

	s.registerRoyaltyRoutes()
}

func (s *Server) handleListItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.ListItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.ListItemHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := markethttp.ListListingsRequest{
		Owner:   query.Get("owner"),
		TypeTag: query.Get("type_tag"),
		Cursor:  query.Get("cursor"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeMarketError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.marketplace.Handler.ListListingsHandler(r.Context(), req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("item_id")
	resp, err := s.marketplace.Handler.GetListingHandler(r.Context(), itemID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDelistItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("item_id")
	resp, err := s.marketplace.Handler.DelistItemHandler(r.Context(), caller, itemID)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePrice(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.ChangePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	itemID := r.PathValue("item_id")
	resp, err := s.marketplace.Handler.ChangePriceHandler(r.Context(), caller, itemID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.BuyItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	itemID := r.PathValue("item_id")
	resp, err := s.marketplace.Handler.BuyItemHandler(r.Context(), caller, itemID, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleForceDelist(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.ForceDelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.ForceDelistHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMarketplace(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.SetMarketplaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.SetMarketplaceHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req markethttp.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMarketError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.SetStatusHandler(r.Context(), caller, req)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.WithdrawFeesHandler(r.Context(), caller)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	resp, err := s.marketplace.Handler.BalanceHandler(r.Context(), account)
	if err != nil {
		writeMarketDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeMarketError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func writeMarketDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, marketdomainerrors.ErrPermissionDenied):
		writeMarketError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, marketdomainerrors.ErrMarketPaused):
		writeMarketError(w, http.StatusLocked, "market_paused", err.Error())
	case errors.Is(err, marketdomainerrors.ErrNotOwner):
		writeMarketError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, marketdomainerrors.ErrListingNotFound):
		writeMarketError(w, http.StatusNotFound, "listing_not_found", err.Error())
	case errors.Is(err, marketdomainerrors.ErrInsufficientPayment):
		writeMarketError(w, http.StatusPaymentRequired, "insufficient_payment", err.Error())
	case errors.Is(err, marketdomainerrors.ErrFeeExceedsPrice):
		// A consistency fault, not caller error: the quote broke the fee
		// invariant and the whole purchase rolled back.
		writeMarketError(w, http.StatusInternalServerError, "fee_exceeds_price", err.Error())
	case errors.Is(err, marketdomainerrors.ErrFeeRateInvalid),
		errors.Is(err, marketdomainerrors.ErrInvalidListRequest),
		errors.Is(err, marketdomainerrors.ErrInvalidPurchase),
		errors.Is(err, marketdomainerrors.ErrInvalidConfigUpdate),
		errors.Is(err, marketdomainerrors.ErrEmptyBatch):
		writeMarketError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeMarketError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeMarketError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, markethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
