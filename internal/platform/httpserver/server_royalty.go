package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	royaltydomainerrors "curio/contexts/trading-core/royalty-registry/domain/errors"
	royaltyhttp "curio/contexts/trading-core/royalty-registry/transport/http"
)

func (s *Server) registerRoyaltyRoutes() {
	s.mux.HandleFunc("GET /royalties", s.handleListRoyalties)
	s.mux.HandleFunc("PUT /royalties", s.handleSetRoyalty)
	s.mux.HandleFunc("GET /royalties/{type_tag}", s.handleGetRoyalty)
	s.mux.HandleFunc("POST /royalties/admin", s.handleSetRoyaltyAdmin)
}

func (s *Server) handleListRoyalties(w http.ResponseWriter, r *http.Request) {
	resp, err := s.royalty.Handler.ListRoyaltiesHandler(r.Context())
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req royaltyhttp.SetRoyaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.royalty.Handler.SetRoyaltyHandler(r.Context(), caller, req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRoyalty(w http.ResponseWriter, r *http.Request) {
	typeTag := r.PathValue("type_tag")
	resp, err := s.royalty.Handler.GetRoyaltyHandler(r.Context(), typeTag)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetRoyaltyAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req royaltyhttp.SetAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.royalty.Handler.SetAdminHandler(r.Context(), caller, req)
	if err != nil {
		writeRoyaltyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRoyaltyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, royaltydomainerrors.ErrPermissionDenied):
		writeRoyaltyError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrEntryNotFound):
		writeRoyaltyError(w, http.StatusNotFound, "royalty_not_found", err.Error())
	case errors.Is(err, royaltydomainerrors.ErrRateInvalid),
		errors.Is(err, royaltydomainerrors.ErrInvalidUpdate):
		writeRoyaltyError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeRoyaltyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRoyaltyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, royaltyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
