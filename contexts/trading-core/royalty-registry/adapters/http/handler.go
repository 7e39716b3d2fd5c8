package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"curio/contexts/trading-core/royalty-registry/application"
	"curio/contexts/trading-core/royalty-registry/domain/entities"
	httptransport "curio/contexts/trading-core/royalty-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// SetRoyaltyHandler godoc
// @Summary Upsert a royalty entry
// @Description Replaces the creator and rate for an asset type; registry admin only.
// @Tags royalty-registry
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.SetRoyaltyRequest true "Royalty payload"
// @Success 200 {object} httptransport.SetRoyaltyResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /royalties [put]
func (h Handler) SetRoyaltyHandler(ctx context.Context, caller string, req httptransport.SetRoyaltyRequest) (httptransport.SetRoyaltyResponse, error) {
	entry, err := h.Service.SetRoyalty(ctx, caller, entities.RoyaltyEntry{
		TypeTag:     req.TypeTag,
		Creator:     req.Creator,
		BasisPoints: req.BasisPoints,
	})
	if err != nil {
		return httptransport.SetRoyaltyResponse{}, err
	}
	return httptransport.SetRoyaltyResponse{Entry: mapEntry(entry)}, nil
}

// SetAdminHandler godoc
// @Summary Hand over the registry admin role
// @Description Replaces the registry admin identity; current admin only.
// @Tags royalty-registry
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.SetAdminRequest true "Admin payload"
// @Success 200 {object} httptransport.SetAdminResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /royalties/admin [post]
func (h Handler) SetAdminHandler(ctx context.Context, caller string, req httptransport.SetAdminRequest) (httptransport.SetAdminResponse, error) {
	config, err := h.Service.SetAdmin(ctx, caller, req.NewAdmin)
	if err != nil {
		return httptransport.SetAdminResponse{}, err
	}
	return httptransport.SetAdminResponse{
		Admin:     config.Admin,
		UpdatedAt: config.UpdatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// GetRoyaltyHandler godoc
// @Summary Fetch one royalty entry
// @Tags royalty-registry
// @Produce json
// @Param type_tag path string true "Asset type tag"
// @Success 200 {object} httptransport.GetRoyaltyResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /royalties/{type_tag} [get]
func (h Handler) GetRoyaltyHandler(ctx context.Context, typeTag string) (httptransport.GetRoyaltyResponse, error) {
	entry, err := h.Service.GetRoyalty(ctx, typeTag)
	if err != nil {
		return httptransport.GetRoyaltyResponse{}, err
	}
	return httptransport.GetRoyaltyResponse{Entry: mapEntry(entry)}, nil
}

// ListRoyaltiesHandler godoc
// @Summary List every royalty entry
// @Tags royalty-registry
// @Produce json
// @Success 200 {object} httptransport.ListRoyaltiesResponse
// @Router /royalties [get]
func (h Handler) ListRoyaltiesHandler(ctx context.Context) (httptransport.ListRoyaltiesResponse, error) {
	entries, err := h.Service.ListRoyalties(ctx)
	if err != nil {
		return httptransport.ListRoyaltiesResponse{}, err
	}
	out := make([]httptransport.RoyaltyEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, mapEntry(entry))
	}
	return httptransport.ListRoyaltiesResponse{Entries: out}, nil
}

func mapEntry(entry entities.RoyaltyEntry) httptransport.RoyaltyEntryDTO {
	return httptransport.RoyaltyEntryDTO{
		TypeTag:     entry.TypeTag,
		Creator:     entry.Creator,
		BasisPoints: entry.BasisPoints,
		UpdatedAt:   entry.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
