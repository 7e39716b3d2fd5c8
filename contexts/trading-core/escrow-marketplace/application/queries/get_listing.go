package queries

import (
	"context"
	"log/slog"
	"strings"

	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

type GetListingQuery struct {
	ItemID string
}

type GetListingResult struct {
	Listing entities.Listing
}

type GetListingUseCase struct {
	Listings ports.ListingReader
	Logger   *slog.Logger
}

func (u GetListingUseCase) Execute(ctx context.Context, query GetListingQuery) (GetListingResult, error) {
	if strings.TrimSpace(query.ItemID) == "" {
		return GetListingResult{}, domainerrors.ErrListingNotFound
	}
	listing, err := u.Listings.GetListing(ctx, query.ItemID)
	if err != nil {
		return GetListingResult{}, err
	}
	return GetListingResult{Listing: listing}, nil
}
