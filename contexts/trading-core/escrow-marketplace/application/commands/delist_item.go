package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

type DelistItemCommand struct {
	Caller string
	ItemID string
}

type DelistItemResult struct {
	Asset entities.Asset
}

type DelistItemUseCase struct {
	Reader      ports.ListingReader
	Listings    ports.ListingWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute returns the escrowed asset to its owner and drops the listing.
// Ownership is verified before the destructive removal, so a rejected call
// leaves the row untouched. Delisting stays available while the market is
// paused; sellers can always exit.
func (u DelistItemUseCase) Execute(ctx context.Context, cmd DelistItemCommand) (DelistItemResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.Caller) == "" || strings.TrimSpace(cmd.ItemID) == "" {
		return DelistItemResult{}, domainerrors.ErrInvalidListRequest
	}

	listing, err := u.Reader.GetListing(ctx, cmd.ItemID)
	if err != nil {
		return DelistItemResult{}, err
	}
	if listing.Owner != cmd.Caller {
		return DelistItemResult{}, domainerrors.ErrNotOwner
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return DelistItemResult{}, err
	}

	release := ports.AssetRelease{Asset: listing.Asset, Recipient: listing.Owner}
	if err := u.Listings.RemoveListing(ctx, cmd.ItemID, release, ports.DelistedEvent{
		EventID:    eventID,
		ItemID:     cmd.ItemID,
		Owner:      listing.Owner,
		TypeTag:    listing.TypeTag,
		OccurredAt: now,
	}); err != nil {
		return DelistItemResult{}, err
	}

	logger.Info("listing delisted",
		"event", "market_item_delisted",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"item_id", cmd.ItemID,
		"owner", listing.Owner,
		"asset_id", listing.Asset.AssetID,
	)

	return DelistItemResult{Asset: listing.Asset}, nil
}

func (u DelistItemUseCase) now() time.Time {
	return resolveNow(u.Clock)
}
