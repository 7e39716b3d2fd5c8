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

type ChangePriceCommand struct {
	Caller   string
	ItemID   string
	NewPrice uint64
}

type ChangePriceResult struct {
	Listing entities.Listing
}

type ChangePriceUseCase struct {
	Config      ports.ConfigRepository
	Reader      ports.ListingReader
	Listings    ports.ListingWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute updates the asking price in place. Only the recorded owner may
// reprice, and never while the market is paused.
func (u ChangePriceUseCase) Execute(ctx context.Context, cmd ChangePriceCommand) (ChangePriceResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.Caller) == "" || strings.TrimSpace(cmd.ItemID) == "" {
		return ChangePriceResult{}, domainerrors.ErrInvalidListRequest
	}

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return ChangePriceResult{}, err
	}
	if config.Paused {
		return ChangePriceResult{}, domainerrors.ErrMarketPaused
	}

	listing, err := u.Reader.GetListing(ctx, cmd.ItemID)
	if err != nil {
		return ChangePriceResult{}, err
	}
	if listing.Owner != cmd.Caller {
		logger.Warn("price change rejected for non-owner",
			"event", "market_change_price_not_owner",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"item_id", cmd.ItemID,
			"caller", cmd.Caller,
		)
		return ChangePriceResult{}, domainerrors.ErrNotOwner
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ChangePriceResult{}, err
	}

	if err := u.Listings.UpdateListingPrice(ctx, cmd.ItemID, cmd.NewPrice, now, ports.PriceChangedEvent{
		EventID:    eventID,
		ItemID:     cmd.ItemID,
		OldPrice:   listing.Price,
		NewPrice:   cmd.NewPrice,
		Owner:      listing.Owner,
		OccurredAt: now,
	}); err != nil {
		return ChangePriceResult{}, err
	}

	logger.Info("listing repriced",
		"event", "market_price_changed",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"item_id", cmd.ItemID,
		"old_price", listing.Price,
		"new_price", cmd.NewPrice,
	)

	listing.Price = cmd.NewPrice
	listing.UpdatedAt = now
	return ChangePriceResult{Listing: listing}, nil
}

func (u ChangePriceUseCase) now() time.Time {
	return resolveNow(u.Clock)
}
