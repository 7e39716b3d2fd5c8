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

type ListItemCommand struct {
	Caller   string
	AssetID  string
	TypeTag  string
	Metadata string
	Price    uint64
}

type ListItemResult struct {
	Listing entities.Listing
}

type ListItemUseCase struct {
	Config      ports.ConfigRepository
	Listings    ports.ListingWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute deposits the caller's asset into escrow under a fresh item id.
// The listing row and the market.listed outbox event commit together.
func (u ListItemUseCase) Execute(ctx context.Context, cmd ListItemCommand) (ListItemResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.Caller) == "" ||
		strings.TrimSpace(cmd.AssetID) == "" ||
		strings.TrimSpace(cmd.TypeTag) == "" {
		return ListItemResult{}, domainerrors.ErrInvalidListRequest
	}

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return ListItemResult{}, err
	}
	if config.Paused {
		return ListItemResult{}, domainerrors.ErrMarketPaused
	}

	now := u.now()
	itemID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ListItemResult{}, err
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ListItemResult{}, err
	}

	listing := entities.Listing{
		ItemID:  itemID,
		Price:   cmd.Price,
		Owner:   cmd.Caller,
		TypeTag: cmd.TypeTag,
		Asset: entities.Asset{
			AssetID:  cmd.AssetID,
			TypeTag:  cmd.TypeTag,
			Metadata: cmd.Metadata,
		},
		ListedAt:  now,
		UpdatedAt: now,
	}

	if err := u.Listings.CreateListing(ctx, listing, ports.ListedEvent{
		EventID:    eventID,
		ItemID:     itemID,
		Price:      cmd.Price,
		Seller:     cmd.Caller,
		TypeTag:    cmd.TypeTag,
		OccurredAt: now,
	}); err != nil {
		logger.Error("list item failed on write transaction",
			"event", "market_list_item_write_failed",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"asset_id", cmd.AssetID,
			"seller", cmd.Caller,
			"error", err.Error(),
		)
		return ListItemResult{}, err
	}

	logger.Info("asset listed into escrow",
		"event", "market_item_listed",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"item_id", itemID,
		"asset_id", cmd.AssetID,
		"seller", cmd.Caller,
		"type_tag", cmd.TypeTag,
		"price", cmd.Price,
	)

	return ListItemResult{Listing: listing}, nil
}

func (u ListItemUseCase) now() time.Time {
	return resolveNow(u.Clock)
}
