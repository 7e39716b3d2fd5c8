package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

type ForceDelistCommand struct {
	Caller  string
	ItemIDs []string
}

type ForceDelistResult struct {
	Removed int
}

type ForceDelistUseCase struct {
	Config      ports.ConfigRepository
	Listings    ports.ListingWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute removes a batch of listings unconditionally, releasing each asset
// back to its recorded owner. The batch is one atomic unit: a single missing
// id fails the whole call with nothing released and no events emitted.
// Available while paused; the admin can always clear the market.
func (u ForceDelistUseCase) Execute(ctx context.Context, cmd ForceDelistCommand) (ForceDelistResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.Caller) == "" {
		return ForceDelistResult{}, domainerrors.ErrPermissionDenied
	}
	if len(cmd.ItemIDs) == 0 {
		return ForceDelistResult{}, domainerrors.ErrEmptyBatch
	}

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return ForceDelistResult{}, err
	}
	if !config.IsAdmin(cmd.Caller) {
		logger.Warn("force delist rejected for non-admin",
			"event", "market_force_delist_denied",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"caller", cmd.Caller,
			"batch_size", len(cmd.ItemIDs),
		)
		return ForceDelistResult{}, domainerrors.ErrPermissionDenied
	}

	now := u.now()
	events := make([]ports.DelistedEvent, 0, len(cmd.ItemIDs))
	for _, itemID := range cmd.ItemIDs {
		if strings.TrimSpace(itemID) == "" {
			return ForceDelistResult{}, domainerrors.ErrListingNotFound
		}
		eventID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return ForceDelistResult{}, err
		}
		// Owner and type tag are filled by the adapter from the removed row.
		events = append(events, ports.DelistedEvent{
			EventID:    eventID,
			ItemID:     itemID,
			Forced:     true,
			OccurredAt: now,
		})
	}

	if err := u.Listings.RemoveListingBatch(ctx, cmd.ItemIDs, events); err != nil {
		logger.Error("force delist batch failed",
			"event", "market_force_delist_failed",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"batch_size", len(cmd.ItemIDs),
			"error", err.Error(),
		)
		return ForceDelistResult{}, err
	}

	logger.Info("listings force delisted",
		"event", "market_force_delisted",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"admin", cmd.Caller,
		"batch_size", len(cmd.ItemIDs),
	)

	return ForceDelistResult{Removed: len(cmd.ItemIDs)}, nil
}

func (u ForceDelistUseCase) now() time.Time {
	return resolveNow(u.Clock)
}
