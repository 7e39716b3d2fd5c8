package commands

import (
	"context"
	"log/slog"
	"strings"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

type SetMarketplaceCommand struct {
	Caller    string
	NewAdmin  string
	NewFeeBps uint16
}

type SetMarketplaceResult struct {
	Config entities.MarketConfig
}

type SetMarketplaceUseCase struct {
	Config ports.ConfigRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute replaces the admin identity and fee rate in one write. Only the
// current admin may call it.
func (u SetMarketplaceUseCase) Execute(ctx context.Context, cmd SetMarketplaceCommand) (SetMarketplaceResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.NewAdmin) == "" {
		return SetMarketplaceResult{}, domainerrors.ErrInvalidConfigUpdate
	}
	if cmd.NewFeeBps > entities.MaxBasisPoints {
		return SetMarketplaceResult{}, domainerrors.ErrFeeRateInvalid
	}

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return SetMarketplaceResult{}, err
	}
	if !config.IsAdmin(cmd.Caller) {
		return SetMarketplaceResult{}, domainerrors.ErrPermissionDenied
	}

	config.Admin = cmd.NewAdmin
	config.FeeBasisPoints = cmd.NewFeeBps
	config.UpdatedAt = resolveNow(u.Clock)
	if err := u.Config.UpdateConfig(ctx, config); err != nil {
		return SetMarketplaceResult{}, err
	}

	logger.Info("marketplace configuration replaced",
		"event", "market_config_updated",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"admin", cmd.NewAdmin,
		"fee_bps", cmd.NewFeeBps,
	)

	return SetMarketplaceResult{Config: config}, nil
}

type SetStatusCommand struct {
	Caller string
	Paused bool
}

type SetStatusResult struct {
	Config entities.MarketConfig
}

type SetStatusUseCase struct {
	Config ports.ConfigRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute toggles the pause flag. While paused, list/buy/changePrice are
// gated; delist and force delist stay open so sellers and the admin can
// always exit.
func (u SetStatusUseCase) Execute(ctx context.Context, cmd SetStatusCommand) (SetStatusResult, error) {
	logger := application.ResolveLogger(u.Logger)

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return SetStatusResult{}, err
	}
	if !config.IsAdmin(cmd.Caller) {
		return SetStatusResult{}, domainerrors.ErrPermissionDenied
	}

	config.Paused = cmd.Paused
	config.UpdatedAt = resolveNow(u.Clock)
	if err := u.Config.UpdateConfig(ctx, config); err != nil {
		return SetStatusResult{}, err
	}

	logger.Info("marketplace status changed",
		"event", "market_status_changed",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"paused", cmd.Paused,
	)

	return SetStatusResult{Config: config}, nil
}
