package commands

import (
	"context"
	"log/slog"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

type WithdrawFeesCommand struct {
	Caller string
}

type WithdrawFeesResult struct {
	Amount      uint64
	Beneficiary string
}

type WithdrawFeesUseCase struct {
	Config      ports.ConfigRepository
	Fees        ports.FeeVault
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute drains the accumulated service fees to the beneficiary. Admin and
// beneficiary may both trigger it; a zero balance is a silent no-op with no
// transfer and no event.
func (u WithdrawFeesUseCase) Execute(ctx context.Context, cmd WithdrawFeesCommand) (WithdrawFeesResult, error) {
	logger := application.ResolveLogger(u.Logger)

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return WithdrawFeesResult{}, err
	}
	if !config.CanWithdraw(cmd.Caller) {
		return WithdrawFeesResult{}, domainerrors.ErrPermissionDenied
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return WithdrawFeesResult{}, err
	}

	amount, err := u.Fees.WithdrawFees(ctx, ports.FeesWithdrawnEvent{
		EventID:     eventID,
		Caller:      cmd.Caller,
		Beneficiary: config.Beneficiary,
		OccurredAt:  resolveNow(u.Clock),
	})
	if err != nil {
		return WithdrawFeesResult{}, err
	}

	if amount > 0 {
		logger.Info("service fees withdrawn",
			"event", "market_fees_withdrawn",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"beneficiary", config.Beneficiary,
			"amount", amount,
		)
	}

	return WithdrawFeesResult{Amount: amount, Beneficiary: config.Beneficiary}, nil
}
