package application

import (
	"context"
	"errors"
	"log/slog"
	"math/bits"
	"strings"
	"time"

	"curio/contexts/trading-core/royalty-registry/domain/entities"
	domainerrors "curio/contexts/trading-core/royalty-registry/domain/errors"
	"curio/contexts/trading-core/royalty-registry/ports"
)

// Service carries the registry use cases. It also satisfies the marketplace
// royalty policy port: ChargeRoyalty quotes the creator share for a sale.
type Service struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// SetAdmin hands the registry over to a new admin. Current-admin only.
func (s Service) SetAdmin(ctx context.Context, caller, newAdmin string) (entities.RegistryConfig, error) {
	logger := resolveLogger(s.Logger)
	if strings.TrimSpace(newAdmin) == "" {
		return entities.RegistryConfig{}, domainerrors.ErrInvalidUpdate
	}

	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return entities.RegistryConfig{}, err
	}
	if !config.IsAdmin(caller) {
		return entities.RegistryConfig{}, domainerrors.ErrPermissionDenied
	}

	now := s.now()
	eventID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.RegistryConfig{}, err
	}

	oldAdmin := config.Admin
	config.Admin = newAdmin
	config.UpdatedAt = now
	if err := s.Repo.UpdateConfig(ctx, config, ports.AdminChangedEvent{
		EventID:    eventID,
		OldAdmin:   oldAdmin,
		NewAdmin:   newAdmin,
		OccurredAt: now,
	}); err != nil {
		return entities.RegistryConfig{}, err
	}

	logger.Info("registry admin replaced",
		"event", "royalty_admin_changed",
		"module", "trading-core/royalty-registry",
		"layer", "application",
		"old_admin", oldAdmin,
		"new_admin", newAdmin,
	)
	return config, nil
}

// SetRoyalty upserts the entry for a type tag. An existing entry is replaced
// whole, never merged. Admin only; rates above 10000 bps are rejected.
func (s Service) SetRoyalty(ctx context.Context, caller string, entry entities.RoyaltyEntry) (entities.RoyaltyEntry, error) {
	logger := resolveLogger(s.Logger)
	if strings.TrimSpace(entry.TypeTag) == "" || strings.TrimSpace(entry.Creator) == "" {
		return entities.RoyaltyEntry{}, domainerrors.ErrInvalidUpdate
	}
	if entry.BasisPoints > entities.MaxBasisPoints {
		return entities.RoyaltyEntry{}, domainerrors.ErrRateInvalid
	}

	config, err := s.Repo.GetConfig(ctx)
	if err != nil {
		return entities.RoyaltyEntry{}, err
	}
	if !config.IsAdmin(caller) {
		logger.Warn("royalty write rejected for non-admin",
			"event", "royalty_set_denied",
			"module", "trading-core/royalty-registry",
			"layer", "application",
			"caller", caller,
			"type_tag", entry.TypeTag,
		)
		return entities.RoyaltyEntry{}, domainerrors.ErrPermissionDenied
	}

	now := s.now()
	eventID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.RoyaltyEntry{}, err
	}

	entry.UpdatedAt = now
	if err := s.Repo.UpsertEntry(ctx, entry, ports.RoyaltyUpdatedEvent{
		EventID:     eventID,
		TypeTag:     entry.TypeTag,
		Creator:     entry.Creator,
		BasisPoints: entry.BasisPoints,
		OccurredAt:  now,
	}); err != nil {
		return entities.RoyaltyEntry{}, err
	}

	logger.Info("royalty entry upserted",
		"event", "royalty_updated",
		"module", "trading-core/royalty-registry",
		"layer", "application",
		"type_tag", entry.TypeTag,
		"creator", entry.Creator,
		"bps", entry.BasisPoints,
	)
	return entry, nil
}

// GetRoyalty returns the entry for a type tag, or ErrEntryNotFound.
func (s Service) GetRoyalty(ctx context.Context, typeTag string) (entities.RoyaltyEntry, error) {
	return s.Repo.GetEntry(ctx, typeTag)
}

// ListRoyalties returns every registered entry.
func (s Service) ListRoyalties(ctx context.Context) ([]entities.RoyaltyEntry, error) {
	return s.Repo.ListEntries(ctx)
}

// ChargeRoyalty quotes the creator share of a sale as a floor basis-point
// slice of the paid amount. An unregistered type yields a zero quote. The
// intermediate product is widened to 128 bits so amount*bps cannot wrap.
func (s Service) ChargeRoyalty(ctx context.Context, typeTag string, paidAmount uint64) (string, uint64, error) {
	entry, err := s.Repo.GetEntry(ctx, typeTag)
	if errors.Is(err, domainerrors.ErrEntryNotFound) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}

	hi, lo := bits.Mul64(paidAmount, uint64(entry.BasisPoints))
	amount, _ := bits.Div64(hi, lo, entities.MaxBasisPoints)
	return entry.Creator, amount, nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
