package ports

import (
	"context"
	"time"

	"curio/contexts/trading-core/royalty-registry/domain/entities"
)

// AdminChangedEvent records a registry admin handover.
type AdminChangedEvent struct {
	EventID    string
	OldAdmin   string
	NewAdmin   string
	OccurredAt time.Time
}

// RoyaltyUpdatedEvent records an entry upsert.
type RoyaltyUpdatedEvent struct {
	EventID     string
	TypeTag     string
	Creator     string
	BasisPoints uint16
	OccurredAt  time.Time
}

// Repository is the persistence boundary for the registry. Writes commit
// state and their event atomically. The royalty transfer itself is not here:
// quotes from this registry are settled inside the marketplace purchase
// transaction so a late fee-invariant failure rolls everything back.
type Repository interface {
	GetConfig(ctx context.Context) (entities.RegistryConfig, error)
	UpdateConfig(ctx context.Context, config entities.RegistryConfig, event AdminChangedEvent) error
	GetEntry(ctx context.Context, typeTag string) (entities.RoyaltyEntry, error)
	UpsertEntry(ctx context.Context, entry entities.RoyaltyEntry, event RoyaltyUpdatedEvent) error
	ListEntries(ctx context.Context) ([]entities.RoyaltyEntry, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
