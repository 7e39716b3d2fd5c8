package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	contractsv1 "curio/contracts/gen/events/v1"
	"curio/contexts/trading-core/royalty-registry/domain/entities"
	domainerrors "curio/contexts/trading-core/royalty-registry/domain/errors"
	"curio/contexts/trading-core/royalty-registry/ports"
)

const sourceService = "royalty-registry-service"

// Store is the in-memory registry adapter for local runtime and tests.
type Store struct {
	mu       sync.RWMutex
	config   entities.RegistryConfig
	entries  map[string]entities.RoyaltyEntry
	events   []contractsv1.Envelope
	sequence uint64
	logger   *slog.Logger
}

func NewStore(config entities.RegistryConfig, logger *slog.Logger) *Store {
	if config.UpdatedAt.IsZero() {
		config.UpdatedAt = time.Now().UTC()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		config:  config,
		entries: make(map[string]entities.RoyaltyEntry),
		logger:  logger,
	}
}

func (s *Store) GetConfig(_ context.Context) (entities.RegistryConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, nil
}

func (s *Store) UpdateConfig(_ context.Context, config entities.RegistryConfig, event ports.AdminChangedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(map[string]any{
		"old_admin": event.OldAdmin,
		"new_admin": event.NewAdmin,
	})
	if err != nil {
		return err
	}
	s.appendEventLocked(event.EventID, "royalty.admin_changed", event.NewAdmin, event.OccurredAt, payload)

	s.config = config
	return nil
}

func (s *Store) GetEntry(_ context.Context, typeTag string) (entities.RoyaltyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[typeTag]
	if !ok {
		return entities.RoyaltyEntry{}, domainerrors.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) UpsertEntry(_ context.Context, entry entities.RoyaltyEntry, event ports.RoyaltyUpdatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(map[string]any{
		"type_tag": event.TypeTag,
		"creator":  event.Creator,
		"bps":      event.BasisPoints,
	})
	if err != nil {
		return err
	}
	s.appendEventLocked(event.EventID, "royalty.updated", event.TypeTag, event.OccurredAt, payload)

	s.entries[entry.TypeTag] = entry

	s.logger.Info("royalty entry persisted in memory store",
		"event", "memory_upsert_royalty",
		"module", "trading-core/royalty-registry",
		"layer", "adapter",
		"type_tag", entry.TypeTag,
		"creator", entry.Creator,
		"bps", entry.BasisPoints,
	)
	return nil
}

func (s *Store) ListEntries(_ context.Context) ([]entities.RoyaltyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entities.RoyaltyEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TypeTag < entries[j].TypeTag
	})
	return entries, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("roy-%d", value), nil
}

// Events returns the appended envelopes in insertion order, for tests.
func (s *Store) Events() []contractsv1.Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]contractsv1.Envelope(nil), s.events...)
}

func (s *Store) appendEventLocked(eventID, eventType, partitionKey string, occurredAt time.Time, data []byte) {
	s.events = append(s.events, contractsv1.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "type_tag",
		PartitionKey:     partitionKey,
		Data:             data,
	})
}
