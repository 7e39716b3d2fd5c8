package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

const sourceService = "escrow-marketplace-service"

// Store is an in-memory adapter implementing the marketplace ports for local
// runtime and tests. It is not intended as production persistence.
//
// A single mutex critical section approximates transactional semantics:
// listing mutation, ledger credits, asset release, and outbox append
// succeed or fail together.
type Store struct {
	mu          sync.RWMutex
	config      entities.MarketConfig
	listings    map[string]entities.Listing
	assetIndex  map[string]string
	balances    map[string]uint64
	holdings    map[string][]entities.Asset
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
	logger      *slog.Logger
}

// NewStore seeds the singleton configuration row and initializes escrow,
// ledger, and outbox state.
func NewStore(config entities.MarketConfig, logger *slog.Logger) *Store {
	if config.UpdatedAt.IsZero() {
		config.UpdatedAt = time.Now().UTC()
	}
	return &Store{
		config:      config,
		listings:    make(map[string]entities.Listing),
		assetIndex:  make(map[string]string),
		balances:    make(map[string]uint64),
		holdings:    make(map[string][]entities.Asset),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) GetConfig(_ context.Context) (entities.MarketConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, nil
}

func (s *Store) UpdateConfig(_ context.Context, config entities.MarketConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The fee pool is owned by settlements and withdrawals, never by
	// configuration writes.
	config.AccumulatedFees = s.config.AccumulatedFees
	s.config = config
	return nil
}

func (s *Store) GetListing(_ context.Context, itemID string) (entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[itemID]
	if !ok {
		return entities.Listing{}, domainerrors.ErrListingNotFound
	}
	return listing, nil
}

func (s *Store) ListListings(_ context.Context, filter ports.ListingFilter) ([]entities.Listing, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []entities.Listing
	for _, listing := range s.listings {
		if filter.Owner != "" && listing.Owner != filter.Owner {
			continue
		}
		if filter.TypeTag != "" && listing.TypeTag != filter.TypeTag {
			continue
		}
		filtered = append(filtered, listing)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].ListedAt.Equal(filtered[j].ListedAt) {
			return filtered[i].ItemID < filtered[j].ItemID
		}
		return filtered[i].ListedAt.After(filtered[j].ListedAt)
	})

	start := decodeCursor(filter.Cursor)
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 {
		end = start + 20
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	page := append([]entities.Listing(nil), filtered[start:end]...)
	nextCursor := ""
	if end < len(filtered) {
		nextCursor = encodeCursor(end)
	}
	return page, nextCursor, nil
}

func (s *Store) CreateListing(_ context.Context, listing entities.Listing, event ports.ListedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ItemID]; ok {
		return domainerrors.ErrStoreInvariantBroken
	}
	// One escrow slot per asset: a second deposit of the same asset means
	// custody accounting went wrong upstream.
	if _, ok := s.assetIndex[listing.Asset.AssetID]; ok {
		return domainerrors.ErrStoreInvariantBroken
	}

	payload, err := json.Marshal(map[string]any{
		"item_id":    event.ItemID,
		"price":      event.Price,
		"seller":     event.Seller,
		"asset_type": event.TypeTag,
	})
	if err != nil {
		return err
	}
	if err := s.appendOutboxLocked(event.EventID, "market.listed", event.ItemID, event.OccurredAt, payload); err != nil {
		return err
	}

	s.listings[listing.ItemID] = listing
	s.assetIndex[listing.Asset.AssetID] = listing.ItemID

	s.logger.Info("listing persisted in memory store",
		"event", "memory_create_listing",
		"module", "trading-core/escrow-marketplace",
		"layer", "adapter",
		"item_id", listing.ItemID,
		"asset_id", listing.Asset.AssetID,
		"seller", listing.Owner,
	)
	return nil
}

func (s *Store) UpdateListingPrice(
	_ context.Context,
	itemID string,
	newPrice uint64,
	updatedAt time.Time,
	event ports.PriceChangedEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[itemID]
	if !ok {
		return domainerrors.ErrListingNotFound
	}

	payload, err := json.Marshal(map[string]any{
		"item_id":   event.ItemID,
		"old_price": event.OldPrice,
		"new_price": event.NewPrice,
		"owner":     event.Owner,
	})
	if err != nil {
		return err
	}
	if err := s.appendOutboxLocked(event.EventID, "market.price_changed", event.ItemID, event.OccurredAt, payload); err != nil {
		return err
	}

	listing.Price = newPrice
	listing.UpdatedAt = updatedAt.UTC()
	s.listings[itemID] = listing
	return nil
}

func (s *Store) RemoveListing(_ context.Context, itemID string, release ports.AssetRelease, event ports.DelistedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[itemID]
	if !ok {
		return domainerrors.ErrListingNotFound
	}

	eventType := "market.delisted"
	if event.Forced {
		eventType = "market.force_delisted"
	}
	payload, err := json.Marshal(map[string]any{
		"item_id":    event.ItemID,
		"owner":      event.Owner,
		"asset_type": event.TypeTag,
		"forced":     event.Forced,
	})
	if err != nil {
		return err
	}
	if err := s.appendOutboxLocked(event.EventID, eventType, event.ItemID, event.OccurredAt, payload); err != nil {
		return err
	}

	s.removeListingLocked(listing)
	s.holdings[release.Recipient] = append(s.holdings[release.Recipient], release.Asset)
	return nil
}

func (s *Store) RemoveListingBatch(_ context.Context, itemIDs []string, events []ports.DelistedEvent) error {
	if len(itemIDs) != len(events) {
		return domainerrors.ErrStoreInvariantBroken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything: one missing id
	// fails the call with zero items released and zero events emitted.
	removed := make([]entities.Listing, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		listing, ok := s.listings[itemID]
		if !ok {
			return domainerrors.ErrListingNotFound
		}
		removed = append(removed, listing)
	}

	for i, listing := range removed {
		event := events[i]
		payload, err := json.Marshal(map[string]any{
			"item_id":    listing.ItemID,
			"owner":      listing.Owner,
			"asset_type": listing.TypeTag,
			"forced":     true,
		})
		if err != nil {
			return err
		}
		if err := s.appendOutboxLocked(event.EventID, "market.force_delisted", listing.ItemID, event.OccurredAt, payload); err != nil {
			return err
		}
		s.removeListingLocked(listing)
		s.holdings[listing.Owner] = append(s.holdings[listing.Owner], listing.Asset)
	}

	s.logger.Info("listing batch force removed in memory store",
		"event", "memory_remove_listing_batch",
		"module", "trading-core/escrow-marketplace",
		"layer", "adapter",
		"batch_size", len(removed),
	)
	return nil
}

func (s *Store) ExecutePurchase(_ context.Context, settlement ports.PurchaseSettlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[settlement.ItemID]
	if !ok {
		return domainerrors.ErrListingNotFound
	}
	// The settlement was computed against this price; a mismatch means the
	// row changed between quote and commit.
	if listing.Price != settlement.Price {
		return domainerrors.ErrStoreInvariantBroken
	}

	payload, err := json.Marshal(map[string]any{
		"item_id":     settlement.Event.ItemID,
		"price":       settlement.Event.Price,
		"service_fee": settlement.Event.ServiceFee,
		"royalty_fee": settlement.Event.RoyaltyFee,
		"received":    settlement.Event.Received,
		"buyer":       settlement.Event.Buyer,
		"seller":      settlement.Event.Seller,
		"asset_type":  settlement.Event.TypeTag,
	})
	if err != nil {
		return err
	}
	if err := s.appendOutboxLocked(settlement.Event.EventID, "market.purchased", settlement.ItemID, settlement.Event.OccurredAt, payload); err != nil {
		return err
	}

	s.removeListingLocked(listing)
	s.config.AccumulatedFees += settlement.ServiceFee
	for _, credit := range settlement.Credits {
		s.balances[credit.Account] += credit.Amount
	}
	s.holdings[settlement.Buyer] = append(s.holdings[settlement.Buyer], listing.Asset)

	s.logger.Info("purchase settled in memory store",
		"event", "memory_execute_purchase",
		"module", "trading-core/escrow-marketplace",
		"layer", "adapter",
		"item_id", settlement.ItemID,
		"buyer", settlement.Buyer,
		"price", settlement.Price,
		"service_fee", settlement.ServiceFee,
	)
	return nil
}

func (s *Store) WithdrawFees(_ context.Context, event ports.FeesWithdrawnEvent) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	amount := s.config.AccumulatedFees
	if amount == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(map[string]any{
		"beneficiary": event.Beneficiary,
		"caller":      event.Caller,
		"amount":      amount,
	})
	if err != nil {
		return 0, err
	}
	if err := s.appendOutboxWithKeyPathLocked(event.EventID, "market.fees_withdrawn", "beneficiary", event.Beneficiary, event.OccurredAt, payload); err != nil {
		return 0, err
	}

	s.config.AccumulatedFees = 0
	s.balances[event.Beneficiary] += amount
	return amount, nil
}

func (s *Store) BalanceOf(_ context.Context, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrStoreInvariantBroken
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mkt-%d", value), nil
}

// Holdings returns the assets released to an account, for tests/inspection.
func (s *Store) Holdings(account string) []entities.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Asset(nil), s.holdings[account]...)
}

// OutboxEvents returns every appended outbox message in insertion order.
func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

func (s *Store) removeListingLocked(listing entities.Listing) {
	delete(s.listings, listing.ItemID)
	delete(s.assetIndex, listing.Asset.AssetID)
}

func (s *Store) appendOutboxLocked(eventID, eventType, partitionKey string, occurredAt time.Time, data []byte) error {
	return s.appendOutboxWithKeyPathLocked(eventID, eventType, "item_id", partitionKey, occurredAt, data)
}

func (s *Store) appendOutboxWithKeyPathLocked(eventID, eventType, partitionKeyPath, partitionKey string, occurredAt time.Time, data []byte) error {
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.outbox[eventID] = ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    occurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, eventID)
	return nil
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
