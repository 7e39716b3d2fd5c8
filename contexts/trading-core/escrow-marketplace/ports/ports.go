package ports

import (
	"context"
	"time"

	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	contractsv1 "curio/contracts/gen/events/v1"
)

// ConfigRepository owns the singleton marketplace configuration row.
type ConfigRepository interface {
	GetConfig(ctx context.Context) (entities.MarketConfig, error)
	// UpdateConfig replaces the whole row; admin and fee rate always move
	// together so partial configuration states cannot be observed.
	UpdateConfig(ctx context.Context, config entities.MarketConfig) error
}

// ListingFilter defines read-side filtering/pagination for the catalog.
type ListingFilter struct {
	Owner   string
	TypeTag string
	Cursor  string
	Limit   int
}

// ListingReader is the read-only catalog surface. Commands never go through
// it for state transitions; it backs queries and the cache decorator.
type ListingReader interface {
	GetListing(ctx context.Context, itemID string) (entities.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]entities.Listing, string, error)
}

// FundCredit instructs the settlement boundary to credit a fungible amount
// to an account. Zero-amount credits are dropped by the use case, never
// forwarded.
type FundCredit struct {
	Account string
	Amount  uint64
	Reason  string
}

// AssetRelease hands custody of an escrowed asset to a recipient. Ownership
// moves exactly once; the listing row is removed in the same write.
type AssetRelease struct {
	Asset     entities.Asset
	Recipient string
}

// ListedEvent is appended to the outbox when an asset enters escrow.
type ListedEvent struct {
	EventID    string
	ItemID     string
	Price      uint64
	Seller     string
	TypeTag    string
	OccurredAt time.Time
}

// PriceChangedEvent records an in-place asking price update.
type PriceChangedEvent struct {
	EventID    string
	ItemID     string
	OldPrice   uint64
	NewPrice   uint64
	Owner      string
	OccurredAt time.Time
}

// DelistedEvent records an escrow exit without a sale. Forced marks an
// admin-initiated removal.
type DelistedEvent struct {
	EventID    string
	ItemID     string
	Owner      string
	TypeTag    string
	Forced     bool
	OccurredAt time.Time
}

// PurchasedEvent records the full fee accounting of a sale.
type PurchasedEvent struct {
	EventID    string
	ItemID     string
	Price      uint64
	ServiceFee uint64
	RoyaltyFee uint64
	Received   uint64
	Buyer      string
	Seller     string
	TypeTag    string
	OccurredAt time.Time
}

// FeesWithdrawnEvent records a drain of the accumulated service fees. The
// amount is filled by the adapter inside the withdrawal transaction.
type FeesWithdrawnEvent struct {
	EventID     string
	Caller      string
	Beneficiary string
	OccurredAt  time.Time
}

// PurchaseSettlement is the atomic unit a purchase commits: listing removal,
// service-fee accrual, fund credits, asset release to the buyer, and the
// purchase event. The adapter verifies the recorded price still matches
// before applying anything.
type PurchaseSettlement struct {
	ItemID     string
	Price      uint64
	Buyer      string
	ServiceFee uint64
	Credits    []FundCredit
	Event      PurchasedEvent
}

// ListingWriter owns every escrow state transition and its transaction
// boundary. Each method must apply its row mutation, releases, credits, and
// outbox append as one all-or-nothing write.
type ListingWriter interface {
	CreateListing(ctx context.Context, listing entities.Listing, event ListedEvent) error
	UpdateListingPrice(ctx context.Context, itemID string, newPrice uint64, updatedAt time.Time, event PriceChangedEvent) error
	RemoveListing(ctx context.Context, itemID string, release AssetRelease, event DelistedEvent) error
	// RemoveListingBatch releases every listing to its recorded owner. If any
	// id is absent the whole batch fails and nothing is released.
	RemoveListingBatch(ctx context.Context, itemIDs []string, events []DelistedEvent) error
	ExecutePurchase(ctx context.Context, settlement PurchaseSettlement) error
}

// FeeVault drains the accumulated service fees to the beneficiary and
// returns the amount moved. A zero balance is a silent no-op: no credit, no
// event, no error.
type FeeVault interface {
	WithdrawFees(ctx context.Context, event FeesWithdrawnEvent) (uint64, error)
}

// LedgerReader exposes the fungible balances credited by settlements.
type LedgerReader interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
}

// RoyaltyPolicy quotes the creator royalty owed on a sale of the given asset
// type. A zero amount (unregistered type included) means no royalty
// transfer. The credit itself executes inside the purchase settlement so a
// late failure cannot leave a partial royalty payment.
type RoyaltyPolicy interface {
	ChargeRoyalty(ctx context.Context, typeTag string, paidAmount uint64) (creator string, amount uint64, err error)
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts item/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
