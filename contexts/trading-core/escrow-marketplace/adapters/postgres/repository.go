package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/ports"
	"curio/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sourceService   = "escrow-marketplace-service"
	marketConfigKey = "default"
)

// Repository is the Postgres adapter for the marketplace ports. Every escrow
// state transition runs inside one gorm transaction with its ledger credits
// and outbox append.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetConfig(ctx context.Context) (entities.MarketConfig, error) {
	var row configModel
	err := r.db.WithContext(ctx).
		Where("config_key = ?", marketConfigKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.MarketConfig{}, domainerrors.ErrStoreInvariantBroken
		}
		return entities.MarketConfig{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateConfig(ctx context.Context, config entities.MarketConfig) error {
	result := r.db.WithContext(ctx).
		Model(&configModel{}).
		Where("config_key = ?", marketConfigKey).
		Updates(map[string]any{
			"admin":       config.Admin,
			"beneficiary": config.Beneficiary,
			"fee_bps":     config.FeeBasisPoints,
			"paused":      config.Paused,
			"updated_at":  config.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreInvariantBroken
	}
	return nil
}

// SeedConfig inserts the singleton configuration row if it does not exist.
func (r *Repository) SeedConfig(ctx context.Context, config entities.MarketConfig) error {
	row := configModelFromEntity(config)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_key"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetListing(ctx context.Context, itemID string) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrListingNotFound
		}
		return entities.Listing{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListListings(ctx context.Context, filter ports.ListingFilter) ([]entities.Listing, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&listingModel{})
	if filter.Owner != "" {
		tx = tx.Where("owner = ?", filter.Owner)
	}
	if filter.TypeTag != "" {
		tx = tx.Where("type_tag = ?", filter.TypeTag)
	}
	tx = tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "listed_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}, Desc: false})

	offset := decodeCursor(filter.Cursor)
	var rows []listingModel
	if err := tx.Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) CreateListing(ctx context.Context, listing entities.Listing, event ports.ListedEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := listingModelFromEntity(listing)
		if err := tx.Create(&row).Error; err != nil {
			// item_id and asset_id are both unique: a duplicate either way is
			// an escrow accounting fault, not a user error.
			if isUniqueViolation(err) {
				return domainerrors.ErrStoreInvariantBroken
			}
			return err
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
		return appendOutbox(tx, event.EventID, "market.listed", "item_id", event.ItemID, event.OccurredAt, payload)
	})
}

func (r *Repository) UpdateListingPrice(
	ctx context.Context,
	itemID string,
	newPrice uint64,
	updatedAt time.Time,
	event ports.PriceChangedEvent,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&listingModel{}).
			Where("item_id = ?", itemID).
			Updates(map[string]any{
				"price":      newPrice,
				"updated_at": updatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
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
		return appendOutbox(tx, event.EventID, "market.price_changed", "item_id", event.ItemID, event.OccurredAt, payload)
	})
}

func (r *Repository) RemoveListing(ctx context.Context, itemID string, release ports.AssetRelease, event ports.DelistedEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockListing(tx, itemID)
		if err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&listingModel{}).Error; err != nil {
			return err
		}
		if err := releaseAsset(tx, row, release.Recipient, event.OccurredAt); err != nil {
			return err
		}

		eventType := "market.delisted"
		if event.Forced {
			eventType = "market.force_delisted"
		}
		payload, err := json.Marshal(map[string]any{
			"item_id":    row.ItemID,
			"owner":      row.Owner,
			"asset_type": row.TypeTag,
			"forced":     event.Forced,
		})
		if err != nil {
			return err
		}
		return appendOutbox(tx, event.EventID, eventType, "item_id", row.ItemID, event.OccurredAt, payload)
	})
}

func (r *Repository) RemoveListingBatch(ctx context.Context, itemIDs []string, events []ports.DelistedEvent) error {
	if len(itemIDs) != len(events) {
		return domainerrors.ErrStoreInvariantBroken
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock and validate the whole batch before any destructive write so
		// a single missing id aborts with nothing released.
		rows := make([]listingModel, 0, len(itemIDs))
		for _, itemID := range itemIDs {
			row, err := lockListing(tx, itemID)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}

		for i, row := range rows {
			event := events[i]
			if err := tx.Where("item_id = ?", row.ItemID).Delete(&listingModel{}).Error; err != nil {
				return err
			}
			if err := releaseAsset(tx, row, row.Owner, event.OccurredAt); err != nil {
				return err
			}
			payload, err := json.Marshal(map[string]any{
				"item_id":    row.ItemID,
				"owner":      row.Owner,
				"asset_type": row.TypeTag,
				"forced":     true,
			})
			if err != nil {
				return err
			}
			if err := appendOutbox(tx, event.EventID, "market.force_delisted", "item_id", row.ItemID, event.OccurredAt, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ExecutePurchase(ctx context.Context, settlement ports.PurchaseSettlement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockListing(tx, settlement.ItemID)
		if err != nil {
			return err
		}
		if row.Price != settlement.Price {
			return domainerrors.ErrStoreInvariantBroken
		}

		if err := tx.Where("item_id = ?", settlement.ItemID).Delete(&listingModel{}).Error; err != nil {
			return err
		}
		if settlement.ServiceFee > 0 {
			if err := accrueFees(tx, settlement.ServiceFee); err != nil {
				return err
			}
		}
		for _, credit := range settlement.Credits {
			if err := creditAccount(tx, credit.Account, credit.Amount); err != nil {
				return err
			}
		}
		if err := releaseAsset(tx, row, settlement.Buyer, settlement.Event.OccurredAt); err != nil {
			return err
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
		return appendOutbox(tx, settlement.Event.EventID, "market.purchased", "item_id", settlement.ItemID, settlement.Event.OccurredAt, payload)
	})
}

func (r *Repository) WithdrawFees(ctx context.Context, event ports.FeesWithdrawnEvent) (uint64, error) {
	var amount uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row configModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("config_key = ?", marketConfigKey).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrStoreInvariantBroken
			}
			return err
		}
		amount = row.AccumulatedFees
		if amount == 0 {
			return nil
		}

		if err := tx.
			Model(&configModel{}).
			Where("config_key = ?", marketConfigKey).
			Update("accumulated_fees", uint64(0)).
			Error; err != nil {
			return err
		}
		if err := creditAccount(tx, event.Beneficiary, amount); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"beneficiary": event.Beneficiary,
			"caller":      event.Caller,
			"amount":      amount,
		})
		if err != nil {
			return err
		}
		return appendOutbox(tx, event.EventID, "market.fees_withdrawn", "beneficiary", event.Beneficiary, event.OccurredAt, payload)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

func (r *Repository) BalanceOf(ctx context.Context, account string) (uint64, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("account = ?", account).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Balance, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: false}).
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.toPort())
	}
	return messages, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	sent := sentAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": &sent,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreInvariantBroken
	}
	return nil
}

func lockListing(tx *gorm.DB, itemID string) (listingModel, error) {
	var row listingModel
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ?", itemID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return listingModel{}, domainerrors.ErrListingNotFound
		}
		return listingModel{}, err
	}
	return row, nil
}

func releaseAsset(tx *gorm.DB, row listingModel, recipient string, at time.Time) error {
	holding := holdingModel{
		AssetID:    row.AssetID,
		Account:    recipient,
		TypeTag:    row.TypeTag,
		Metadata:   row.AssetMetadata,
		AcquiredAt: at.UTC(),
	}
	// One holder per asset: the release upserts the custody row so ownership
	// moves, never duplicates.
	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"account", "acquired_at"}),
		}).
		Create(&holding).
		Error
}

func accrueFees(tx *gorm.DB, amount uint64) error {
	var row configModel
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("config_key = ?", marketConfigKey).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrStoreInvariantBroken
		}
		return err
	}
	return tx.
		Model(&configModel{}).
		Where("config_key = ?", marketConfigKey).
		Update("accumulated_fees", row.AccumulatedFees+amount).
		Error
}

func creditAccount(tx *gorm.DB, account string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	var row accountModel
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account = ?", account).
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&accountModel{Account: account, Balance: amount}).Error
	}
	if err != nil {
		return err
	}
	return tx.
		Model(&accountModel{}).
		Where("account = ?", account).
		Update("balance", row.Balance+amount).
		Error
}

func appendOutbox(tx *gorm.DB, eventID, eventType, partitionKeyPath, partitionKey string, occurredAt time.Time, data []byte) error {
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
	row := outboxModel{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    occurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrStoreInvariantBroken
		}
		return err
	}
	return nil
}

type listingModel struct {
	ItemID        string    `gorm:"column:item_id;primaryKey"`
	Price         uint64    `gorm:"column:price"`
	Owner         string    `gorm:"column:owner"`
	TypeTag       string    `gorm:"column:type_tag"`
	AssetID       string    `gorm:"column:asset_id;uniqueIndex"`
	AssetMetadata string    `gorm:"column:asset_metadata"`
	ListedAt      time.Time `gorm:"column:listed_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string {
	return "market_listings"
}

func listingModelFromEntity(listing entities.Listing) listingModel {
	return listingModel{
		ItemID:        listing.ItemID,
		Price:         listing.Price,
		Owner:         listing.Owner,
		TypeTag:       listing.TypeTag,
		AssetID:       listing.Asset.AssetID,
		AssetMetadata: listing.Asset.Metadata,
		ListedAt:      listing.ListedAt.UTC(),
		UpdatedAt:     listing.UpdatedAt.UTC(),
	}
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		ItemID:  m.ItemID,
		Price:   m.Price,
		Owner:   m.Owner,
		TypeTag: m.TypeTag,
		Asset: entities.Asset{
			AssetID:  m.AssetID,
			TypeTag:  m.TypeTag,
			Metadata: m.AssetMetadata,
		},
		ListedAt:  m.ListedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type configModel struct {
	ConfigKey       string    `gorm:"column:config_key;primaryKey"`
	Admin           string    `gorm:"column:admin"`
	Beneficiary     string    `gorm:"column:beneficiary"`
	FeeBps          uint16    `gorm:"column:fee_bps"`
	Paused          bool      `gorm:"column:paused"`
	AccumulatedFees uint64    `gorm:"column:accumulated_fees"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (configModel) TableName() string {
	return "market_config"
}

func configModelFromEntity(config entities.MarketConfig) configModel {
	return configModel{
		ConfigKey:       marketConfigKey,
		Admin:           config.Admin,
		Beneficiary:     config.Beneficiary,
		FeeBps:          config.FeeBasisPoints,
		Paused:          config.Paused,
		AccumulatedFees: config.AccumulatedFees,
		UpdatedAt:       config.UpdatedAt.UTC(),
	}
}

func (m configModel) toEntity() entities.MarketConfig {
	return entities.MarketConfig{
		Admin:           m.Admin,
		Beneficiary:     m.Beneficiary,
		FeeBasisPoints:  m.FeeBps,
		Paused:          m.Paused,
		AccumulatedFees: m.AccumulatedFees,
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type accountModel struct {
	Account string `gorm:"column:account;primaryKey"`
	Balance uint64 `gorm:"column:balance"`
}

func (accountModel) TableName() string {
	return "market_accounts"
}

type holdingModel struct {
	AssetID    string    `gorm:"column:asset_id;primaryKey"`
	Account    string    `gorm:"column:account"`
	TypeTag    string    `gorm:"column:type_tag"`
	Metadata   string    `gorm:"column:metadata"`
	AcquiredAt time.Time `gorm:"column:acquired_at"`
}

func (holdingModel) TableName() string {
	return "market_asset_holdings"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "market_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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
