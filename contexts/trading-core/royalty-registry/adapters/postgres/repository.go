package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	contractsv1 "curio/contracts/gen/events/v1"
	"curio/contexts/trading-core/royalty-registry/domain/entities"
	domainerrors "curio/contexts/trading-core/royalty-registry/domain/errors"
	"curio/contexts/trading-core/royalty-registry/ports"
	"curio/internal/shared/outbox"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sourceService     = "royalty-registry-service"
	registryConfigKey = "default"
)

type configModel struct {
	ConfigKey string    `gorm:"column:config_key;primaryKey"`
	Admin     string    `gorm:"column:admin"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (configModel) TableName() string { return "royalty_config" }

type entryModel struct {
	TypeTag   string    `gorm:"column:type_tag;primaryKey"`
	Creator   string    `gorm:"column:creator"`
	Bps       uint16    `gorm:"column:bps"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (entryModel) TableName() string { return "royalty_entries" }

type outboxModel struct {
	OutboxID     string    `gorm:"column:outbox_id;primaryKey"`
	EventType    string    `gorm:"column:event_type"`
	PartitionKey string    `gorm:"column:partition_key"`
	Payload      []byte    `gorm:"column:payload"`
	Status       string    `gorm:"column:status;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (outboxModel) TableName() string { return "royalty_outbox" }

// Repository is the Postgres adapter for the registry ports. Config and
// entry writes commit with their outbox event in one gorm transaction.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&configModel{}, &entryModel{}, &outboxModel{})
}

func (r *Repository) GetConfig(ctx context.Context) (entities.RegistryConfig, error) {
	var row configModel
	err := r.db.WithContext(ctx).
		Where("config_key = ?", registryConfigKey).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RegistryConfig{}, domainerrors.ErrStoreInvariantBroken
		}
		return entities.RegistryConfig{}, err
	}
	return entities.RegistryConfig{Admin: row.Admin, UpdatedAt: row.UpdatedAt}, nil
}

// SeedConfig inserts the singleton registry row if it does not exist.
func (r *Repository) SeedConfig(ctx context.Context, config entities.RegistryConfig) error {
	row := configModel{
		ConfigKey: registryConfigKey,
		Admin:     config.Admin,
		UpdatedAt: config.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "config_key"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) UpdateConfig(ctx context.Context, config entities.RegistryConfig, event ports.AdminChangedEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&configModel{}).
			Where("config_key = ?", registryConfigKey).
			Updates(map[string]any{
				"admin":      config.Admin,
				"updated_at": config.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrStoreInvariantBroken
		}

		payload, err := json.Marshal(map[string]any{
			"old_admin": event.OldAdmin,
			"new_admin": event.NewAdmin,
		})
		if err != nil {
			return err
		}
		return appendOutbox(tx, event.EventID, "royalty.admin_changed", event.NewAdmin, event.OccurredAt, payload)
	})
}

func (r *Repository) GetEntry(ctx context.Context, typeTag string) (entities.RoyaltyEntry, error) {
	var row entryModel
	err := r.db.WithContext(ctx).
		Where("type_tag = ?", typeTag).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RoyaltyEntry{}, domainerrors.ErrEntryNotFound
		}
		return entities.RoyaltyEntry{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpsertEntry(ctx context.Context, entry entities.RoyaltyEntry, event ports.RoyaltyUpdatedEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := entryModel{
			TypeTag:   entry.TypeTag,
			Creator:   entry.Creator,
			Bps:       entry.BasisPoints,
			UpdatedAt: entry.UpdatedAt.UTC(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type_tag"}},
			UpdateAll: true,
		}).Create(&row).Error
		if err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"type_tag": event.TypeTag,
			"creator":  event.Creator,
			"bps":      event.BasisPoints,
		})
		if err != nil {
			return err
		}
		return appendOutbox(tx, event.EventID, "royalty.updated", event.TypeTag, event.OccurredAt, payload)
	})
}

func (r *Repository) ListEntries(ctx context.Context) ([]entities.RoyaltyEntry, error) {
	var rows []entryModel
	err := r.db.WithContext(ctx).
		Order("type_tag asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	entries := make([]entities.RoyaltyEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntity())
	}
	return entries, nil
}

func (m entryModel) toEntity() entities.RoyaltyEntry {
	return entities.RoyaltyEntry{
		TypeTag:     m.TypeTag,
		Creator:     m.Creator,
		BasisPoints: m.Bps,
		UpdatedAt:   m.UpdatedAt,
	}
}

func appendOutbox(tx *gorm.DB, eventID, eventType, partitionKey string, occurredAt time.Time, data []byte) error {
	envelope := contractsv1.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "type_tag",
		PartitionKey:     partitionKey,
		Data:             data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    occurredAt.UTC(),
	}).Error
}
