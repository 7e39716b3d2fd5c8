package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	MarketAdmin       string
	MarketBeneficiary string
	MarketFeeBps      uint16
	RoyaltyAdmin      string

	ListingCacheTTL time.Duration
	OutboxTopic     string
	OutboxInterval  time.Duration
	OutboxBatchSize int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "curio"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	admin := os.Getenv("MARKET_ADMIN")
	if admin == "" {
		admin = "admin"
	}
	beneficiary := os.Getenv("MARKET_BENEFICIARY")
	if beneficiary == "" {
		beneficiary = admin
	}
	royaltyAdmin := os.Getenv("ROYALTY_ADMIN")
	if royaltyAdmin == "" {
		royaltyAdmin = admin
	}

	topic := os.Getenv("OUTBOX_TOPIC")
	if topic == "" {
		topic = "market.events"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		MarketAdmin:       admin,
		MarketBeneficiary: beneficiary,
		MarketFeeBps:      envBps("MARKET_FEE_BPS", 200),
		RoyaltyAdmin:      royaltyAdmin,

		ListingCacheTTL: envDuration("LISTING_CACHE_TTL", 5*time.Second),
		OutboxTopic:     topic,
		OutboxInterval:  envDuration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatchSize: envInt("OUTBOX_BATCH_SIZE", 100),
	}, nil
}

// envBps parses a basis-point rate, clamping to the 0..10000 range.
func envBps(name string, fallback uint16) uint16 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || value > 10000 {
		return fallback
	}
	return uint16(value)
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
