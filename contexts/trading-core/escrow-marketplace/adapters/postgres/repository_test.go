package postgresadapter

import (
	"testing"

	"curio/contexts/trading-core/escrow-marketplace/ports"
)

// The repository backs every marketplace port; keeping the assertions in a
// test means a missing method or helper fails `go test` for this package
// even without a database.
var (
	_ ports.ConfigRepository = (*Repository)(nil)
	_ ports.ListingReader    = (*Repository)(nil)
	_ ports.ListingWriter    = (*Repository)(nil)
	_ ports.FeeVault         = (*Repository)(nil)
	_ ports.LedgerReader     = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
	_ ports.Clock            = SystemClock{}
	_ ports.IDGenerator      = UUIDGenerator{}
)

func TestRepositoryImplementsPorts(t *testing.T) {
	var writer ports.ListingWriter = (*Repository)(nil)
	if writer == nil {
		t.Fatal("expected repository to satisfy the listing writer port")
	}
}
