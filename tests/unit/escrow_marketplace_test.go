package unit

import (
	"context"
	"errors"
	"testing"

	escrowmarketplace "curio/contexts/trading-core/escrow-marketplace"
	marketdomainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	marketentities "curio/contexts/trading-core/escrow-marketplace/domain/entities"
	markethttp "curio/contexts/trading-core/escrow-marketplace/transport/http"
	royaltyregistry "curio/contexts/trading-core/royalty-registry"
	royaltyentities "curio/contexts/trading-core/royalty-registry/domain/entities"
)

func newMarketModules(t *testing.T) (escrowmarketplace.Module, royaltyregistry.Module) {
	t.Helper()
	royaltyModule := royaltyregistry.NewInMemoryModule(royaltyentities.RegistryConfig{
		Admin: "registry-admin",
	}, nil)
	marketModule := escrowmarketplace.NewInMemoryModule(marketentities.MarketConfig{
		Admin:          "admin",
		Beneficiary:    "treasury",
		FeeBasisPoints: 200,
	}, royaltyModule.Service, nil)
	return marketModule, royaltyModule
}

func TestMarketplaceListThenDelistReturnsSameAsset(t *testing.T) {
	market, _ := newMarketModules(t)
	ctx := context.Background()

	listed, err := market.Handler.ListItemHandler(ctx, "alice", markethttp.ListItemRequest{
		AssetID: "asset-1",
		TypeTag: "collectibles::card",
		Price:   1000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	delisted, err := market.Handler.DelistItemHandler(ctx, "alice", listed.Item.ItemID)
	if err != nil {
		t.Fatalf("delist failed: %v", err)
	}
	if delisted.Asset.AssetID != "asset-1" {
		t.Fatalf("returned asset = %s, want the deposited asset-1", delisted.Asset.AssetID)
	}

	_, err = market.Handler.GetListingHandler(ctx, listed.Item.ItemID)
	if !errors.Is(err, marketdomainerrors.ErrListingNotFound) {
		t.Fatalf("listing must be gone after delist, got %v", err)
	}
}

func TestMarketplacePurchaseSplitsPaymentExactly(t *testing.T) {
	market, royalty := newMarketModules(t)
	ctx := context.Background()

	if _, err := royalty.Service.SetRoyalty(ctx, "registry-admin", royaltyentities.RoyaltyEntry{
		TypeTag:     "collectibles::card",
		Creator:     "carol",
		BasisPoints: 500,
	}); err != nil {
		t.Fatalf("set royalty failed: %v", err)
	}

	listed, err := market.Handler.ListItemHandler(ctx, "alice", markethttp.ListItemRequest{
		AssetID: "asset-1",
		TypeTag: "collectibles::card",
		Price:   10000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	bought, err := market.Handler.BuyItemHandler(ctx, "bob", listed.Item.ItemID, markethttp.BuyItemRequest{
		PaymentSources: []uint64{10000},
	})
	if err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	if bought.ServiceFee+bought.RoyaltyFee >= bought.Price {
		t.Fatalf("fees %d+%d must stay below price %d", bought.ServiceFee, bought.RoyaltyFee, bought.Price)
	}
	if bought.Received+bought.ServiceFee+bought.RoyaltyFee != bought.Price {
		t.Fatalf("split does not reassemble the price: %d+%d+%d != %d",
			bought.Received, bought.ServiceFee, bought.RoyaltyFee, bought.Price)
	}
	if bought.ServiceFee != 200 || bought.RoyaltyFee != 500 || bought.Received != 9300 {
		t.Fatalf("split = %d/%d/%d, want 200/500/9300", bought.ServiceFee, bought.RoyaltyFee, bought.Received)
	}

	sellerBalance, err := market.Handler.BalanceHandler(ctx, "alice")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if sellerBalance.Balance != 9300 {
		t.Fatalf("seller balance = %d, want 9300", sellerBalance.Balance)
	}
}

func TestMarketplaceWithdrawAfterSale(t *testing.T) {
	market, _ := newMarketModules(t)
	ctx := context.Background()

	listed, err := market.Handler.ListItemHandler(ctx, "alice", markethttp.ListItemRequest{
		AssetID: "asset-1",
		TypeTag: "collectibles::card",
		Price:   10000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, err := market.Handler.BuyItemHandler(ctx, "bob", listed.Item.ItemID, markethttp.BuyItemRequest{
		PaymentSources: []uint64{10000},
	}); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	withdrawn, err := market.Handler.WithdrawFeesHandler(ctx, "treasury")
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if withdrawn.Amount != 200 || withdrawn.Beneficiary != "treasury" {
		t.Fatalf("withdraw = %+v, want 200 to treasury", withdrawn)
	}

	// The pool is empty now; a repeat withdraw is a silent no-op.
	repeat, err := market.Handler.WithdrawFeesHandler(ctx, "admin")
	if err != nil {
		t.Fatalf("repeat withdraw failed: %v", err)
	}
	if repeat.Amount != 0 {
		t.Fatalf("repeat amount = %d, want 0", repeat.Amount)
	}
}

func TestMarketplaceForceDelistBatchAtomicity(t *testing.T) {
	market, _ := newMarketModules(t)
	ctx := context.Background()

	first, err := market.Handler.ListItemHandler(ctx, "alice", markethttp.ListItemRequest{
		AssetID: "asset-1", TypeTag: "collectibles::card", Price: 1000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	second, err := market.Handler.ListItemHandler(ctx, "bob", markethttp.ListItemRequest{
		AssetID: "asset-2", TypeTag: "collectibles::card", Price: 2000,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	_, err = market.Handler.ForceDelistHandler(ctx, "admin", markethttp.ForceDelistRequest{
		ItemIDs: []string{first.Item.ItemID, "missing"},
	})
	if !errors.Is(err, marketdomainerrors.ErrListingNotFound) {
		t.Fatalf("batch with missing id = %v, want not found", err)
	}
	if _, err := market.Handler.GetListingHandler(ctx, first.Item.ItemID); err != nil {
		t.Fatalf("listing must survive the failed batch: %v", err)
	}

	removed, err := market.Handler.ForceDelistHandler(ctx, "admin", markethttp.ForceDelistRequest{
		ItemIDs: []string{first.Item.ItemID, second.Item.ItemID},
	})
	if err != nil {
		t.Fatalf("valid batch failed: %v", err)
	}
	if removed.Removed != 2 {
		t.Fatalf("removed = %d, want 2", removed.Removed)
	}
}

func TestMarketplaceCatalogPagination(t *testing.T) {
	market, _ := newMarketModules(t)
	ctx := context.Background()

	for _, assetID := range []string{"asset-1", "asset-2", "asset-3"} {
		if _, err := market.Handler.ListItemHandler(ctx, "alice", markethttp.ListItemRequest{
			AssetID: assetID, TypeTag: "collectibles::card", Price: 1000,
		}); err != nil {
			t.Fatalf("list %s failed: %v", assetID, err)
		}
	}

	page, err := market.Handler.ListListingsHandler(ctx, markethttp.ListListingsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("first page = %d items cursor %q, want 2 items and a cursor", len(page.Items), page.NextCursor)
	}

	rest, err := market.Handler.ListListingsHandler(ctx, markethttp.ListListingsRequest{
		Limit:  2,
		Cursor: page.NextCursor,
	})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(rest.Items) != 1 || rest.NextCursor != "" {
		t.Fatalf("second page = %d items cursor %q, want 1 item and no cursor", len(rest.Items), rest.NextCursor)
	}
}
