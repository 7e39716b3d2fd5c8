package commands_test

import (
	"context"
	"errors"
	"testing"

	"curio/contexts/trading-core/escrow-marketplace/adapters/memory"
	"curio/contexts/trading-core/escrow-marketplace/application/commands"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
)

// stubRoyalty quotes a fixed creator share for one asset type and zero for
// everything else, standing in for the royalty registry.
type stubRoyalty struct {
	typeTag string
	creator string
	bps     uint16
}

func (r stubRoyalty) ChargeRoyalty(_ context.Context, typeTag string, paidAmount uint64) (string, uint64, error) {
	if typeTag != r.typeTag || r.bps == 0 {
		return "", 0, nil
	}
	return r.creator, paidAmount * uint64(r.bps) / 10000, nil
}

type fixture struct {
	store   *memory.Store
	royalty stubRoyalty
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore(entities.MarketConfig{
		Admin:          "admin",
		Beneficiary:    "treasury",
		FeeBasisPoints: 200,
	}, nil)
	return fixture{
		store:   store,
		royalty: stubRoyalty{typeTag: "collectibles::card", creator: "carol", bps: 500},
	}
}

func (f fixture) listUseCase() commands.ListItemUseCase {
	return commands.ListItemUseCase{Config: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
}

func (f fixture) buyUseCase() commands.BuyItemUseCase {
	return commands.BuyItemUseCase{
		Config:      f.store,
		Reader:      f.store,
		Listings:    f.store,
		Royalty:     f.royalty,
		Clock:       f.store,
		IDGenerator: f.store,
	}
}

func (f fixture) listItem(t *testing.T, seller, assetID string, price uint64) string {
	t.Helper()
	result, err := f.listUseCase().Execute(context.Background(), commands.ListItemCommand{
		Caller:  seller,
		AssetID: assetID,
		TypeTag: "collectibles::card",
		Price:   price,
	})
	if err != nil {
		t.Fatalf("list item: %v", err)
	}
	return result.Listing.ItemID
}

func (f fixture) pause(t *testing.T) {
	t.Helper()
	useCase := commands.SetStatusUseCase{Config: f.store, Clock: f.store}
	if _, err := useCase.Execute(context.Background(), commands.SetStatusCommand{Caller: "admin", Paused: true}); err != nil {
		t.Fatalf("pause: %v", err)
	}
}

func TestBuyItemSettlesFeesRoyaltyAndProceeds(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 10000)

	result, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{10000},
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}

	if result.ServiceFee != 200 || result.RoyaltyFee != 500 || result.SellerProceeds != 9300 {
		t.Fatalf("split = fee %d royalty %d proceeds %d, want 200/500/9300",
			result.ServiceFee, result.RoyaltyFee, result.SellerProceeds)
	}
	if result.Surplus != 0 {
		t.Fatalf("surplus = %d, want 0", result.Surplus)
	}
	if result.Asset.AssetID != "asset-1" {
		t.Fatalf("asset = %s, want asset-1", result.Asset.AssetID)
	}

	ctx := context.Background()
	if balance, _ := f.store.BalanceOf(ctx, "alice"); balance != 9300 {
		t.Fatalf("seller balance = %d, want 9300", balance)
	}
	if balance, _ := f.store.BalanceOf(ctx, "carol"); balance != 500 {
		t.Fatalf("creator balance = %d, want 500", balance)
	}
	config, _ := f.store.GetConfig(ctx)
	if config.AccumulatedFees != 200 {
		t.Fatalf("fee pool = %d, want 200", config.AccumulatedFees)
	}
	if holdings := f.store.Holdings("bob"); len(holdings) != 1 {
		t.Fatalf("buyer holdings = %d, want 1", len(holdings))
	}
}

func TestBuyItemMergesPaymentSourcesAndRefundsSurplus(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 10000)

	result, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{4000, 4000, 2500},
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if result.Surplus != 500 {
		t.Fatalf("surplus = %d, want 500", result.Surplus)
	}
	if balance, _ := f.store.BalanceOf(context.Background(), "bob"); balance != 500 {
		t.Fatalf("buyer refund balance = %d, want 500", balance)
	}
}

func TestBuyItemInsufficientPaymentLeavesListing(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 10000)

	_, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{9999},
	})
	if !errors.Is(err, domainerrors.ErrInsufficientPayment) {
		t.Fatalf("expected insufficient payment, got %v", err)
	}
	if _, err := f.store.GetListing(context.Background(), itemID); err != nil {
		t.Fatalf("listing must survive a rejected purchase: %v", err)
	}
	if balance, _ := f.store.BalanceOf(context.Background(), "alice"); balance != 0 {
		t.Fatalf("no credit may land on a failed purchase, got %d", balance)
	}
}

func TestBuyItemPaymentOverflowRejected(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 10000)

	_, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{^uint64(0), 1},
	})
	if !errors.Is(err, domainerrors.ErrInvalidPurchase) {
		t.Fatalf("expected invalid purchase on overflow, got %v", err)
	}
}

func TestBuyItemFeeExceedsPriceAborts(t *testing.T) {
	f := newFixture(t)
	f.royalty = stubRoyalty{typeTag: "collectibles::card", creator: "carol", bps: 10000}
	itemID := f.listItem(t, "alice", "asset-1", 100)

	_, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{100},
	})
	if !errors.Is(err, domainerrors.ErrFeeExceedsPrice) {
		t.Fatalf("expected fee exceeds price, got %v", err)
	}
	if _, err := f.store.GetListing(context.Background(), itemID); err != nil {
		t.Fatalf("listing must survive an aborted settlement: %v", err)
	}
}

func TestBuyItemUnregisteredTypePaysNoRoyalty(t *testing.T) {
	f := newFixture(t)
	f.royalty = stubRoyalty{}
	itemID := f.listItem(t, "alice", "asset-1", 10000)

	result, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller:         "bob",
		ItemID:         itemID,
		PaymentSources: []uint64{10000},
	})
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if result.RoyaltyFee != 0 || result.SellerProceeds != 9800 {
		t.Fatalf("split = royalty %d proceeds %d, want 0/9800", result.RoyaltyFee, result.SellerProceeds)
	}
}

func TestPauseGatesListBuyAndRepriceButNotDelist(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)
	f.pause(t)

	if _, err := f.listUseCase().Execute(context.Background(), commands.ListItemCommand{
		Caller: "alice", AssetID: "asset-2", TypeTag: "collectibles::card", Price: 500,
	}); !errors.Is(err, domainerrors.ErrMarketPaused) {
		t.Fatalf("list while paused = %v, want market paused", err)
	}

	if _, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller: "bob", ItemID: itemID, PaymentSources: []uint64{1000},
	}); !errors.Is(err, domainerrors.ErrMarketPaused) {
		t.Fatalf("buy while paused = %v, want market paused", err)
	}

	reprice := commands.ChangePriceUseCase{Config: f.store, Reader: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
	if _, err := reprice.Execute(context.Background(), commands.ChangePriceCommand{
		Caller: "alice", ItemID: itemID, NewPrice: 2000,
	}); !errors.Is(err, domainerrors.ErrMarketPaused) {
		t.Fatalf("reprice while paused = %v, want market paused", err)
	}

	delist := commands.DelistItemUseCase{Reader: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
	result, err := delist.Execute(context.Background(), commands.DelistItemCommand{Caller: "alice", ItemID: itemID})
	if err != nil {
		t.Fatalf("delist must work while paused: %v", err)
	}
	if result.Asset.AssetID != "asset-1" {
		t.Fatalf("released asset = %s, want asset-1", result.Asset.AssetID)
	}
	if holdings := f.store.Holdings("alice"); len(holdings) != 1 {
		t.Fatalf("owner holdings = %d, want released asset", len(holdings))
	}
}

func TestBuyWhilePausedReportsPauseBeforeInputValidation(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)
	f.pause(t)

	// Even a malformed purchase surfaces the pause first.
	if _, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller: "bob", ItemID: itemID,
	}); !errors.Is(err, domainerrors.ErrMarketPaused) {
		t.Fatalf("buy with no payment while paused = %v, want market paused", err)
	}
}

func TestChangePriceRejectsNonOwner(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)

	useCase := commands.ChangePriceUseCase{Config: f.store, Reader: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
	if _, err := useCase.Execute(context.Background(), commands.ChangePriceCommand{
		Caller: "mallory", ItemID: itemID, NewPrice: 1,
	}); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}

	listing, _ := f.store.GetListing(context.Background(), itemID)
	if listing.Price != 1000 {
		t.Fatalf("price = %d, want 1000 untouched", listing.Price)
	}
}

func TestDelistRejectsNonOwnerBeforeRemoval(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)

	useCase := commands.DelistItemUseCase{Reader: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
	if _, err := useCase.Execute(context.Background(), commands.DelistItemCommand{
		Caller: "mallory", ItemID: itemID,
	}); !errors.Is(err, domainerrors.ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := f.store.GetListing(context.Background(), itemID); err != nil {
		t.Fatalf("listing must survive a rejected delist: %v", err)
	}
}

func TestForceDelistRequiresAdminAndRejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)

	useCase := commands.ForceDelistUseCase{Config: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}

	if _, err := useCase.Execute(context.Background(), commands.ForceDelistCommand{
		Caller: "alice", ItemIDs: []string{itemID},
	}); !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-admin, got %v", err)
	}

	if _, err := useCase.Execute(context.Background(), commands.ForceDelistCommand{
		Caller: "admin", ItemIDs: nil,
	}); !errors.Is(err, domainerrors.ErrEmptyBatch) {
		t.Fatalf("expected empty batch, got %v", err)
	}

	result, err := useCase.Execute(context.Background(), commands.ForceDelistCommand{
		Caller: "admin", ItemIDs: []string{itemID},
	})
	if err != nil {
		t.Fatalf("force delist: %v", err)
	}
	if result.Removed != 1 {
		t.Fatalf("removed = %d, want 1", result.Removed)
	}
	if holdings := f.store.Holdings("alice"); len(holdings) != 1 {
		t.Fatalf("asset must return to the owner, holdings = %d", len(holdings))
	}
}

func TestForceDelistBatchFailsAsAUnit(t *testing.T) {
	f := newFixture(t)
	itemID := f.listItem(t, "alice", "asset-1", 1000)

	useCase := commands.ForceDelistUseCase{Config: f.store, Listings: f.store, Clock: f.store, IDGenerator: f.store}
	_, err := useCase.Execute(context.Background(), commands.ForceDelistCommand{
		Caller: "admin", ItemIDs: []string{itemID, "missing"},
	})
	if !errors.Is(err, domainerrors.ErrListingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.store.GetListing(context.Background(), itemID); err != nil {
		t.Fatalf("nothing may be removed when the batch fails: %v", err)
	}
}

func TestSetMarketplaceValidatesFeeRateAndAdmin(t *testing.T) {
	f := newFixture(t)
	useCase := commands.SetMarketplaceUseCase{Config: f.store, Clock: f.store}

	if _, err := useCase.Execute(context.Background(), commands.SetMarketplaceCommand{
		Caller: "admin", NewAdmin: "admin", NewFeeBps: 10001,
	}); !errors.Is(err, domainerrors.ErrFeeRateInvalid) {
		t.Fatalf("expected fee rate invalid, got %v", err)
	}

	if _, err := useCase.Execute(context.Background(), commands.SetMarketplaceCommand{
		Caller: "mallory", NewAdmin: "mallory", NewFeeBps: 100,
	}); !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	result, err := useCase.Execute(context.Background(), commands.SetMarketplaceCommand{
		Caller: "admin", NewAdmin: "admin-2", NewFeeBps: 10000,
	})
	if err != nil {
		t.Fatalf("set marketplace: %v", err)
	}
	if result.Config.Admin != "admin-2" || result.Config.FeeBasisPoints != 10000 {
		t.Fatalf("config = %+v, want admin-2 at 10000 bps", result.Config)
	}

	// The previous admin lost control with the same write.
	if _, err := useCase.Execute(context.Background(), commands.SetMarketplaceCommand{
		Caller: "admin", NewAdmin: "admin", NewFeeBps: 100,
	}); !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("old admin must be locked out, got %v", err)
	}
}

func TestWithdrawFeesPermissionsAndZeroNoop(t *testing.T) {
	f := newFixture(t)
	useCase := commands.WithdrawFeesUseCase{Config: f.store, Fees: f.store, Clock: f.store, IDGenerator: f.store}

	if _, err := useCase.Execute(context.Background(), commands.WithdrawFeesCommand{
		Caller: "mallory",
	}); !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	result, err := useCase.Execute(context.Background(), commands.WithdrawFeesCommand{Caller: "treasury"})
	if err != nil {
		t.Fatalf("withdraw on empty pool: %v", err)
	}
	if result.Amount != 0 {
		t.Fatalf("amount = %d, want 0 no-op", result.Amount)
	}

	itemID := f.listItem(t, "alice", "asset-1", 10000)
	if _, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller: "bob", ItemID: itemID, PaymentSources: []uint64{10000},
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	result, err = useCase.Execute(context.Background(), commands.WithdrawFeesCommand{Caller: "admin"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if result.Amount != 200 || result.Beneficiary != "treasury" {
		t.Fatalf("withdraw = %+v, want 200 to treasury", result)
	}
}

func TestListItemValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.listUseCase().Execute(context.Background(), commands.ListItemCommand{
		Caller: "alice", AssetID: "", TypeTag: "collectibles::card", Price: 1,
	}); !errors.Is(err, domainerrors.ErrInvalidListRequest) {
		t.Fatalf("expected invalid list request, got %v", err)
	}

	// Zero-price listings are accepted at list time; they fail only at buy
	// time when the fee invariant cannot hold.
	itemID := f.listItem(t, "alice", "asset-free", 0)
	if _, err := f.buyUseCase().Execute(context.Background(), commands.BuyItemCommand{
		Caller: "bob", ItemID: itemID, PaymentSources: []uint64{1},
	}); !errors.Is(err, domainerrors.ErrFeeExceedsPrice) {
		t.Fatalf("zero-price buy = %v, want fee exceeds price", err)
	}
}
