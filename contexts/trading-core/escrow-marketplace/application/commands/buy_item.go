package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	domainerrors "curio/contexts/trading-core/escrow-marketplace/domain/errors"
	"curio/contexts/trading-core/escrow-marketplace/domain/services"
	"curio/contexts/trading-core/escrow-marketplace/ports"
)

const (
	creditReasonSellerProceeds = "seller_proceeds"
	creditReasonRoyalty        = "royalty"
	creditReasonSurplusRefund  = "surplus_refund"
)

type BuyItemCommand struct {
	Caller string
	ItemID string
	// PaymentSources are the host-verified balances the buyer hands over,
	// merged in order into one payable amount. An empty list is invalid.
	PaymentSources []uint64
}

type BuyItemResult struct {
	Asset          entities.Asset
	Price          uint64
	ServiceFee     uint64
	RoyaltyFee     uint64
	SellerProceeds uint64
	Surplus        uint64
}

type BuyItemUseCase struct {
	Config      ports.ConfigRepository
	Reader      ports.ListingReader
	Listings    ports.ListingWriter
	Royalty     ports.RoyaltyPolicy
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute exchanges payment for the escrowed asset in this order:
// 1) pause gate
// 2) merge payment sources
// 3) load listing and validate funds against price
// 4) compute service fee and royalty (floor basis-point shares)
// 5) validate serviceFee + royaltyFee < price
// 6) commit the settlement: listing removal, fee accrual, seller/creator
//    credits, surplus refund, asset release, purchase event in one write.
func (u BuyItemUseCase) Execute(ctx context.Context, cmd BuyItemCommand) (BuyItemResult, error) {
	logger := application.ResolveLogger(u.Logger)

	config, err := u.Config.GetConfig(ctx)
	if err != nil {
		return BuyItemResult{}, err
	}
	if config.Paused {
		return BuyItemResult{}, domainerrors.ErrMarketPaused
	}

	if strings.TrimSpace(cmd.Caller) == "" || strings.TrimSpace(cmd.ItemID) == "" {
		return BuyItemResult{}, domainerrors.ErrInvalidPurchase
	}
	if len(cmd.PaymentSources) == 0 {
		return BuyItemResult{}, domainerrors.ErrInvalidPurchase
	}

	payment, err := mergePayment(cmd.PaymentSources)
	if err != nil {
		return BuyItemResult{}, err
	}

	listing, err := u.Reader.GetListing(ctx, cmd.ItemID)
	if err != nil {
		return BuyItemResult{}, err
	}
	if payment < listing.Price {
		logger.Warn("purchase rejected for insufficient payment",
			"event", "market_buy_insufficient_payment",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"item_id", cmd.ItemID,
			"price", listing.Price,
			"payment", payment,
		)
		return BuyItemResult{}, domainerrors.ErrInsufficientPayment
	}

	serviceFee := services.BasisPointShare(listing.Price, config.FeeBasisPoints)
	creator, royaltyFee, err := u.Royalty.ChargeRoyalty(ctx, listing.TypeTag, listing.Price)
	if err != nil {
		return BuyItemResult{}, err
	}

	settlement, err := services.SettleFees(listing.Price, serviceFee, royaltyFee)
	if err != nil {
		logger.Error("purchase aborted on fee invariant",
			"event", "market_buy_fee_exceeds_price",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"item_id", cmd.ItemID,
			"price", listing.Price,
			"service_fee", serviceFee,
			"royalty_fee", royaltyFee,
		)
		return BuyItemResult{}, err
	}

	surplus := payment - listing.Price
	credits := []ports.FundCredit{{
		Account: listing.Owner,
		Amount:  settlement.SellerProceeds,
		Reason:  creditReasonSellerProceeds,
	}}
	if settlement.RoyaltyFee > 0 {
		credits = append(credits, ports.FundCredit{
			Account: creator,
			Amount:  settlement.RoyaltyFee,
			Reason:  creditReasonRoyalty,
		})
	}
	// An exact-zero surplus is destroyed, never transferred.
	if surplus > 0 {
		credits = append(credits, ports.FundCredit{
			Account: cmd.Caller,
			Amount:  surplus,
			Reason:  creditReasonSurplusRefund,
		})
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return BuyItemResult{}, err
	}

	if err := u.Listings.ExecutePurchase(ctx, ports.PurchaseSettlement{
		ItemID:     cmd.ItemID,
		Price:      listing.Price,
		Buyer:      cmd.Caller,
		ServiceFee: settlement.ServiceFee,
		Credits:    credits,
		Event: ports.PurchasedEvent{
			EventID:    eventID,
			ItemID:     cmd.ItemID,
			Price:      listing.Price,
			ServiceFee: settlement.ServiceFee,
			RoyaltyFee: settlement.RoyaltyFee,
			Received:   settlement.SellerProceeds,
			Buyer:      cmd.Caller,
			Seller:     listing.Owner,
			TypeTag:    listing.TypeTag,
			OccurredAt: now,
		},
	}); err != nil {
		logger.Error("purchase settlement failed",
			"event", "market_buy_settlement_failed",
			"module", "trading-core/escrow-marketplace",
			"layer", "application",
			"item_id", cmd.ItemID,
			"buyer", cmd.Caller,
			"error", err.Error(),
		)
		return BuyItemResult{}, err
	}

	logger.Info("purchase settled",
		"event", "market_item_purchased",
		"module", "trading-core/escrow-marketplace",
		"layer", "application",
		"item_id", cmd.ItemID,
		"buyer", cmd.Caller,
		"seller", listing.Owner,
		"price", listing.Price,
		"service_fee", settlement.ServiceFee,
		"royalty_fee", settlement.RoyaltyFee,
		"received", settlement.SellerProceeds,
		"surplus", surplus,
	)

	return BuyItemResult{
		Asset:          listing.Asset,
		Price:          listing.Price,
		ServiceFee:     settlement.ServiceFee,
		RoyaltyFee:     settlement.RoyaltyFee,
		SellerProceeds: settlement.SellerProceeds,
		Surplus:        surplus,
	}, nil
}

// mergePayment concatenates payment sources into one amount, rejecting
// overflow past uint64.
func mergePayment(sources []uint64) (uint64, error) {
	var total uint64
	for _, amount := range sources {
		merged := total + amount
		if merged < total {
			return 0, domainerrors.ErrInvalidPurchase
		}
		total = merged
	}
	return total, nil
}

func (u BuyItemUseCase) now() time.Time {
	return resolveNow(u.Clock)
}
