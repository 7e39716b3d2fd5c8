package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "curio/contexts/trading-core/escrow-marketplace/application"
	"curio/contexts/trading-core/escrow-marketplace/application/commands"
	"curio/contexts/trading-core/escrow-marketplace/application/queries"
	"curio/contexts/trading-core/escrow-marketplace/domain/entities"
	"curio/contexts/trading-core/escrow-marketplace/ports"
	httptransport "curio/contexts/trading-core/escrow-marketplace/transport/http"
)

type Handler struct {
	ListItem       commands.ListItemUseCase
	ChangePrice    commands.ChangePriceUseCase
	DelistItem     commands.DelistItemUseCase
	ForceDelist    commands.ForceDelistUseCase
	BuyItem        commands.BuyItemUseCase
	SetMarketplace commands.SetMarketplaceUseCase
	SetStatus      commands.SetStatusUseCase
	WithdrawFees   commands.WithdrawFeesUseCase
	GetListing     queries.GetListingUseCase
	ListListings   queries.ListListingsUseCase
	Ledger         ports.LedgerReader
	Logger         *slog.Logger
}

// ListItemHandler godoc
// @Summary List an asset for sale
// @Description Deposits the caller's asset into escrow at an asking price.
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.ListItemRequest true "Listing payload"
// @Success 201 {object} httptransport.ListItemResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings [post]
func (h Handler) ListItemHandler(ctx context.Context, caller string, req httptransport.ListItemRequest) (httptransport.ListItemResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("list item request received",
		"event", "http_list_item_received",
		"module", "trading-core/escrow-marketplace",
		"layer", "transport",
		"caller", caller,
	)

	result, err := h.ListItem.Execute(ctx, commands.ListItemCommand{
		Caller:   caller,
		AssetID:  req.AssetID,
		TypeTag:  req.TypeTag,
		Metadata: req.Metadata,
		Price:    req.Price,
	})
	if err != nil {
		return httptransport.ListItemResponse{}, err
	}
	return httptransport.ListItemResponse{Item: mapListing(result.Listing)}, nil
}

// ChangePriceHandler godoc
// @Summary Change a listing price
// @Description Updates the asking price in place; owner only.
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param item_id path string true "Item id"
// @Param request body httptransport.ChangePriceRequest true "Price payload"
// @Success 200 {object} httptransport.ChangePriceResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Router /market/listings/{item_id}/price [post]
func (h Handler) ChangePriceHandler(ctx context.Context, caller string, itemID string, req httptransport.ChangePriceRequest) (httptransport.ChangePriceResponse, error) {
	result, err := h.ChangePrice.Execute(ctx, commands.ChangePriceCommand{
		Caller:   caller,
		ItemID:   itemID,
		NewPrice: req.NewPrice,
	})
	if err != nil {
		return httptransport.ChangePriceResponse{}, err
	}
	return httptransport.ChangePriceResponse{Item: mapListing(result.Listing)}, nil
}

// DelistItemHandler godoc
// @Summary Delist an item
// @Description Returns the escrowed asset to its owner; available while paused.
// @Tags escrow-marketplace
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.DelistItemResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /market/listings/{item_id} [delete]
func (h Handler) DelistItemHandler(ctx context.Context, caller string, itemID string) (httptransport.DelistItemResponse, error) {
	result, err := h.DelistItem.Execute(ctx, commands.DelistItemCommand{
		Caller: caller,
		ItemID: itemID,
	})
	if err != nil {
		return httptransport.DelistItemResponse{}, err
	}
	return httptransport.DelistItemResponse{Asset: mapAsset(result.Asset)}, nil
}

// ForceDelistHandler godoc
// @Summary Force delist a batch of items
// @Description Admin-only atomic batch removal; each asset returns to its owner.
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.ForceDelistRequest true "Batch payload"
// @Success 200 {object} httptransport.ForceDelistResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /market/admin/force-delist [post]
func (h Handler) ForceDelistHandler(ctx context.Context, caller string, req httptransport.ForceDelistRequest) (httptransport.ForceDelistResponse, error) {
	result, err := h.ForceDelist.Execute(ctx, commands.ForceDelistCommand{
		Caller:  caller,
		ItemIDs: req.ItemIDs,
	})
	if err != nil {
		return httptransport.ForceDelistResponse{}, err
	}
	return httptransport.ForceDelistResponse{Removed: result.Removed}, nil
}

// BuyItemHandler godoc
// @Summary Buy a listed item
// @Description Exchanges payment for the escrowed asset with atomic fee splitting.
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param item_id path string true "Item id"
// @Param request body httptransport.BuyItemRequest true "Payment payload"
// @Success 200 {object} httptransport.BuyItemResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 402 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /market/listings/{item_id}/buy [post]
func (h Handler) BuyItemHandler(ctx context.Context, caller string, itemID string, req httptransport.BuyItemRequest) (httptransport.BuyItemResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.BuyItem.Execute(ctx, commands.BuyItemCommand{
		Caller:         caller,
		ItemID:         itemID,
		PaymentSources: req.PaymentSources,
	})
	if err != nil {
		logger.Warn("buy item request failed",
			"event", "http_buy_item_failed",
			"module", "trading-core/escrow-marketplace",
			"layer", "transport",
			"item_id", itemID,
			"caller", caller,
			"error", err.Error(),
		)
		return httptransport.BuyItemResponse{}, err
	}
	return httptransport.BuyItemResponse{
		Asset:      mapAsset(result.Asset),
		Price:      result.Price,
		ServiceFee: result.ServiceFee,
		RoyaltyFee: result.RoyaltyFee,
		Received:   result.SellerProceeds,
		Surplus:    result.Surplus,
	}, nil
}

// SetMarketplaceHandler godoc
// @Summary Replace marketplace admin and fee rate
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.SetMarketplaceRequest true "Config payload"
// @Success 200 {object} httptransport.SetMarketplaceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /market/admin/config [post]
func (h Handler) SetMarketplaceHandler(ctx context.Context, caller string, req httptransport.SetMarketplaceRequest) (httptransport.SetMarketplaceResponse, error) {
	result, err := h.SetMarketplace.Execute(ctx, commands.SetMarketplaceCommand{
		Caller:    caller,
		NewAdmin:  req.NewAdmin,
		NewFeeBps: req.NewFeeBps,
	})
	if err != nil {
		return httptransport.SetMarketplaceResponse{}, err
	}
	return httptransport.SetMarketplaceResponse{Config: mapConfig(result.Config)}, nil
}

// SetStatusHandler godoc
// @Summary Pause or resume the marketplace
// @Tags escrow-marketplace
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Param request body httptransport.SetStatusRequest true "Status payload"
// @Success 200 {object} httptransport.SetStatusResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /market/admin/status [post]
func (h Handler) SetStatusHandler(ctx context.Context, caller string, req httptransport.SetStatusRequest) (httptransport.SetStatusResponse, error) {
	result, err := h.SetStatus.Execute(ctx, commands.SetStatusCommand{
		Caller: caller,
		Paused: req.Paused,
	})
	if err != nil {
		return httptransport.SetStatusResponse{}, err
	}
	return httptransport.SetStatusResponse{Config: mapConfig(result.Config)}, nil
}

// WithdrawFeesHandler godoc
// @Summary Withdraw accumulated service fees
// @Description Drains the fee pool to the beneficiary; no-op at zero balance.
// @Tags escrow-marketplace
// @Produce json
// @Param X-User-Id header string true "Caller account"
// @Success 200 {object} httptransport.WithdrawFeesResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /market/admin/withdraw [post]
func (h Handler) WithdrawFeesHandler(ctx context.Context, caller string) (httptransport.WithdrawFeesResponse, error) {
	result, err := h.WithdrawFees.Execute(ctx, commands.WithdrawFeesCommand{Caller: caller})
	if err != nil {
		return httptransport.WithdrawFeesResponse{}, err
	}
	return httptransport.WithdrawFeesResponse{
		Amount:      result.Amount,
		Beneficiary: result.Beneficiary,
	}, nil
}

// GetListingHandler godoc
// @Summary Get one listing
// @Tags escrow-marketplace
// @Produce json
// @Param item_id path string true "Item id"
// @Success 200 {object} httptransport.GetListingResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /market/listings/{item_id} [get]
func (h Handler) GetListingHandler(ctx context.Context, itemID string) (httptransport.GetListingResponse, error) {
	result, err := h.GetListing.Execute(ctx, queries.GetListingQuery{ItemID: itemID})
	if err != nil {
		return httptransport.GetListingResponse{}, err
	}
	return httptransport.GetListingResponse{Item: mapListing(result.Listing)}, nil
}

// ListListingsHandler godoc
// @Summary List active listings
// @Tags escrow-marketplace
// @Produce json
// @Param owner query string false "Owner filter"
// @Param type_tag query string false "Asset type filter"
// @Param cursor query string false "Cursor token"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {object} httptransport.ListListingsResponse
// @Router /market/listings [get]
func (h Handler) ListListingsHandler(ctx context.Context, req httptransport.ListListingsRequest) (httptransport.ListListingsResponse, error) {
	result, err := h.ListListings.Execute(ctx, queries.ListListingsQuery{
		Owner:   req.Owner,
		TypeTag: req.TypeTag,
		Cursor:  req.Cursor,
		Limit:   req.Limit,
	})
	if err != nil {
		return httptransport.ListListingsResponse{}, err
	}
	items := make([]httptransport.ListingDTO, 0, len(result.Items))
	for _, listing := range result.Items {
		items = append(items, mapListing(listing))
	}
	return httptransport.ListListingsResponse{
		Items:      items,
		NextCursor: result.NextCursor,
	}, nil
}

// BalanceHandler godoc
// @Summary Get a settlement account balance
// @Tags escrow-marketplace
// @Produce json
// @Param account path string true "Account id"
// @Success 200 {object} httptransport.BalanceResponse
// @Router /market/accounts/{account}/balance [get]
func (h Handler) BalanceHandler(ctx context.Context, account string) (httptransport.BalanceResponse, error) {
	balance, err := h.Ledger.BalanceOf(ctx, account)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{Account: account, Balance: balance}, nil
}

func mapListing(listing entities.Listing) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		ItemID:   listing.ItemID,
		Price:    listing.Price,
		Owner:    listing.Owner,
		TypeTag:  listing.TypeTag,
		Asset:    mapAsset(listing.Asset),
		ListedAt: listing.ListedAt.UTC().Format(time.RFC3339),
	}
}

func mapAsset(asset entities.Asset) httptransport.AssetDTO {
	return httptransport.AssetDTO{
		AssetID:  asset.AssetID,
		TypeTag:  asset.TypeTag,
		Metadata: asset.Metadata,
	}
}

func mapConfig(config entities.MarketConfig) httptransport.MarketConfigDTO {
	return httptransport.MarketConfigDTO{
		Admin:          config.Admin,
		Beneficiary:    config.Beneficiary,
		FeeBasisPoints: config.FeeBasisPoints,
		Paused:         config.Paused,
	}
}
