package httptransport

type AssetDTO struct {
	AssetID  string `json:"asset_id"`
	TypeTag  string `json:"type_tag"`
	Metadata string `json:"metadata,omitempty"`
}

type ListingDTO struct {
	ItemID   string   `json:"item_id"`
	Price    uint64   `json:"price"`
	Owner    string   `json:"owner"`
	TypeTag  string   `json:"type_tag"`
	Asset    AssetDTO `json:"asset"`
	ListedAt string   `json:"listed_at"`
}

type ListItemRequest struct {
	AssetID  string `json:"asset_id"`
	TypeTag  string `json:"type_tag"`
	Metadata string `json:"metadata,omitempty"`
	Price    uint64 `json:"price"`
}

type ListItemResponse struct {
	Item ListingDTO `json:"item"`
}

type ChangePriceRequest struct {
	NewPrice uint64 `json:"new_price"`
}

type ChangePriceResponse struct {
	Item ListingDTO `json:"item"`
}

type DelistItemResponse struct {
	Asset AssetDTO `json:"asset"`
}

type ForceDelistRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type ForceDelistResponse struct {
	Removed int `json:"removed"`
}

type BuyItemRequest struct {
	PaymentSources []uint64 `json:"payment_sources"`
}

type BuyItemResponse struct {
	Asset      AssetDTO `json:"asset"`
	Price      uint64   `json:"price"`
	ServiceFee uint64   `json:"service_fee"`
	RoyaltyFee uint64   `json:"royalty_fee"`
	Received   uint64   `json:"received"`
	Surplus    uint64   `json:"surplus"`
}

type MarketConfigDTO struct {
	Admin          string `json:"admin"`
	Beneficiary    string `json:"beneficiary"`
	FeeBasisPoints uint16 `json:"fee_basis_points"`
	Paused         bool   `json:"paused"`
}

type SetMarketplaceRequest struct {
	NewAdmin  string `json:"new_admin"`
	NewFeeBps uint16 `json:"new_fee_bps"`
}

type SetMarketplaceResponse struct {
	Config MarketConfigDTO `json:"config"`
}

type SetStatusRequest struct {
	Paused bool `json:"paused"`
}

type SetStatusResponse struct {
	Config MarketConfigDTO `json:"config"`
}

type WithdrawFeesResponse struct {
	Amount      uint64 `json:"amount"`
	Beneficiary string `json:"beneficiary"`
}

type GetListingResponse struct {
	Item ListingDTO `json:"item"`
}

type ListListingsRequest struct {
	Owner   string `json:"owner,omitempty"`
	TypeTag string `json:"type_tag,omitempty"`
	Cursor  string `json:"cursor,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type ListListingsResponse struct {
	Items      []ListingDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
