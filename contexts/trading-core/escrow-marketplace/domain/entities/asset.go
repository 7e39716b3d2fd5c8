package entities

// Asset is a unique, non-fungible item. Assets arrive already constructed;
// the marketplace only takes custody of them and releases them once, to the
// original owner on delist or to the buyer on purchase.
type Asset struct {
	AssetID  string
	TypeTag  string
	Metadata string
}
