package http

// RoyaltyEntryDTO is the wire shape of one registry record.
type RoyaltyEntryDTO struct {
	TypeTag     string `json:"type_tag"`
	Creator     string `json:"creator"`
	BasisPoints uint16 `json:"basis_points"`
	UpdatedAt   string `json:"updated_at"`
}

type SetRoyaltyRequest struct {
	TypeTag     string `json:"type_tag"`
	Creator     string `json:"creator"`
	BasisPoints uint16 `json:"basis_points"`
}

type SetRoyaltyResponse struct {
	Entry RoyaltyEntryDTO `json:"entry"`
}

type SetAdminRequest struct {
	NewAdmin string `json:"new_admin"`
}

type SetAdminResponse struct {
	Admin     string `json:"admin"`
	UpdatedAt string `json:"updated_at"`
}

type GetRoyaltyResponse struct {
	Entry RoyaltyEntryDTO `json:"entry"`
}

type ListRoyaltiesResponse struct {
	Entries []RoyaltyEntryDTO `json:"entries"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
