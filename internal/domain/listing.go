package domain

type Listing struct {
	ID            string  `json:"listing_id"`
	ItemName      string  `json:"item_name"`
	Price         float64 `json:"price"`
	SellerName    string  `json:"seller_name,omitempty"`
	SellerContact string  `json:"seller_contact,omitempty"`
	Description   string  `json:"description,omitempty"`
}

// NewListing holds the fields a caller supplies when creating a listing.
// The store assigns the ID.
type NewListing struct {
	ItemName      string
	Price         float64
	SellerName    string
	SellerContact string
	Description   string
}
