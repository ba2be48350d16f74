package types

import "time"

// Invitation statuses. Invitations are created pending; transitions are
// not exposed through the API yet.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Wishlist is the aggregate root: a named list owned by one user, carrying
// its products, collaborators and invitations. It is always loaded and
// persisted as a whole.
type Wishlist struct {
	// ID is the unique identifier of the wishlist.
	ID int `json:"id" db:"id"`

	// Name is the display name of the wishlist.
	Name string `json:"name" db:"name"`

	// Description is free-form text shown alongside the name.
	Description string `json:"description" db:"description"`

	// OwnerID references the user that created the wishlist.
	// It never changes after creation.
	OwnerID int `json:"userId" db:"owner_id"`

	// Products is the ordered list of products on the wishlist.
	Products []Product `json:"products" db:"products"`

	// Collaborators holds user IDs allowed to invite others.
	Collaborators []int `json:"collaborators" db:"collaborators"`

	// Invitations is the ordered list of invitations sent for this wishlist.
	Invitations []Invitation `json:"invitations" db:"invitations"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Product is an item embedded in a wishlist.
type Product struct {
	// ID is the unique identifier of the product within the system.
	ID string `json:"id"`

	// Name is the display name of the product.
	Name string `json:"name"`

	// ImageURL points at a product image. It is always set; a placeholder
	// is used when the caller supplies none.
	ImageURL string `json:"imageUrl"`

	// Price is the product price. Never negative.
	Price float64 `json:"price"`

	// URL is an optional external link to the product page.
	URL string `json:"url,omitempty"`

	// AddedBy references the user that added the product.
	AddedBy int `json:"addedBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Invitation is an emailed invite embedded in a wishlist. At most one
// invitation per email exists on a given wishlist.
type Invitation struct {
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	InvitedAt time.Time `json:"invitedAt"`
}

// ProductView is a Product with its adder expanded to a public user view.
type ProductView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ImageURL  string     `json:"imageUrl"`
	Price     float64    `json:"price"`
	URL       string     `json:"url,omitempty"`
	AddedBy   PublicUser `json:"addedBy"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// WishlistView is a Wishlist whose products carry expanded adders. It is
// what the read endpoints return.
type WishlistView struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	OwnerID       int           `json:"userId"`
	Products      []ProductView `json:"products"`
	Collaborators []int         `json:"collaborators"`
	Invitations   []Invitation  `json:"invitations"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
