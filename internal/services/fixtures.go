package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/flockshop/wishlist-api/types"
	"github.com/google/uuid"
)

// CatalogProduct is an entry in the demo product catalog.
type CatalogProduct struct {
	Name     string
	Price    float64
	ImageURL string
}

// DemoCatalog is the fixed product catalog demo wishlists draw from.
var DemoCatalog = []CatalogProduct{
	{
		Name:     "Wireless Headphones",
		Price:    99.99,
		ImageURL: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&h=500&fit=crop",
	},
	{
		Name:     "Smart Watch",
		Price:    199.99,
		ImageURL: "https://images.unsplash.com/photo-1546868871-7041f2a55e12?w=500&h=500&fit=crop",
	},
	{
		Name:     "Tablet",
		Price:    349.99,
		ImageURL: "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=500&h=500&fit=crop",
	},
	{
		Name:     "The Great Gatsby",
		Price:    15.99,
		ImageURL: "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=500&h=500&fit=crop",
	},
	{
		Name:     "Winter Jacket",
		Price:    89.99,
		ImageURL: "https://images.unsplash.com/photo-1578587018452-892bacefd3f2?w=500&h=500&fit=crop",
	},
}

var demoWishlistTemplates = []struct {
	Name        string
	Description string
}{
	{
		Name:        "My Birthday Wishlist",
		Description: "Things I want for my birthday celebration!",
	},
	{
		Name:        "Tech Gadgets",
		Description: "Cool tech products I'm saving up for",
	},
}

// FixtureProvider builds demo wishlists for a freshly registered user.
// Production uses a randomized provider; tests inject a deterministic one.
type FixtureProvider interface {
	DemoWishlists(ownerID int, others []types.User) []types.Wishlist
}

type randomFixtures struct {
	rng *rand.Rand
}

// NewRandomFixtures returns the default randomized provider.
func NewRandomFixtures(seed int64) FixtureProvider {
	return &randomFixtures{rng: rand.New(rand.NewSource(seed))}
}

// DemoWishlists builds two templated wishlists with 3-4 catalog picks
// each. For every pick the adder is the owner or one of the other users,
// 50/50; foreign adders become collaborators. A wishlist that ends up
// without collaborators gets one anyway when other users exist.
func (f *randomFixtures) DemoWishlists(ownerID int, others []types.User) []types.Wishlist {
	wishlists := make([]types.Wishlist, 0, len(demoWishlistTemplates))
	for _, template := range demoWishlistTemplates {
		wishlist := types.Wishlist{
			Name:          template.Name,
			Description:   template.Description,
			OwnerID:       ownerID,
			Products:      []types.Product{},
			Collaborators: []int{},
			Invitations:   []types.Invitation{},
		}

		numProducts := f.rng.Intn(2) + 3
		now := time.Now()
		for i := 0; i < numProducts; i++ {
			item := DemoCatalog[f.rng.Intn(len(DemoCatalog))]

			adder := ownerID
			if len(others) > 0 && f.rng.Intn(2) == 0 {
				adder = others[f.rng.Intn(len(others))].ID
				if !containsInt(wishlist.Collaborators, adder) {
					wishlist.Collaborators = append(wishlist.Collaborators, adder)
				}
			}

			wishlist.Products = append(wishlist.Products, types.Product{
				ID:        uuid.NewString(),
				Name:      item.Name,
				ImageURL:  item.ImageURL,
				Price:     item.Price,
				AddedBy:   adder,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}

		if len(wishlist.Collaborators) == 0 && len(others) > 0 {
			wishlist.Collaborators = append(wishlist.Collaborators, others[f.rng.Intn(len(others))].ID)
		}

		wishlists = append(wishlists, wishlist)
	}
	return wishlists
}

// SeedDemoWishlists creates the demo wishlists for a newly registered
// user. It is a side effect of signup, not a public operation.
func (s *WishlistService) SeedDemoWishlists(ctx context.Context, ownerID int) ([]types.Wishlist, error) {
	others, err := s.users.ListOthers(ctx, ownerID, 3)
	if err != nil {
		return nil, fmt.Errorf("list collaborator candidates: %w", err)
	}

	created := make([]types.Wishlist, 0, 2)
	for _, wishlist := range s.fixtures.DemoWishlists(ownerID, others) {
		saved, err := s.repo.Create(ctx, wishlist)
		if err != nil {
			return created, fmt.Errorf("create demo wishlist %q: %w", wishlist.Name, err)
		}
		created = append(created, saved)
	}
	return created, nil
}
