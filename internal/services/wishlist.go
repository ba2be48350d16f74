package services

import (
	"context"
	"errors"
	"time"

	"github.com/flockshop/wishlist-api/internal/mq"
	"github.com/flockshop/wishlist-api/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultProductImageURL is used when a caller adds a product without
// supplying an image.
const DefaultProductImageURL = "https://thumbs.dreamstime.com/b/vector-illustration-wishlist-inscription-birthday-party-brush-lettering-modern-calligraphy-desirable-gifts-vector-142683227.jpg?w=768"

// ErrForbidden is returned when the caller is authenticated but not
// permitted to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrProductNotFound is returned when a product id does not resolve inside
// an existing wishlist.
var ErrProductNotFound = errors.New("product not found")

// WishlistRepository defines persistence operations for wishlist aggregates.
type WishlistRepository interface {
	ListByOwner(ctx context.Context, ownerID int) ([]types.Wishlist, error)
	Get(ctx context.Context, id int) (types.Wishlist, error)
	Create(ctx context.Context, wishlist types.Wishlist) (types.Wishlist, error)
	Update(ctx context.Context, wishlist types.Wishlist) (types.Wishlist, error)
	Delete(ctx context.Context, id int) error
}

// InvitationPublisher publishes invitation events for downstream consumers.
// *mq.MQ satisfies it.
type InvitationPublisher interface {
	PublishInvitations(ctx context.Context, event mq.InvitationEvent) (string, error)
}

// WishlistService encapsulates the wishlist CRUD and authorization rules.
type WishlistService struct {
	repo     WishlistRepository
	users    UserRepository
	events   InvitationPublisher
	fixtures FixtureProvider
	logger   logrus.FieldLogger
}

// NewWishlistService constructs the service. events may be nil, which
// disables invitation event publishing.
func NewWishlistService(repo WishlistRepository, users UserRepository, events InvitationPublisher, logger logrus.FieldLogger) *WishlistService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WishlistService{
		repo:     repo,
		users:    users,
		events:   events,
		fixtures: NewRandomFixtures(time.Now().UnixNano()),
		logger:   logger,
	}
}

// SetFixtureProvider replaces the demo-data provider. Tests inject a
// deterministic one.
func (s *WishlistService) SetFixtureProvider(provider FixtureProvider) {
	s.fixtures = provider
}

// Create persists a new empty wishlist owned by the caller.
func (s *WishlistService) Create(ctx context.Context, ownerID int, name, description string) (types.Wishlist, error) {
	wishlist := types.Wishlist{
		Name:          name,
		Description:   description,
		OwnerID:       ownerID,
		Products:      []types.Product{},
		Collaborators: []int{},
		Invitations:   []types.Invitation{},
	}
	return s.repo.Create(ctx, wishlist)
}

// ListMine returns every wishlist owned by the caller with product adders
// expanded to public user views.
func (s *WishlistService) ListMine(ctx context.Context, callerID int) ([]types.WishlistView, error) {
	wishlists, err := s.repo.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}

	views := make([]types.WishlistView, 0, len(wishlists))
	for _, wishlist := range wishlists {
		view, err := s.expand(ctx, wishlist)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Get returns a single wishlist. Only the owner may read it.
func (s *WishlistService) Get(ctx context.Context, callerID, wishlistID int) (types.WishlistView, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return types.WishlistView{}, err
	}
	if wishlist.OwnerID != callerID {
		return types.WishlistView{}, ErrForbidden
	}
	return s.expand(ctx, wishlist)
}

// Delete removes a wishlist. Only the owner may delete it.
func (s *WishlistService) Delete(ctx context.Context, callerID, wishlistID int) error {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return err
	}
	if wishlist.OwnerID != callerID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, wishlistID)
}

// AddProductInput carries the caller-supplied product fields.
type AddProductInput struct {
	Name     string
	Price    float64
	ImageURL string
	URL      string
}

// AddProduct appends a product to the wishlist. Any authenticated caller
// holding the wishlist id may add; only existence is checked.
func (s *WishlistService) AddProduct(ctx context.Context, callerID, wishlistID int, input AddProductInput) (types.WishlistView, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return types.WishlistView{}, err
	}

	imageURL := input.ImageURL
	if imageURL == "" {
		imageURL = DefaultProductImageURL
	}

	now := time.Now()
	wishlist.Products = append(wishlist.Products, types.Product{
		ID:        uuid.NewString(),
		Name:      input.Name,
		ImageURL:  imageURL,
		Price:     input.Price,
		URL:       input.URL,
		AddedBy:   callerID,
		CreatedAt: now,
		UpdatedAt: now,
	})

	updated, err := s.repo.Update(ctx, wishlist)
	if err != nil {
		return types.WishlistView{}, err
	}
	return s.expand(ctx, updated)
}

// UpdateProductInput carries the optional fields of a partial product
// update. Zero values mean "leave unchanged".
type UpdateProductInput struct {
	Name     string
	ImageURL string
	Price    float64
}

// UpdateProduct overwrites only the supplied fields of a product.
func (s *WishlistService) UpdateProduct(ctx context.Context, callerID, wishlistID int, productID string, input UpdateProductInput) (types.Product, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return types.Product{}, err
	}

	index := productIndex(wishlist.Products, productID)
	if index < 0 {
		return types.Product{}, ErrProductNotFound
	}

	product := &wishlist.Products[index]
	if input.Name != "" {
		product.Name = input.Name
	}
	if input.ImageURL != "" {
		product.ImageURL = input.ImageURL
	}
	if input.Price != 0 {
		product.Price = input.Price
	}
	product.UpdatedAt = time.Now()

	if _, err := s.repo.Update(ctx, wishlist); err != nil {
		return types.Product{}, err
	}
	return *product, nil
}

// RemoveProduct deletes a product from the wishlist by id.
func (s *WishlistService) RemoveProduct(ctx context.Context, callerID, wishlistID int, productID string) (types.WishlistView, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return types.WishlistView{}, err
	}

	index := productIndex(wishlist.Products, productID)
	if index < 0 {
		return types.WishlistView{}, ErrProductNotFound
	}

	wishlist.Products = append(wishlist.Products[:index], wishlist.Products[index+1:]...)

	updated, err := s.repo.Update(ctx, wishlist)
	if err != nil {
		return types.WishlistView{}, err
	}
	return s.expand(ctx, updated)
}

// Invite appends pending invitations for the given emails, skipping any
// email already invited. The caller must be the owner or a collaborator.
// Returns the emails that were actually added.
func (s *WishlistService) Invite(ctx context.Context, callerID, wishlistID int, emails []string) ([]string, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}

	if wishlist.OwnerID != callerID && !containsInt(wishlist.Collaborators, callerID) {
		return nil, ErrForbidden
	}

	now := time.Now()
	invited := make([]string, 0, len(emails))
	for _, email := range emails {
		if hasInvitation(wishlist.Invitations, email) || containsString(invited, email) {
			continue
		}
		wishlist.Invitations = append(wishlist.Invitations, types.Invitation{
			Email:     email,
			Status:    types.InvitationPending,
			InvitedAt: now,
		})
		invited = append(invited, email)
	}

	if _, err := s.repo.Update(ctx, wishlist); err != nil {
		return nil, err
	}

	s.publishInvitations(ctx, wishlist, callerID, invited, now)
	return invited, nil
}

// Invitations returns every invitation on the wishlist. Owner only.
func (s *WishlistService) Invitations(ctx context.Context, callerID, wishlistID int) ([]types.Invitation, error) {
	wishlist, err := s.repo.Get(ctx, wishlistID)
	if err != nil {
		return nil, err
	}
	if wishlist.OwnerID != callerID {
		return nil, ErrForbidden
	}
	if wishlist.Invitations == nil {
		return []types.Invitation{}, nil
	}
	return wishlist.Invitations, nil
}

// publishInvitations is best-effort: a broker failure never fails the
// invite request.
func (s *WishlistService) publishInvitations(ctx context.Context, wishlist types.Wishlist, invitedBy int, emails []string, invitedAt time.Time) {
	if s.events == nil || len(emails) == 0 {
		return
	}
	event := mq.InvitationEvent{
		WishlistID:   wishlist.ID,
		WishlistName: wishlist.Name,
		InvitedBy:    invitedBy,
		Emails:       emails,
		InvitedAt:    invitedAt,
	}
	if _, err := s.events.PublishInvitations(ctx, event); err != nil {
		s.logger.WithError(err).WithField("wishlistId", wishlist.ID).Warn("failed to publish invitation event")
	}
}

// expand resolves each product's adder into a public user view. Adders no
// longer resolvable keep a bare id.
func (s *WishlistService) expand(ctx context.Context, wishlist types.Wishlist) (types.WishlistView, error) {
	ids := make([]int, 0, len(wishlist.Products))
	seen := make(map[int]bool, len(wishlist.Products))
	for _, product := range wishlist.Products {
		if !seen[product.AddedBy] {
			seen[product.AddedBy] = true
			ids = append(ids, product.AddedBy)
		}
	}

	adders := make(map[int]types.PublicUser, len(ids))
	if len(ids) > 0 {
		users, err := s.users.ListByIDs(ctx, ids)
		if err != nil {
			return types.WishlistView{}, err
		}
		for _, user := range users {
			adders[user.ID] = user.Public()
		}
	}

	products := make([]types.ProductView, 0, len(wishlist.Products))
	for _, product := range wishlist.Products {
		addedBy, ok := adders[product.AddedBy]
		if !ok {
			addedBy = types.PublicUser{ID: product.AddedBy}
		}
		products = append(products, types.ProductView{
			ID:        product.ID,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
			Price:     product.Price,
			URL:       product.URL,
			AddedBy:   addedBy,
			CreatedAt: product.CreatedAt,
			UpdatedAt: product.UpdatedAt,
		})
	}

	collaborators := wishlist.Collaborators
	if collaborators == nil {
		collaborators = []int{}
	}
	invitations := wishlist.Invitations
	if invitations == nil {
		invitations = []types.Invitation{}
	}

	return types.WishlistView{
		ID:            wishlist.ID,
		Name:          wishlist.Name,
		Description:   wishlist.Description,
		OwnerID:       wishlist.OwnerID,
		Products:      products,
		Collaborators: collaborators,
		Invitations:   invitations,
		CreatedAt:     wishlist.CreatedAt,
		UpdatedAt:     wishlist.UpdatedAt,
	}, nil
}

func productIndex(products []types.Product, id string) int {
	for i, product := range products {
		if product.ID == id {
			return i
		}
	}
	return -1
}

func hasInvitation(invitations []types.Invitation, email string) bool {
	for _, invitation := range invitations {
		if invitation.Email == email {
			return true
		}
	}
	return false
}

func containsInt(values []int, target int) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
