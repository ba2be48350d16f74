package services

import (
	"context"
	"testing"

	"github.com/flockshop/wishlist-api/internal/mq"
	"github.com/flockshop/wishlist-api/internal/store"
	"github.com/flockshop/wishlist-api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWishlistRepo struct {
	byID   map[int]types.Wishlist
	nextID int
}

var _ WishlistRepository = (*fakeWishlistRepo)(nil)

func newFakeWishlistRepo() *fakeWishlistRepo {
	return &fakeWishlistRepo{byID: map[int]types.Wishlist{}, nextID: 1}
}

func copyWishlist(wishlist types.Wishlist) types.Wishlist {
	wishlist.Products = append([]types.Product(nil), wishlist.Products...)
	wishlist.Collaborators = append([]int(nil), wishlist.Collaborators...)
	wishlist.Invitations = append([]types.Invitation(nil), wishlist.Invitations...)
	return wishlist
}

func (f *fakeWishlistRepo) ListByOwner(_ context.Context, ownerID int) ([]types.Wishlist, error) {
	wishlists := make([]types.Wishlist, 0)
	for id := 1; id < f.nextID; id++ {
		if wishlist, ok := f.byID[id]; ok && wishlist.OwnerID == ownerID {
			wishlists = append(wishlists, copyWishlist(wishlist))
		}
	}
	return wishlists, nil
}

func (f *fakeWishlistRepo) Get(_ context.Context, id int) (types.Wishlist, error) {
	wishlist, ok := f.byID[id]
	if !ok {
		return types.Wishlist{}, store.ErrNotFound
	}
	return copyWishlist(wishlist), nil
}

func (f *fakeWishlistRepo) Create(_ context.Context, wishlist types.Wishlist) (types.Wishlist, error) {
	wishlist.ID = f.nextID
	f.nextID++
	f.byID[wishlist.ID] = copyWishlist(wishlist)
	return wishlist, nil
}

func (f *fakeWishlistRepo) Update(_ context.Context, wishlist types.Wishlist) (types.Wishlist, error) {
	stored, ok := f.byID[wishlist.ID]
	if !ok {
		return types.Wishlist{}, store.ErrNotFound
	}
	// The owner column is not part of the UPDATE statement.
	wishlist.OwnerID = stored.OwnerID
	f.byID[wishlist.ID] = copyWishlist(wishlist)
	return wishlist, nil
}

func (f *fakeWishlistRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeUserRepo struct {
	byID map[int]types.User
}

var _ UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{byID: map[int]types.User{}}
	for _, user := range users {
		repo.byID[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range f.byID {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = len(f.byID) + 1
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []int) ([]types.User, error) {
	users := make([]types.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) ListOthers(_ context.Context, excludeID, limit int) ([]types.User, error) {
	users := make([]types.User, 0, limit)
	for id := 1; len(users) < limit && id <= len(f.byID)+1; id++ {
		if id == excludeID {
			continue
		}
		if user, ok := f.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

type capturingPublisher struct {
	events []mq.InvitationEvent
	err    error
}

func (p *capturingPublisher) PublishInvitations(_ context.Context, event mq.InvitationEvent) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "msg-1", nil
}

func newTestService(users ...types.User) (*WishlistService, *fakeWishlistRepo, *fakeUserRepo) {
	wishlistRepo := newFakeWishlistRepo()
	userRepo := newFakeUserRepo(users...)
	service := NewWishlistService(wishlistRepo, userRepo, nil, nil)
	return service, wishlistRepo, userRepo
}

func testUser(id int, name string) types.User {
	return types.User{ID: id, Name: name, Email: name + "@example.com"}
}

func TestCreateWishlist(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"))

	wishlist, err := service.Create(context.Background(), 1, "Trip", "")
	require.NoError(t, err)

	assert.Equal(t, 1, wishlist.OwnerID)
	assert.Equal(t, "Trip", wishlist.Name)
	assert.Empty(t, wishlist.Products)
	assert.Empty(t, wishlist.Collaborators)
	assert.Empty(t, wishlist.Invitations)
}

func TestGetWishlist_OwnerOnly(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	_, err = service.Get(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = service.Get(ctx, 1, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	view, err := service.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
}

func TestDeleteWishlist(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	err = service.Delete(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, service.Delete(ctx, 1, created.ID))

	_, err = service.Get(ctx, 1, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddRemoveProductRoundtrip(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	view, err := service.AddProduct(ctx, 1, created.ID, AddProductInput{Name: "Tent", Price: 120.00})
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "Tent", view.Products[0].Name)
	assert.Equal(t, 120.00, view.Products[0].Price)
	assert.Equal(t, 1, view.Products[0].AddedBy.ID)
	assert.Equal(t, "alice", view.Products[0].AddedBy.Name)
	assert.Equal(t, DefaultProductImageURL, view.Products[0].ImageURL)

	view, err = service.RemoveProduct(ctx, 1, created.ID, view.Products[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.Products)
}

func TestAddProduct_AnyAuthenticatedCaller(t *testing.T) {
	// Product mutations check wishlist existence only; a caller who is
	// neither owner nor collaborator may still add.
	service, _, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	view, err := service.AddProduct(ctx, 2, created.ID, AddProductInput{Name: "Lantern", Price: 25.50})
	require.NoError(t, err)
	require.Len(t, view.Products, 1)
	assert.Equal(t, 2, view.Products[0].AddedBy.ID)
	assert.Equal(t, 1, view.OwnerID)
}

func TestAddProduct_WishlistMissing(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"))

	_, err := service.AddProduct(context.Background(), 1, 42, AddProductInput{Name: "Tent", Price: 10})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateProduct_PartialFields(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)
	view, err := service.AddProduct(ctx, 1, created.ID, AddProductInput{Name: "Tent", Price: 120.00, ImageURL: "https://img/tent.jpg"})
	require.NoError(t, err)
	productID := view.Products[0].ID

	updated, err := service.UpdateProduct(ctx, 1, created.ID, productID, UpdateProductInput{Price: 99.50})
	require.NoError(t, err)
	assert.Equal(t, "Tent", updated.Name)
	assert.Equal(t, "https://img/tent.jpg", updated.ImageURL)
	assert.Equal(t, 99.50, updated.Price)

	updated, err = service.UpdateProduct(ctx, 1, created.ID, productID, UpdateProductInput{Name: "Big Tent"})
	require.NoError(t, err)
	assert.Equal(t, "Big Tent", updated.Name)
	assert.Equal(t, 99.50, updated.Price)

	_, err = service.UpdateProduct(ctx, 1, created.ID, "missing", UpdateProductInput{Name: "x"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestOwnerImmutableAcrossMutations(t *testing.T) {
	service, repo, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	view, err := service.AddProduct(ctx, 2, created.ID, AddProductInput{Name: "Tent", Price: 10})
	require.NoError(t, err)
	_, err = service.UpdateProduct(ctx, 2, created.ID, view.Products[0].ID, UpdateProductInput{Price: 11})
	require.NoError(t, err)
	_, err = service.Invite(ctx, 1, created.ID, []string{"b@x.com"})
	require.NoError(t, err)
	_, err = service.RemoveProduct(ctx, 2, created.ID, view.Products[0].ID)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.OwnerID)
}

func TestInvite_DeduplicatesEmails(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	invited, err := service.Invite(ctx, 1, created.ID, []string{"b@x.com", "b@x.com", "c@y.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com", "c@y.com"}, invited)

	// A second call for an already-invited email adds nothing.
	invited, err = service.Invite(ctx, 1, created.ID, []string{"b@x.com"})
	require.NoError(t, err)
	assert.Empty(t, invited)

	invitations, err := service.Invitations(ctx, 1, created.ID)
	require.NoError(t, err)
	require.Len(t, invitations, 2)
	assert.Equal(t, types.InvitationPending, invitations[0].Status)
}

func TestInvite_Authorization(t *testing.T) {
	service, repo, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"), testUser(3, "carol"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	_, err = service.Invite(ctx, 2, created.ID, []string{"d@z.com"})
	assert.ErrorIs(t, err, ErrForbidden)

	// Collaborators may invite.
	stored := repo.byID[created.ID]
	stored.Collaborators = []int{2}
	repo.byID[created.ID] = stored

	invited, err := service.Invite(ctx, 2, created.ID, []string{"d@z.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d@z.com"}, invited)

	// But collaborators may not list invitations.
	_, err = service.Invitations(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestInvite_PublishesEvent(t *testing.T) {
	wishlistRepo := newFakeWishlistRepo()
	userRepo := newFakeUserRepo(testUser(1, "alice"))
	publisher := &capturingPublisher{}
	service := NewWishlistService(wishlistRepo, userRepo, publisher, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	_, err = service.Invite(ctx, 1, created.ID, []string{"b@x.com", "b@x.com"})
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, created.ID, event.WishlistID)
	assert.Equal(t, "Trip", event.WishlistName)
	assert.Equal(t, 1, event.InvitedBy)
	assert.Equal(t, []string{"b@x.com"}, event.Emails)

	// Nothing new to announce: no event.
	_, err = service.Invite(ctx, 1, created.ID, []string{"b@x.com"})
	require.NoError(t, err)
	assert.Len(t, publisher.events, 1)
}

func TestInvite_PublishFailureDoesNotFailRequest(t *testing.T) {
	wishlistRepo := newFakeWishlistRepo()
	userRepo := newFakeUserRepo(testUser(1, "alice"))
	publisher := &capturingPublisher{err: assert.AnError}
	service := NewWishlistService(wishlistRepo, userRepo, publisher, nil)
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)

	invited, err := service.Invite(ctx, 1, created.ID, []string{"b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b@x.com"}, invited)
}

func TestListMine_ExpandsAdders(t *testing.T) {
	service, _, _ := newTestService(testUser(1, "alice"), testUser(2, "bob"))
	ctx := context.Background()

	created, err := service.Create(ctx, 1, "Trip", "")
	require.NoError(t, err)
	_, err = service.AddProduct(ctx, 2, created.ID, AddProductInput{Name: "Tent", Price: 10})
	require.NoError(t, err)
	_, err = service.Create(ctx, 2, "Bob's list", "")
	require.NoError(t, err)

	mine, err := service.ListMine(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Len(t, mine[0].Products, 1)
	assert.Equal(t, "bob", mine[0].Products[0].AddedBy.Name)
	assert.Equal(t, "bob@example.com", mine[0].Products[0].AddedBy.Email)
}
