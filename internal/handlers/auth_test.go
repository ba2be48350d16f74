package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flockshop/wishlist-api/internal/services"
	"github.com/flockshop/wishlist-api/internal/store"
	"github.com/flockshop/wishlist-api/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeUserRepo and fakeWishlistRepo back the services under test without
// a database.
type fakeUserRepo struct {
	byID   map[int]types.User
	nextID int
}

var _ services.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[int]types.User{}, nextID: 1}
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
	user.ID = f.nextID
	f.nextID++
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
	for id := 1; len(users) < limit && id < f.nextID; id++ {
		if id == excludeID {
			continue
		}
		if user, ok := f.byID[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

type fakeWishlistRepo struct {
	byID   map[int]types.Wishlist
	nextID int
}

var _ services.WishlistRepository = (*fakeWishlistRepo)(nil)

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

// emptyFixtures keeps endpoint tests free of demo seeding noise.
type emptyFixtures struct{}

func (emptyFixtures) DemoWishlists(int, []types.User) []types.Wishlist { return nil }

type testEnv struct {
	router       *chi.Mux
	userRepo     *fakeUserRepo
	wishlistRepo *fakeWishlistRepo
}

func newTestEnv(t *testing.T, seedDemos bool) *testEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	wishlistRepo := newFakeWishlistRepo()
	userService := services.NewUserService(userRepo)
	wishlistService := services.NewWishlistService(wishlistRepo, userRepo, nil, nil)
	if !seedDemos {
		wishlistService.SetFixtureProvider(emptyFixtures{})
	}

	authHandler := NewAuthHandler(userService, wishlistService, testSecret, nil)
	authMiddleware := RequireAuth(testSecret)

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})
	router.Route("/api/wishlist", func(r chi.Router) {
		WishlistRouter(r, wishlistService, authMiddleware)
	})

	return &testEnv{router: router, userRepo: userRepo, wishlistRepo: wishlistRepo}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&value))
	return value
}

func (e *testEnv) signup(t *testing.T, name, email, password string) AuthResponse {
	t.Helper()
	recorder := e.request(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decodeBody[AuthResponse](t, recorder)
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.signup(t, "Alice", "alice@example.com", "secret123")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	subject, err := parseTokenSubject(resp.Token, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "1", subject)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, false)
	env.signup(t, "Alice", "alice@example.com", "secret123")

	// Name and password differences do not matter; same email always conflicts.
	recorder := env.request(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Name:     "Other Alice",
		Email:    "alice@example.com",
		Password: "different",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "User already exists", decodeBody[ErrorResponse](t, recorder).Error)
}

func TestSignup_MissingFields(t *testing.T) {
	env := newTestEnv(t, false)

	recorder := env.request(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Name: "Alice",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestSignup_SeedsDemoWishlists(t *testing.T) {
	env := newTestEnv(t, true)

	resp := env.signup(t, "Alice", "alice@example.com", "secret123")

	recorder := env.request(t, http.MethodGet, "/api/wishlist", resp.Token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	wishlists := decodeBody[[]types.WishlistView](t, recorder)
	require.Len(t, wishlists, 2)
	for _, wishlist := range wishlists {
		assert.Equal(t, resp.User.ID, wishlist.OwnerID)
		assert.GreaterOrEqual(t, len(wishlist.Products), 3)
		assert.LessOrEqual(t, len(wishlist.Products), 4)
	}
}

func TestLogin_EnumerationResistance(t *testing.T) {
	env := newTestEnv(t, false)
	env.signup(t, "Alice", "alice@example.com", "secret123")

	wrongPassword := env.request(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	unknownEmail := env.request(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t,
		decodeBody[ErrorResponse](t, wrongPassword).Error,
		decodeBody[ErrorResponse](t, unknownEmail).Error,
	)
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, false)
	created := env.signup(t, "Alice", "alice@example.com", "secret123")

	recorder := env.request(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeBody[AuthResponse](t, recorder)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, created.User, resp.User)
}

func TestRequireAuth(t *testing.T) {
	env := newTestEnv(t, false)

	missing := env.request(t, http.MethodGet, "/api/wishlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)

	garbage := env.request(t, http.MethodGet, "/api/wishlist", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, garbage.Code)

	wrongKey, err := issueToken(1, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	forged := env.request(t, http.MethodGet, "/api/wishlist", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, forged.Code)

	expired, err := issueToken(1, []byte(testSecret), -time.Hour)
	require.NoError(t, err)
	stale := env.request(t, http.MethodGet, "/api/wishlist", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, stale.Code)
}
