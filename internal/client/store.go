package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/flockshop/wishlist-api/internal/handlers"
	"github.com/flockshop/wishlist-api/types"
)

// Session is the durable slice of client state: the signed-in user and
// their token. It survives restarts via the state file.
type Session struct {
	User  types.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// Store holds client-side state: a persisted session and an in-memory
// wishlist collection, both kept in sync with the server through
// request/response cycles. Mutations are optimistic only in their loading
// flag; on failure prior state is left intact and the server's message is
// surfaced through the returned error.
type Store struct {
	client    *Client
	statePath string

	mu        sync.Mutex
	session   *Session
	wishlists []types.WishlistView
	loading   bool
}

// NewStore builds a Store backed by the given client, restoring any
// session persisted at statePath.
func NewStore(client *Client, statePath string) *Store {
	store := &Store{client: client, statePath: statePath}
	store.restoreSession()
	return store
}

// Session returns the current session, or nil when signed out.
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Wishlists returns the cached wishlist collection.
func (s *Store) Wishlists() []types.WishlistView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.WishlistView(nil), s.wishlists...)
}

// Loading reports whether a request is currently in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Signup registers an account and stores the resulting session.
func (s *Store) Signup(ctx context.Context, name, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.client.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}
	s.saveSession(resp)
	return nil
}

// Login authenticates and stores the resulting session.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.saveSession(resp)
	return nil
}

// Logout clears the session and wishlist slices and removes the persisted
// session data.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.wishlists = nil
	_ = os.Remove(s.statePath)
}

// Refresh refetches the wishlist collection from the server.
func (s *Store) Refresh(ctx context.Context) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	wishlists, err := s.client.Wishlists(ctx, token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.wishlists = wishlists
	s.mu.Unlock()
	return nil
}

// CreateWishlist creates a wishlist and refreshes the collection.
func (s *Store) CreateWishlist(ctx context.Context, name, description string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.client.CreateWishlist(ctx, token, name, description); err != nil {
		return err
	}

	wishlists, err := s.client.Wishlists(ctx, token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.wishlists = wishlists
	s.mu.Unlock()
	return nil
}

// DeleteWishlist removes a wishlist and drops it from the cache.
func (s *Store) DeleteWishlist(ctx context.Context, id int) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.client.DeleteWishlist(ctx, token, id); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.wishlists[:0]
	for _, wishlist := range s.wishlists {
		if wishlist.ID != id {
			kept = append(kept, wishlist)
		}
	}
	s.wishlists = kept
	s.mu.Unlock()
	return nil
}

// AddProduct appends a product and replaces the affected wishlist in the
// cache with the server's version.
func (s *Store) AddProduct(ctx context.Context, wishlistID int, req handlers.AddProductRequest) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	updated, err := s.client.AddProduct(ctx, token, wishlistID, req)
	if err != nil {
		return err
	}
	s.replaceWishlist(updated)
	return nil
}

// RemoveProduct deletes a product and replaces the affected wishlist in
// the cache with the server's version.
func (s *Store) RemoveProduct(ctx context.Context, wishlistID int, productID string) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	updated, err := s.client.RemoveProduct(ctx, token, wishlistID, productID)
	if err != nil {
		return err
	}
	s.replaceWishlist(updated)
	return nil
}

// Invite sends invitations for a wishlist and returns the emails added.
func (s *Store) Invite(ctx context.Context, wishlistID int, emails []string) ([]string, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	s.setLoading(true)
	defer s.setLoading(false)

	return s.client.Invite(ctx, token, wishlistID, emails)
}

// ErrNotSignedIn is returned when an operation requires a session and
// none is present.
var ErrNotSignedIn = errors.New("not signed in")

func (s *Store) token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return "", ErrNotSignedIn
	}
	return s.session.Token, nil
}

func (s *Store) setLoading(value bool) {
	s.mu.Lock()
	s.loading = value
	s.mu.Unlock()
}

func (s *Store) saveSession(resp handlers.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &Session{User: resp.User, Token: resp.Token}
	s.persistSessionLocked()
}

func (s *Store) persistSessionLocked() {
	data, err := json.Marshal(s.session)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.statePath), 0o700)
	_ = os.WriteFile(s.statePath, data, 0o600)
}

func (s *Store) restoreSession() {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil || session.Token == "" {
		return
	}
	s.session = &session
}

func (s *Store) replaceWishlist(updated types.WishlistView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, wishlist := range s.wishlists {
		if wishlist.ID == updated.ID {
			s.wishlists[i] = updated
			return
		}
	}
	s.wishlists = append(s.wishlists, updated)
}
