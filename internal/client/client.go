// Package client is a Go consumer of the wishlist API: a thin HTTP
// client plus a state store that mirrors what a frontend keeps in memory
// and in durable storage.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flockshop/wishlist-api/internal/handlers"
	"github.com/flockshop/wishlist-api/types"
)

const defaultRequestTimeout = 30 * time.Second

// Client wraps the REST surface of the wishlist API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// APIError is a non-2xx response from the server. Message carries the
// server's text verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, email, password string) (handlers.AuthResponse, error) {
	var resp handlers.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", handlers.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &resp)
	return resp, err
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (handlers.AuthResponse, error) {
	var resp handlers.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", handlers.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	return resp, err
}

// Wishlists fetches every wishlist owned by the caller.
func (c *Client) Wishlists(ctx context.Context, token string) ([]types.WishlistView, error) {
	var resp []types.WishlistView
	err := c.do(ctx, http.MethodGet, "/api/wishlist", token, nil, &resp)
	return resp, err
}

// Wishlist fetches a single wishlist by id.
func (c *Client) Wishlist(ctx context.Context, token string, id int) (types.WishlistView, error) {
	var resp types.WishlistView
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/wishlist/%d", id), token, nil, &resp)
	return resp, err
}

// CreateWishlist creates a new wishlist.
func (c *Client) CreateWishlist(ctx context.Context, token, name, description string) (types.Wishlist, error) {
	var resp types.Wishlist
	err := c.do(ctx, http.MethodPost, "/api/wishlist/create", token, handlers.CreateWishlistRequest{
		Name:        name,
		Description: description,
	}, &resp)
	return resp, err
}

// DeleteWishlist removes a wishlist.
func (c *Client) DeleteWishlist(ctx context.Context, token string, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/wishlist/%d", id), token, nil, nil)
}

// AddProduct appends a product and returns the updated wishlist.
func (c *Client) AddProduct(ctx context.Context, token string, wishlistID int, req handlers.AddProductRequest) (types.WishlistView, error) {
	var resp types.WishlistView
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/wishlist/%d/products", wishlistID), token, req, &resp)
	return resp, err
}

// UpdateProduct patches a product's supplied fields.
func (c *Client) UpdateProduct(ctx context.Context, token string, wishlistID int, productID string, req handlers.UpdateProductRequest) (types.Product, error) {
	var resp handlers.UpdateProductResponse
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/wishlist/%d/products/%s", wishlistID, productID), token, req, &resp)
	return resp.Product, err
}

// RemoveProduct deletes a product and returns the updated wishlist.
func (c *Client) RemoveProduct(ctx context.Context, token string, wishlistID int, productID string) (types.WishlistView, error) {
	var resp types.WishlistView
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/wishlist/%d/products/%s", wishlistID, productID), token, nil, &resp)
	return resp, err
}

// Invite sends invitations and returns the emails actually added.
func (c *Client) Invite(ctx context.Context, token string, wishlistID int, emails []string) ([]string, error) {
	var resp handlers.InviteResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/wishlist/%d/invite", wishlistID), token, handlers.InviteRequest{Emails: emails}, &resp)
	return resp.InvitedEmails, err
}

// Invitations lists every invitation on a wishlist.
func (c *Client) Invitations(ctx context.Context, token string, wishlistID int) ([]types.Invitation, error) {
	var resp []types.Invitation
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/wishlist/%d/invitations", wishlistID), token, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeErrorMessage pulls the server's message out of an error payload,
// falling back to the HTTP status line.
func decodeErrorMessage(body io.Reader, fallback string) string {
	var payload struct {
		Error string `json:"error"`
		Msg   string `json:"msg"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Msg != "" {
			return payload.Msg
		}
	}
	return fallback
}
