package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flockshop/wishlist-api/internal/services"
	"github.com/flockshop/wishlist-api/internal/store"
	"github.com/flockshop/wishlist-api/types"
	"github.com/go-chi/chi/v5"
)

// WishlistHandler provides HTTP handlers for wishlists.
type WishlistHandler struct {
	wishlistService *services.WishlistService
}

// NewWishlistHandler constructs a handler with the provided service.
func NewWishlistHandler(wishlistService *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// WishlistRouter registers wishlist routes on the given router. Every
// route requires authentication.
func WishlistRouter(r chi.Router, wishlistService *services.WishlistService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewWishlistHandler(wishlistService)

	r.Use(authMiddleware)
	r.Get("/", handler.ListWishlists)
	r.Post("/create", handler.CreateWishlist)
	r.Route("/{wishlistID}", func(r chi.Router) {
		r.Get("/", handler.GetWishlist)
		r.Delete("/", handler.DeleteWishlist)
		r.Post("/products", handler.AddProduct)
		r.Patch("/products/{productID}", handler.UpdateProduct)
		r.Delete("/products/{productID}", handler.RemoveProduct)
		r.Post("/invite", handler.Invite)
		r.Get("/invitations", handler.ListInvitations)
	})
}

func (h *WishlistHandler) ListWishlists(w http.ResponseWriter, r *http.Request) {
	callerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wishlists, err := h.wishlistService.ListMine(r.Context(), callerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list wishlists")
		return
	}
	writeJSON(w, http.StatusOK, wishlists)
}

func (h *WishlistHandler) CreateWishlist(w http.ResponseWriter, r *http.Request) {
	callerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateWishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Wishlist name is required")
		return
	}

	wishlist, err := h.wishlistService.Create(r.Context(), callerID, req.Name, req.Description)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create wishlist")
		return
	}
	writeJSON(w, http.StatusCreated, wishlist)
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}

	wishlist, err := h.wishlistService.Get(r.Context(), callerID, wishlistID)
	if err != nil {
		h.writeWishlistError(w, err, "Not authorized to access this wishlist")
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) DeleteWishlist(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}

	if err := h.wishlistService.Delete(r.Context(), callerID, wishlistID); err != nil {
		h.writeWishlistError(w, err, "Not authorized to delete this wishlist")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Msg: "Wishlist deleted successfully"})
}

func (h *WishlistHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}

	var req AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Price == 0 {
		writeError(w, http.StatusBadRequest, "Product name and price are required")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "Product price must not be negative")
		return
	}

	wishlist, err := h.wishlistService.AddProduct(r.Context(), callerID, wishlistID, services.AddProductInput{
		Name:     req.Name,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		URL:      req.URL,
	})
	if err != nil {
		h.writeWishlistError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, wishlist)
}

func (h *WishlistHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Price < 0 {
		writeError(w, http.StatusBadRequest, "Product price must not be negative")
		return
	}

	product, err := h.wishlistService.UpdateProduct(r.Context(), callerID, wishlistID, productID, services.UpdateProductInput{
		Name:     req.Name,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
	if err != nil {
		h.writeWishlistError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, UpdateProductResponse{Msg: "Product updated", Product: product})
}

func (h *WishlistHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")

	wishlist, err := h.wishlistService.RemoveProduct(r.Context(), callerID, wishlistID, productID)
	if err != nil {
		h.writeWishlistError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, wishlist)
}

func (h *WishlistHandler) Invite(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if len(req.Emails) == 0 {
		writeError(w, http.StatusBadRequest, "At least one email address is required")
		return
	}

	invited, err := h.wishlistService.Invite(r.Context(), callerID, wishlistID, req.Emails)
	if err != nil {
		h.writeWishlistError(w, err, "Not authorized to invite others to this wishlist")
		return
	}
	writeJSON(w, http.StatusOK, InviteResponse{
		Msg:           "Invitations sent successfully",
		InvitedEmails: invited,
	})
}

func (h *WishlistHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	callerID, wishlistID, ok := h.callerAndWishlist(w, r)
	if !ok {
		return
	}

	invitations, err := h.wishlistService.Invitations(r.Context(), callerID, wishlistID)
	if err != nil {
		h.writeWishlistError(w, err, "Not authorized to view invitations for this wishlist")
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

// callerAndWishlist extracts the caller id and wishlist id shared by every
// wishlist route, writing the error response itself when either is bad.
func (h *WishlistHandler) callerAndWishlist(w http.ResponseWriter, r *http.Request) (callerID, wishlistID int, ok bool) {
	callerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}

	wishlistID, err = strconv.Atoi(chi.URLParam(r, "wishlistID"))
	if err != nil || wishlistID < 1 {
		writeError(w, http.StatusNotFound, "Wishlist not found")
		return 0, 0, false
	}
	return callerID, wishlistID, true
}

func (h *WishlistHandler) writeWishlistError(w http.ResponseWriter, err error, forbiddenMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Wishlist not found")
	case errors.Is(err, services.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, services.ErrForbidden):
		if forbiddenMsg == "" {
			forbiddenMsg = "Not authorized"
		}
		writeError(w, http.StatusForbidden, forbiddenMsg)
	default:
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

type CreateWishlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AddProductRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl"`
	URL      string  `json:"url"`
}

type UpdateProductRequest struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl"`
	Price    float64 `json:"price"`
}

type InviteRequest struct {
	Emails []string `json:"emails"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type UpdateProductResponse struct {
	Msg     string        `json:"msg"`
	Product types.Product `json:"product"`
}

type InviteResponse struct {
	Msg           string   `json:"msg"`
	InvitedEmails []string `json:"invitedEmails"`
}
