package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/flockshop/wishlist-api/types"
)

// WishlistRepository handles persistence for wishlist aggregates. The
// embedded products, collaborators and invitations live in JSON columns
// and are rewritten whole on every mutation, so a single UPDATE keeps the
// aggregate consistent.
type WishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Wishlist, error) {
	const query = `
		SELECT id, name, description, owner_id, products, collaborators, invitations, created_at, updated_at
		FROM wishlists
		WHERE owner_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wishlists := make([]types.Wishlist, 0)
	for rows.Next() {
		wishlist, err := scanWishlist(rows.Scan)
		if err != nil {
			return nil, err
		}
		wishlists = append(wishlists, wishlist)
	}
	return wishlists, rows.Err()
}

func (r *WishlistRepository) Get(ctx context.Context, id int) (types.Wishlist, error) {
	const query = `
		SELECT id, name, description, owner_id, products, collaborators, invitations, created_at, updated_at
		FROM wishlists
		WHERE id = $1`
	wishlist, err := scanWishlist(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Wishlist{}, ErrNotFound
		}
		return types.Wishlist{}, err
	}
	return wishlist, nil
}

func (r *WishlistRepository) Create(ctx context.Context, wishlist types.Wishlist) (types.Wishlist, error) {
	now := time.Now()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now

	productsJSON, collaboratorsJSON, invitationsJSON, err := marshalEmbedded(wishlist)
	if err != nil {
		return types.Wishlist{}, err
	}

	const query = `
		INSERT INTO wishlists (name, description, owner_id, products, collaborators, invitations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		wishlist.Name,
		wishlist.Description,
		wishlist.OwnerID,
		productsJSON,
		collaboratorsJSON,
		invitationsJSON,
		wishlist.CreatedAt,
		wishlist.UpdatedAt,
	).Scan(&wishlist.ID); err != nil {
		return types.Wishlist{}, err
	}
	return wishlist, nil
}

// Update rewrites every mutable column of the aggregate. The owner column
// is deliberately not part of the SET list.
func (r *WishlistRepository) Update(ctx context.Context, wishlist types.Wishlist) (types.Wishlist, error) {
	wishlist.UpdatedAt = time.Now()

	productsJSON, collaboratorsJSON, invitationsJSON, err := marshalEmbedded(wishlist)
	if err != nil {
		return types.Wishlist{}, err
	}

	const query = `
		UPDATE wishlists
		SET name = $1,
			description = $2,
			products = $3,
			collaborators = $4,
			invitations = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		wishlist.Name,
		wishlist.Description,
		productsJSON,
		collaboratorsJSON,
		invitationsJSON,
		wishlist.UpdatedAt,
		wishlist.ID,
	)
	if err != nil {
		return types.Wishlist{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Wishlist{}, err
	}
	if affected == 0 {
		return types.Wishlist{}, ErrNotFound
	}
	return wishlist, nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM wishlists WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalEmbedded(wishlist types.Wishlist) (products, collaborators, invitations []byte, err error) {
	if wishlist.Products == nil {
		wishlist.Products = []types.Product{}
	}
	if wishlist.Collaborators == nil {
		wishlist.Collaborators = []int{}
	}
	if wishlist.Invitations == nil {
		wishlist.Invitations = []types.Invitation{}
	}

	products, err = json.Marshal(wishlist.Products)
	if err != nil {
		return nil, nil, nil, err
	}
	collaborators, err = json.Marshal(wishlist.Collaborators)
	if err != nil {
		return nil, nil, nil, err
	}
	invitations, err = json.Marshal(wishlist.Invitations)
	if err != nil {
		return nil, nil, nil, err
	}
	return products, collaborators, invitations, nil
}

func scanWishlist(scan func(dest ...any) error) (types.Wishlist, error) {
	var wishlist types.Wishlist
	var productsJSON, collaboratorsJSON, invitationsJSON []byte
	if err := scan(
		&wishlist.ID,
		&wishlist.Name,
		&wishlist.Description,
		&wishlist.OwnerID,
		&productsJSON,
		&collaboratorsJSON,
		&invitationsJSON,
		&wishlist.CreatedAt,
		&wishlist.UpdatedAt,
	); err != nil {
		return types.Wishlist{}, err
	}

	_ = json.Unmarshal(productsJSON, &wishlist.Products)
	_ = json.Unmarshal(collaboratorsJSON, &wishlist.Collaborators)
	_ = json.Unmarshal(invitationsJSON, &wishlist.Invitations)
	return wishlist, nil
}
