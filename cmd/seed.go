/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/flockshop/wishlist-api/config"
	"github.com/flockshop/wishlist-api/internal/db"
	"github.com/flockshop/wishlist-api/internal/services"
	"github.com/flockshop/wishlist-api/internal/store"
	"github.com/flockshop/wishlist-api/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "password123"

var demoUsers = []struct {
	Name  string
	Email string
}{
	{Name: "John Doe", Email: "john@example.com"},
	{Name: "Jane Smith", Email: "jane@example.com"},
	{Name: "Alex Johnson", Email: "alex@example.com"},
	{Name: "Demo User", Email: "demo@example.com"},
}

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users and wishlists",
	Long: `Creates a set of demo users (password "password123") and demo
wishlists with plausible products and collaborators. Existing demo users
are kept as they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		userRepo := store.NewUserRepository(dbConn)
		wishlistRepo := store.NewWishlistRepository(dbConn)
		wishlistService := services.NewWishlistService(wishlistRepo, userRepo, nil, logger)

		return seedDemoData(cmd.Context(), userRepo, wishlistService, logger)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedLogger interface {
	Infof(format string, args ...any)
}

func seedDemoData(ctx context.Context, users *store.UserRepository, wishlists *services.WishlistService, logger seedLogger) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	created := make([]types.User, 0, len(demoUsers))
	for _, demo := range demoUsers {
		user, err := users.Create(ctx, types.User{
			Name:         demo.Name,
			Email:        demo.Email,
			PasswordHash: string(hashed),
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				logger.Infof("demo user %s already exists, skipping", demo.Email)
				continue
			}
			return fmt.Errorf("create demo user %s: %w", demo.Email, err)
		}
		created = append(created, user)
	}

	for _, user := range created {
		seeded, err := wishlists.SeedDemoWishlists(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("seed wishlists for %s: %w", user.Email, err)
		}
		logger.Infof("seeded %d wishlists for %s", len(seeded), user.Email)
	}
	return nil
}
