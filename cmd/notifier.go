/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/flockshop/wishlist-api/config"
	"github.com/flockshop/wishlist-api/internal/mq"
	"github.com/spf13/cobra"
)

// notifierCmd represents the notifier command. It consumes invitation
// events published by the API server; actual mail delivery is left to a
// real notification system, this worker only records the deliveries.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume and log wishlist invitation events",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := config.LoadConfig()

		events, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("init mq backend: %w", err)
		}
		if events == nil {
			return errors.New("MQ_BACKEND is required for the notifier")
		}
		defer events.Close()

		logger.WithField("channel", mq.InvitationsChannel).Info("notifier listening")
		err = events.SubscribeInvitations(cmd.Context(), func(ctx context.Context, event mq.InvitationEvent) error {
			logger.WithFields(map[string]any{
				"wishlistId":   event.WishlistID,
				"wishlistName": event.WishlistName,
				"invitedBy":    event.InvitedBy,
				"emails":       event.Emails,
			}).Info("invitations sent")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
