/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
)

// targetAction wraps a moderation call taking a target user id.
func targetAction(op func(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		target, err := parseUserID(args[0])
		if err != nil {
			return err
		}
		return roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
			return op(ctx, roomID, target)
		})(cmd, args)
	}
}

var kickCmd = &cobra.Command{
	Use:   "kick <user_id>",
	Short: "Removes a participant from the room.",
	Args:  cobra.ExactArgs(1),
	RunE:  targetAction(func(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) { return pokerClient.Kick(ctx, roomID, target) }),
}

var banCmd = &cobra.Command{
	Use:   "ban <user_id>",
	Short: "Removes a participant and keeps them out.",
	Args:  cobra.ExactArgs(1),
	RunE:  targetAction(func(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) { return pokerClient.Ban(ctx, roomID, target) }),
}

var unbanCmd = &cobra.Command{
	Use:   "unban <user_id>",
	Short: "Lets a banned participant back in.",
	Args:  cobra.ExactArgs(1),
	RunE:  targetAction(func(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) { return pokerClient.Unban(ctx, roomID, target) }),
}

var ownerCmd = &cobra.Command{
	Use:   "owner <user_id>",
	Short: "Hands the room over to another member.",
	Args:  cobra.ExactArgs(1),
	RunE:  targetAction(func(ctx context.Context, roomID, target uuid.UUID) (domain.Room, error) { return pokerClient.SetOwner(ctx, roomID, target) }),
}

func init() {
	for _, c := range []*cobra.Command{kickCmd, banCmd, unbanCmd, ownerCmd} {
		c.Flags().StringVarP(&gameRoom, "room", "r", "", "Room id (defaults to the current room)")
		rootCmd.AddCommand(c)
	}
}
