/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	joinAsOwner bool
	joinCard    string
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join [room_id]",
	Short: "Joins a room and selects it.",
	Long: `Joins a room as the identity created with "id --new". With --owner you
claim the room when nobody owns it yet. --card restores a previous pick.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := targetRoom(args)
		if err != nil {
			return err
		}
		userID, err := currentUser()
		if err != nil {
			return err
		}
		owner := uuid.Nil
		if joinAsOwner {
			owner = userID
		}

		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.JoinRoom(ctx, roomID, domain.UserInput{
			ID:             userID,
			DisplayName:    viper.GetString(displayNameKey),
			LastPickedCard: joinCard,
		}, owner)
		if err != nil {
			return fmt.Errorf("error joining room %s: %w", roomID, err)
		}
		viper.Set(currentRoomKey, room.ID.String())
		saveConfig()
		printRoom(cmd.OutOrStdout(), room)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Leaves every room.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := currentUser()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		n, err := pokerClient.Logout(ctx, userID)
		if err != nil {
			return fmt.Errorf("error logging out: %w", err)
		}
		viper.Set(currentRoomKey, "")
		saveConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "Left %d room(s).\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(logoutCmd)
	joinCmd.Flags().BoolVar(&joinAsOwner, "owner", false, "Claim the room if it has no owner")
	joinCmd.Flags().StringVar(&joinCard, "card", "", "Restore this card pick on join")
}
