/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:   "rm [room_id]",
	Short: "Closes a room.",
	Long:  `Closes a room for everyone. When the room has an owner only the owner may close it.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := targetRoom(args)
		if err != nil {
			return err
		}
		userID, err := currentUser()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.DeleteRoom(ctx, roomID, userID)
		if err != nil {
			return fmt.Errorf("error closing room %s: %w", roomID, err)
		}
		if viper.GetString(currentRoomKey) == room.ID.String() {
			viper.Set(currentRoomKey, "")
			saveConfig()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Room closed: %s\n", room.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
