/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cdCmd represents the cd command
var cdCmd = &cobra.Command{
	Use:   "cd [room_id]",
	Short: "Selects the current room.",
	Long: `Selects the room that other commands act on when no room id is given.
Without an argument the selection is cleared.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			viper.Set(currentRoomKey, "")
			saveConfig()
			return nil
		}
		roomID, err := targetRoom(args)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.GetRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("error finding room %s: %w", roomID, err)
		}
		viper.Set(currentRoomKey, room.ID.String())
		saveConfig()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cdCmd)
}
