/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pwdCmd = &cobra.Command{
	Use:   "pwd",
	Short: "Prints the current room.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := targetRoom(nil)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.GetRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("error finding room %s: %w", roomID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", room.ID, room.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pwdCmd)
}
