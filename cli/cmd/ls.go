/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
)

var listMine bool

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls [--mine]",
	Short: "Lists rooms.",
	Long:  `Lists every live room on the server, or only the rooms you are a member of with --mine.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext()
		defer cancel()

		var (
			rooms []domain.Room
			err   error
		)
		if listMine {
			userID, uerr := currentUser()
			if uerr != nil {
				return uerr
			}
			rooms, err = pokerClient.ListUserRooms(ctx, userID)
		} else {
			rooms, err = pokerClient.ListRooms(ctx)
		}
		if err != nil {
			return fmt.Errorf("error listing rooms: %w", err)
		}

		if len(rooms) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No rooms.")
			return nil
		}
		for _, r := range rooms {
			printRoomLine(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVar(&listMine, "mine", false, "Only rooms you are a member of")
}
