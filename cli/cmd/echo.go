/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var echoRoom string

// echoCmd represents the echo command
var echoCmd = &cobra.Command{
	Use:   "echo <text...>",
	Short: "Sends a chat message to the current room.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var roomArgs []string
		if echoRoom != "" {
			roomArgs = []string{echoRoom}
		}
		roomID, err := targetRoom(roomArgs)
		if err != nil {
			return err
		}
		userID, err := currentUser()
		if err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		msg, err := pokerClient.SendChat(ctx, domain.ChatInput{
			RoomID:      roomID,
			AuthorID:    userID,
			AuthorName:  viper.GetString(displayNameKey),
			Content:     strings.Join(args, " "),
			ContentType: domain.ContentTypeText,
		})
		if err != nil {
			return fmt.Errorf("error sending message to %s: %w", roomID, err)
		}
		printChat(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)
	echoCmd.Flags().StringVarP(&echoRoom, "room", "r", "", "Room id (defaults to the current room)")
}
