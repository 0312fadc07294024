/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catChatOnly bool

// catCmd represents the cat command
var catCmd = &cobra.Command{
	Use:   "cat [room_id]",
	Short: "Shows the board and chat of a room.",
	Long:  `Shows a snapshot of the room: stage, table and chat history. Cards stay hidden until revealed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := targetRoom(args)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.GetRoom(ctx, roomID)
		if err != nil {
			return fmt.Errorf("error getting room %s: %w", roomID, err)
		}
		out := cmd.OutOrStdout()
		if !catChatOnly {
			printRoom(out, room)
			fmt.Fprintln(out, "Chat:")
		}
		for _, m := range room.ChatLog {
			printChat(out, m)
		}

		if userID, err := currentUser(); err == nil && room.IsMember(userID) {
			if _, err := pokerClient.MarkChatSeen(ctx, roomID, userID); err != nil {
				return fmt.Errorf("error marking chat seen: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().BoolVar(&catChatOnly, "chat", false, "Only print the chat history")
}
