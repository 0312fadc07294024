/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var touchDeck string

// touchCmd represents the touch command
var touchCmd = &cobra.Command{
	Use:   "touch <room_name>",
	Short: "Creates a room and selects it.",
	Long: `Creates a new planning poker room. The deck defaults to the server's
Fibonacci-style deck; pass --deck "1,2,3,5,8" to choose your own.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var deck []string
		if touchDeck != "" {
			deck = splitDeck(touchDeck)
		}

		ctx, cancel := requestContext()
		defer cancel()

		room, err := pokerClient.CreateRoom(ctx, uuid.New(), args[0], deck)
		if err != nil {
			return fmt.Errorf("error creating room: %w", err)
		}
		viper.Set(currentRoomKey, room.ID.String())
		saveConfig()
		fmt.Fprintf(cmd.OutOrStdout(), "Room created: %s (%s)\n", room.Name, room.ID)
		return nil
	},
}

func splitDeck(raw string) []string {
	cards := []string{}
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cards = append(cards, c)
		}
	}
	return cards
}

func init() {
	rootCmd.AddCommand(touchCmd)
	touchCmd.Flags().StringVar(&touchDeck, "deck", "", "Comma separated card labels")
}
