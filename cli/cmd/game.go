/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
)

var gameRoom string

// roomAction runs op against the current (or --room) room and prints the
// resulting board.
func roomAction(op func(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error)) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		var roomArgs []string
		if gameRoom != "" {
			roomArgs = []string{gameRoom}
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

		room, err := op(ctx, roomID, userID)
		if err != nil {
			return fmt.Errorf("error in %s: %w", cmd.Name(), err)
		}
		printRoom(cmd.OutOrStdout(), room)
		return nil
	}
}

var pickCmd = &cobra.Command{
	Use:   "pick [card]",
	Short: "Picks a card; without an argument clears your pick.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		card := ""
		if len(args) == 1 {
			card = args[0]
		}
		return roomAction(func(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error) {
			return pokerClient.PickCard(ctx, roomID, userID, card)
		})(cmd, args)
	},
}

var showCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"reveal"},
	Short:   "Reveals every card immediately.",
	Args:    cobra.NoArgs,
	RunE: roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
		return pokerClient.ShowCards(ctx, roomID)
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Starts a new round.",
	Args:  cobra.NoArgs,
	RunE: roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
		return pokerClient.ResetGame(ctx, roomID)
	}),
}

var countdownCmd = &cobra.Command{
	Use:       "countdown <start|cancel|on|off>",
	Short:     "Controls the reveal countdown.",
	Long:      `start runs the 3-2-1 reveal countdown, cancel aborts it, on and off enable or disable countdowns for the room.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "cancel", "on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var op func(ctx context.Context, roomID, userID uuid.UUID) (domain.Room, error)
		switch args[0] {
		case "start":
			op = pokerClient.StartCountdown
		case "cancel":
			op = pokerClient.CancelCountdown
		case "on", "off":
			enabled := args[0] == "on"
			op = func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
				return pokerClient.ToggleCountdown(ctx, roomID, enabled)
			}
		default:
			return fmt.Errorf("unknown countdown action %q", args[0])
		}
		return roomAction(op)(cmd, args)
	},
}

var confirmCmd = &cobra.Command{
	Use:       "confirm <on|off>",
	Short:     "Sets whether a new round needs confirmation.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := args[0] == "on"
		return roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
			return pokerClient.ToggleConfirmNewGame(ctx, roomID, enabled)
		})(cmd, args)
	},
}

var deckCmd = &cobra.Command{
	Use:   "deck <cards>",
	Short: "Replaces the deck, e.g. deck 1,2,3,5,8,?",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cards := splitDeck(args[0])
		return roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
			return pokerClient.UpdateDeck(ctx, roomID, cards)
		})(cmd, args)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <room_name>",
	Short: "Renames the current room.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return roomAction(func(ctx context.Context, roomID, _ uuid.UUID) (domain.Room, error) {
			return pokerClient.RenameRoom(ctx, roomID, args[0])
		})(cmd, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{pickCmd, showCmd, resetCmd, countdownCmd, confirmCmd, deckCmd, renameCmd} {
		c.Flags().StringVarP(&gameRoom, "room", "r", "", "Room id (defaults to the current room)")
		rootCmd.AddCommand(c)
	}
}
