/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/adaptor"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var tailChatOnly bool

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail [room_id]",
	Short: "Follows a room live.",
	Long: `Prints every board change, chat message and lifecycle event of a room as
it happens, until interrupted or the room closes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := targetRoom(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return pokerClient.WatchChat(gctx, roomID, func(m domain.ChatMessage) error {
				printChat(out, m)
				return nil
			})
		})
		if !tailChatOnly {
			g.Go(func() error {
				return pokerClient.WatchRoom(gctx, roomID, func(r domain.Room) error {
					fmt.Fprintf(out, "-- %s\n", r.Stage)
					printRoom(out, r)
					return nil
				})
			})
		}
		g.Go(func() error {
			return pokerClient.WatchRoomEvents(gctx, roomID, func(e adaptor.RoomEventMessage) error {
				if e.TargetID == uuid.Nil {
					fmt.Fprintf(out, "** %s\n", e.Type)
				} else {
					fmt.Fprintf(out, "** %s %s\n", e.Type, e.TargetID)
				}
				if leftRoom(e) {
					return errRoomGone
				}
				return nil
			})
		})

		err = g.Wait()
		if errors.Is(err, errRoomGone) || ctx.Err() != nil {
			return nil
		}
		return err
	},
}

var errRoomGone = errors.New("room gone")

// leftRoom reports whether e ends the session for this client.
func leftRoom(e adaptor.RoomEventMessage) bool {
	switch e.Type {
	case domain.EventExpired.String(), domain.EventClosed.String():
		return true
	}
	me, err := currentUser()
	return err == nil && e.TargetID == me
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().BoolVar(&tailChatOnly, "chat", false, "Only follow the chat")
}
