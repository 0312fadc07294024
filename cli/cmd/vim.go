package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/adaptor"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var vimCmd = &cobra.Command{
	Use:     "vim [room_id]",
	Aliases: []string{"board"},
	Short:   "Opens the live board in a tview-based interface",
	Long: `Joins the room and opens a live board: the table on top, chat below.
Type to chat; /pick <card>, /show, /reset, /start and /cancel drive the game.`,
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
		name := viper.GetString(displayNameKey)

		ctx, cancel := requestContext()
		room, err := pokerClient.JoinRoom(ctx, roomID, domain.UserInput{ID: userID, DisplayName: name}, uuid.Nil)
		cancel()
		if err != nil {
			return fmt.Errorf("error joining room %s: %w", roomID, err)
		}
		return runBoardUI(pokerClient, room, userID, name)
	},
}

func init() {
	rootCmd.AddCommand(vimCmd)
}

func runBoardUI(client *adaptor.Client, room domain.Room, userID uuid.UUID, userName string) error {
	app := tview.NewApplication()

	board := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	board.SetBorder(true).SetTitle(" " + room.Name + " ")

	chat := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()
	chat.SetBorder(true).SetTitle(" chat ")

	inputField := tview.NewInputField().
		SetLabel(userName + " ❯❯ ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(256))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(board, 0, 1, false).
		AddItem(chat, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	drawBoard := func(r domain.Room) {
		var b strings.Builder
		printRoom(&b, r)
		board.SetText(tview.Escape(b.String()))
	}
	drawBoard(room)
	for _, m := range room.ChatLog {
		fmt.Fprintf(chat, "[white][%s] [blue]%s[white]: %s\n",
			m.Timestamp.Local().Format("15:04:05"), tview.Escape(m.AuthorName), tview.Escape(m.Content))
	}

	notice := func(format string, args ...any) {
		app.QueueUpdateDraw(func() {
			fmt.Fprintf(chat, format, args...)
			chat.ScrollToEnd()
		})
	}

	go func() {
		err := client.WatchRoom(ctx, room.ID, func(r domain.Room) error {
			app.QueueUpdateDraw(func() { drawBoard(r) })
			return nil
		})
		if err != nil && ctx.Err() == nil {
			notice("[red]Board stream ended: %v\n", err)
		}
	}()
	go func() {
		err := client.WatchChat(ctx, room.ID, func(m domain.ChatMessage) error {
			notice("[white][%s] [blue]%s[white]: %s\n",
				m.Timestamp.Local().Format("15:04:05"), tview.Escape(m.AuthorName), tview.Escape(m.Content))
			return nil
		})
		if err != nil && ctx.Err() == nil {
			notice("[red]Chat stream ended: %v\n", err)
		}
	}()
	go func() {
		_ = client.WatchRoomEvents(ctx, room.ID, func(e adaptor.RoomEventMessage) error {
			notice("[yellow]** %s\n", e.Type)
			if e.Type == domain.EventExpired.String() || e.Type == domain.EventClosed.String() || e.TargetID == userID {
				notice("[red]You are no longer in this room. (Ctrl+C to exit)\n")
			}
			return nil
		})
	}()

	run := func(line string) error {
		rctx, rcancel := requestContext()
		defer rcancel()

		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "/pick":
			card := ""
			if len(fields) > 1 {
				card = fields[1]
			}
			_, err = client.PickCard(rctx, room.ID, userID, card)
		case "/show":
			_, err = client.ShowCards(rctx, room.ID)
		case "/reset":
			_, err = client.ResetGame(rctx, room.ID)
		case "/start":
			_, err = client.StartCountdown(rctx, room.ID, userID)
		case "/cancel":
			_, err = client.CancelCountdown(rctx, room.ID, userID)
		default:
			if strings.HasPrefix(line, "/") {
				return fmt.Errorf("unknown command %s", fields[0])
			}
			_, err = client.SendChat(rctx, domain.ChatInput{
				RoomID:      room.ID,
				AuthorID:    userID,
				AuthorName:  userName,
				Content:     line,
				ContentType: domain.ContentTypeText,
			})
		}
		return err
	}

	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(inputField.GetText())
		inputField.SetText("")
		if text == "" {
			return
		}
		// Countdowns block until they finish, so calls run off the UI loop.
		go func() {
			if err := run(text); err != nil {
				notice("[red]%v\n", err)
			}
		}()
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			cancel()
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.Run(); err != nil {
		return err
	}
	return nil
}
