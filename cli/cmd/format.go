package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
)

func memberName(r domain.Room, id uuid.UUID) string {
	if m, ok := r.Member(id); ok {
		return m.DisplayName
	}
	return id.String()[:8]
}

func printRoomLine(w io.Writer, r domain.Room) {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "%s  %-10s %2d members  %s  %s\n",
		r.ID, r.Stage, len(r.Members), r.LastActive.Local().Format("1/2 15:04"), name)
}

// printRoom writes a board-style snapshot of r.
func printRoom(w io.Writer, r domain.Room) {
	fmt.Fprintf(w, "Room:   %s (%s)\n", r.Name, r.ID)
	fmt.Fprintf(w, "Stage:  %s", r.Stage)
	if r.Revealed {
		fmt.Fprint(w, "  [cards revealed]")
	}
	fmt.Fprintln(w)
	if r.HasOwner() {
		fmt.Fprintf(w, "Owner:  %s\n", memberName(r, r.OwnerID))
	}
	fmt.Fprintf(w, "Deck:   %s\n", strings.Join(r.Deck, " "))
	fmt.Fprintf(w, "Options: countdown=%t confirm_new_game=%t\n", r.CountdownEnabled, r.ConfirmNewGame)

	fmt.Fprintln(w, "Table:")
	if len(r.Members) == 0 {
		fmt.Fprintln(w, "  (nobody here)")
	}
	for _, m := range r.Members {
		card, picked := r.SelectionOf(m.ID)
		switch {
		case !picked:
			card = "-"
		case card == "":
			card = "✓"
		}
		fmt.Fprintf(w, "  %-20s %-4s %s\n", m.DisplayName, card, m.ID)
	}
	if len(r.Banned) > 0 {
		fmt.Fprintf(w, "Banned: %d\n", len(r.Banned))
	}
}

func printChat(w io.Writer, m domain.ChatMessage) {
	fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), m.AuthorName, m.Content)
}
