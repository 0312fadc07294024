package cmd

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ponyo877/summitpoker/server/domain"
	"github.com/spf13/viper"
)

func TestSplitDeck(t *testing.T) {
	got := splitDeck(" 1, 2 ,,3,?, ")
	if want := []string{"1", "2", "3", "?"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := splitDeck(""); len(got) != 0 {
		t.Fatalf("expected empty deck, got %v", got)
	}
}

func TestTargetRoom(t *testing.T) {
	current := uuid.New()
	viper.Set(currentRoomKey, current.String())
	t.Cleanup(func() { viper.Set(currentRoomKey, "") })

	if id, err := targetRoom(nil); err != nil || id != current {
		t.Fatalf("expected current room %s, got %s (%v)", current, id, err)
	}
	other := uuid.New()
	if id, err := targetRoom([]string{other.String()}); err != nil || id != other {
		t.Fatalf("expected explicit room %s, got %s (%v)", other, id, err)
	}
	if _, err := targetRoom([]string{"nope"}); err == nil {
		t.Fatal("expected an error for a malformed id")
	}

	viper.Set(currentRoomKey, "")
	if _, err := targetRoom(nil); !errors.Is(err, errNoRoom) {
		t.Fatalf("expected errNoRoom, got %v", err)
	}
}

func TestPrintRoomHidesCards(t *testing.T) {
	r := domain.NewRoom(uuid.New(), "Sprint", []string{"1", "2"}, time.Now())
	alice := domain.NewParticipant("alice")
	bob := domain.NewParticipant("bob")
	carol := domain.NewParticipant("carol")
	for _, p := range []domain.Participant{alice, bob, carol} {
		if _, err := r.Join(p); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	if err := r.Pick(alice.ID, "2", domain.ParseCardValue); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if err := r.Pick(bob.ID, "1", domain.ParseCardValue); err != nil {
		t.Fatalf("pick: %v", err)
	}

	var hidden bytes.Buffer
	printRoom(&hidden, r.View())
	out := hidden.String()
	if !strings.Contains(out, "✓") || strings.Contains(out, " 2    ") {
		t.Fatalf("expected hidden picks, got:\n%s", out)
	}
	if !strings.Contains(out, "carol") || !strings.Contains(out, " -    ") {
		t.Fatalf("expected carol without a pick, got:\n%s", out)
	}

	r.ShowCards()
	var shown bytes.Buffer
	printRoom(&shown, r.View())
	if !strings.Contains(shown.String(), "[cards revealed]") || !strings.Contains(shown.String(), " 2    ") {
		t.Fatalf("expected revealed picks, got:\n%s", shown.String())
	}
}
