package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Selection is one participant's card on the table. An empty Card means the
// selection is hidden or absent.
type Selection struct {
	ParticipantID uuid.UUID
	Card          string
}

// Room is the session aggregate. It is only ever mutated through Store
// operations; values handed out by the store are independent copies.
type Room struct {
	ID               uuid.UUID
	Name             string
	Members          []Participant
	Banned           []uuid.UUID
	Deck             []string
	Table            []Selection
	Revealed         bool
	OwnerID          uuid.UUID
	CountdownEnabled bool
	Stage            RevealStage
	ConfirmNewGame   bool
	LastActive       time.Time
	ChatLog          []ChatMessage

	// countdownRun identifies the countdown that currently owns Stage, so a
	// superseded countdown loop can tell that it lost the room.
	countdownRun uint64
}

func NewRoom(id uuid.UUID, name string, deck []string, now time.Time) *Room {
	if id == uuid.Nil {
		id = uuid.New()
	}
	if deck == nil {
		deck = DefaultDeck()
	}
	return &Room{
		ID:             id,
		Name:           name,
		Members:        []Participant{},
		Banned:         []uuid.UUID{},
		Deck:           slices.Clone(deck),
		Table:          []Selection{},
		Stage:          Idle(),
		ConfirmNewGame: true,
		LastActive:     now,
		ChatLog:        []ChatMessage{},
	}
}

// Touch refreshes the activity timestamp used for TTL eviction.
func (r *Room) Touch(now time.Time) {
	r.LastActive = now
}

// Clone returns a deep copy sharing no mutable state with r.
func (r *Room) Clone() Room {
	c := *r
	c.Members = make([]Participant, len(r.Members))
	for i, m := range r.Members {
		c.Members[i] = m.clone()
	}
	c.Banned = slices.Clone(r.Banned)
	c.Deck = slices.Clone(r.Deck)
	c.Table = slices.Clone(r.Table)
	c.ChatLog = make([]ChatMessage, len(r.ChatLog))
	for i, m := range r.ChatLog {
		c.ChatLog[i] = m.clone()
	}
	return c
}

func (r Room) DeepCopy() Room {
	return r.Clone()
}

// View is the publishable projection: a deep copy whose table cards, and the
// members' own copies of them, are hidden until the room is revealed.
// Table entries stay, so clients can still tell who has picked.
func (r *Room) View() Room {
	v := r.Clone()
	if !v.Revealed {
		for i := range v.Table {
			v.Table[i].Card = ""
		}
		for i := range v.Members {
			v.Members[i].LastPickedCard = ""
			v.Members[i].LastPickedValue = nil
		}
	}
	return v
}

func (r *Room) HasOwner() bool {
	return r.OwnerID != uuid.Nil
}

func (r *Room) IsOwner(userID uuid.UUID) bool {
	return r.HasOwner() && r.OwnerID == userID
}

func (r *Room) memberIndex(userID uuid.UUID) int {
	return slices.IndexFunc(r.Members, func(p Participant) bool { return p.ID == userID })
}

func (r *Room) IsMember(userID uuid.UUID) bool {
	return r.memberIndex(userID) >= 0
}

// Member returns a copy of the member with userID.
func (r *Room) Member(userID uuid.UUID) (Participant, bool) {
	i := r.memberIndex(userID)
	if i < 0 {
		return Participant{}, false
	}
	return r.Members[i].clone(), true
}

func (r *Room) IsBanned(userID uuid.UUID) bool {
	return slices.Contains(r.Banned, userID)
}

// SelectionOf returns the stored card for userID regardless of reveal state.
func (r *Room) SelectionOf(userID uuid.UUID) (string, bool) {
	i := slices.IndexFunc(r.Table, func(s Selection) bool { return s.ParticipantID == userID })
	if i < 0 {
		return "", false
	}
	return r.Table[i].Card, true
}

// Join appends p as a member. It reports false when p is already a member.
func (r *Room) Join(p Participant) (bool, error) {
	if r.IsBanned(p.ID) {
		return false, NewError(CodeForbidden, "user is banned from this room")
	}
	if r.IsMember(p.ID) {
		return false, nil
	}
	r.Members = append(r.Members, p.clone())
	return true, nil
}

func (r *Room) RenameUser(userID uuid.UUID, name string) bool {
	i := r.memberIndex(userID)
	if i < 0 {
		return false
	}
	r.Members[i].DisplayName = name
	return true
}

// RemoveMember detaches userID from members and the table, and clears the
// owner when it was them. Absent users are a no-op.
func (r *Room) RemoveMember(userID uuid.UUID) bool {
	i := r.memberIndex(userID)
	r.Table = slices.DeleteFunc(r.Table, func(s Selection) bool { return s.ParticipantID == userID })
	if r.OwnerID == userID {
		r.OwnerID = uuid.Nil
	}
	if i < 0 {
		return false
	}
	r.Members = slices.Delete(r.Members, i, i+1)
	return true
}

func (r *Room) Kick(userID uuid.UUID) bool {
	return r.RemoveMember(userID)
}

// Ban removes userID from the room before recording the ban.
func (r *Room) Ban(userID uuid.UUID) {
	r.RemoveMember(userID)
	if !r.IsBanned(userID) {
		r.Banned = append(r.Banned, userID)
	}
}

func (r *Room) Unban(userID uuid.UUID) {
	r.Banned = slices.DeleteFunc(r.Banned, func(id uuid.UUID) bool { return id == userID })
}

// SetOwner assigns the owner; uuid.Nil clears it. The owner must be a member.
func (r *Room) SetOwner(userID uuid.UUID) error {
	if userID == uuid.Nil {
		r.OwnerID = uuid.Nil
		return nil
	}
	if !r.IsMember(userID) {
		return NewError(CodeInvalidState, fmt.Sprintf("user %s does not exist in the room", userID))
	}
	r.OwnerID = userID
	return nil
}

func (r *Room) Rename(name string) {
	r.Name = name
}

func (r *Room) SetDeck(cards []string) {
	r.Deck = slices.Clone(cards)
}

// Pick replaces userID's selection. An empty card clears it.
func (r *Room) Pick(userID uuid.UUID, card string, normalize CardNormalizer) error {
	i := r.memberIndex(userID)
	if i < 0 {
		return NewError(CodeInvalidState, fmt.Sprintf("user %s is not a member of the room", userID))
	}
	r.Table = slices.DeleteFunc(r.Table, func(s Selection) bool { return s.ParticipantID == userID })
	if card == "" {
		r.Members[i].LastPickedCard = ""
		r.Members[i].LastPickedValue = nil
		return nil
	}
	if normalize == nil {
		normalize = ParseCardValue
	}
	r.Members[i].LastPickedCard = card
	r.Members[i].LastPickedValue = normalize(card)
	r.Table = append(r.Table, Selection{ParticipantID: userID, Card: card})
	return nil
}

// ShowCards reveals the table. A running countdown is superseded.
func (r *Room) ShowCards() {
	r.Revealed = true
	if r.Stage.IsCountdown() {
		r.Stage = Revealed()
	}
}

// ResetGame starts a new round.
func (r *Room) ResetGame() {
	r.Revealed = false
	r.Table = []Selection{}
	r.Stage = Idle()
	for i := range r.Members {
		r.Members[i].LastPickedCard = ""
		r.Members[i].LastPickedValue = nil
	}
}

func (r *Room) EnableCountdown(enabled bool) {
	r.CountdownEnabled = enabled
}

func (r *Room) ToggleConfirmNewGame(enabled bool) {
	r.ConfirmNewGame = enabled
}

// CheckOwner fails with Forbidden when an owner is set and userID is not it.
func (r *Room) CheckOwner(userID uuid.UUID, action string) error {
	if r.HasOwner() && r.OwnerID != userID {
		return NewError(CodeForbidden, "only the room owner can "+action)
	}
	return nil
}

// StartCountdown enters Countdown(3) and returns the run token the caller
// must present on every later step.
func (r *Room) StartCountdown(invoker uuid.UUID) (uint64, error) {
	if err := r.CheckOwner(invoker, "start the countdown"); err != nil {
		return 0, err
	}
	if !r.CountdownEnabled {
		return 0, NewError(CodeInvalidState, "countdown reveal is disabled for this room")
	}
	if r.Stage.IsCountdown() {
		return 0, NewError(CodeConflict, "a countdown is already running")
	}
	r.countdownRun++
	r.Stage = Countdown(CountdownStart)
	return r.countdownRun, nil
}

// CountdownOwnedBy reports whether run still drives the countdown.
func (r *Room) CountdownOwnedBy(run uint64) bool {
	return r.Stage.IsCountdown() && r.countdownRun == run
}

// TickCountdown decrements the countdown owned by run and completes the
// reveal when it reaches zero. It reports whether the reveal completed.
func (r *Room) TickCountdown(run uint64) (bool, error) {
	if !r.CountdownOwnedBy(run) {
		return false, NewError(CodeInvalidState, "countdown is no longer running")
	}
	n, _ := r.Stage.CountdownValue()
	n--
	if n > 0 {
		r.Stage = Countdown(n)
		return false, nil
	}
	r.Stage = Revealed()
	r.Revealed = true
	return true, nil
}

type CountdownStep int

const (
	StepTicked CountdownStep = iota
	StepCompleted
	StepCancelled
	StepSuperseded
)

func (s CountdownStep) String() string {
	switch s {
	case StepTicked:
		return "ticked"
	case StepCompleted:
		return "completed"
	case StepCancelled:
		return "cancelled"
	case StepSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// AdvanceCountdown performs one wake-up of the countdown identified by run,
// re-reading the stage first. Only StepTicked and StepCompleted mutate.
func (r *Room) AdvanceCountdown(run uint64) CountdownStep {
	if r.countdownRun != run {
		return StepSuperseded
	}
	switch r.Stage.Kind() {
	case StageCancelled:
		return StepCancelled
	case StageCountdown:
		completed, err := r.TickCountdown(run)
		if err != nil {
			return StepSuperseded
		}
		if completed {
			return StepCompleted
		}
		return StepTicked
	default:
		return StepSuperseded
	}
}

// AbortCountdown cancels the countdown owned by run without an ownership
// check. It reports false when run no longer drives the room.
func (r *Room) AbortCountdown(run uint64) bool {
	if !r.CountdownOwnedBy(run) {
		return false
	}
	r.Stage = Cancelled()
	return true
}

func (r *Room) CancelCountdown(invoker uuid.UUID) error {
	if err := r.CheckOwner(invoker, "cancel the countdown"); err != nil {
		return err
	}
	if !r.Stage.IsCountdown() {
		return NewError(CodeInvalidState, "no countdown is running")
	}
	r.Stage = Cancelled()
	return nil
}

// IsSafeToRemove is false while a reveal countdown is in flight.
func (r *Room) IsSafeToRemove() bool {
	return !r.Stage.IsCountdown()
}

func (r *Room) PushChat(msg ChatMessage) {
	r.ChatLog = append(r.ChatLog, msg.clone())
}

// PruneChat drops messages older than cutoff and returns how many went.
func (r *Room) PruneChat(cutoff time.Time) int {
	before := len(r.ChatLog)
	r.ChatLog = slices.DeleteFunc(r.ChatLog, func(m ChatMessage) bool { return m.Timestamp.Before(cutoff) })
	return before - len(r.ChatLog)
}

// MarkChatSeen moves userID's read cursor to the latest message.
func (r *Room) MarkChatSeen(userID uuid.UUID) bool {
	i := r.memberIndex(userID)
	if i < 0 || len(r.ChatLog) == 0 {
		return false
	}
	r.Members[i].LastSeenChatMessageID = r.ChatLog[len(r.ChatLog)-1].ID
	return true
}

// UnreadChat counts messages newer than userID's read cursor.
func (r *Room) UnreadChat(userID uuid.UUID) int {
	p, ok := r.Member(userID)
	if !ok {
		return 0
	}
	if p.LastSeenChatMessageID == (ulid.ULID{}) {
		return len(r.ChatLog)
	}
	n := 0
	for _, m := range r.ChatLog {
		if m.ID.Compare(p.LastSeenChatMessageID) > 0 {
			n++
		}
	}
	return n
}

const (
	estimateBaseBytes   = 200
	estimatePerMember   = 180
	estimatePerDeckCard = 16
)

// EstimateBytes is a metadata-only size estimate of the room.
func (r *Room) EstimateBytes() int {
	return estimateBaseBytes + len(r.Members)*estimatePerMember + len(r.Deck)*estimatePerDeckCard
}
