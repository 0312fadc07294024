package domain

import "strconv"

// CountdownStart is the first value shown when a reveal countdown begins.
const CountdownStart = 3

type StageKind int

const (
	StageIdle StageKind = iota
	StageCountdown
	StageRevealed
	StageCancelled
)

func (k StageKind) String() string {
	switch k {
	case StageIdle:
		return "idle"
	case StageCountdown:
		return "countdown"
	case StageRevealed:
		return "revealed"
	case StageCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RevealStage is the reveal state machine position. The countdown value only
// exists in the countdown stage; the zero value is Idle.
type RevealStage struct {
	kind  StageKind
	value int
}

func Idle() RevealStage {
	return RevealStage{kind: StageIdle}
}

func Countdown(n int) RevealStage {
	if n < 0 {
		n = 0
	}
	if n > CountdownStart {
		n = CountdownStart
	}
	return RevealStage{kind: StageCountdown, value: n}
}

func Revealed() RevealStage {
	return RevealStage{kind: StageRevealed}
}

func Cancelled() RevealStage {
	return RevealStage{kind: StageCancelled}
}

func (s RevealStage) Kind() StageKind {
	return s.kind
}

// CountdownValue returns the remaining ticks and true only in the countdown stage.
func (s RevealStage) CountdownValue() (int, bool) {
	if s.kind != StageCountdown {
		return 0, false
	}
	return s.value, true
}

func (s RevealStage) IsCountdown() bool {
	return s.kind == StageCountdown
}

func (s RevealStage) String() string {
	if s.kind == StageCountdown {
		return s.kind.String() + "(" + strconv.Itoa(s.value) + ")"
	}
	return s.kind.String()
}

// ParseStageKind is the inverse of StageKind.String.
func ParseStageKind(s string) (StageKind, bool) {
	switch s {
	case "idle":
		return StageIdle, true
	case "countdown":
		return StageCountdown, true
	case "revealed":
		return StageRevealed, true
	case "cancelled":
		return StageCancelled, true
	default:
		return StageIdle, false
	}
}
