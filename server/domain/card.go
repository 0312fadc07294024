package domain

import (
	"math"
	"strconv"
	"strings"
)

// CardNormalizer maps a card label to its numeric value, or nil when the
// card has none (e.g. "?" or a coffee card).
type CardNormalizer func(label string) *float64

// ParseCardValue is the default CardNormalizer.
func ParseCardValue(label string) *float64 {
	s := strings.TrimSpace(label)
	switch s {
	case "", "?", "☕", "coffee":
		return nil
	case "½", "1/2":
		v := 0.5
		return &v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// DefaultDeck is the deck used when a room is created without cards.
func DefaultDeck() []string {
	return []string{"0", "½", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?", "☕"}
}
