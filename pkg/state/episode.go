package state

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/trade-arena/pkg/resource"
	"github.com/jwebster45206/trade-arena/pkg/trade"
)

// GameID is the sender id used for engine narration in the transcript.
const GameID = -1

const (
	// StatusActive means the episode is still accepting turns.
	StatusActive = "active"
	// StatusComplete means the turn limit was reached and the outcome resolved.
	StatusComplete = "complete"
)

const (
	stockMin = 5
	stockMax = 25
	valueMin = 5
	valueMax = 40
)

// PlayerState holds one player's stockpile and private value table. Values
// are drawn once at episode reset and never change; only Stock mutates.
type PlayerState struct {
	ID     int                   `json:"id"`
	Stock  resource.Bundle       `json:"stock"`
	Values map[resource.Kind]int `json:"values"`
}

// Valuation is a player's stockpile worth under their own private values.
// Initial is fixed at reset; Current and Change refresh after every trade.
type Valuation struct {
	PlayerID int `json:"player_id"`
	Initial  int `json:"initial"`
	Current  int `json:"current"`
	Change   int `json:"change"`
}

// Message is one transcript entry: a player action or engine narration.
type Message struct {
	From    int    `json:"from"` // player id, or GameID for narration
	Content string `json:"content"`
}

// Outcome is the resolved result at the turn limit. A nil WinnerID is a draw.
type Outcome struct {
	WinnerID *int   `json:"winner_id,omitempty"`
	Reason   string `json:"reason"`
}

// EpisodeState is the full mutable state of one negotiation episode. It is
// owned by the caller and passed into engine operations; the engine keeps no
// state of its own.
type EpisodeState struct {
	ID           uuid.UUID      `json:"id"`
	Seed         int64          `json:"seed"`
	TurnLimit    int            `json:"turn_limit"` // 0 means unlimited
	Turn         int            `json:"turn"`
	Players      [2]PlayerState `json:"players"`
	PendingOffer *trade.Offer   `json:"pending_offer,omitempty"`
	Valuations   [2]Valuation   `json:"valuations"`
	Transcript   []Message      `json:"transcript,omitempty"`
	Status       string         `json:"status"`
	Outcome      *Outcome       `json:"outcome,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// NewEpisodeState creates a fresh episode from a seed. Initialization is
// deterministic: the same seed always produces the same stocks and private
// values. Stocks are uniform in [5,25] per resource; private values are
// uniform within ±20% of the public base value, clamped to [5,40].
func NewEpisodeState(seed int64, turnLimit int) *EpisodeState {
	rng := rand.New(rand.NewSource(seed))

	es := &EpisodeState{
		ID:        uuid.New(),
		Seed:      seed,
		TurnLimit: turnLimit,
		Status:    StatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for pid := range es.Players {
		p := PlayerState{
			ID:     pid,
			Stock:  make(resource.Bundle, len(resource.Kinds)),
			Values: make(map[resource.Kind]int, len(resource.Kinds)),
		}
		for _, k := range resource.Kinds {
			p.Stock[k] = stockMin + rng.Intn(stockMax-stockMin+1)
		}
		for _, k := range resource.Kinds {
			p.Values[k] = drawValue(rng, resource.BaseValues[k])
		}
		es.Players[pid] = p

		v := Value(p)
		es.Valuations[pid] = Valuation{PlayerID: pid, Initial: v, Current: v}
	}

	return es
}

// drawValue draws a private per-unit value within ±20% of base, clamped to
// the [valueMin, valueMax] range shared by all resources.
func drawValue(rng *rand.Rand, base int) int {
	lo := base * 8 / 10
	hi := base * 12 / 10
	if lo < valueMin {
		lo = valueMin
	}
	if hi > valueMax {
		hi = valueMax
	}
	return lo + rng.Intn(hi-lo+1)
}

// Value computes a player's stockpile worth under their private value table.
func Value(p PlayerState) int {
	total := 0
	for k, n := range p.Stock {
		total += n * p.Values[k]
	}
	return total
}

// RefreshValuation recomputes a player's Current and Change from their
// current stock. Initial is immutable for the episode.
func (es *EpisodeState) RefreshValuation(playerID int) {
	v := Value(es.Players[playerID])
	es.Valuations[playerID].Current = v
	es.Valuations[playerID].Change = v - es.Valuations[playerID].Initial
}

// AddMessage appends a transcript entry.
func (es *EpisodeState) AddMessage(from int, content string) {
	es.Transcript = append(es.Transcript, Message{From: from, Content: content})
}

// Opponent returns the other player's id.
func Opponent(playerID int) int {
	return 1 - playerID
}
