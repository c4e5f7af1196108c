package negotiation

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/trade-arena/pkg/state"
	"github.com/jwebster45206/trade-arena/pkg/trade"
)

// Fault is a structured protocol-violation report. It is handed to the
// surrounding harness, which owns episode termination; the engine itself
// keeps playing.
type Fault struct {
	PlayerIDs []int  `json:"player_ids"`
	Reason    string `json:"reason"`
}

// TurnResult is everything one processed action produced: narration to
// broadcast, the refreshed valuation snapshot for both players, any faults,
// and the resolved outcome when the turn limit was reached.
type TurnResult struct {
	Broadcasts []string           `json:"broadcasts,omitempty"`
	Valuations [2]state.Valuation `json:"valuations"`
	Faults     []Fault            `json:"faults,omitempty"`
	Done       bool               `json:"done"`
	Outcome    *state.Outcome     `json:"outcome,omitempty"`
}

// Engine processes one player action at a time against an episode state.
// It is stateless and turn-synchronous; all mutable data lives on the
// EpisodeState passed into Step.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Step processes a single raw action from a player. Errors are reserved for
// harness misuse (bad player id, finished episode, proposer answering their
// own offer); everything a player can get wrong in-game surfaces as a Fault
// or a silent no-op per the protocol.
//
// Dispatch: while an offer is pending the text is read only as a response,
// even if it also contains an offer-shaped substring. With no offer pending
// the text is checked against the offer grammar; a failed match is ordinary
// conversation.
func (e *Engine) Step(es *state.EpisodeState, playerID int, text string) (*TurnResult, error) {
	if es == nil {
		return nil, fmt.Errorf("nil episode state")
	}
	if es.Status != state.StatusActive {
		return nil, fmt.Errorf("episode %s is not active", es.ID)
	}
	if playerID != 0 && playerID != 1 {
		return nil, fmt.Errorf("invalid player id %d", playerID)
	}
	if es.PendingOffer != nil && playerID == es.PendingOffer.ProposerID {
		return nil, fmt.Errorf("player %d cannot respond to their own offer", playerID)
	}

	es.AddMessage(playerID, text)
	result := &TurnResult{}

	if es.PendingOffer != nil {
		e.handleResponse(es, playerID, text, result)
	} else {
		e.tryRecordOffer(es, playerID, text, result)
	}

	es.Turn++
	if es.TurnLimit > 0 && es.Turn >= es.TurnLimit {
		outcome := e.ResolveOutcome(es)
		result.Done = true
		result.Outcome = outcome
		result.Broadcasts = append(result.Broadcasts, outcome.Reason)
	}

	for _, b := range result.Broadcasts {
		es.AddMessage(state.GameID, b)
	}
	result.Valuations = es.Valuations
	return result, nil
}

// handleResponse consumes the pending offer. The offer is always cleared on
// any response, valid or not, so a failed accept or an unparseable reply
// forces renegotiation.
func (e *Engine) handleResponse(es *state.EpisodeState, playerID int, text string, result *TurnResult) {
	offer := es.PendingOffer
	es.PendingOffer = nil

	switch trade.ParseResponse(text) {
	case trade.ResponseAccept:
		e.executeTrade(es, offer, result)
	case trade.ResponseDeny:
		result.Broadcasts = append(result.Broadcasts,
			fmt.Sprintf("Player %d denied the trade offer.", playerID))
	default:
		result.Faults = append(result.Faults, Fault{
			PlayerIDs: []int{playerID},
			Reason: fmt.Sprintf(
				"Player %d responded to a pending offer with neither [Accept] nor [Deny].", playerID),
		})
	}
}

// executeTrade validates both sides of an accepted offer and applies the
// transfer as one atomic bundle. If either side is short, nothing moves and
// the fault names every short side.
func (e *Engine) executeTrade(es *state.EpisodeState, offer *trade.Offer, result *TurnResult) {
	proposer := &es.Players[offer.ProposerID]
	recipient := &es.Players[offer.RecipientID]

	proposerOK := proposer.Stock.Covers(offer.Offered)
	recipientOK := recipient.Stock.Covers(offer.Requested)

	if !proposerOK || !recipientOK {
		var short []int
		if !proposerOK {
			short = append(short, offer.ProposerID)
		}
		if !recipientOK {
			short = append(short, offer.RecipientID)
		}
		result.Faults = append(result.Faults, Fault{
			PlayerIDs: short,
			Reason:    insufficientReason(offer, proposerOK, recipientOK),
		})
		e.logger.Debug("trade rejected, insufficient resources",
			"episode", es.ID, "short_players", short)
		return
	}

	proposer.Stock.Subtract(offer.Offered)
	recipient.Stock.Add(offer.Offered)
	recipient.Stock.Subtract(offer.Requested)
	proposer.Stock.Add(offer.Requested)

	es.RefreshValuation(offer.ProposerID)
	es.RefreshValuation(offer.RecipientID)

	result.Broadcasts = append(result.Broadcasts,
		fmt.Sprintf("Player %d accepted the trade offer.", offer.RecipientID),
		"TRADE EXECUTED")
	e.logger.Debug("trade executed",
		"episode", es.ID,
		"offered", offer.Offered.String(),
		"requested", offer.Requested.String())
}

func insufficientReason(offer *trade.Offer, proposerOK, recipientOK bool) string {
	switch {
	case !proposerOK && !recipientOK:
		return fmt.Sprintf(
			"Neither player holds the resources for the trade: Player %d lacks %s and Player %d lacks %s.",
			offer.ProposerID, offer.Offered, offer.RecipientID, offer.Requested)
	case !proposerOK:
		return fmt.Sprintf("Player %d lacks the offered resources (%s) to complete the trade.",
			offer.ProposerID, offer.Offered)
	default:
		return fmt.Sprintf("Player %d lacks the requested resources (%s) to complete the trade.",
			offer.RecipientID, offer.Requested)
	}
}

// tryRecordOffer checks the text against the offer grammar. A failed match is
// a silent no-op: the turn proceeds as ordinary conversation.
func (e *Engine) tryRecordOffer(es *state.EpisodeState, playerID int, text string, result *TurnResult) {
	res := trade.ParseOffer(playerID, state.Opponent(playerID), text)
	if !res.Ok {
		e.logger.Debug("no offer recorded", "episode", es.ID, "player", playerID, "reason", res.Reason)
		return
	}

	es.PendingOffer = res.Offer
	result.Broadcasts = append(result.Broadcasts,
		fmt.Sprintf("Player %d made the following offer to Player %d: %s",
			playerID, res.Offer.RecipientID, res.Offer.String()))
}

// ResolveOutcome compares both players' valuation change and marks the
// episode complete. A strictly larger gain wins; equal gains draw.
func (e *Engine) ResolveOutcome(es *state.EpisodeState) *state.Outcome {
	es.Status = state.StatusComplete

	c0 := es.Valuations[0].Change
	c1 := es.Valuations[1].Change

	var outcome state.Outcome
	switch {
	case c0 == c1:
		outcome.Reason = fmt.Sprintf(
			"Turn limit reached. Both players changed their inventory value by %+d. The game is a draw.", c0)
	case c0 > c1:
		winner := 0
		outcome.WinnerID = &winner
		outcome.Reason = fmt.Sprintf(
			"Turn limit reached. Player 0 wins with a value change of %+d against %+d.", c0, c1)
	default:
		winner := 1
		outcome.WinnerID = &winner
		outcome.Reason = fmt.Sprintf(
			"Turn limit reached. Player 1 wins with a value change of %+d against %+d.", c1, c0)
	}

	es.Outcome = &outcome
	return &outcome
}
