package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/trade-arena/pkg/resource"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

// basePlayerPrompt is the per-player instruction text generated at episode
// reset. It explains the game, the player's private holdings, and the exact
// action grammar the engine parses.
const basePlayerPrompt = `You are Player %d in a two-player resource trading game.
You and the other player each hold a private stockpile of resources, and each of you values those resources differently. Your goal is to increase the total value of your own inventory by trading.

Your current resources and the value each is worth to you:
%s

You can talk to the other player freely. To take a game action, embed one of these bracketed tokens in your message:
- Make a trade offer (only when no offer is pending):
  [Offer] I give 2 Wheat, 1 Ore; You give 3 Sheep.
  List what you give and what you want, as "<quantity> <resource>" items separated by commas or "and".
- Respond to a pending offer: include [Accept] or [Deny] anywhere in your message.

Rules:
- Only one offer can be pending at a time. While an offer awaits your response, your message must contain [Accept] or [Deny].
- A trade only executes if both sides actually hold what the offer names.
- The other player's values differ from yours: a trade can profit you both.
`

const turnLimitPrompt = "The game ends after %d turns. The player whose inventory value increased the most wins; equal changes are a draw.\n"

// PlayerPrompt generates the instruction prompt for one player, including
// their private stock and value table. Private values are never revealed to
// the opponent.
func PlayerPrompt(es *state.EpisodeState, playerID int) string {
	p := es.Players[playerID]

	var sb strings.Builder
	for _, k := range resource.Kinds {
		fmt.Fprintf(&sb, "  %s: %d in stock, worth %d each to you\n", k, p.Stock[k], p.Values[k])
	}

	prompt := fmt.Sprintf(basePlayerPrompt, playerID, strings.TrimRight(sb.String(), "\n"))
	if es.TurnLimit > 0 {
		prompt += fmt.Sprintf(turnLimitPrompt, es.TurnLimit)
	}
	return prompt
}

// TranscriptPrompt renders the episode transcript for inclusion in an agent
// context window, attributing each line to its sender from the reader's
// point of view.
func TranscriptPrompt(es *state.EpisodeState, playerID int) string {
	var sb strings.Builder
	for _, m := range es.Transcript {
		switch m.From {
		case state.GameID:
			fmt.Fprintf(&sb, "[GAME] %s\n", m.Content)
		case playerID:
			fmt.Fprintf(&sb, "[You] %s\n", m.Content)
		default:
			fmt.Fprintf(&sb, "[Player %d] %s\n", m.From, m.Content)
		}
	}
	return sb.String()
}
