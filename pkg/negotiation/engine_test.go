package negotiation

import (
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/trade-arena/pkg/resource"
	"github.com/jwebster45206/trade-arena/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// testEpisode builds an episode with fixed stocks (10 of everything) and
// base-value private values, so assertions don't depend on seeded draws.
func testEpisode(turnLimit int) *state.EpisodeState {
	es := &state.EpisodeState{
		ID:        uuid.New(),
		TurnLimit: turnLimit,
		Status:    state.StatusActive,
	}
	for pid := range es.Players {
		p := state.PlayerState{
			ID:     pid,
			Stock:  make(resource.Bundle),
			Values: make(map[resource.Kind]int),
		}
		for _, k := range resource.Kinds {
			p.Stock[k] = 10
			p.Values[k] = resource.BaseValues[k]
		}
		es.Players[pid] = p
		v := state.Value(p)
		es.Valuations[pid] = state.Valuation{PlayerID: pid, Initial: v, Current: v}
	}
	return es
}

// combinedStock sums both players' stocks, for conservation checks.
func combinedStock(es *state.EpisodeState) resource.Bundle {
	total := es.Players[0].Stock.Clone()
	total.Add(es.Players[1].Stock)
	return total
}

func TestStepRecordsOffer(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)
	before := combinedStock(es)

	result, err := e.Step(es, 0, "[Offer] I give 2 Wheat, 1 Ore; You give 3 Sheep.")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if es.PendingOffer == nil {
		t.Fatal("expected a pending offer")
	}
	if !es.PendingOffer.Offered.Equal(resource.Bundle{resource.Wheat: 2, resource.Ore: 1}) {
		t.Errorf("offered = %v", es.PendingOffer.Offered)
	}
	if !es.PendingOffer.Requested.Equal(resource.Bundle{resource.Sheep: 3}) {
		t.Errorf("requested = %v", es.PendingOffer.Requested)
	}
	if es.PendingOffer.ProposerID != 0 || es.PendingOffer.RecipientID != 1 {
		t.Errorf("offer ids = %d -> %d", es.PendingOffer.ProposerID, es.PendingOffer.RecipientID)
	}
	if !combinedStock(es).Equal(before) {
		t.Error("recording an offer must not move resources")
	}
	if len(result.Faults) != 0 {
		t.Errorf("unexpected faults: %v", result.Faults)
	}
	if len(result.Broadcasts) != 1 {
		t.Fatalf("expected one broadcast, got %v", result.Broadcasts)
	}
}

func TestStepMalformedOfferIsSilent(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)

	result, err := e.Step(es, 0, "[Offer] I give some wheat; You give stuff.")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if es.PendingOffer != nil {
		t.Error("malformed offer must not be recorded")
	}
	if len(result.Faults) != 0 {
		t.Errorf("malformed offer must not fault, got %v", result.Faults)
	}
	if len(result.Broadcasts) != 0 {
		t.Errorf("malformed offer must not broadcast, got %v", result.Broadcasts)
	}
	if es.Turn != 1 {
		t.Errorf("turn should still advance, got %d", es.Turn)
	}
}

func TestStepAcceptExecutesTrade(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)
	before := combinedStock(es)

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat, 1 Ore; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	result, err := e.Step(es, 1, "[Accept] deal.")
	if err != nil {
		t.Fatalf("accept step failed: %v", err)
	}

	p0, p1 := es.Players[0].Stock, es.Players[1].Stock
	if p0[resource.Wheat] != 8 || p0[resource.Ore] != 9 || p0[resource.Sheep] != 13 {
		t.Errorf("unexpected proposer stock: %v", p0)
	}
	if p1[resource.Wheat] != 12 || p1[resource.Ore] != 11 || p1[resource.Sheep] != 7 {
		t.Errorf("unexpected recipient stock: %v", p1)
	}
	if !combinedStock(es).Equal(before) {
		t.Error("trade must conserve the combined resource total")
	}
	if es.PendingOffer != nil {
		t.Error("offer must be cleared after accept")
	}

	// P0 gave 2 Wheat (5) + 1 Ore (40) for 3 Sheep (15): -50 +45 = -5.
	if es.Valuations[0].Change != -5 {
		t.Errorf("player 0 change = %d, want -5", es.Valuations[0].Change)
	}
	if es.Valuations[1].Change != 5 {
		t.Errorf("player 1 change = %d, want 5", es.Valuations[1].Change)
	}
	if len(result.Faults) != 0 {
		t.Errorf("unexpected faults: %v", result.Faults)
	}

	found := false
	for _, b := range result.Broadcasts {
		if b == "TRADE EXECUTED" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected TRADE EXECUTED broadcast, got %v", result.Broadcasts)
	}
}

func TestStepAcceptInsufficientRecipient(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)
	es.Players[1].Stock[resource.Sheep] = 1
	before0 := es.Players[0].Stock.Clone()
	before1 := es.Players[1].Stock.Clone()

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	result, err := e.Step(es, 1, "[Accept]")
	if err != nil {
		t.Fatalf("accept step failed: %v", err)
	}

	if !es.Players[0].Stock.Equal(before0) || !es.Players[1].Stock.Equal(before1) {
		t.Error("failed accept must not move resources")
	}
	if len(result.Faults) != 1 {
		t.Fatalf("expected one fault, got %v", result.Faults)
	}
	if len(result.Faults[0].PlayerIDs) != 1 || result.Faults[0].PlayerIDs[0] != 1 {
		t.Errorf("fault must name exactly the short side, got %v", result.Faults[0].PlayerIDs)
	}
	if es.PendingOffer != nil {
		t.Error("offer must be cleared after a failed accept")
	}
	if es.Valuations[0].Change != 0 || es.Valuations[1].Change != 0 {
		t.Error("valuations must be unchanged after a failed accept")
	}
}

func TestStepAcceptInsufficientProposer(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	// The proposer spends nothing until accept, so stock can drift below the
	// offered amount in the meantime. Simulate that directly.
	es.Players[0].Stock[resource.Wheat] = 1

	result, err := e.Step(es, 1, "[Accept]")
	if err != nil {
		t.Fatalf("accept step failed: %v", err)
	}
	if len(result.Faults) != 1 {
		t.Fatalf("expected one fault, got %v", result.Faults)
	}
	if len(result.Faults[0].PlayerIDs) != 1 || result.Faults[0].PlayerIDs[0] != 0 {
		t.Errorf("fault must name the proposer, got %v", result.Faults[0].PlayerIDs)
	}
}

func TestStepAcceptInsufficientBothSides(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)
	es.Players[1].Stock[resource.Sheep] = 0

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	es.Players[0].Stock[resource.Wheat] = 0

	result, err := e.Step(es, 1, "[Accept]")
	if err != nil {
		t.Fatalf("accept step failed: %v", err)
	}
	if len(result.Faults) != 1 {
		t.Fatalf("expected one fault, got %v", result.Faults)
	}
	ids := result.Faults[0].PlayerIDs
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("fault must name both short sides, got %v", ids)
	}
}

func TestStepDenyClearsOffer(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)
	before := combinedStock(es)

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	result, err := e.Step(es, 1, "no thanks [Deny]")
	if err != nil {
		t.Fatalf("deny step failed: %v", err)
	}

	if es.PendingOffer != nil {
		t.Error("offer must be cleared after deny")
	}
	if !combinedStock(es).Equal(before) {
		t.Error("deny must not move resources")
	}
	if len(result.Faults) != 0 {
		t.Errorf("deny must not fault, got %v", result.Faults)
	}
	if len(result.Broadcasts) != 1 || result.Broadcasts[0] != "Player 1 denied the trade offer." {
		t.Errorf("unexpected broadcasts: %v", result.Broadcasts)
	}
}

func TestStepInvalidResponseFaultsResponder(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	result, err := e.Step(es, 1, "hmm, tempting...")
	if err != nil {
		t.Fatalf("response step failed: %v", err)
	}

	if len(result.Faults) != 1 {
		t.Fatalf("expected one fault, got %v", result.Faults)
	}
	if len(result.Faults[0].PlayerIDs) != 1 || result.Faults[0].PlayerIDs[0] != 1 {
		t.Errorf("fault must name the responder, got %v", result.Faults[0].PlayerIDs)
	}
	// The offer is always cleared on any response, forcing renegotiation.
	if es.PendingOffer != nil {
		t.Error("offer must be cleared after an invalid response")
	}
}

// While an offer is pending, the reply is never read as a new offer, even
// when it contains an offer-shaped substring.
func TestStepPendingOfferSkipsOfferGrammar(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	first := es.PendingOffer

	result, err := e.Step(es, 1, "[Offer] I give 1 Ore; You give 1 Wheat.")
	if err != nil {
		t.Fatalf("counter-offer step failed: %v", err)
	}

	if es.PendingOffer != nil && es.PendingOffer != first {
		t.Error("a pending offer must never be overwritten")
	}
	if len(result.Faults) != 1 {
		t.Fatalf("counter-offer while pending should fault as an invalid response, got %v", result.Faults)
	}
}

func TestStepHarnessErrors(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(20)

	if _, err := e.Step(es, 2, "hello"); err == nil {
		t.Error("expected error for out-of-range player id")
	}
	if _, err := e.Step(nil, 0, "hello"); err == nil {
		t.Error("expected error for nil state")
	}

	if _, err := e.Step(es, 0, "[Offer] I give 2 Wheat; You give 3 Sheep."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	if _, err := e.Step(es, 0, "[Accept]"); err == nil {
		t.Error("expected error when the proposer responds to their own offer")
	}

	es.Status = state.StatusComplete
	if _, err := e.Step(es, 1, "[Accept]"); err == nil {
		t.Error("expected error for a completed episode")
	}
}

func TestStepResolvesOutcomeAtTurnLimit(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(2)

	if _, err := e.Step(es, 0, "[Offer] I give 1 Ore; You give 1 Wheat."); err != nil {
		t.Fatalf("offer step failed: %v", err)
	}
	result, err := e.Step(es, 1, "[Accept]")
	if err != nil {
		t.Fatalf("accept step failed: %v", err)
	}

	if !result.Done {
		t.Fatal("expected episode to finish at the turn limit")
	}
	if es.Status != state.StatusComplete {
		t.Errorf("status = %q, want %q", es.Status, state.StatusComplete)
	}
	if result.Outcome == nil || result.Outcome.WinnerID == nil {
		t.Fatalf("expected a winner, got %+v", result.Outcome)
	}
	// P0 swapped 1 Ore (40) for 1 Wheat (5): -35. P1 gained the reverse.
	if *result.Outcome.WinnerID != 1 {
		t.Errorf("winner = %d, want 1", *result.Outcome.WinnerID)
	}
}

func TestResolveOutcome(t *testing.T) {
	tests := []struct {
		name       string
		change0    int
		change1    int
		wantWinner *int
	}{
		{"draw on equal gains", 12, 12, nil},
		{"draw at zero", 0, 0, nil},
		{"player 0 wins", 20, 5, intPtr(0)},
		{"player 1 wins", -3, 1, intPtr(1)},
		{"losses still compare", -10, -2, intPtr(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(testLogger())
			es := testEpisode(10)
			es.Valuations[0].Change = tt.change0
			es.Valuations[1].Change = tt.change1

			outcome := e.ResolveOutcome(es)
			if es.Status != state.StatusComplete {
				t.Errorf("status = %q, want complete", es.Status)
			}
			if tt.wantWinner == nil {
				if outcome.WinnerID != nil {
					t.Errorf("expected draw, got winner %d", *outcome.WinnerID)
				}
			} else if outcome.WinnerID == nil || *outcome.WinnerID != *tt.wantWinner {
				t.Errorf("winner = %v, want %d", outcome.WinnerID, *tt.wantWinner)
			}
			if outcome.Reason == "" {
				t.Error("outcome must carry a reason")
			}
		})
	}
}

func intPtr(v int) *int { return &v }

// A longer scripted exchange: conservation and non-negativity hold across
// offers, denials, failed accepts and executed trades.
func TestStepSequenceConservation(t *testing.T) {
	e := NewEngine(testLogger())
	es := testEpisode(0)
	es.Players[1].Stock[resource.Brick] = 2
	before := combinedStock(es)

	script := []struct {
		player int
		text   string
	}{
		{0, "Morning. Anyone short on wheat?"},
		{1, "Depends on the price."},
		{0, "[Offer] I give 5 Wheat; You give 1 Ore."},
		{1, "[Deny] too steep."},
		{1, "[Offer] I give 1 Ore; You give 3 Wheat."},
		{0, "[Accept]"},
		{0, "[Offer] I give 2 Sheep; You give 4 Brick."},
		{1, "[Accept]"}, // fails: P1 holds only 2 Brick
		{1, "[Offer] I give 2 Brick; You give 1 Sheep."},
		{0, "[Accept]"},
	}

	for i, step := range script {
		if _, err := e.Step(es, step.player, step.text); err != nil {
			t.Fatalf("step %d (%q) failed: %v", i, step.text, err)
		}
		if !combinedStock(es).Equal(before) {
			t.Fatalf("conservation violated after step %d (%q)", i, step.text)
		}
		for pid := 0; pid < 2; pid++ {
			for k, n := range es.Players[pid].Stock {
				if n < 0 {
					t.Fatalf("player %d has negative %s after step %d", pid, k, i)
				}
			}
		}
	}

	// Net result: P0 traded 3 Wheat for 1 Ore, then 1 Sheep for 2 Brick.
	p0 := es.Players[0].Stock
	if p0[resource.Wheat] != 7 || p0[resource.Ore] != 11 || p0[resource.Sheep] != 9 || p0[resource.Brick] != 12 {
		t.Errorf("unexpected final stock for player 0: %v", p0)
	}
	if es.Turn != len(script) {
		t.Errorf("turn = %d, want %d", es.Turn, len(script))
	}
}
