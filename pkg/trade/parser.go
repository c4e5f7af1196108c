package trade

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jwebster45206/trade-arena/pkg/resource"
)

// Response is the parsed reply to a pending offer.
type Response int

const (
	ResponseNone Response = iota
	ResponseAccept
	ResponseDeny
)

var (
	acceptPattern = regexp.MustCompile(`(?i)\[accept\]`)
	denyPattern   = regexp.MustCompile(`(?i)\[deny\]`)

	// [Offer] I give <list>; You give <list>.
	offerPattern = regexp.MustCompile(`(?i)\[offer\]\s*i\s+give\s+(.+?)\s*;\s*you\s+give\s+(.+?)\s*\.`)

	listSeparator = regexp.MustCompile(`(?i)\s*(?:,|\band\b)\s*`)
	itemPattern   = regexp.MustCompile(`^(\d+)\s+([A-Za-z]+)$`)
)

// ParseResponse searches the text for the bracketed accept and deny markers.
// Markers may appear anywhere amid free narration; accept takes precedence
// when both are present.
func ParseResponse(text string) Response {
	if acceptPattern.MatchString(text) {
		return ResponseAccept
	}
	if denyPattern.MatchString(text) {
		return ResponseDeny
	}
	return ResponseNone
}

// OfferResult is the typed outcome of offer parsing. A failed parse is not an
// error: Ok is false and Reason records what went wrong, so callers can log
// or test the failure without the engine treating it as a protocol fault.
type OfferResult struct {
	Ok     bool
	Offer  *Offer
	Reason string
}

func noOffer(format string, args ...any) OfferResult {
	return OfferResult{Reason: fmt.Sprintf(format, args...)}
}

// ParseOffer searches the text for an offer block and parses both resource
// lists. Any malformed item, unknown resource, non-positive quantity, or
// empty list invalidates the whole offer.
func ParseOffer(proposerID, recipientID int, text string) OfferResult {
	m := offerPattern.FindStringSubmatch(text)
	if m == nil {
		return noOffer("no offer block found")
	}

	offered, err := parseList(m[1])
	if err != nil {
		return noOffer("offered list: %v", err)
	}
	requested, err := parseList(m[2])
	if err != nil {
		return noOffer("requested list: %v", err)
	}

	return OfferResult{
		Ok: true,
		Offer: &Offer{
			ProposerID:  proposerID,
			RecipientID: recipientID,
			Offered:     offered,
			Requested:   requested,
		},
	}
}

// parseList parses a comma- or "and"-separated sequence of
// "<qty> <Resource>" items into a bundle. Duplicate kinds accumulate.
func parseList(list string) (resource.Bundle, error) {
	bundle := make(resource.Bundle)
	for _, item := range listSeparator.Split(strings.TrimSpace(list), -1) {
		if item == "" {
			continue
		}
		m := itemPattern.FindStringSubmatch(item)
		if m == nil {
			return nil, fmt.Errorf("malformed item %q", item)
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("non-positive quantity in %q", item)
		}
		kind, ok := resource.Parse(m[2])
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", m[2])
		}
		bundle[kind] += qty
	}
	if bundle.IsEmpty() {
		return nil, fmt.Errorf("empty resource list")
	}
	return bundle, nil
}
