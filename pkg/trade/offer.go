package trade

import (
	"fmt"

	"github.com/jwebster45206/trade-arena/pkg/resource"
)

// Offer is a proposed exchange of resources between the two players. At most
// one offer is pending in an episode at any time; both bundles are non-empty
// with strictly positive quantities.
type Offer struct {
	ProposerID  int             `json:"proposer_id"`
	RecipientID int             `json:"recipient_id"`
	Offered     resource.Bundle `json:"offered"`   // debited from proposer on accept
	Requested   resource.Bundle `json:"requested"` // debited from recipient on accept
}

// String renders the offer in canonical wire form. Parsing this rendering
// reproduces an equal offer.
func (o *Offer) String() string {
	return fmt.Sprintf("[Offer] I give %s; You give %s.", o.Offered, o.Requested)
}

// Equal reports whether two offers describe the same exchange between the
// same players.
func (o *Offer) Equal(other *Offer) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.ProposerID == other.ProposerID &&
		o.RecipientID == other.RecipientID &&
		o.Offered.Equal(other.Offered) &&
		o.Requested.Equal(other.Requested)
}
