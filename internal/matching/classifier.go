package matching

import (
	"fmt"

	"github.com/tbourn/go-lostfound-backend/internal/domain"
)

// Policy maps a similarity score to a confidence tier.
type Policy struct {
	High     int // score >= High is "high"
	Possible int // score >= Possible is "possible"
}

// DefaultPolicy: 80 and above is high, 60 to 79 is possible.
var DefaultPolicy = Policy{High: 80, Possible: 60}

// Validate checks 0 <= Possible <= High <= 100.
func (p Policy) Validate() error {
	if p.Possible < 0 || p.High > 100 || p.Possible > p.High {
		return fmt.Errorf("matching: invalid policy high=%d possible=%d", p.High, p.Possible)
	}
	return nil
}

// Classify returns the tier for score.
func (p Policy) Classify(score int) domain.Confidence {
	switch {
	case score >= p.High:
		return domain.ConfidenceHigh
	case score >= p.Possible:
		return domain.ConfidencePossible
	default:
		return domain.ConfidenceUnlikely
	}
}
