// Package fraud evaluates redemption risk signals for a ticket.
//
// Two independent heuristics run in priority order: a ticket that has been
// presented too many times is reported as repeated_attempts even when it is
// also old, because the abusive pattern is the stronger signal.
package fraud

import (
	"math"
	"strings"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/clock"
	"github.com/stvaldivia/delivery-engine/internal/domain"
)

const (
	DefaultMaxAttempts = 3
	DefaultMaxAge      = 24 * time.Hour
)

// purchaseTimeLayouts are the timestamp shapes the sale source is known to
// emit. time.Parse tolerates fractional seconds on the first layout.
var purchaseTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

type Detector struct {
	clock       clock.Clock
	maxAttempts int
	maxAge      time.Duration
}

type Option func(*Detector)

func WithMaxAttempts(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithMaxAge(age time.Duration) Option {
	return func(d *Detector) {
		if age > 0 {
			d.maxAge = age
		}
	}
}

func NewDetector(clk clock.Clock, opts ...Option) *Detector {
	d := &Detector{
		clock:       clk,
		maxAttempts: DefaultMaxAttempts,
		maxAge:      DefaultMaxAge,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate produces a verdict from the ticket's attempt count (derived from
// the ledger, not incremented here) and its raw purchase timestamp. It is
// read-only and safe to call speculatively, e.g. for UI previews.
func (d *Detector) Evaluate(attempts int, purchasedAtRaw string) domain.FraudVerdict {
	if attempts >= d.maxAttempts {
		return domain.FraudVerdict{
			IsFraud: true,
			Kind:    domain.FraudRepeatedAttempts,
			Details: map[string]any{
				"attempts":     attempts,
				"max_attempts": d.maxAttempts,
			},
		}
	}

	// An unparsable or missing purchase timestamp is a data-quality problem,
	// not evidence of fraud, so only this check fails open.
	if purchasedAt, ok := parsePurchaseTime(purchasedAtRaw); ok {
		age := d.clock.Now().Sub(purchasedAt)
		if age > d.maxAge {
			daysOld := math.Round(age.Hours()/24*10) / 10
			return domain.FraudVerdict{
				IsFraud: true,
				Kind:    domain.FraudStaleTicket,
				Details: map[string]any{
					"days_old":  daysOld,
					"sale_time": purchasedAtRaw,
				},
			}
		}
	}

	return domain.FraudVerdict{IsFraud: false, Kind: domain.FraudNone}
}

func parsePurchaseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range purchaseTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
