package domain

type FraudKind string

const (
	FraudNone             FraudKind = "none"
	FraudStaleTicket      FraudKind = "stale_ticket"
	FraudRepeatedAttempts FraudKind = "repeated_attempts"
)

// ValidFraudKind reports whether k names a risk heuristic a human can
// authorize. FraudNone is not authorizable.
func ValidFraudKind(k FraudKind) bool {
	return k == FraudStaleTicket || k == FraudRepeatedAttempts
}

// FraudVerdict is the transient result of one evaluation. Consumers may log
// it; it is never persisted as its own entity.
type FraudVerdict struct {
	IsFraud bool
	Kind    FraudKind
	Details map[string]any
}
