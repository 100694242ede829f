package domain

// PurchasedLine is one line item of a paid sale.
type PurchasedLine struct {
	Name     string
	Quantity int
}

// Ticket is a paid sale as reported by the sale source. Immutable once
// fetched; this core never persists it.
type Ticket struct {
	CanonicalID string
	NumericKey  string
	// PurchasedAtRaw is the purchase timestamp exactly as the sale source
	// reports it. Parsing is the fraud detector's problem.
	PurchasedAtRaw string
	Lines          []PurchasedLine
}

// PurchasedQuantity sums every line matching the item name. The sale source
// may split one item across several lines.
func (t Ticket) PurchasedQuantity(itemName string) int {
	total := 0
	for _, line := range t.Lines {
		if line.Name == itemName {
			total += line.Quantity
		}
	}
	return total
}
