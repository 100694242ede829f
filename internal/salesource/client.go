// Package salesource fetches paid sales from the point-of-sale API.
package salesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/ticketid"
)

const defaultTimeout = 5 * time.Second

// Client talks to the POS sales endpoint. Every call carries a bounded
// timeout; the deliver path fails closed when the source cannot confirm the
// purchased quantities in time.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type saleResponse struct {
	SaleID    string     `json:"sale_id"`
	SaleTime  string     `json:"sale_time"`
	CartItems []cartItem `json:"cart_items"`
}

type cartItem struct {
	Name     string       `json:"name"`
	Quantity flexQuantity `json:"quantity"`
}

// The POS API is loose about numeric types; quantities arrive as integers,
// floats or quoted strings depending on the endpoint version. Whole values
// only: a fractional quantity means the sale record is corrupt, and the
// caller fails closed rather than deliver on a floored count.
type flexQuantity int

func (q *flexQuantity) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*q = 0
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*q = flexQuantity(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", s, err)
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("quantity %q: not a whole number", s)
	}
	*q = flexQuantity(f)
	return nil
}

// Sale fetches the purchased lines for a numeric ticket key. A missing sale
// is a terminal domain.ErrTicketNotFound; timeouts and transport failures
// surface as domain.ErrSaleSourceUnavailable so callers reject rather than
// approve on ambiguity.
func (c *Client) Sale(ctx context.Context, numericKey string) (domain.Ticket, error) {
	url := fmt.Sprintf("%s/sales/%s", c.baseURL, numericKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("build sale request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return domain.Ticket{}, err
		}
		return domain.Ticket{}, fmt.Errorf("%w: %v", domain.ErrSaleSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.Ticket{}, domain.ErrTicketNotFound
	case resp.StatusCode != http.StatusOK:
		return domain.Ticket{}, fmt.Errorf("%w: status %d", domain.ErrSaleSourceUnavailable, resp.StatusCode)
	}

	var body saleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Ticket{}, fmt.Errorf("%w: decode: %v", domain.ErrSaleSourceUnavailable, err)
	}

	return c.toTicket(numericKey, body), nil
}

func (c *Client) toTicket(numericKey string, body saleResponse) domain.Ticket {
	canonical := ticketid.CanonicalPrefix + " " + numericKey
	if body.SaleID != "" {
		if norm, _, err := ticketid.Normalize(body.SaleID); err == nil {
			canonical = norm
		}
	}

	lines := make([]domain.PurchasedLine, 0, len(body.CartItems))
	for _, item := range body.CartItems {
		if item.Name == "" {
			continue
		}
		lines = append(lines, domain.PurchasedLine{
			Name:     item.Name,
			Quantity: int(item.Quantity),
		})
	}

	return domain.Ticket{
		CanonicalID:    canonical,
		NumericKey:     numericKey,
		PurchasedAtRaw: body.SaleTime,
		Lines:          lines,
	}
}
