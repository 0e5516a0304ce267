package venue

import (
	"sort"
	"strconv"

	"venue_go/internal/domain"
)

// ParsedOrder is the venue-independent intermediate an adapter extracts
// from raw JSON. Enum fields already carry canonical spellings and
// timestamps are epoch milliseconds; the adapter owns those reductions
// so BuildResult never branches on venue.
type ParsedOrder struct {
	VenueOrderID            string
	ClientOrderID           string
	Symbol                  string
	Side                    string
	Type                    string
	TimeInForce             string
	Status                  string
	Price                   string
	OrigQuantity            string
	ExecutedQuantity        string
	CumulativeQuoteQuantity string
	CreatedAtMillis         int64
	UpdatedAtMillis         int64
	Fills                   []domain.Fill
}

// BuildResult maps the intermediate to the canonical result value.
// Fill order is preserved exactly as the venue returned it; a missing
// fills list becomes an empty slice, never nil.
func BuildResult(p ParsedOrder) domain.OrderResult {
	fills := p.Fills
	if fills == nil {
		fills = []domain.Fill{}
	}
	updated := p.UpdatedAtMillis
	if updated == 0 {
		updated = p.CreatedAtMillis
	}
	return domain.OrderResult{
		VenueOrderID:            p.VenueOrderID,
		ClientOrderID:           p.ClientOrderID,
		Symbol:                  p.Symbol,
		Side:                    domain.Side(p.Side),
		Type:                    domain.OrderType(p.Type),
		TimeInForce:             domain.TimeInForce(p.TimeInForce),
		Status:                  domain.OrderStatus(p.Status),
		Price:                   p.Price,
		OrigQuantity:            p.OrigQuantity,
		ExecutedQuantity:        p.ExecutedQuantity,
		CumulativeQuoteQuantity: p.CumulativeQuoteQuantity,
		CreatedAtMillis:         p.CreatedAtMillis,
		UpdatedAtMillis:         updated,
		Fills:                   fills,
	}
}

// SortFills stably re-sorts fills by ascending trade id, for callers
// that need an order-independent comparison. Non-numeric trade ids
// compare as strings.
func SortFills(fills []domain.Fill) {
	sort.SliceStable(fills, func(i, j int) bool {
		a, errA := strconv.ParseInt(fills[i].TradeID, 10, 64)
		b, errB := strconv.ParseInt(fills[j].TradeID, 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return fills[i].TradeID < fills[j].TradeID
	})
}
