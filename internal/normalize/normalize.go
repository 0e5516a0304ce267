// Package normalize validates a venue-agnostic order request and lowers
// it into the canonical parameter bag the venue adapters consume.
// It rejects anything a venue cannot accept before a single byte goes
// on the wire; tick/lot rounding stays a caller responsibility.
package normalize

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/pkg/params"
)

// Canonical parameter keys produced by Order. Adapters translate these
// into their venue's wire fields.
const (
	KeySymbol        = "symbol"
	KeySide          = "side"
	KeyType          = "type"
	KeyTimeInForce   = "timeInForce"
	KeyQuantity      = "quantity"
	KeyQuoteOrderQty = "quoteOrderQty"
	KeyPrice         = "price"
	KeyStopPrice     = "stopPrice"
	KeyClientOrderID = "clientOrderId"
	KeyLeverage      = "leverage"
)

// ValidationError reports a caller-fixable request defect. Nothing that
// yields one is ever sent to the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Order validates req against the venue's capabilities and returns the
// canonical parameter bag. Venue-specific extras merge last, so an
// explicit caller value wins over a canonical field; defaults never
// overwrite anything the caller set.
func Order(req domain.OrderRequest, venue enums.Venue) (*params.Params, error) {
	if req.Symbol == "" {
		return nil, invalid("symbol", "required")
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return nil, invalid("side", fmt.Sprintf("unknown value %q", req.Side))
	}

	if !enums.Supported(venue, enums.AxisType, string(req.Type)) {
		return nil, invalid("type", fmt.Sprintf("%s does not support order type %s", venue, req.Type))
	}

	if err := checkTypeInvariants(req, venue); err != nil {
		return nil, err
	}

	p := params.New()
	p.Set(KeySymbol, req.Symbol)
	p.Set(KeySide, string(req.Side))
	p.Set(KeyType, string(req.Type))
	if req.TimeInForce != "" {
		p.Set(KeyTimeInForce, string(req.TimeInForce))
	}
	if err := setDecimal(p, KeyQuantity, req.Quantity); err != nil {
		return nil, err
	}
	if err := setDecimal(p, KeyQuoteOrderQty, req.QuoteOrderQty); err != nil {
		return nil, err
	}
	if err := setDecimal(p, KeyPrice, req.Price); err != nil {
		return nil, err
	}
	if err := setDecimal(p, KeyStopPrice, req.StopPrice); err != nil {
		return nil, err
	}
	if err := setDecimal(p, KeyLeverage, req.Leverage); err != nil {
		return nil, err
	}

	clientID := req.ClientOrderID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	p.Set(KeyClientOrderID, clientID)

	// Caller extras last: explicit venue overrides win.
	for key, value := range req.VenueParams {
		p.Set(key, value)
	}
	return p, nil
}

func checkTypeInvariants(req domain.OrderRequest, venue enums.Venue) error {
	switch {
	case req.Type.IsLimitFamily():
		if req.Price == "" {
			return invalid("price", fmt.Sprintf("required for %s orders", req.Type))
		}
		// LIMIT_MAKER carries its own post-only semantics; plain LIMIT
		// family needs an explicit lifetime.
		if req.Type != domain.TypeLimitMaker && req.TimeInForce == "" {
			return invalid("timeInForce", fmt.Sprintf("required for %s orders", req.Type))
		}
	case req.Type == domain.TypeMarket:
		if req.Price != "" {
			return invalid("price", "not allowed for MARKET orders")
		}
		hasQty := req.Quantity != ""
		hasQuote := req.QuoteOrderQty != ""
		if hasQty == hasQuote {
			return invalid("quantity", "MARKET orders need exactly one of quantity and quoteOrderQty")
		}
	}

	if req.Type.IsTriggerFamily() && req.StopPrice == "" {
		return invalid("stopPrice", fmt.Sprintf("required for %s orders", req.Type))
	}
	if !req.Type.IsTriggerFamily() && req.StopPrice != "" {
		return invalid("stopPrice", fmt.Sprintf("not allowed for %s orders", req.Type))
	}

	if req.QuoteOrderQty != "" && !(req.Type == domain.TypeMarket && req.Side == domain.SideBuy) {
		return invalid("quoteOrderQty", "only valid for MARKET BUY orders")
	}
	if req.Type != domain.TypeMarket && req.Quantity == "" {
		return invalid("quantity", "required")
	}

	if req.TimeInForce != "" && !enums.Supported(venue, enums.AxisTimeInForce, string(req.TimeInForce)) {
		return invalid("timeInForce", fmt.Sprintf("%s does not support %s", venue, req.TimeInForce))
	}
	return nil
}

// setDecimal validates value as a positive decimal and stores the
// caller's exact string. No trailing-zero stripping: venues are strict
// about tick/lot precision and "1.50" must stay "1.50" on the wire.
func setDecimal(p *params.Params, key, value string) error {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return invalid(key, fmt.Sprintf("not a decimal: %q", value))
	}
	if d.Sign() <= 0 {
		return invalid(key, "must be positive")
	}
	p.Set(key, value)
	return nil
}
