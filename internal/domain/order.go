package domain

// Side is the canonical order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType is the canonical execution strategy for an order.
type OrderType string

const (
	TypeLimit           OrderType = "LIMIT"
	TypeMarket          OrderType = "MARKET"
	TypeStopLoss        OrderType = "STOP_LOSS"
	TypeStopLossLimit   OrderType = "STOP_LOSS_LIMIT"
	TypeTakeProfit      OrderType = "TAKE_PROFIT"
	TypeTakeProfitLimit OrderType = "TAKE_PROFIT_LIMIT"
	TypeLimitMaker      OrderType = "LIMIT_MAKER"
)

// IsLimitFamily reports whether the type requires a limit price.
func (t OrderType) IsLimitFamily() bool {
	switch t {
	case TypeLimit, TypeLimitMaker, TypeStopLossLimit, TypeTakeProfitLimit:
		return true
	}
	return false
}

// IsTriggerFamily reports whether the type requires a stop price.
func (t OrderType) IsTriggerFamily() bool {
	switch t {
	case TypeStopLoss, TypeStopLossLimit, TypeTakeProfit, TypeTakeProfitLimit:
		return true
	}
	return false
}

// TimeInForce is the canonical order lifetime policy.
// GTX marks post-only; venues without a GTX wire value express it
// through a post-only flag or a maker-only order type.
type TimeInForce string

const (
	TIFGoodTilCanceled   TimeInForce = "GTC"
	TIFImmediateOrCancel TimeInForce = "IOC"
	TIFFillOrKill        TimeInForce = "FOK"
	TIFGoodTilCrossing   TimeInForce = "GTX"
)

// OrderStatus is the canonical order state, regardless of venue spelling.
type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusExpired         OrderStatus = "EXPIRED"
)

// IsOpen reports whether the order is still active on the venue.
func (s OrderStatus) IsOpen() bool {
	return s == StatusNew || s == StatusPartiallyFilled
}

// OrderRequest is the venue-agnostic order submission input.
// All monetary values are decimal strings; the caller owns tick/lot
// precision and the gateway never re-rounds them.
type OrderRequest struct {
	Symbol        string // venue-neutral, e.g. "BTC-USDT"
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce // required for the LIMIT family
	Quantity      string      // base asset amount
	QuoteOrderQty string      // quote asset amount, MARKET BUY alternative to Quantity
	Price         string      // required for the LIMIT family
	StopPrice     string      // required for the trigger family
	ClientOrderID string      // caller idempotency token; generated when empty
	Leverage      string

	// VenueParams carries exchange-specific extras. They are merged after
	// the canonical fields, so an explicit caller value wins.
	VenueParams map[string]string
}

// Fill is one execution of an order.
type Fill struct {
	Price           string
	Quantity        string
	Commission      string
	CommissionAsset string
	TradeID         string
}

// OrderResult is the canonical view of a venue order. It is an immutable
// value object: re-queries produce new instances.
type OrderResult struct {
	VenueOrderID            string // stringified even when the venue uses integers
	ClientOrderID           string
	Symbol                  string
	Side                    Side
	Type                    OrderType
	TimeInForce             TimeInForce
	Status                  OrderStatus
	Price                   string
	OrigQuantity            string
	ExecutedQuantity        string
	CumulativeQuoteQuantity string
	CreatedAtMillis         int64
	UpdatedAtMillis         int64
	Fills                   []Fill // venue order preserved; empty, never nil
}

// OrderRef identifies an existing order for query/cancel calls.
// Either VenueOrderID or ClientOrderID must be set; the adapter picks
// the field its venue expects.
type OrderRef struct {
	Symbol        string
	VenueOrderID  string
	ClientOrderID string
}

// OrderFilter narrows ListOrders calls.
type OrderFilter struct {
	Symbol          string
	StartTimeMillis int64
	EndTimeMillis   int64
	Limit           int
}
