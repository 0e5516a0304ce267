package coinbase

import "encoding/json"

// Wire structures for the Coinbase Advanced Trade REST API. Everything
// is snake_case; monetary values are strings and timestamps RFC3339.

// createOrderResponse covers POST /orders. A successful placement may
// still carry the placeholder failure_reason "UNKNOWN_FAILURE_REASON",
// which is meaningless when success is true.
type createOrderResponse struct {
	Success         *bool            `json:"success"`
	FailureReason   string           `json:"failure_reason"`
	OrderID         string           `json:"order_id"`
	SuccessResponse *successResponse `json:"success_response"`
	ErrorResponse   *errorBody       `json:"error_response"`
}

type successResponse struct {
	OrderID       string `json:"order_id"`
	ProductID     string `json:"product_id"`
	Side          string `json:"side"`
	ClientOrderID string `json:"client_order_id"`
}

// errorBody appears both flat at the top level and nested under
// error_response, depending on the endpoint.
type errorBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	ErrorDetails string `json:"error_details"`
}

type getOrderResponse struct {
	Order *historicalOrder `json:"order"`
}

type listOrdersResponse struct {
	Orders  []historicalOrder `json:"orders"`
	HasNext bool              `json:"has_next"`
	Cursor  string            `json:"cursor"`
}

type historicalOrder struct {
	OrderID            string             `json:"order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	ClientOrderID      string             `json:"client_order_id"`
	Status             string             `json:"status"`
	TimeInForce        string             `json:"time_in_force"`
	CreatedTime        string             `json:"created_time"`
	LastFillTime       string             `json:"last_fill_time"`
	FilledSize         string             `json:"filled_size"`
	AverageFilledPrice string             `json:"average_filled_price"`
	FilledValue        string             `json:"filled_value"`
	OrderType          string             `json:"order_type"`
	OrderConfiguration orderConfiguration `json:"order_configuration"`
}

type orderConfiguration struct {
	MarketMarketIOC       *marketConfig    `json:"market_market_ioc"`
	SorLimitIOC           *limitConfig     `json:"sor_limit_ioc"`
	LimitLimitGTC         *limitConfig     `json:"limit_limit_gtc"`
	LimitLimitFOK         *limitConfig     `json:"limit_limit_fok"`
	StopLimitStopLimitGTC *stopLimitConfig `json:"stop_limit_stop_limit_gtc"`
}

type marketConfig struct {
	QuoteSize string `json:"quote_size,omitempty"`
	BaseSize  string `json:"base_size,omitempty"`
}

type limitConfig struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price"`
	PostOnly   bool   `json:"post_only,omitempty"`
}

type stopLimitConfig struct {
	BaseSize      string `json:"base_size"`
	LimitPrice    string `json:"limit_price"`
	StopPrice     string `json:"stop_price"`
	StopDirection string `json:"stop_direction"`
}

type cancelOrdersResponse struct {
	Results []cancelResult `json:"results"`
}

type cancelResult struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason"`
	OrderID       string `json:"order_id"`
}

type candlesResponse struct {
	Candles []candle `json:"candles"`
}

type candle struct {
	Start  string `json:"start"` // unix seconds as a string
	Low    string `json:"low"`
	High   string `json:"high"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type productResponse struct {
	ProductID                string `json:"product_id"`
	Price                    string `json:"price"`
	PricePercentageChange24h string `json:"price_percentage_change_24h"`
	Volume24h                string `json:"volume_24h"`
}

type accountsResponse struct {
	Accounts []account `json:"accounts"`
	HasNext  bool      `json:"has_next"`
	Cursor   string    `json:"cursor"`
}

type account struct {
	UUID             string       `json:"uuid"`
	Currency         string       `json:"currency"`
	AvailableBalance moneyAmount  `json:"available_balance"`
	Hold             *moneyAmount `json:"hold"`
}

type moneyAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// payloadShape sniffs which of the three 2xx order payload shapes arrived.
type payloadShape struct {
	Order   json.RawMessage `json:"order"`
	Results json.RawMessage `json:"results"`
	Success *bool           `json:"success"`
}
