// Package coinbase implements the venue adapter for the Coinbase
// Advanced Trade REST API. Orders are JSON bodies with a typed
// order_configuration; authentication is HMAC-SHA256 hex over
// timestamp+method+path+body with the timestamp in epoch seconds.
package coinbase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/internal/normalize"
	"venue_go/internal/sign"
	"venue_go/internal/venue"
	"venue_go/pkg/params"
)

const (
	// MainnetURL is the default Coinbase Advanced Trade REST endpoint.
	MainnetURL = "https://api.coinbase.com"

	brokeragePath = "/api/v3/brokerage"
	ordersPath    = brokeragePath + "/orders"
	batchPath     = brokeragePath + "/orders/historical/batch"
	histPath      = brokeragePath + "/orders/historical/"
	cancelPath    = brokeragePath + "/orders/batch_cancel"
	productsPath  = brokeragePath + "/products/"
	accountsPath  = brokeragePath + "/accounts"

	// The venue's placeholder failure reason, present even on success.
	placeholderFailure = "UNKNOWN_FAILURE_REASON"
)

// Adapter implements venue.Adapter for Coinbase Advanced Trade.
type Adapter struct {
	baseURL string
}

// New creates a Coinbase adapter. An empty baseURL selects production.
func New(baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = MainnetURL
	}
	return &Adapter{baseURL: baseURL}
}

func (a *Adapter) Venue() enums.Venue { return enums.VenueCoinbase }

// BuildOrderRequest composes the typed order_configuration from the
// canonical bag. LIMIT_MAKER and LIMIT+GTX both lower to a GTC limit
// with post_only=true: the venue has no maker-only wire type.
func (a *Adapter) BuildOrderRequest(p *params.Params) (*venue.RequestSpec, error) {
	side, err := enums.Translate(enums.VenueCoinbase, enums.AxisSide, p.Value(normalize.KeySide))
	if err != nil {
		return nil, err
	}

	config, err := buildConfiguration(p)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"client_order_id":     p.Value(normalize.KeyClientOrderID),
		"product_id":          p.Value(normalize.KeySymbol),
		"side":                side,
		"order_configuration": config,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("coinbase: encode order body: %w", err)
	}
	return &venue.RequestSpec{Method: "POST", BaseURL: a.baseURL, Path: ordersPath, Query: params.New(), Body: raw}, nil
}

func buildConfiguration(p *params.Params) (orderConfiguration, error) {
	orderType := p.Value(normalize.KeyType)
	tif := p.Value(normalize.KeyTimeInForce)
	postOnly := orderType == string(domain.TypeLimitMaker) || tif == string(domain.TIFGoodTilCrossing)

	switch domain.OrderType(orderType) {
	case domain.TypeMarket:
		cfg := &marketConfig{}
		if v, ok := p.Get(normalize.KeyQuoteOrderQty); ok {
			cfg.QuoteSize = v
		} else {
			cfg.BaseSize = p.Value(normalize.KeyQuantity)
		}
		return orderConfiguration{MarketMarketIOC: cfg}, nil

	case domain.TypeLimit, domain.TypeLimitMaker:
		cfg := &limitConfig{
			BaseSize:   p.Value(normalize.KeyQuantity),
			LimitPrice: p.Value(normalize.KeyPrice),
			PostOnly:   postOnly,
		}
		switch domain.TimeInForce(tif) {
		case domain.TIFImmediateOrCancel:
			return orderConfiguration{SorLimitIOC: cfg}, nil
		case domain.TIFFillOrKill:
			return orderConfiguration{LimitLimitFOK: cfg}, nil
		default: // GTC, GTX, and LIMIT_MAKER's implicit lifetime
			return orderConfiguration{LimitLimitGTC: cfg}, nil
		}

	case domain.TypeStopLossLimit:
		// The venue only offers a GTC stop-limit; anything else would
		// silently change the caller's lifetime policy.
		switch domain.TimeInForce(tif) {
		case "", domain.TIFGoodTilCanceled:
		default:
			return orderConfiguration{}, fmt.Errorf("coinbase: stop-limit orders support only GTC, got %s", tif)
		}
		direction := "STOP_DIRECTION_STOP_DOWN"
		if p.Value(normalize.KeySide) == string(domain.SideBuy) {
			direction = "STOP_DIRECTION_STOP_UP"
		}
		return orderConfiguration{StopLimitStopLimitGTC: &stopLimitConfig{
			BaseSize:      p.Value(normalize.KeyQuantity),
			LimitPrice:    p.Value(normalize.KeyPrice),
			StopPrice:     p.Value(normalize.KeyStopPrice),
			StopDirection: direction,
		}}, nil
	}
	return orderConfiguration{}, fmt.Errorf("coinbase: unsupported order type %q", orderType)
}

func (a *Adapter) BuildQueryRequest(ref domain.OrderRef) (*venue.RequestSpec, error) {
	if ref.VenueOrderID == "" {
		// Historical lookup is keyed by venue id only; client-id lookup
		// goes through the batch endpoint filter.
		if ref.ClientOrderID == "" {
			return nil, fmt.Errorf("coinbase: order reference needs an order id")
		}
		q := params.New()
		q.Set("client_order_id", ref.ClientOrderID)
		return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: batchPath, Query: q}, nil
	}
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: histPath + ref.VenueOrderID, Query: params.New()}, nil
}

func (a *Adapter) BuildCancelRequest(ref domain.OrderRef) (*venue.RequestSpec, error) {
	if ref.VenueOrderID == "" {
		return nil, fmt.Errorf("coinbase: cancel needs the venue order id")
	}
	raw, err := json.Marshal(map[string]any{"order_ids": []string{ref.VenueOrderID}})
	if err != nil {
		return nil, err
	}
	return &venue.RequestSpec{Method: "POST", BaseURL: a.baseURL, Path: cancelPath, Query: params.New(), Body: raw}, nil
}

// BuildListRequest pages with the venue's opaque cursor.
func (a *Adapter) BuildListRequest(filter domain.OrderFilter, cursor string) (*venue.RequestSpec, error) {
	q := params.New()
	if filter.Symbol != "" {
		q.Set("product_id", filter.Symbol)
	}
	if filter.StartTimeMillis > 0 {
		q.Set("start_date", time.UnixMilli(filter.StartTimeMillis).UTC().Format(time.RFC3339))
	}
	if filter.EndTimeMillis > 0 {
		q.Set("end_date", time.UnixMilli(filter.EndTimeMillis).UTC().Format(time.RFC3339))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: batchPath, Query: q}, nil
}

func (a *Adapter) BuildCandlesRequest(symbol, interval string, limit int) (*venue.RequestSpec, error) {
	granularity, err := enums.Translate(enums.VenueCoinbase, enums.AxisInterval, interval)
	if err != nil {
		return nil, err
	}
	seconds, err := intervalSeconds(interval)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 300
	}
	end := time.Now().UTC()
	start := end.Add(-time.Duration(limit) * time.Duration(seconds) * time.Second)

	q := params.New()
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("granularity", granularity)
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: productsPath + symbol + "/candles", Query: q}, nil
}

func (a *Adapter) BuildTickerRequest(symbol string) (*venue.RequestSpec, error) {
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: productsPath + symbol, Query: params.New()}, nil
}

func (a *Adapter) BuildBalancesRequest() (*venue.RequestSpec, error) {
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: accountsPath, Query: params.New()}, nil
}

// Authorize sets the CB-ACCESS-* headers. The prehash is epoch seconds,
// method, path without query, then the body.
func (a *Adapter) Authorize(spec *venue.RequestSpec, creds domain.Credentials, nowMillis int64) error {
	signer, err := sign.New(creds.SecretKey)
	if err != nil {
		return err
	}
	defer signer.Wipe()

	timestamp := strconv.FormatInt(nowMillis/1000, 10)
	payload := timestamp + spec.Method + spec.Path + string(spec.Body)
	sig, err := signer.Sign(payload, sign.HMACSHA256Hex)
	if err != nil {
		return err
	}

	spec.SetHeader("CB-ACCESS-KEY", creds.APIKey)
	spec.SetHeader("CB-ACCESS-SIGN", sig)
	spec.SetHeader("CB-ACCESS-TIMESTAMP", timestamp)
	if spec.Body != nil {
		spec.SetHeader("Content-Type", "application/json")
	}
	return nil
}

// ParseOrderResponse handles the three 2xx order shapes: a create ack,
// a cancel ack, and a full historical order under "order".
func (a *Adapter) ParseOrderResponse(raw []byte) (domain.OrderResult, *domain.Classification, error) {
	var shape payloadShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return domain.OrderResult{}, nil, fmt.Errorf("coinbase: malformed order response: %w", err)
	}

	switch {
	case shape.Order != nil:
		var resp getOrderResponse
		if err := json.Unmarshal(raw, &resp); err != nil || resp.Order == nil {
			return domain.OrderResult{}, nil, fmt.Errorf("coinbase: malformed historical order: %w", err)
		}
		parsed, err := a.toParsed(*resp.Order)
		if err != nil {
			return domain.OrderResult{}, nil, err
		}
		return venue.BuildResult(parsed), nil, nil

	case shape.Results != nil:
		return a.parseCancelAck(raw)

	case shape.Success != nil:
		return a.parseCreateAck(raw)
	}
	return domain.OrderResult{}, nil, fmt.Errorf("coinbase: unrecognized order response shape")
}

func (a *Adapter) parseCreateAck(raw []byte) (domain.OrderResult, *domain.Classification, error) {
	var resp createOrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.OrderResult{}, nil, fmt.Errorf("coinbase: malformed create ack: %w", err)
	}

	if resp.Success != nil && *resp.Success {
		// failure_reason may hold the placeholder value here; it carries
		// no signal when success is true.
		orderID := resp.OrderID
		parsed := venue.ParsedOrder{Status: string(domain.StatusNew)}
		if sr := resp.SuccessResponse; sr != nil {
			if orderID == "" {
				orderID = sr.OrderID
			}
			parsed.ClientOrderID = sr.ClientOrderID
			parsed.Symbol = sr.ProductID
			parsed.Side = sr.Side
		}
		if orderID == "" {
			return domain.OrderResult{}, nil, fmt.Errorf("coinbase: create ack missing order_id")
		}
		parsed.VenueOrderID = orderID
		return venue.BuildResult(parsed), nil, nil
	}

	cls := a.classifyBody(resp.FailureReason, resp.ErrorResponse, nil)
	return domain.OrderResult{}, &cls, nil
}

func (a *Adapter) parseCancelAck(raw []byte) (domain.OrderResult, *domain.Classification, error) {
	var resp cancelOrdersResponse
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Results) == 0 {
		return domain.OrderResult{}, nil, fmt.Errorf("coinbase: malformed cancel ack: %w", err)
	}
	r := resp.Results[0]
	if !r.Success {
		cls := a.classifyBody(r.FailureReason, nil, nil)
		return domain.OrderResult{}, &cls, nil
	}
	return venue.BuildResult(venue.ParsedOrder{
		VenueOrderID: r.OrderID,
		Status:       string(domain.StatusCanceled),
	}), nil, nil
}

var statusMap = map[string]string{
	"OPEN":      string(domain.StatusNew),
	"PENDING":   string(domain.StatusNew),
	"QUEUED":    string(domain.StatusNew),
	"FILLED":    string(domain.StatusFilled),
	"CANCELLED": string(domain.StatusCanceled),
	"EXPIRED":   string(domain.StatusExpired),
	"FAILED":    string(domain.StatusRejected),
}

func (a *Adapter) toParsed(o historicalOrder) (venue.ParsedOrder, error) {
	if o.OrderID == "" {
		return venue.ParsedOrder{}, fmt.Errorf("coinbase: order missing order_id")
	}
	status, ok := statusMap[o.Status]
	if !ok {
		return venue.ParsedOrder{}, fmt.Errorf("coinbase: unknown order status %q", o.Status)
	}
	if status == string(domain.StatusNew) && decimalPositive(o.FilledSize) {
		status = string(domain.StatusPartiallyFilled)
	}

	var canonicalTIF string
	if o.TimeInForce != "" {
		if v, err := enums.ReverseTranslate(enums.VenueCoinbase, enums.AxisTimeInForce, o.TimeInForce); err == nil {
			canonicalTIF = v
		}
	}

	canonicalType, price, origQty := configDetails(o)
	created := rfc3339ToMillis(o.CreatedTime)
	updated := rfc3339ToMillis(o.LastFillTime)

	return venue.ParsedOrder{
		VenueOrderID:            o.OrderID,
		ClientOrderID:           o.ClientOrderID,
		Symbol:                  o.ProductID,
		Side:                    o.Side,
		Type:                    canonicalType,
		TimeInForce:             canonicalTIF,
		Status:                  status,
		Price:                   price,
		OrigQuantity:            origQty,
		ExecutedQuantity:        o.FilledSize,
		CumulativeQuoteQuantity: o.FilledValue,
		CreatedAtMillis:         created,
		UpdatedAtMillis:         updated,
	}, nil
}

// configDetails reads type, price, and size out of the typed
// order_configuration, falling back on the flat order_type label.
func configDetails(o historicalOrder) (orderType, price, origQty string) {
	cfg := o.OrderConfiguration
	switch {
	case cfg.MarketMarketIOC != nil:
		orderType = string(domain.TypeMarket)
		if cfg.MarketMarketIOC.BaseSize != "" {
			origQty = cfg.MarketMarketIOC.BaseSize
		} else {
			origQty = cfg.MarketMarketIOC.QuoteSize
		}
	case cfg.LimitLimitGTC != nil:
		orderType = string(domain.TypeLimit)
		if cfg.LimitLimitGTC.PostOnly {
			orderType = string(domain.TypeLimitMaker)
		}
		price = cfg.LimitLimitGTC.LimitPrice
		origQty = cfg.LimitLimitGTC.BaseSize
	case cfg.LimitLimitFOK != nil:
		orderType = string(domain.TypeLimit)
		price = cfg.LimitLimitFOK.LimitPrice
		origQty = cfg.LimitLimitFOK.BaseSize
	case cfg.SorLimitIOC != nil:
		orderType = string(domain.TypeLimit)
		price = cfg.SorLimitIOC.LimitPrice
		origQty = cfg.SorLimitIOC.BaseSize
	case cfg.StopLimitStopLimitGTC != nil:
		orderType = string(domain.TypeStopLossLimit)
		price = cfg.StopLimitStopLimitGTC.LimitPrice
		origQty = cfg.StopLimitStopLimitGTC.BaseSize
	default:
		if v, err := enums.ReverseTranslate(enums.VenueCoinbase, enums.AxisType, o.OrderType); err == nil {
			orderType = v
		}
	}
	if price == "" {
		price = o.AverageFilledPrice
	}
	return orderType, price, origQty
}

func decimalPositive(s string) bool {
	if s == "" {
		return false
	}
	d, err := decimal.NewFromString(s)
	return err == nil && d.Sign() > 0
}

// rfc3339ToMillis reduces the venue's RFC3339 timestamps to epoch
// milliseconds; callers never see venue time formats.
func rfc3339ToMillis(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// ParseListResponse exposes the venue's cursor token: non-empty only
// when has_next says another page exists. The venue flags further
// pages itself, so pageSize is unused.
func (a *Adapter) ParseListResponse(raw []byte, _ int) ([]domain.OrderResult, string, error) {
	var resp listOrdersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, "", fmt.Errorf("coinbase: malformed order list: %w", err)
	}
	results := make([]domain.OrderResult, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		parsed, err := a.toParsed(o)
		if err != nil {
			return nil, "", err
		}
		results = append(results, venue.BuildResult(parsed))
	}
	nextCursor := ""
	if resp.HasNext {
		nextCursor = resp.Cursor
	}
	return results, nextCursor, nil
}

func (a *Adapter) ParseCandlesResponse(raw []byte, symbol, interval string) ([]domain.Candle, error) {
	var resp candlesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("coinbase: malformed candles: %w", err)
	}
	seconds, err := intervalSeconds(interval)
	if err != nil {
		return nil, err
	}
	candles := make([]domain.Candle, 0, len(resp.Candles))
	for _, c := range resp.Candles {
		startSec, err := strconv.ParseInt(c.Start, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("coinbase: candle start %q: %w", c.Start, err)
		}
		candles = append(candles, domain.Candle{
			Symbol:          symbol,
			Interval:        interval,
			OpenTimeMillis:  startSec * 1000,
			CloseTimeMillis: (startSec + seconds) * 1000,
			Open:            c.Open,
			High:            c.High,
			Low:             c.Low,
			Close:           c.Close,
			Volume:          c.Volume,
		})
	}
	return candles, nil
}

func intervalSeconds(interval string) (int64, error) {
	switch interval {
	case "1m":
		return 60, nil
	case "5m":
		return 300, nil
	case "15m":
		return 900, nil
	case "30m":
		return 1800, nil
	case "1h":
		return 3600, nil
	case "2h":
		return 7200, nil
	case "6h":
		return 21600, nil
	case "1d":
		return 86400, nil
	}
	return 0, fmt.Errorf("coinbase: unsupported interval %q", interval)
}

func (a *Adapter) ParseTickerResponse(raw []byte) (domain.Ticker, error) {
	var resp productResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Ticker{}, fmt.Errorf("coinbase: malformed product response: %w", err)
	}
	if resp.ProductID == "" {
		return domain.Ticker{}, fmt.Errorf("coinbase: product response missing product_id")
	}
	return domain.Ticker{
		Symbol:             resp.ProductID,
		LastPrice:          resp.Price,
		Volume:             resp.Volume24h,
		PriceChangePercent: resp.PricePercentageChange24h,
		AtMillis:           time.Now().UnixMilli(),
	}, nil
}

func (a *Adapter) ParseBalancesResponse(raw []byte) ([]domain.Balance, error) {
	var resp accountsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("coinbase: malformed accounts response: %w", err)
	}
	balances := make([]domain.Balance, 0, len(resp.Accounts))
	for _, acct := range resp.Accounts {
		b := domain.Balance{Asset: acct.Currency, Free: acct.AvailableBalance.Value}
		if acct.Hold != nil {
			b.Locked = acct.Hold.Value
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// ParseErrorResponse handles both error nestings the venue emits:
// flat {error, message} and wrapped {error_response: {...}}. The
// nested body wins when it carries content.
func (a *Adapter) ParseErrorResponse(raw []byte, httpStatus int) domain.Classification {
	var flat struct {
		errorBody
		FailureReason string     `json:"failure_reason"`
		ErrorResponse *errorBody `json:"error_response"`
	}
	if err := json.Unmarshal(raw, &flat); err != nil {
		return domain.Classification{
			Kind:    kindFromStatus(httpStatus),
			Message: strings.TrimSpace(string(raw)),
		}
	}
	return a.classifyBody(flat.FailureReason, flat.ErrorResponse, &flat.errorBody)
}

func (a *Adapter) classifyBody(failureReason string, nested, flat *errorBody) domain.Classification {
	body := flat
	if nested != nil && (nested.Error != "" || nested.Message != "") {
		body = nested
	}

	code := failureReason
	message := failureReason
	if body != nil && body.Error != "" {
		code = body.Error
		message = body.Message
		if message == "" {
			message = body.ErrorDetails
		}
	}

	return domain.Classification{
		Kind:      kindFromCode(code),
		VenueCode: code,
		Message:   message,
	}
}

func kindFromCode(code string) domain.ErrorKind {
	switch {
	case code == "" || code == placeholderFailure:
		return domain.KindVenueRejected
	case strings.Contains(code, "UNAUTHENTICATED"),
		strings.Contains(code, "AUTHENTICATION"),
		strings.Contains(code, "PERMISSION_DENIED"):
		return domain.KindAuth
	case strings.Contains(code, "RATE_LIMIT"):
		return domain.KindRateLimit
	case strings.Contains(code, "INSUFFICIENT_FUND"):
		return domain.KindInsufficientFunds
	case strings.Contains(code, "INVALID_PRODUCT"), strings.Contains(code, "PRODUCT_NOT_FOUND"):
		return domain.KindSymbolNotFound
	case strings.Contains(code, "UNKNOWN_ORDER"),
		strings.Contains(code, "UNKNOWN_CANCEL_ORDER"),
		code == "NOT_FOUND":
		return domain.KindOrderNotFound
	default:
		return domain.KindVenueRejected
	}
}

func kindFromStatus(httpStatus int) domain.ErrorKind {
	switch {
	case httpStatus == 401 || httpStatus == 403:
		return domain.KindAuth
	case httpStatus == 429:
		return domain.KindRateLimit
	case httpStatus >= 500:
		return domain.KindTransport
	default:
		return domain.KindVenueRejected
	}
}

var _ venue.Adapter = (*Adapter)(nil)
