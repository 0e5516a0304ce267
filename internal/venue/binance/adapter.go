// Package binance implements the venue adapter for the Binance spot
// REST API. Signed requests carry all parameters in the query string;
// the signature is HMAC-SHA256 hex over the insertion-ordered canonical
// query, appended as the final parameter.
package binance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/internal/normalize"
	"venue_go/internal/sign"
	"venue_go/internal/venue"
	"venue_go/pkg/params"
)

const (
	// MainnetURL is the default Binance spot REST endpoint.
	MainnetURL = "https://api.binance.com"

	orderPath     = "/api/v3/order"
	allOrdersPath = "/api/v3/allOrders"
	klinesPath    = "/api/v3/klines"
	tickerPath    = "/api/v3/ticker/24hr"
	accountPath   = "/api/v3/account"

	defaultRecvWindow = "5000"
	defaultPageSize   = 500
)

// Adapter implements venue.Adapter for Binance spot.
type Adapter struct {
	baseURL string
}

// New creates a Binance adapter. An empty baseURL selects mainnet.
func New(baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = MainnetURL
	}
	return &Adapter{baseURL: baseURL}
}

func (a *Adapter) Venue() enums.Venue { return enums.VenueBinance }

// wireSymbol lowers the canonical dashed symbol ("BTC-USDT") to the
// concatenated Binance form ("BTCUSDT").
func wireSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "-", "")
}

// BuildOrderRequest lowers the canonical parameter bag into the Binance
// order submission query. LIMIT+GTX composes into the LIMIT_MAKER type,
// since spot has no GTX wire value.
func (a *Adapter) BuildOrderRequest(p *params.Params) (*venue.RequestSpec, error) {
	q := params.New()
	q.Set("symbol", wireSymbol(p.Value(normalize.KeySymbol)))

	side, err := enums.Translate(enums.VenueBinance, enums.AxisSide, p.Value(normalize.KeySide))
	if err != nil {
		return nil, err
	}
	q.Set("side", side)

	orderType := p.Value(normalize.KeyType)
	tif := p.Value(normalize.KeyTimeInForce)
	if orderType == string(domain.TypeLimit) && tif == string(domain.TIFGoodTilCrossing) {
		orderType = string(domain.TypeLimitMaker)
		tif = ""
	}
	wireType, err := enums.Translate(enums.VenueBinance, enums.AxisType, orderType)
	if err != nil {
		return nil, err
	}
	q.Set("type", wireType)

	if tif != "" && orderType != string(domain.TypeLimitMaker) {
		wireTIF, err := enums.Translate(enums.VenueBinance, enums.AxisTimeInForce, tif)
		if err != nil {
			return nil, err
		}
		q.Set("timeInForce", wireTIF)
	}

	copyIfSet(p, q, normalize.KeyQuantity, "quantity")
	copyIfSet(p, q, normalize.KeyQuoteOrderQty, "quoteOrderQty")
	copyIfSet(p, q, normalize.KeyPrice, "price")
	copyIfSet(p, q, normalize.KeyStopPrice, "stopPrice")
	copyIfSet(p, q, normalize.KeyClientOrderID, "newClientOrderId")

	// Pass venue extras through untouched.
	for _, pair := range p.Pairs() {
		if isCanonicalKey(pair.Key) {
			continue
		}
		q.Set(pair.Key, pair.Value)
	}

	// FULL response type returns fills on immediately-matched orders.
	q.SetIfAbsent("newOrderRespType", "FULL")

	return &venue.RequestSpec{Method: "POST", BaseURL: a.baseURL, Path: orderPath, Query: q}, nil
}

func isCanonicalKey(key string) bool {
	switch key {
	case normalize.KeySymbol, normalize.KeySide, normalize.KeyType,
		normalize.KeyTimeInForce, normalize.KeyQuantity, normalize.KeyQuoteOrderQty,
		normalize.KeyPrice, normalize.KeyStopPrice, normalize.KeyClientOrderID,
		normalize.KeyLeverage:
		return true
	}
	return false
}

func copyIfSet(src, dst *params.Params, from, to string) {
	if v, ok := src.Get(from); ok {
		dst.Set(to, v)
	}
}

func refQuery(ref domain.OrderRef) (*params.Params, error) {
	if ref.Symbol == "" {
		return nil, fmt.Errorf("binance: order reference needs a symbol")
	}
	q := params.New()
	q.Set("symbol", wireSymbol(ref.Symbol))
	switch {
	case ref.VenueOrderID != "":
		q.Set("orderId", ref.VenueOrderID)
	case ref.ClientOrderID != "":
		q.Set("origClientOrderId", ref.ClientOrderID)
	default:
		return nil, fmt.Errorf("binance: order reference needs an order id or client order id")
	}
	return q, nil
}

func (a *Adapter) BuildQueryRequest(ref domain.OrderRef) (*venue.RequestSpec, error) {
	q, err := refQuery(ref)
	if err != nil {
		return nil, err
	}
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: orderPath, Query: q}, nil
}

func (a *Adapter) BuildCancelRequest(ref domain.OrderRef) (*venue.RequestSpec, error) {
	q, err := refQuery(ref)
	if err != nil {
		return nil, err
	}
	return &venue.RequestSpec{Method: "DELETE", BaseURL: a.baseURL, Path: orderPath, Query: q}, nil
}

// BuildListRequest pages with the venue's fromId mechanism: the cursor
// is the next orderId to fetch from.
func (a *Adapter) BuildListRequest(filter domain.OrderFilter, cursor string) (*venue.RequestSpec, error) {
	if filter.Symbol == "" {
		return nil, fmt.Errorf("binance: list requires a symbol")
	}
	q := params.New()
	q.Set("symbol", wireSymbol(filter.Symbol))
	if cursor != "" {
		if _, err := strconv.ParseInt(cursor, 10, 64); err != nil {
			return nil, fmt.Errorf("binance: malformed cursor %q", cursor)
		}
		q.Set("orderId", cursor)
	}
	if filter.StartTimeMillis > 0 {
		q.Set("startTime", strconv.FormatInt(filter.StartTimeMillis, 10))
	}
	if filter.EndTimeMillis > 0 {
		q.Set("endTime", strconv.FormatInt(filter.EndTimeMillis, 10))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: allOrdersPath, Query: q}, nil
}

func (a *Adapter) BuildCandlesRequest(symbol, interval string, limit int) (*venue.RequestSpec, error) {
	wireInterval, err := enums.Translate(enums.VenueBinance, enums.AxisInterval, interval)
	if err != nil {
		return nil, err
	}
	q := params.New()
	q.Set("symbol", wireSymbol(symbol))
	q.Set("interval", wireInterval)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: klinesPath, Query: q, Public: true}, nil
}

func (a *Adapter) BuildTickerRequest(symbol string) (*venue.RequestSpec, error) {
	q := params.New()
	q.Set("symbol", wireSymbol(symbol))
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: tickerPath, Query: q, Public: true}, nil
}

func (a *Adapter) BuildBalancesRequest() (*venue.RequestSpec, error) {
	return &venue.RequestSpec{Method: "GET", BaseURL: a.baseURL, Path: accountPath, Query: params.New()}, nil
}

// Authorize signs the request query: timestamp and recvWindow join the
// parameters, then the HMAC-SHA256 hex signature of the encoded query
// string is appended last. Market-data requests pass through unsigned.
func (a *Adapter) Authorize(spec *venue.RequestSpec, creds domain.Credentials, nowMillis int64) error {
	if spec.Public {
		return nil
	}

	signer, err := sign.New(creds.SecretKey)
	if err != nil {
		return err
	}
	defer signer.Wipe()

	// A retry re-signs the same spec; the stale signature must not be
	// part of the new canonical string.
	spec.Query.Delete("signature")
	spec.Query.Set("timestamp", strconv.FormatInt(nowMillis, 10))
	spec.Query.SetIfAbsent("recvWindow", defaultRecvWindow)

	sig, err := signer.Sign(spec.Query.Encode(), sign.HMACSHA256Hex)
	if err != nil {
		return err
	}
	spec.Query.Set("signature", sig)
	spec.SetHeader("X-MBX-APIKEY", creds.APIKey)
	return nil
}

var statusMap = map[string]string{
	"NEW":              string(domain.StatusNew),
	"PARTIALLY_FILLED": string(domain.StatusPartiallyFilled),
	"FILLED":           string(domain.StatusFilled),
	"CANCELED":         string(domain.StatusCanceled),
	"PENDING_CANCEL":   string(domain.StatusCanceled),
	"REJECTED":         string(domain.StatusRejected),
	"EXPIRED":          string(domain.StatusExpired),
	"EXPIRED_IN_MATCH": string(domain.StatusExpired),
}

// ParseOrderResponse reduces a submit/query/cancel payload. The numeric
// orderId is stringified; a missing fills array becomes an empty slice.
func (a *Adapter) ParseOrderResponse(raw []byte) (domain.OrderResult, *domain.Classification, error) {
	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.OrderResult{}, nil, fmt.Errorf("binance: malformed order response: %w", err)
	}
	parsed, err := a.toParsed(resp)
	if err != nil {
		return domain.OrderResult{}, nil, err
	}
	return venue.BuildResult(parsed), nil, nil
}

func (a *Adapter) toParsed(resp orderResponse) (venue.ParsedOrder, error) {
	if resp.Symbol == "" && resp.OrderID == 0 && resp.Status == "" {
		return venue.ParsedOrder{}, fmt.Errorf("binance: order response missing required fields")
	}
	status, ok := statusMap[resp.Status]
	if !ok {
		return venue.ParsedOrder{}, fmt.Errorf("binance: unknown order status %q", resp.Status)
	}

	var canonicalTIF string
	if resp.TimeInForce != "" {
		if v, err := enums.ReverseTranslate(enums.VenueBinance, enums.AxisTimeInForce, resp.TimeInForce); err == nil {
			canonicalTIF = v
		}
	}
	canonicalType, err := enums.ReverseTranslate(enums.VenueBinance, enums.AxisType, resp.Type)
	if err != nil {
		return venue.ParsedOrder{}, fmt.Errorf("binance: unknown order type %q", resp.Type)
	}

	created := resp.Time
	if created == 0 {
		created = resp.TransactTime
	}
	updated := resp.UpdateTime
	if updated == 0 {
		updated = resp.TransactTime
	}

	fills := make([]domain.Fill, 0, len(resp.Fills))
	for _, f := range resp.Fills {
		fills = append(fills, domain.Fill{
			Price:           f.Price,
			Quantity:        f.Qty,
			Commission:      f.Commission,
			CommissionAsset: f.CommissionAsset,
			TradeID:         strconv.FormatInt(f.TradeID, 10),
		})
	}

	clientID := resp.ClientOrderID
	if clientID == "" {
		clientID = resp.OrigClientOrderID
	}

	return venue.ParsedOrder{
		VenueOrderID:            strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID:           clientID,
		Symbol:                  resp.Symbol,
		Side:                    resp.Side,
		Type:                    canonicalType,
		TimeInForce:             canonicalTIF,
		Status:                  status,
		Price:                   resp.Price,
		OrigQuantity:            resp.OrigQty,
		ExecutedQuantity:        resp.ExecutedQty,
		CumulativeQuoteQuantity: resp.CummulativeQuoteQty,
		CreatedAtMillis:         created,
		UpdatedAtMillis:         updated,
		Fills:                   fills,
	}, nil
}

// ParseListResponse pages by orderId: when the venue filled the
// requested page, the next cursor is the last order id plus one. The
// venue has no has-more flag, so a full page is the only signal.
func (a *Adapter) ParseListResponse(raw []byte, pageSize int) ([]domain.OrderResult, string, error) {
	var resp []orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, "", fmt.Errorf("binance: malformed order list: %w", err)
	}
	results := make([]domain.OrderResult, 0, len(resp))
	var lastID int64
	for _, r := range resp {
		parsed, err := a.toParsed(r)
		if err != nil {
			return nil, "", err
		}
		results = append(results, venue.BuildResult(parsed))
		lastID = r.OrderID
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	nextCursor := ""
	if len(resp) >= pageSize {
		nextCursor = strconv.FormatInt(lastID+1, 10)
	}
	return results, nextCursor, nil
}

// ParseCandlesResponse decodes the positional kline arrays.
func (a *Adapter) ParseCandlesResponse(raw []byte, symbol, interval string) ([]domain.Candle, error) {
	var rows [][]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("binance: malformed klines: %w", err)
	}
	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 9 {
			return nil, fmt.Errorf("binance: kline row too short: %d fields", len(row))
		}
		c := domain.Candle{
			Symbol:          symbol,
			Interval:        interval,
			OpenTimeMillis:  asInt64(row[0]),
			Open:            asString(row[1]),
			High:            asString(row[2]),
			Low:             asString(row[3]),
			Close:           asString(row[4]),
			Volume:          asString(row[5]),
			CloseTimeMillis: asInt64(row[6]),
			QuoteVolume:     asString(row[7]),
			TradeCount:      asInt64(row[8]),
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (a *Adapter) ParseTickerResponse(raw []byte) (domain.Ticker, error) {
	var resp ticker24h
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Ticker{}, fmt.Errorf("binance: malformed ticker: %w", err)
	}
	if resp.Symbol == "" {
		return domain.Ticker{}, fmt.Errorf("binance: ticker missing symbol")
	}
	return domain.Ticker{
		Symbol:             resp.Symbol,
		LastPrice:          resp.LastPrice,
		BidPrice:           resp.BidPrice,
		AskPrice:           resp.AskPrice,
		HighPrice:          resp.HighPrice,
		LowPrice:           resp.LowPrice,
		Volume:             resp.Volume,
		PriceChangePercent: resp.PriceChangePercent,
		AtMillis:           resp.CloseTime,
	}, nil
}

func (a *Adapter) ParseBalancesResponse(raw []byte) ([]domain.Balance, error) {
	var resp accountResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("binance: malformed account response: %w", err)
	}
	balances := make([]domain.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		balances = append(balances, domain.Balance{Asset: b.Asset, Free: b.Free, Locked: b.Locked})
	}
	return balances, nil
}

// ParseErrorResponse classifies a non-2xx payload by the venue error
// code, falling back on the HTTP status for unrecognized codes.
func (a *Adapter) ParseErrorResponse(raw []byte, httpStatus int) domain.Classification {
	var resp errorResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Code == 0 {
		return domain.Classification{
			Kind:    kindFromStatus(httpStatus),
			Message: strings.TrimSpace(string(raw)),
		}
	}

	cls := domain.Classification{
		VenueCode: strconv.FormatInt(resp.Code, 10),
		Message:   resp.Msg,
	}
	switch resp.Code {
	case -1003:
		cls.Kind = domain.KindRateLimit
	case -1022, -2014, -2015:
		cls.Kind = domain.KindAuth
	case -1121, -1100:
		cls.Kind = domain.KindSymbolNotFound
	case -2013:
		cls.Kind = domain.KindOrderNotFound
	case -2011:
		// Cancel rejected: the venue answers this for unknown orders.
		if strings.Contains(strings.ToLower(resp.Msg), "unknown order") {
			cls.Kind = domain.KindOrderNotFound
		} else {
			cls.Kind = domain.KindVenueRejected
		}
	case -2010:
		if strings.Contains(strings.ToLower(resp.Msg), "insufficient balance") {
			cls.Kind = domain.KindInsufficientFunds
		} else {
			cls.Kind = domain.KindVenueRejected
		}
	default:
		cls.Kind = kindFromStatus(httpStatus)
	}
	return cls
}

func kindFromStatus(httpStatus int) domain.ErrorKind {
	switch {
	case httpStatus == 401 || httpStatus == 403:
		return domain.KindAuth
	case httpStatus == 418 || httpStatus == 429:
		return domain.KindRateLimit
	case httpStatus >= 500:
		return domain.KindTransport
	default:
		return domain.KindVenueRejected
	}
}

var _ venue.Adapter = (*Adapter)(nil)
