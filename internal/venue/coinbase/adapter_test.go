package coinbase

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue_go/internal/domain"
	"venue_go/internal/normalize"
	"venue_go/pkg/params"
)

func canonicalLimitBag() *params.Params {
	p := params.New()
	p.Set(normalize.KeySymbol, "BTC-USD")
	p.Set(normalize.KeySide, "BUY")
	p.Set(normalize.KeyType, "LIMIT")
	p.Set(normalize.KeyTimeInForce, "GTC")
	p.Set(normalize.KeyQuantity, "0.001")
	p.Set(normalize.KeyPrice, "60000.50")
	p.Set(normalize.KeyClientOrderID, "my-order-1")
	return p
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestBuildOrderRequestLimitGTC(t *testing.T) {
	a := New("")
	spec, err := a.BuildOrderRequest(canonicalLimitBag())
	require.NoError(t, err)

	assert.Equal(t, "POST", spec.Method)
	assert.Equal(t, "/api/v3/brokerage/orders", spec.Path)

	body := decodeBody(t, spec.Body)
	assert.Equal(t, "BTC-USD", body["product_id"])
	assert.Equal(t, "BUY", body["side"])
	assert.Equal(t, "my-order-1", body["client_order_id"])

	cfg := body["order_configuration"].(map[string]any)
	gtc := cfg["limit_limit_gtc"].(map[string]any)
	assert.Equal(t, "0.001", gtc["base_size"])
	assert.Equal(t, "60000.50", gtc["limit_price"])
	assert.NotEqual(t, true, gtc["post_only"])
}

func TestBuildOrderRequestGTXLowersToPostOnly(t *testing.T) {
	a := New("")
	p := canonicalLimitBag()
	p.Set(normalize.KeyTimeInForce, "GTX")

	spec, err := a.BuildOrderRequest(p)
	require.NoError(t, err)

	cfg := decodeBody(t, spec.Body)["order_configuration"].(map[string]any)
	gtc, ok := cfg["limit_limit_gtc"].(map[string]any)
	require.True(t, ok, "GTX becomes a GTC limit with post_only")
	assert.Equal(t, true, gtc["post_only"])
}

func TestBuildOrderRequestMarketQuoteSize(t *testing.T) {
	a := New("")
	p := params.New()
	p.Set(normalize.KeySymbol, "BTC-USD")
	p.Set(normalize.KeySide, "BUY")
	p.Set(normalize.KeyType, "MARKET")
	p.Set(normalize.KeyQuoteOrderQty, "100.00")
	p.Set(normalize.KeyClientOrderID, "m1")

	spec, err := a.BuildOrderRequest(p)
	require.NoError(t, err)

	cfg := decodeBody(t, spec.Body)["order_configuration"].(map[string]any)
	ioc := cfg["market_market_ioc"].(map[string]any)
	assert.Equal(t, "100.00", ioc["quote_size"])
	_, hasBase := ioc["base_size"]
	assert.False(t, hasBase)
}

func TestBuildOrderRequestStopLimitDirection(t *testing.T) {
	a := New("")
	p := params.New()
	p.Set(normalize.KeySymbol, "BTC-USD")
	p.Set(normalize.KeySide, "SELL")
	p.Set(normalize.KeyType, "STOP_LOSS_LIMIT")
	p.Set(normalize.KeyTimeInForce, "GTC")
	p.Set(normalize.KeyQuantity, "0.5")
	p.Set(normalize.KeyPrice, "58000")
	p.Set(normalize.KeyStopPrice, "59000")
	p.Set(normalize.KeyClientOrderID, "s1")

	spec, err := a.BuildOrderRequest(p)
	require.NoError(t, err)

	cfg := decodeBody(t, spec.Body)["order_configuration"].(map[string]any)
	stop := cfg["stop_limit_stop_limit_gtc"].(map[string]any)
	assert.Equal(t, "STOP_DIRECTION_STOP_DOWN", stop["stop_direction"])
	assert.Equal(t, "59000", stop["stop_price"])
}

func TestBuildOrderRequestStopLimitRejectsNonGTC(t *testing.T) {
	a := New("")
	for _, tif := range []string{"IOC", "FOK", "GTX"} {
		t.Run(tif, func(t *testing.T) {
			p := params.New()
			p.Set(normalize.KeySymbol, "BTC-USD")
			p.Set(normalize.KeySide, "SELL")
			p.Set(normalize.KeyType, "STOP_LOSS_LIMIT")
			p.Set(normalize.KeyTimeInForce, tif)
			p.Set(normalize.KeyQuantity, "0.5")
			p.Set(normalize.KeyPrice, "58000")
			p.Set(normalize.KeyStopPrice, "59000")
			p.Set(normalize.KeyClientOrderID, "s1")

			_, err := a.BuildOrderRequest(p)
			assert.Error(t, err, "stop-limit lifetime must not silently become GTC")
		})
	}
}

func TestAuthorizeHeaders(t *testing.T) {
	a := New("")
	spec, err := a.BuildOrderRequest(canonicalLimitBag())
	require.NoError(t, err)

	creds := domain.Credentials{APIKey: "ak", SecretKey: "sk"}
	require.NoError(t, a.Authorize(spec, creds, 1700000000123))

	assert.Equal(t, "ak", spec.Headers["CB-ACCESS-KEY"])
	assert.Equal(t, "1700000000", spec.Headers["CB-ACCESS-TIMESTAMP"], "epoch seconds, millis truncated")
	assert.Len(t, spec.Headers["CB-ACCESS-SIGN"], 64)
	assert.Equal(t, "application/json", spec.Headers["Content-Type"])

	// Same inputs, same signature.
	spec2, _ := a.BuildOrderRequest(canonicalLimitBag())
	require.NoError(t, a.Authorize(spec2, creds, 1700000000123))
	assert.Equal(t, spec.Headers["CB-ACCESS-SIGN"], spec2.Headers["CB-ACCESS-SIGN"])
}

func TestParseCreateAckSuccess(t *testing.T) {
	// The venue returns the placeholder failure_reason even on success.
	raw := []byte(`{
		"success": true,
		"failure_reason": "UNKNOWN_FAILURE_REASON",
		"order_id": "abc",
		"success_response": {
			"order_id": "abc",
			"product_id": "BTC-USD",
			"side": "BUY",
			"client_order_id": "my-order-1"
		}
	}`)

	a := New("")
	res, cls, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	require.Nil(t, cls, "placeholder failure_reason must not be treated as an error")

	assert.Equal(t, "abc", res.VenueOrderID)
	assert.Equal(t, "my-order-1", res.ClientOrderID)
	assert.Equal(t, domain.StatusNew, res.Status)
	assert.NotNil(t, res.Fills)
	assert.Empty(t, res.Fills)
}

func TestParseCreateAckMissingOrderID(t *testing.T) {
	raw := []byte(`{"success": true, "failure_reason": "UNKNOWN_FAILURE_REASON"}`)
	a := New("")
	_, _, err := a.ParseOrderResponse(raw)
	assert.Error(t, err)
}

func TestParseCreateAckFailure(t *testing.T) {
	raw := []byte(`{
		"success": false,
		"failure_reason": "UNKNOWN_FAILURE_REASON",
		"error_response": {
			"error": "INSUFFICIENT_FUND",
			"message": "Insufficient balance in source account",
			"error_details": ""
		}
	}`)

	a := New("")
	_, cls, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, cls)

	assert.Equal(t, domain.KindInsufficientFunds, cls.Kind)
	assert.Equal(t, "INSUFFICIENT_FUND", cls.VenueCode)
	assert.Equal(t, "Insufficient balance in source account", cls.Message)
}

func TestParseCancelAck(t *testing.T) {
	raw := []byte(`{"results": [{"success": true, "order_id": "abc"}]}`)
	a := New("")
	res, cls, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	require.Nil(t, cls)
	assert.Equal(t, "abc", res.VenueOrderID)
	assert.Equal(t, domain.StatusCanceled, res.Status)

	raw = []byte(`{"results": [{"success": false, "failure_reason": "UNKNOWN_CANCEL_ORDER", "order_id": "abc"}]}`)
	_, cls, err = a.ParseOrderResponse(raw)
	require.NoError(t, err)
	require.NotNil(t, cls)
	assert.Equal(t, domain.KindOrderNotFound, cls.Kind)
}

func TestParseHistoricalOrder(t *testing.T) {
	raw := []byte(`{
		"order": {
			"order_id": "abc",
			"product_id": "BTC-USD",
			"client_order_id": "my-order-1",
			"side": "BUY",
			"status": "OPEN",
			"time_in_force": "GOOD_UNTIL_CANCELLED",
			"created_time": "2021-05-31T09:59:59Z",
			"filled_size": "0",
			"filled_value": "0",
			"order_configuration": {
				"limit_limit_gtc": {
					"base_size": "0.001",
					"limit_price": "60000.50",
					"post_only": false
				}
			}
		}
	}`)

	a := New("")
	res, cls, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	require.Nil(t, cls)

	assert.Equal(t, domain.StatusNew, res.Status)
	assert.Equal(t, domain.TypeLimit, res.Type)
	assert.Equal(t, domain.TIFGoodTilCanceled, res.TimeInForce)
	assert.Equal(t, "60000.50", res.Price)
	assert.Equal(t, "0.001", res.OrigQuantity)
	assert.Equal(t, int64(1622455199000), res.CreatedAtMillis)
}

func TestParseHistoricalOrderPartialFill(t *testing.T) {
	raw := []byte(`{
		"order": {
			"order_id": "abc",
			"product_id": "BTC-USD",
			"side": "BUY",
			"status": "OPEN",
			"filled_size": "0.0004",
			"order_configuration": {
				"limit_limit_gtc": {"base_size": "0.001", "limit_price": "60000.50"}
			}
		}
	}`)
	a := New("")
	res, _, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartiallyFilled, res.Status, "OPEN with a positive fill is partially filled")
}

func TestParseHistoricalOrderPostOnlyIsLimitMaker(t *testing.T) {
	raw := []byte(`{
		"order": {
			"order_id": "abc",
			"product_id": "BTC-USD",
			"side": "BUY",
			"status": "OPEN",
			"order_configuration": {
				"limit_limit_gtc": {"base_size": "0.001", "limit_price": "60000.50", "post_only": true}
			}
		}
	}`)
	a := New("")
	res, _, err := a.ParseOrderResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeLimitMaker, res.Type)
}

func TestParseListResponseCursor(t *testing.T) {
	page := `{
		"orders": [{
			"order_id": "o1",
			"product_id": "BTC-USD",
			"side": "SELL",
			"status": "FILLED",
			"order_configuration": {"market_market_ioc": {"base_size": "1"}}
		}],
		"has_next": %s,
		"cursor": "789100"
	}`

	a := New("")
	results, cursor, err := a.ParseListResponse([]byte(strings.Replace(page, "%s", "true", 1)), 100)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "789100", cursor)

	_, cursor, err = a.ParseListResponse([]byte(strings.Replace(page, "%s", "false", 1)), 100)
	require.NoError(t, err)
	assert.Empty(t, cursor, "cursor only surfaces when has_next is set")
}

func TestParseErrorResponseNestedWins(t *testing.T) {
	a := New("")

	// Nested error_response takes precedence when non-empty.
	raw := []byte(`{
		"failure_reason": "UNKNOWN_FAILURE_REASON",
		"error_response": {"error": "PERMISSION_DENIED", "message": "missing scope"}
	}`)
	cls := a.ParseErrorResponse(raw, 403)
	assert.Equal(t, domain.KindAuth, cls.Kind)
	assert.Equal(t, "PERMISSION_DENIED", cls.VenueCode)

	// Flat shape.
	raw = []byte(`{"error": "RATE_LIMIT_EXCEEDED", "message": "too many requests"}`)
	cls = a.ParseErrorResponse(raw, 429)
	assert.Equal(t, domain.KindRateLimit, cls.Kind)

	// Unparseable body falls back on the HTTP status.
	cls = a.ParseErrorResponse([]byte("<html>"), 502)
	assert.Equal(t, domain.KindTransport, cls.Kind)
}

func TestBuildQueryRequestShapes(t *testing.T) {
	a := New("")

	spec, err := a.BuildQueryRequest(domain.OrderRef{VenueOrderID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v3/brokerage/orders/historical/abc", spec.Path)

	spec, err = a.BuildQueryRequest(domain.OrderRef{ClientOrderID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v3/brokerage/orders/historical/batch", spec.Path)
	assert.Equal(t, "c1", spec.Query.Value("client_order_id"))

	_, err = a.BuildQueryRequest(domain.OrderRef{})
	assert.Error(t, err)
}

func TestBuildCancelRequestBody(t *testing.T) {
	a := New("")
	spec, err := a.BuildCancelRequest(domain.OrderRef{VenueOrderID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v3/brokerage/orders/batch_cancel", spec.Path)

	body := decodeBody(t, spec.Body)
	ids := body["order_ids"].([]any)
	require.Len(t, ids, 1)
	assert.Equal(t, "abc", ids[0])
}

func TestParseCandlesResponse(t *testing.T) {
	raw := []byte(`{"candles": [
		{"start": "1700000000", "open": "60000", "high": "60100", "low": "59900", "close": "60050", "volume": "12.5"}
	]}`)
	a := New("")
	candles, err := a.ParseCandlesResponse(raw, "BTC-USD", "1h")
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1700000000000), candles[0].OpenTimeMillis)
	assert.Equal(t, int64(1700003600000), candles[0].CloseTimeMillis, "close time derived from granularity")
	assert.Equal(t, "60050", candles[0].Close)
}

func TestParseBalancesResponse(t *testing.T) {
	raw := []byte(`{"accounts": [
		{"currency": "BTC", "available_balance": {"value": "1.5", "currency": "BTC"}, "hold": {"value": "0.5", "currency": "BTC"}},
		{"currency": "USD", "available_balance": {"value": "100", "currency": "USD"}}
	]}`)
	a := New("")
	balances, err := a.ParseBalancesResponse(raw)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, domain.Balance{Asset: "BTC", Free: "1.5", Locked: "0.5"}, balances[0])
	assert.Equal(t, "", balances[1].Locked)
}
