package stream

import (
	"context"
	"testing"

	"venue_go/internal/domain"
)

func TestBinanceTickerHandler_OnMessage(t *testing.T) {
	out := make(chan domain.Ticker, 1)
	h := NewBinanceTickerHandler("", []string{"BTC-USDT"}, out)

	msg := []byte(`{
		"e": "24hrTicker",
		"E": 1700000000123,
		"s": "BTCUSDT",
		"c": "60050.00",
		"b": "60049.99",
		"a": "60050.01",
		"h": "60100.00",
		"l": "59900.00",
		"v": "12.5",
		"P": "1.25"
	}`)
	h.OnMessage(context.Background(), msg)

	select {
	case tick := <-out:
		if tick.Symbol != "BTC-USDT" {
			t.Errorf("Symbol = %q, want canonical BTC-USDT", tick.Symbol)
		}
		if tick.LastPrice != "60050.00" || tick.AtMillis != 1700000000123 {
			t.Errorf("Unexpected ticker: %+v", tick)
		}
	default:
		t.Fatal("Expected a ticker on the channel")
	}
}

func TestBinanceTickerHandler_IgnoresAcksAndUnknownSymbols(t *testing.T) {
	out := make(chan domain.Ticker, 1)
	h := NewBinanceTickerHandler("", []string{"BTC-USDT"}, out)
	ctx := context.Background()

	h.OnMessage(ctx, []byte(`{"result": null, "id": 1}`))
	h.OnMessage(ctx, []byte(`{"e": "24hrTicker", "s": "ETHUSDT", "c": "3000"}`))
	h.OnMessage(ctx, []byte(`not json`))

	select {
	case tick := <-out:
		t.Fatalf("Unexpected ticker: %+v", tick)
	default:
	}
}

func TestBinanceTickerHandler_DropsWhenConsumerSlow(t *testing.T) {
	out := make(chan domain.Ticker) // unbuffered, nobody reading
	h := NewBinanceTickerHandler("", []string{"BTC-USDT"}, out)

	// Must not block.
	h.OnMessage(context.Background(), []byte(`{"e": "24hrTicker", "s": "BTCUSDT", "c": "1"}`))
}
