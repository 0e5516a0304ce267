package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"venue_go/internal/domain"
)

// BinanceWSURL is the default Binance spot websocket endpoint.
const BinanceWSURL = "wss://stream.binance.com:9443/ws"

// BinanceTickerHandler subscribes to 24h ticker events and republishes
// them as venue-neutral snapshots. Symbols are the canonical dashed
// form; the wire uses them lowercased and concatenated.
type BinanceTickerHandler struct {
	url       string
	canonical map[string]string // wire symbol -> canonical symbol
	streams   []string
	out       chan<- domain.Ticker
}

// NewBinanceTickerHandler creates a handler feeding out. An empty url
// selects the production endpoint. The out channel is never closed by
// the handler; slow consumers drop updates rather than stall the read
// loop.
func NewBinanceTickerHandler(url string, symbols []string, out chan<- domain.Ticker) *BinanceTickerHandler {
	if url == "" {
		url = BinanceWSURL
	}
	h := &BinanceTickerHandler{
		url:       url,
		canonical: make(map[string]string, len(symbols)),
		out:       out,
	}
	for _, s := range symbols {
		wire := strings.ReplaceAll(s, "-", "")
		h.canonical[wire] = s
		h.streams = append(h.streams, strings.ToLower(wire)+"@ticker")
	}
	return h
}

func (h *BinanceTickerHandler) URL() string { return h.url }
func (h *BinanceTickerHandler) ID() string  { return "binance-ticker" }

func (h *BinanceTickerHandler) OnConnect(_ context.Context, conn *websocket.Conn) error {
	sub := map[string]any{
		"method": "SUBSCRIBE",
		"params": h.streams,
		"id":     1,
	}
	return conn.WriteJSON(sub)
}

// tickerEvent is the 24hrTicker stream payload.
type tickerEvent struct {
	EventType          string `json:"e"`
	EventTimeMillis    int64  `json:"E"`
	Symbol             string `json:"s"`
	LastPrice          string `json:"c"`
	BidPrice           string `json:"b"`
	AskPrice           string `json:"a"`
	HighPrice          string `json:"h"`
	LowPrice           string `json:"l"`
	Volume             string `json:"v"`
	PriceChangePercent string `json:"P"`
}

func (h *BinanceTickerHandler) OnMessage(_ context.Context, msg []byte) {
	var ev tickerEvent
	if err := json.Unmarshal(msg, &ev); err != nil || ev.EventType != "24hrTicker" {
		// Subscription acks and unrelated events land here too.
		return
	}

	symbol, ok := h.canonical[ev.Symbol]
	if !ok {
		slog.Debug("ticker for unsubscribed symbol", "symbol", ev.Symbol)
		return
	}

	t := domain.Ticker{
		Symbol:             symbol,
		LastPrice:          ev.LastPrice,
		BidPrice:           ev.BidPrice,
		AskPrice:           ev.AskPrice,
		HighPrice:          ev.HighPrice,
		LowPrice:           ev.LowPrice,
		Volume:             ev.Volume,
		PriceChangePercent: ev.PriceChangePercent,
		AtMillis:           ev.EventTimeMillis,
	}

	select {
	case h.out <- t:
	default:
		// Drop rather than block the read loop.
	}
}

func (h *BinanceTickerHandler) OnPing(_ context.Context, conn *websocket.Conn) error {
	// The venue pings the client; answering control frames is handled
	// by gorilla. A pong here keeps intermediaries from idling out.
	return conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(10*time.Second))
}
