package domain

// Balance is one asset balance on a venue account.
type Balance struct {
	Asset  string
	Free   string
	Locked string
}

// Candle is one kline. Prices and volumes stay decimal strings as the
// venues deliver them.
type Candle struct {
	Symbol          string
	Interval        string // canonical interval label, e.g. "1m", "1d"
	OpenTimeMillis  int64
	CloseTimeMillis int64
	Open            string
	High            string
	Low             string
	Close           string
	Volume          string
	QuoteVolume     string
	TradeCount      int64
}

// Ticker is a 24h rolling market snapshot for one symbol.
type Ticker struct {
	Symbol             string
	LastPrice          string
	BidPrice           string
	AskPrice           string
	HighPrice          string
	LowPrice           string
	Volume             string
	PriceChangePercent string
	AtMillis           int64
}
