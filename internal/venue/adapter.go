// Package venue defines the adapter contract every exchange
// implementation satisfies, plus the registry the gateway resolves
// adapters from. Venue selection happens by identifier tag, never by
// runtime type inspection.
package venue

import (
	"fmt"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/pkg/params"
)

// RequestSpec is one fully-built venue HTTP request, minus transport.
type RequestSpec struct {
	Method  string
	BaseURL string
	Path    string
	Query   *params.Params
	Body    []byte
	Headers map[string]string
	Public  bool // market-data request, skip signing
}

// URL renders the full request URL including the query string.
func (r *RequestSpec) URL() string {
	u := r.BaseURL + r.Path
	if r.Query != nil && r.Query.Len() > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// SetHeader adds a header, allocating the map on first use.
func (r *RequestSpec) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// Adapter is the capability set one exchange implementation provides.
// Build* methods produce requests from canonical inputs; Parse* methods
// reduce raw venue JSON to venue-neutral intermediates. Parse errors
// mean the payload shape was unrecognizable; adapters never guess
// defaults for missing required fields.
type Adapter interface {
	Venue() enums.Venue

	BuildOrderRequest(p *params.Params) (*RequestSpec, error)
	BuildQueryRequest(ref domain.OrderRef) (*RequestSpec, error)
	BuildCancelRequest(ref domain.OrderRef) (*RequestSpec, error)
	BuildListRequest(filter domain.OrderFilter, cursor string) (*RequestSpec, error)
	BuildCandlesRequest(symbol, interval string, limit int) (*RequestSpec, error)
	BuildTickerRequest(symbol string) (*RequestSpec, error)
	BuildBalancesRequest() (*RequestSpec, error)

	// Authorize signs spec in place with a fresh timestamp. The canonical
	// string ordering is this venue's own; the signer never assumes one.
	Authorize(spec *RequestSpec, creds domain.Credentials, nowMillis int64) error

	// ParseOrderResponse maps a 2xx order payload to a result, or to a
	// classification when the venue reports failure inside a 2xx body.
	ParseOrderResponse(raw []byte) (domain.OrderResult, *domain.Classification, error)

	// ParseListResponse returns one page plus the cursor for the next.
	// pageSize is the limit the originating filter requested (0 means
	// the venue default); venues without a wire-level has-more flag
	// need it to tell a full page from the final one.
	ParseListResponse(raw []byte, pageSize int) ([]domain.OrderResult, string, error)
	ParseCandlesResponse(raw []byte, symbol, interval string) ([]domain.Candle, error)
	ParseTickerResponse(raw []byte) (domain.Ticker, error)
	ParseBalancesResponse(raw []byte) ([]domain.Balance, error)

	// ParseErrorResponse classifies a non-2xx payload. It must always
	// return a usable classification, falling back on the HTTP status.
	ParseErrorResponse(raw []byte, httpStatus int) domain.Classification
}

// Registry holds adapters keyed by venue identifier.
type Registry struct {
	adapters map[enums.Venue]Adapter
}

// NewRegistry returns an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[enums.Venue]Adapter)}
}

// Register stores an adapter for its venue.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Venue()] = a
}

// Adapter resolves the adapter for the venue.
func (r *Registry) Adapter(v enums.Venue) (Adapter, error) {
	if a, ok := r.adapters[v]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("no adapter registered for venue %q", v)
}

// Venues returns the registered venue identifiers.
func (r *Registry) Venues() []enums.Venue {
	out := make([]enums.Venue, 0, len(r.adapters))
	for v := range r.adapters {
		out = append(out, v)
	}
	return out
}
