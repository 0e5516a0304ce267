// Package gateway orchestrates order flow against the registered
// venues: canonical requests are normalized, lowered by the venue
// adapter, signed, sent, and the response reduced back to the
// venue-neutral result. All venue failures surface as *domain.Error;
// this package is the only place those are constructed.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"venue_go/internal/domain"
	"venue_go/internal/enums"
	"venue_go/internal/infra"
	"venue_go/internal/normalize"
	"venue_go/internal/sign"
	"venue_go/internal/venue"
	"venue_go/pkg/idempotency"
)

// CredentialsProvider hands out venue credentials for a single call.
// The gateway never retains the returned value beyond the request.
type CredentialsProvider interface {
	Credentials(v enums.Venue) (domain.Credentials, error)
}

// OrderJournal persists order results as they are observed. Journal
// failures never fail the order path.
type OrderJournal interface {
	Record(ctx context.Context, v enums.Venue, res domain.OrderResult) error
}

// Config wires a Gateway together.
type Config struct {
	Registry    *venue.Registry
	Executor    HTTPExecutor
	Credentials CredentialsProvider
	Logger      *slog.Logger

	// RateLimits overrides requests-per-second per venue; venues not
	// listed use DefaultRateLimit.
	RateLimits       map[enums.Venue]float64
	DefaultRateLimit float64

	BreakerFailures int
	BreakerCooldown time.Duration

	// IdempotencyTTL bounds how long a submit result answers repeats
	// of the same client order id. Zero disables replay protection.
	IdempotencyTTL time.Duration

	// MaxRetries applies to read operations only. Order mutations are
	// sent exactly once.
	MaxRetries int

	Journal OrderJournal

	// Now is the millisecond clock used for signing; nil means wall
	// clock. Tests substitute a fixed one.
	Now func() int64
}

// Gateway routes canonical operations to venue adapters.
type Gateway struct {
	registry *venue.Registry
	exec     HTTPExecutor
	creds    CredentialsProvider
	logger   *slog.Logger

	limiters map[enums.Venue]*rate.Limiter
	breakers map[enums.Venue]*infra.CircuitBreaker
	recent   *idempotency.Cache
	journal  OrderJournal

	maxRetries int
	now        func() int64
}

// New builds a Gateway from the config, constructing per-venue rate
// limiters and circuit breakers for every registered venue.
func New(cfg Config) (*Gateway, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("gateway: registry is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("gateway: executor is required")
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("gateway: credentials provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultRateLimit <= 0 {
		cfg.DefaultRateLimit = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Now == nil {
		cfg.Now = sign.NowMillis
	}

	g := &Gateway{
		registry:   cfg.Registry,
		exec:       cfg.Executor,
		creds:      cfg.Credentials,
		logger:     cfg.Logger,
		limiters:   make(map[enums.Venue]*rate.Limiter),
		breakers:   make(map[enums.Venue]*infra.CircuitBreaker),
		journal:    cfg.Journal,
		maxRetries: cfg.MaxRetries,
		now:        cfg.Now,
	}
	if cfg.IdempotencyTTL > 0 {
		g.recent = idempotency.New(cfg.IdempotencyTTL)
	}

	for _, v := range cfg.Registry.Venues() {
		rps := cfg.DefaultRateLimit
		if override, ok := cfg.RateLimits[v]; ok && override > 0 {
			rps = override
		}
		g.limiters[v] = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		g.breakers[v] = infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
			Name:             string(v),
			FailureThreshold: cfg.BreakerFailures,
			Cooldown:         cfg.BreakerCooldown,
		})
	}
	return g, nil
}

// SubmitOrder places a canonical order on the venue. A repeated submit
// with the same client order id inside the idempotency window returns
// the original result without touching the venue.
func (g *Gateway) SubmitOrder(ctx context.Context, v enums.Venue, req domain.OrderRequest) (domain.OrderResult, error) {
	if req.ClientOrderID != "" {
		if res, ok := g.recent.Get(idemKey(v, req.ClientOrderID)); ok {
			g.logger.Info("order replayed from idempotency cache",
				slog.String("venue", string(v)),
				slog.String("client_order_id", req.ClientOrderID))
			return res, nil
		}
	}

	a, err := g.registry.Adapter(v)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}

	bag, err := normalize.Order(req, v)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}
	clientOrderID := bag.Value(normalize.KeyClientOrderID)

	spec, err := a.BuildOrderRequest(bag)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, true)
	if derr != nil {
		return domain.OrderResult{}, derr
	}

	res, cls, err := a.ParseOrderResponse(resp.Body)
	if err != nil {
		return domain.OrderResult{}, g.parseError(v, err, resp.Body)
	}
	if cls != nil {
		return domain.OrderResult{}, venueError(*cls)
	}
	if res.ClientOrderID == "" {
		res.ClientOrderID = clientOrderID
	}

	g.recent.Set(idemKey(v, clientOrderID), res)
	g.journalRecord(ctx, v, res)

	g.logger.Info("order submitted",
		slog.String("venue", string(v)),
		slog.String("symbol", req.Symbol),
		slog.String("venue_order_id", res.VenueOrderID),
		slog.String("status", string(res.Status)))
	return res, nil
}

// QueryOrder fetches the current state of an order.
func (g *Gateway) QueryOrder(ctx context.Context, v enums.Venue, ref domain.OrderRef) (domain.OrderResult, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}
	spec, err := a.BuildQueryRequest(ref)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, false)
	if derr != nil {
		return domain.OrderResult{}, derr
	}

	res, cls, err := a.ParseOrderResponse(resp.Body)
	if err != nil {
		return domain.OrderResult{}, g.parseError(v, err, resp.Body)
	}
	if cls != nil {
		return domain.OrderResult{}, venueError(*cls)
	}
	g.journalRecord(ctx, v, res)
	return res, nil
}

// CancelOrder cancels an open order. Like submit, it is sent exactly
// once: a transport error leaves the order state unknown and the
// caller re-queries rather than the gateway re-firing the cancel.
func (g *Gateway) CancelOrder(ctx context.Context, v enums.Venue, ref domain.OrderRef) (domain.OrderResult, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}
	spec, err := a.BuildCancelRequest(ref)
	if err != nil {
		return domain.OrderResult{}, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, true)
	if derr != nil {
		return domain.OrderResult{}, derr
	}

	res, cls, err := a.ParseOrderResponse(resp.Body)
	if err != nil {
		return domain.OrderResult{}, g.parseError(v, err, resp.Body)
	}
	if cls != nil {
		return domain.OrderResult{}, venueError(*cls)
	}
	g.journalRecord(ctx, v, res)

	g.logger.Info("order canceled",
		slog.String("venue", string(v)),
		slog.String("venue_order_id", res.VenueOrderID))
	return res, nil
}

// ListOrders returns one page of orders plus the cursor for the next
// page; an empty cursor means no further pages.
func (g *Gateway) ListOrders(ctx context.Context, v enums.Venue, filter domain.OrderFilter, cursor string) ([]domain.OrderResult, string, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return nil, "", validationError(err)
	}
	spec, err := a.BuildListRequest(filter, cursor)
	if err != nil {
		return nil, "", validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, false)
	if derr != nil {
		return nil, "", derr
	}

	results, next, err := a.ParseListResponse(resp.Body, filter.Limit)
	if err != nil {
		return nil, "", g.parseError(v, err, resp.Body)
	}
	return results, next, nil
}

// Candles fetches recent candles for a symbol.
func (g *Gateway) Candles(ctx context.Context, v enums.Venue, symbol, interval string, limit int) ([]domain.Candle, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return nil, validationError(err)
	}
	spec, err := a.BuildCandlesRequest(symbol, interval, limit)
	if err != nil {
		return nil, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, false)
	if derr != nil {
		return nil, derr
	}
	candles, err := a.ParseCandlesResponse(resp.Body, symbol, interval)
	if err != nil {
		return nil, g.parseError(v, err, resp.Body)
	}
	return candles, nil
}

// Ticker fetches the latest market snapshot for a symbol.
func (g *Gateway) Ticker(ctx context.Context, v enums.Venue, symbol string) (domain.Ticker, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return domain.Ticker{}, validationError(err)
	}
	spec, err := a.BuildTickerRequest(symbol)
	if err != nil {
		return domain.Ticker{}, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, false)
	if derr != nil {
		return domain.Ticker{}, derr
	}
	ticker, err := a.ParseTickerResponse(resp.Body)
	if err != nil {
		return domain.Ticker{}, g.parseError(v, err, resp.Body)
	}
	return ticker, nil
}

// Balances fetches the account balances.
func (g *Gateway) Balances(ctx context.Context, v enums.Venue) ([]domain.Balance, error) {
	a, err := g.registry.Adapter(v)
	if err != nil {
		return nil, validationError(err)
	}
	spec, err := a.BuildBalancesRequest()
	if err != nil {
		return nil, validationError(err)
	}

	resp, derr := g.send(ctx, v, a, spec, false)
	if derr != nil {
		return nil, derr
	}
	balances, err := a.ParseBalancesResponse(resp.Body)
	if err != nil {
		return nil, g.parseError(v, err, resp.Body)
	}
	return balances, nil
}

// send runs the transport phases for one request: rate limit, breaker
// check, sign, execute, classify. Read requests retry on retryable
// failures with exponential backoff; mutating requests go out once.
func (g *Gateway) send(ctx context.Context, v enums.Venue, a venue.Adapter, spec *venue.RequestSpec, mutating bool) (*HTTPResponse, *domain.Error) {
	limiter := g.limiters[v]
	breaker := g.breakers[v]

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, transportError(v, err)
		}
	}
	if breaker != nil && !breaker.Allow() {
		return nil, &domain.Error{
			Kind:    domain.KindTransport,
			Message: fmt.Sprintf("venue %s circuit open", v),
		}
	}

	attempt := func() (*HTTPResponse, *domain.Error) {
		// Re-sign on every attempt so the timestamp stays fresh.
		creds, err := g.creds.Credentials(v)
		if err != nil {
			return nil, &domain.Error{Kind: domain.KindAuth, Message: err.Error(), Err: err}
		}
		if !spec.Public && !creds.HasSecret() {
			return nil, &domain.Error{
				Kind:    domain.KindAuth,
				Message: fmt.Sprintf("no credentials configured for venue %s", v),
			}
		}
		if err := a.Authorize(spec, creds, g.now()); err != nil {
			return nil, &domain.Error{Kind: domain.KindAuth, Message: err.Error(), Err: err}
		}

		start := time.Now()
		resp, err := g.exec.Execute(ctx, spec)
		elapsed := time.Since(start)
		if err != nil {
			g.logger.Warn("venue request failed",
				slog.String("venue", string(v)),
				slog.String("method", spec.Method),
				slog.String("path", spec.Path),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()))
			return nil, transportError(v, err)
		}

		g.logger.Debug("venue request",
			slog.String("venue", string(v)),
			slog.String("method", spec.Method),
			slog.String("path", spec.Path),
			slog.Int("status", resp.Status),
			slog.Duration("elapsed", elapsed))

		if resp.Status >= 200 && resp.Status < 300 {
			return resp, nil
		}
		return nil, venueError(a.ParseErrorResponse(resp.Body, resp.Status))
	}

	var resp *HTTPResponse
	var derr *domain.Error
	if mutating {
		resp, derr = attempt()
	} else {
		bo := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.maxRetries)),
			ctx,
		)
		retryErr := backoff.Retry(func() error {
			resp, derr = attempt()
			if derr == nil {
				return nil
			}
			if derr.Kind.Retryable() {
				return derr
			}
			return backoff.Permanent(derr)
		}, bo)
		if retryErr != nil && derr == nil {
			// Context expiry inside the backoff wait.
			derr = transportError(v, retryErr)
		}
	}

	if breaker != nil && derr != nil && derr.Kind == domain.KindTransport {
		breaker.RecordFailure()
	} else if breaker != nil && derr == nil {
		breaker.RecordSuccess()
	}
	return resp, derr
}

func (g *Gateway) journalRecord(ctx context.Context, v enums.Venue, res domain.OrderResult) {
	if g.journal == nil || res.VenueOrderID == "" {
		return
	}
	if err := g.journal.Record(ctx, v, res); err != nil {
		g.logger.Warn("order journal write failed",
			slog.String("venue", string(v)),
			slog.String("venue_order_id", res.VenueOrderID),
			slog.String("error", err.Error()))
	}
}

func idemKey(v enums.Venue, clientOrderID string) string {
	return string(v) + "/" + clientOrderID
}

func validationError(err error) *domain.Error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}
	return &domain.Error{Kind: domain.KindValidation, Message: err.Error(), Err: err}
}

// parseError covers malformed 2xx bodies. The raw payload is logged
// here because the caller never sees it.
func (g *Gateway) parseError(v enums.Venue, err error, raw []byte) *domain.Error {
	const maxLogged = 2048
	if len(raw) > maxLogged {
		raw = raw[:maxLogged]
	}
	g.logger.Error("unparseable venue response",
		slog.String("venue", string(v)),
		slog.String("error", err.Error()),
		slog.String("payload", string(raw)))
	return &domain.Error{
		Kind:    domain.KindUnknown,
		Message: fmt.Sprintf("venue %s: unparseable response: %v", v, err),
		Err:     err,
	}
}

func transportError(v enums.Venue, err error) *domain.Error {
	return &domain.Error{
		Kind:    domain.KindTransport,
		Message: fmt.Sprintf("venue %s: %v", v, err),
		Err:     err,
	}
}

func venueError(cls domain.Classification) *domain.Error {
	return &domain.Error{
		Kind:      cls.Kind,
		VenueCode: cls.VenueCode,
		Message:   cls.Message,
	}
}
