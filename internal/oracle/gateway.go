package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"mintgate/pkg/platform/sentinel"
)

// Gateway is the external exchange-rate feed: the latest integer price of one
// unit of quote currency, in USD cents. Every read is authoritative at the
// instant it is taken; freshness is entirely the collaborator's problem.
type Gateway interface {
	LatestPrice(ctx context.Context) (uint64, error)
	Ref() string
}

// HTTPGateway reads the price from a collaborator endpoint. Expected response:
// 200 with body {"price": <uint>}.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGateway(baseURL string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{baseURL: baseURL, client: client}
}

func (g *HTTPGateway) Ref() string { return g.baseURL }

func (g *HTTPGateway) LatestPrice(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/price", nil)
	if err != nil {
		return 0, fmt.Errorf("build price request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: oracle answered %d", sentinel.ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Price uint64 `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode price: %v", sentinel.ErrUnavailable, err)
	}
	if body.Price == 0 {
		return 0, fmt.Errorf("%w: oracle reported zero price", sentinel.ErrUnavailable)
	}
	return body.Price, nil
}

// StaticGateway serves a fixed price. Tests and local wiring use it in place
// of a live feed.
type StaticGateway struct {
	price atomic.Uint64
	ref   string
	fail  atomic.Bool
}

func NewStaticGateway(ref string, price uint64) *StaticGateway {
	g := &StaticGateway{ref: ref}
	g.price.Store(price)
	return g
}

func (g *StaticGateway) Ref() string { return g.ref }

func (g *StaticGateway) LatestPrice(context.Context) (uint64, error) {
	if g.fail.Load() {
		return 0, sentinel.ErrUnavailable
	}
	return g.price.Load(), nil
}

// SetPrice changes the reported price.
func (g *StaticGateway) SetPrice(price uint64) { g.price.Store(price) }

// SetFailing makes every read fail, simulating an unreachable feed.
func (g *StaticGateway) SetFailing(fail bool) { g.fail.Store(fail) }
