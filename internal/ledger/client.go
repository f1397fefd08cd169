package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"mintgate/pkg/platform/sentinel"
)

// AssetLedger is the external collaborator that owns token balances. The sale
// only requests issuance; the ledger must have granted this service the issuer
// capability before the first purchase. Failures are signaled synchronously so
// the purchase engine can abort without committing counters.
type AssetLedger interface {
	Mint(ctx context.Context, beneficiary string, amount uint64) error
}

// HTTPLedger talks to the asset ledger over HTTP. POST {base}/mint with
// {"beneficiary": ..., "amount": ...}; any non-2xx answer is a mint failure.
type HTTPLedger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLedger(baseURL string, client *http.Client) *HTTPLedger {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLedger{baseURL: baseURL, client: client}
}

func (l *HTTPLedger) Mint(ctx context.Context, beneficiary string, amount uint64) error {
	payload, err := json.Marshal(map[string]any{
		"beneficiary": beneficiary,
		"amount":      amount,
	})
	if err != nil {
		return fmt.Errorf("marshal mint request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/mint", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mint request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: ledger answered %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Mint records one issuance a FakeLedger performed.
type Mint struct {
	Beneficiary string
	Amount      uint64
}

// FakeLedger records mints in memory. Tests use it to assert issuance and to
// simulate synchronous mint failures.
type FakeLedger struct {
	mu     sync.Mutex
	mints  []Mint
	fail   bool
	onMint func()
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{}
}

func (l *FakeLedger) Mint(_ context.Context, beneficiary string, amount uint64) error {
	l.mu.Lock()
	if l.fail {
		l.mu.Unlock()
		return sentinel.ErrUnavailable
	}
	l.mints = append(l.mints, Mint{Beneficiary: beneficiary, Amount: amount})
	hook := l.onMint
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// Mints returns a copy of everything minted so far.
func (l *FakeLedger) Mints() []Mint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Mint{}, l.mints...)
}

// OnMint installs a callback that runs on every successful mint. Tests use it
// to interleave other calls while a purchase is mid-flight.
func (l *FakeLedger) OnMint(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onMint = fn
}

// SetFailing makes every mint fail.
func (l *FakeLedger) SetFailing(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fail = fail
}
