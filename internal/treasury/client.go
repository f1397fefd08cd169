package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"mintgate/pkg/platform/sentinel"
)

// Treasury forwards accepted payments to the sale's receiving account. Like
// the asset ledger it is an external collaborator with a synchronous failure
// contract; a failed forward aborts the enclosing purchase.
type Treasury interface {
	Forward(ctx context.Context, wallet string, amount uint64) error
}

// HTTPTreasury forwards funds via a payments collaborator. POST
// {base}/transfers with {"to": wallet, "amount": ...}.
type HTTPTreasury struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTreasury(baseURL string, client *http.Client) *HTTPTreasury {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTreasury{baseURL: baseURL, client: client}
}

func (t *HTTPTreasury) Forward(ctx context.Context, wallet string, amount uint64) error {
	payload, err := json.Marshal(map[string]any{
		"to":     wallet,
		"amount": amount,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: treasury answered %d", sentinel.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Transfer records one forward a FakeTreasury performed.
type Transfer struct {
	Wallet string
	Amount uint64
}

// FakeTreasury records transfers in memory for tests.
type FakeTreasury struct {
	mu        sync.Mutex
	transfers []Transfer
	fail      bool
}

func NewFakeTreasury() *FakeTreasury {
	return &FakeTreasury{}
}

func (t *FakeTreasury) Forward(_ context.Context, wallet string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return sentinel.ErrUnavailable
	}
	t.transfers = append(t.transfers, Transfer{Wallet: wallet, Amount: amount})
	return nil
}

// Transfers returns a copy of everything forwarded so far.
func (t *FakeTreasury) Transfers() []Transfer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Transfer{}, t.transfers...)
}

// SetFailing makes every forward fail.
func (t *FakeTreasury) SetFailing(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = fail
}
