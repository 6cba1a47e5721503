package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/ledger"
)

const (
	payoutCurrency     = "NGN"
	payoutTransferPath = "/v1/transfers"
	payoutSandboxPath  = "/sandbox/v1/transfers"
)

// BankPayoutAdapter implements PayoutProvider against a bank transfer API.
// The entry reference doubles as the idempotency key, so a retried payout
// for the same withdrawal never moves funds twice.
type BankPayoutAdapter struct {
	config     *BankPayoutConfig
	httpClient *http.Client
}

// NewBankPayoutAdapter creates a new bank payout adapter
func NewBankPayoutAdapter(config *BankPayoutConfig) (*BankPayoutAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &BankPayoutAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Payout executes a bank transfer for a pending withdrawal
func (a *BankPayoutAdapter) Payout(ctx context.Context, entry *ledger.TransactionEntry) (string, error) {
	payload := payoutRequest{
		Reference: entry.Reference,
		UserID:    entry.UserID.String(),
		Amount:    entry.Amount.StringFixed(2),
		Currency:  payoutCurrency,
		Narrative: entry.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payout: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.transferURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("payout: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Idempotency-Key", entry.Reference)
	req.Header.Set("X-Signature", a.sign(body))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payout: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("payout: failed to read response: %w", err)
	}

	// 4xx means the transfer itself was refused: a permanent failure the
	// worker compensates. 5xx is transient and retried by the sweep.
	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("payout: gateway unavailable: HTTP %d", resp.StatusCode)
	}

	var result payoutResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("payout: failed to parse response: %w", err)
	}

	if resp.StatusCode >= 400 || result.Status == payoutStatusRejected {
		return "", fmt.Errorf("%w: %s", wallet.ErrPayoutRejected, rejectionReason(result))
	}

	switch result.Status {
	case payoutStatusAccepted, payoutStatusSettled:
		return result.TransferID, nil
	default:
		return "", fmt.Errorf("payout: unexpected transfer status %q", result.Status)
	}
}

func (a *BankPayoutAdapter) transferURL() string {
	path := payoutTransferPath
	if a.config.IsSandbox {
		path = payoutSandboxPath
	}
	return strings.TrimRight(a.config.BaseURL, "/") + path
}

// sign computes the HMAC-SHA256 body signature
func (a *BankPayoutAdapter) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(a.config.SigningSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func rejectionReason(result payoutResponse) string {
	if result.Message != "" {
		if result.Code != "" {
			return result.Code + " - " + result.Message
		}
		return result.Message
	}
	if result.Code != "" {
		return result.Code
	}
	return "transfer rejected"
}

// Ensure BankPayoutAdapter implements PayoutProvider
var _ wallet.PayoutProvider = (*BankPayoutAdapter)(nil)
