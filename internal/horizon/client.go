// Package horizon provides a client for reading account state and payment
// history from a Stellar Horizon server.
package horizon

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/protocols/horizon/operations"

	"github.com/montelibero/npi/internal/common"
	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// pageSize is the fixed operations page size used for history pagination.
const pageSize = 100

// Config holds Horizon connection configuration.
type Config struct {
	URL string
}

// DefaultConfig returns a configuration pointed at the public Horizon
// instance.
func DefaultConfig() Config {
	return Config{URL: "https://horizon.stellar.org"}
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("horizon URL is required")
	}
	return nil
}

// Client implements service.LedgerQuery against a Horizon server.
type Client struct {
	hz        *horizonclient.Client
	logger    *slog.Logger
	retryOpts *service.RetryOptions
}

// NewClient creates a new Horizon client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		hz: &horizonclient.Client{
			HorizonURL: cfg.URL,
			HTTP:       &http.Client{Timeout: 30 * time.Second},
		},
		logger: slog.Default().With("component", "horizon"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// Payments returns all payment operations touching the account created at or
// after since, newest first.
//
// History is paged backwards from the present: each page is fetched with a
// cursor taken from the previous page's last record, and paging stops as soon
// as a page runs past the cutoff or comes back empty. Each page request is
// retried on rate limits.
func (c *Client) Payments(ctx context.Context, account model.Account, since time.Time) ([]model.PaymentRecord, error) {
	c.logger.Debug("Fetching payments", "account", account, "since", since)

	var records []model.PaymentRecord
	cursor := ""
	pages := 0

	for {
		var page operations.OperationsPage

		retryErr := common.WithRetry(ctx, func() error {
			request := horizonclient.OperationRequest{
				ForAccount: string(account),
				Order:      horizonclient.OrderDesc,
				Limit:      pageSize,
				Cursor:     cursor,
			}

			p, err := c.hz.Payments(request)
			if err != nil {
				return classifyHorizonError(err)
			}
			page = p
			return nil
		}, *c.retryOpts)
		if retryErr != nil {
			return nil, fmt.Errorf("failed to fetch payments for account %s: %w", account, retryErr)
		}

		pageRecords := page.Embedded.Records
		if len(pageRecords) == 0 {
			break
		}
		pages++

		reachedCutoff := false
		for _, rec := range pageRecords {
			payment, ok := rec.(operations.Payment)
			if !ok {
				continue
			}
			if payment.LedgerCloseTime.Before(since) {
				// Pages run newest to oldest, so everything from here on
				// is outside the window.
				reachedCutoff = true
				continue
			}

			mapped, err := mapPayment(payment)
			if err != nil {
				return nil, fmt.Errorf("decoding payment %s for account %s: %w", payment.GetID(), account, err)
			}
			records = append(records, mapped)
		}

		if reachedCutoff {
			break
		}

		cursor = pageRecords[len(pageRecords)-1].PagingToken()
	}

	c.logger.Debug("Fetched payments",
		"account", account,
		"count", len(records),
		"pages", pages)

	return records, nil
}

// AccountBalances returns all asset balances held by the account.
func (c *Client) AccountBalances(ctx context.Context, account model.Account) ([]model.Balance, error) {
	detail, err := c.hz.AccountDetail(horizonclient.AccountRequest{AccountID: string(account)})
	if err != nil {
		return nil, accountError(err, account)
	}

	balances := make([]model.Balance, 0, len(detail.Balances))
	for _, b := range detail.Balances {
		asset := model.NativeAsset()
		if b.Asset.Type != "native" {
			asset = model.AssetSpec{Code: b.Asset.Code, Issuer: b.Asset.Issuer}
		}
		balances = append(balances, model.Balance{Asset: asset, Amount: b.Balance})
	}

	return balances, nil
}

// GetBalance implements service.LedgerQuery. When assetIssuer is empty a
// non-native asset is matched by code alone; payment matching never is.
func (c *Client) GetBalance(ctx context.Context, account model.Account, assetCode, assetIssuer string) (string, error) {
	balances, err := c.AccountBalances(ctx, account)
	if err != nil {
		return "", err
	}

	for _, b := range balances {
		if balanceMatches(b.Asset, assetCode, assetIssuer) {
			return b.Amount, nil
		}
	}

	return "", fmt.Errorf("asset %s not found for account %s: %w", assetCode, account, common.ErrAssetNotFound)
}

// DataValue implements service.LedgerQuery. A missing entry yields nil.
func (c *Client) DataValue(ctx context.Context, account model.Account, key string) (*string, error) {
	data, err := c.hz.AccountData(horizonclient.AccountRequest{AccountID: string(account), DataKey: key})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, accountError(err, account)
	}

	decoded, err := base64.StdEncoding.DecodeString(data.Value)
	if err != nil {
		return nil, fmt.Errorf("decoding data entry %s of account %s: %w", key, account, err)
	}

	value := string(decoded)
	return &value, nil
}

// AllData implements service.LedgerQuery, returning every data entry of the
// account decoded to text.
func (c *Client) AllData(ctx context.Context, account model.Account) (map[string]string, error) {
	detail, err := c.hz.AccountDetail(horizonclient.AccountRequest{AccountID: string(account)})
	if err != nil {
		return nil, accountError(err, account)
	}

	entries := make(map[string]string, len(detail.Data))
	for key, raw := range detail.Data {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding data entry %s of account %s: %w", key, account, err)
		}
		entries[key] = string(decoded)
	}

	return entries, nil
}

func balanceMatches(asset model.AssetSpec, code, issuer string) bool {
	if code == model.NativeAssetCode {
		return asset.IsNative()
	}
	if issuer == "" {
		return asset.Code == code
	}
	return asset.Code == code && asset.Issuer == issuer
}

func mapPayment(op operations.Payment) (model.PaymentRecord, error) {
	amount, err := decimal.NewFromString(op.Amount)
	if err != nil {
		return model.PaymentRecord{}, fmt.Errorf("invalid amount %q: %w", op.Amount, err)
	}

	asset := model.NativeAsset()
	if op.Asset.Type != "native" {
		asset = model.AssetSpec{Code: op.Asset.Code, Issuer: op.Asset.Issuer}
	}

	return model.PaymentRecord{
		Asset:       asset,
		From:        model.Account(op.From),
		To:          model.Account(op.To),
		CreatedAt:   op.LedgerCloseTime,
		Hash:        op.GetTransactionHash(),
		PagingToken: op.PagingToken(),
		Amount:      amount,
	}, nil
}

// classifyHorizonError tags errors from a page request for the retry loop:
// only rate limits are worth another attempt.
func classifyHorizonError(err error) error {
	var hzErr *horizonclient.Error
	if errors.As(err, &hzErr) && hzErr.Problem.Status == http.StatusTooManyRequests {
		return &common.RetryableError{Err: common.ErrRateLimit, Retryable: true}
	}

	if horizonclient.IsNotFoundError(err) {
		return &common.RetryableError{Err: common.ErrNotFound, Retryable: false}
	}

	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %v", common.ErrHorizonConnection, err),
		Retryable: false,
	}
}

func accountError(err error, account model.Account) error {
	if horizonclient.IsNotFoundError(err) {
		return fmt.Errorf("account %s: %w", account, common.ErrNotFound)
	}
	return fmt.Errorf("account %s: %w: %v", account, common.ErrHorizonConnection, err)
}

// Ensure Client satisfies the ledger port.
var _ service.LedgerQuery = (*Client)(nil)
