// Package grist provides a client for the Grist records API, which serves as
// the membership identity directory: it maps chat handles to ledger accounts
// and personal fee tokens.
package grist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// Config holds Grist API configuration.
type Config struct {
	Token      string
	BaseURL    string
	DocID      string
	UsersTable string
}

// DefaultConfig returns the association's document coordinates.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://montelibero.getgrist.com/api/docs",
		DocID:      "aYk6cpKAp9CDPJe51sP3AT",
		UsersTable: "Users",
	}
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("grist token is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("grist base URL is required")
	}
	if c.DocID == "" {
		return fmt.Errorf("grist document ID is required")
	}
	if c.UsersTable == "" {
		return fmt.Errorf("grist users table is required")
	}
	return nil
}

// Client implements service.IdentityDirectory backed by the Users table.
type Client struct {
	http   *http.Client
	logger *slog.Logger
	config Config
}

// NewClient creates a new Grist client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default().With("component", "grist"),
	}, nil
}

type record struct {
	Fields map[string]any `json:"fields"`
	ID     int64          `json:"id"`
}

type recordsResponse struct {
	Records []record `json:"records"`
}

func (c *Client) fetchRecords(ctx context.Context, filter map[string][]any) ([]record, error) {
	endpoint := fmt.Sprintf("%s/%s/tables/%s/records",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.DocID, c.config.UsersTable)

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid grist URL: %w", err)
	}

	if filter != nil {
		encoded, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encoding grist filter: %w", err)
		}
		query := u.Query()
		query.Set("filter", string(encoded))
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building grist request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grist request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grist request failed: %s", resp.Status)
	}

	var decoded recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding grist response: %w", err)
	}

	return decoded.Records, nil
}

// formatHandle normalizes a chat handle to the form stored in the Users table.
func formatHandle(handle string) string {
	if strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

func (c *Client) userByHandle(ctx context.Context, handle string) (*record, error) {
	records, err := c.fetchRecords(ctx, map[string][]any{
		"Telegram": {formatHandle(handle)},
	})
	if err != nil {
		return nil, fmt.Errorf("looking up user %s: %w", handle, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// ResolveAccount implements service.IdentityDirectory. Unknown handles yield
// an empty account.
func (c *Client) ResolveAccount(ctx context.Context, handle string) (model.Account, error) {
	rec, err := c.userByHandle(ctx, handle)
	if err != nil || rec == nil {
		return "", err
	}

	address, _ := rec.Fields["Stellar"].(string)
	c.logger.Debug("Resolved account", "handle", handle, "account", address)

	return model.Account(address), nil
}

// ResolvePersonalToken implements service.IdentityDirectory. A user without
// both token columns filled yields nil.
func (c *Client) ResolvePersonalToken(ctx context.Context, handle string) (*model.PersonalToken, error) {
	rec, err := c.userByHandle(ctx, handle)
	if err != nil || rec == nil {
		return nil, err
	}

	code, _ := rec.Fields["TokenCode"].(string)
	issuer, _ := rec.Fields["TokenIssuer"].(string)
	if code == "" || issuer == "" {
		return nil, nil
	}

	return &model.PersonalToken{Code: code, Issuer: issuer}, nil
}

// Ensure Client satisfies the identity port.
var _ service.IdentityDirectory = (*Client)(nil)
