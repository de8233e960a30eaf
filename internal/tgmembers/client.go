// Package tgmembers provides a client for the chat membership directory
// service, which reports the current member list of the governance chat.
package tgmembers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// Config holds membership directory configuration.
type Config struct {
	Token   string
	BaseURL string
}

// DefaultConfig returns the public directory endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://tg-members.mtla.me",
	}
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("telegram members token is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("telegram members base URL is required")
	}
	return nil
}

// Client implements service.ChatDirectory.
type Client struct {
	http   *http.Client
	logger *slog.Logger
	config Config
}

// NewClient creates a new membership directory client.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default().With("component", "tgmembers"),
	}, nil
}

type chatUser struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}

type chat struct {
	Title   string     `json:"title"`
	Members []chatUser `json:"members"`
	ID      int64      `json:"id"`
}

// Members implements service.ChatDirectory. Users without a username are
// reported under their numeric identity.
func (c *Client) Members(ctx context.Context, chatID int64) ([]model.Member, error) {
	endpoint := fmt.Sprintf("%s/chats/%d", strings.TrimRight(c.config.BaseURL, "/"), chatID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building chat members request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get members of chat %d: %w", chatID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get members of chat %d: %s", chatID, resp.Status)
	}

	var decoded chat
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding chat %d response: %w", chatID, err)
	}

	members := make([]model.Member, 0, len(decoded.Members))
	for _, user := range decoded.Members {
		handle := user.Username
		if handle == "" {
			handle = fmt.Sprintf("id:%d", user.ID)
		}
		members = append(members, model.Member{Handle: handle})
	}

	c.logger.Debug("Fetched chat members", "chat_id", chatID, "count", len(members))

	return members, nil
}

// Ensure Client satisfies the chat directory port.
var _ service.ChatDirectory = (*Client)(nil)
