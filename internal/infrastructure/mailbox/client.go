package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adminservice/internal/domain/offboard"
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root of the mailbox service.
	BaseURL string
	// Token is sent as a bearer token on every request.
	Token string
	// HTTPClient is used for all requests. If nil, a client with a 30s
	// timeout is used.
	HTTPClient *http.Client
}

// Client talks to the mailbox service. It satisfies offboard.Mailbox.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("mailbox: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("mailbox: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
	}, nil
}

func (c *Client) ConvertToShared(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/v1/mailboxes/%s/convert-to-shared", url.PathEscape(userID))
	_, err := c.doRequest(ctx, http.MethodPost, path)
	// Already shared: the goal state holds.
	if IsCode(err, CodeConflict) {
		return nil
	}
	return err
}

func (c *Client) ListRules(ctx context.Context, userID string) ([]offboard.MailboxRule, error) {
	path := fmt.Sprintf("/v1/mailboxes/%s/rules", url.PathEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var listing struct {
		Value []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Enabled bool   `json:"enabled"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("mailbox: parse rules response: %w", err)
	}
	rules := make([]offboard.MailboxRule, 0, len(listing.Value))
	for _, r := range listing.Value {
		rules = append(rules, offboard.MailboxRule{ID: r.ID, Name: r.Name, Enabled: r.Enabled})
	}
	return rules, nil
}

func (c *Client) DisableRule(ctx context.Context, userID, ruleID string) error {
	path := fmt.Sprintf("/v1/mailboxes/%s/rules/%s/disable", url.PathEscape(userID), url.PathEscape(ruleID))
	_, err := c.doRequest(ctx, http.MethodPost, path)
	return err
}

func (c *Client) ClearForwarding(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/v1/mailboxes/%s/forwarding", url.PathEscape(userID))
	_, err := c.doRequest(ctx, http.MethodDelete, path)
	// No forwarding configured: nothing to clear.
	if IsCode(err, CodeNotFound) {
		return nil
	}
	return err
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("mailbox: create request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("mailbox: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("mailbox: read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	var envelope errorEnvelope
	if jsonErr := json.Unmarshal(responseBody, &envelope); jsonErr != nil || envelope.Error.Code == "" {
		return nil, &APIError{
			Code:       "Unknown",
			Message:    strings.TrimSpace(string(responseBody)),
			StatusCode: response.StatusCode,
		}
	}
	apiErr := envelope.Error
	apiErr.StatusCode = response.StatusCode
	return nil, &apiErr
}
