package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BillingClient cancels subscriptions with the billing provider
type BillingClient struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewBillingClient creates a billing client. An empty baseURL disables it:
// CancelSubscription then succeeds without calling anything.
func NewBillingClient(baseURL, apiKey string, timeout time.Duration, logger Logger) *BillingClient {
	httpClient := NewHTTPClient(&http.Client{Timeout: timeout}, logger)
	if apiKey != "" {
		httpClient.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &BillingClient{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// Enabled reports whether a billing endpoint is configured
func (c *BillingClient) Enabled() bool {
	return c.baseURL != ""
}

// CancelSubscription cancels any active subscription of the account.
// An account without a subscription (404) is not an error.
func (c *BillingClient) CancelSubscription(ctx context.Context, accountID string) error {
	if !c.Enabled() {
		c.logger.Debug("billing disabled, skipping subscription cancel", "account_id", accountID)
		return nil
	}

	ctx = WithUserID(ctx, accountID)
	url := fmt.Sprintf("%s/v1/subscriptions/cancel", c.baseURL)

	resp, err := c.http.DoRequest(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debug("no subscription to cancel", "account_id", accountID)
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Info("subscription cancelled", "account_id", accountID)
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cancel subscription failed: status=%d, body=%s", resp.StatusCode, string(body))
	}
}
