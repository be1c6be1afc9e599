// Package notifier delivers best-effort messages to the external
// Notification Service.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/infrastructure/metrics"
)

const DefaultTimeout = 5 * time.Second

// Client implements ports.Notifier with a synchronous HTTP call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type notifyRequest struct {
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// Notify posts the message. Failures are logged and counted, never returned.
func (c *Client) Notify(ctx context.Context, userID int64, message string) {
	if err := c.send(ctx, userID, message); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		c.log.Warn().Err(err).Int64("user_id", userID).Msg("notification failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	c.log.Debug().Int64("user_id", userID).Msg("notification sent")
}

func (c *Client) send(ctx context.Context, userID int64, message string) error {
	body, err := json.Marshal(notifyRequest{UserID: userID, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}
