// Package authclient is the Task Service's gateway to the Authentication
// Service. It turns an Authorization header into a trusted identity by
// calling POST /validate-token.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/core/domain"
	"github.com/99minutos/taskhub/internal/infrastructure/metrics"
	"github.com/99minutos/taskhub/pkg/requestid"
)

const DefaultTimeout = 5 * time.Second

// Client implements ports.AuthGateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a Client for the Authentication Service at baseURL. A
// non-positive timeout selects DefaultTimeout.
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

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	UserID *int64 `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
}

// Authenticate parses a "Bearer <token>" header and asks the Authentication
// Service to validate the token. One attempt, no retries.
func (c *Client) Authenticate(ctx context.Context, authorization string) (*domain.Identity, error) {
	raw, err := parseBearer(authorization)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	identity, err := c.validate(ctx, raw)
	metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.GatewayRequestsTotal.WithLabelValues("ok").Inc()
	case domain.IsUnauthorized(err):
		metrics.GatewayRequestsTotal.WithLabelValues("unauthorized").Inc()
	default:
		metrics.GatewayRequestsTotal.WithLabelValues("unavailable").Inc()
		c.log.Error().Err(err).Str("request_id", requestid.FromContext(ctx)).Msg("auth service call failed")
	}
	return identity, err
}

// RequireAdmin returns identity unchanged when it carries the admin role.
func (c *Client) RequireAdmin(identity *domain.Identity) (*domain.Identity, error) {
	if !identity.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	return identity, nil
}

// Ping checks that the Authentication Service answers on its liveness
// endpoint, which is outside the rate limiter.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrAuthUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) validate(ctx context.Context, raw string) (*domain.Identity, error) {
	body, err := json.Marshal(validateRequest{Token: raw})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate-token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidToken
	}

	var out validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrAuthUnavailable, err)
	}
	if out.UserID == nil || out.Role == "" {
		return nil, fmt.Errorf("%w: incomplete identity in response", domain.ErrAuthUnavailable)
	}

	return &domain.Identity{UserID: *out.UserID, Role: out.Role, Email: out.Email}, nil
}

// parseBearer extracts the token from an Authorization header value.
func parseBearer(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", domain.ErrMissingAuthHeader
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", domain.ErrMalformedAuthHeader
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", domain.ErrInvalidAuthScheme
	}
	return parts[1], nil
}
