package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

const (
	xtreamTimeout       = 30 * time.Second
	xtreamRetryAttempts = 3
	xtreamMaxBody       = 50 * 1024 * 1024
)

// RemoteClient is the remote catalog collaborator: one action-based endpoint
// returning provider-defined JSON. Payloads must be preserved byte-for-byte.
type RemoteClient interface {
	Request(ctx context.Context, action string, params map[string]string) ([]byte, error)
}

// XtreamClient talks to an Xtream-compatible player_api endpoint. Requests
// are paced through a rate limiter so a full sync never floods the single
// origin, and each request retries a bounded number of times.
type XtreamClient struct {
	host     string
	username string
	password string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewXtreamClient creates a client for the given account.
func NewXtreamClient(host, username, password string) *XtreamClient {
	return &XtreamClient{
		host:     strings.TrimRight(host, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: xtreamTimeout},
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
	}
}

// Request performs one player_api action and returns the raw response body.
func (c *XtreamClient) Request(ctx context.Context, action string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	values.Set("username", c.username)
	values.Set("password", c.password)
	values.Set("action", action)
	for k, v := range params {
		values.Set(k, v)
	}
	apiURL := fmt.Sprintf("%s/player_api.php?%s", c.host, values.Encode())

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", action, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, xtreamMaxBody))
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(xtreamRetryAttempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// looseString decodes JSON values that providers serve interchangeably as
// strings or numbers (category ids, ratings, timestamps).
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = looseString(num.String())
	return nil
}
