package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	tmdbBaseURL       = "https://api.themoviedb.org/3"
	tmdbTimeout       = 10 * time.Second
	tmdbRetryAttempts = 3
	tmdbMaxBody       = 10 * 1024 * 1024
)

// tmdbClient performs raw TMDB API requests.
type tmdbClient struct {
	apiKey   string
	language string
	baseURL  string
	client   *http.Client
}

func newTMDBClient(apiKey, language string, client *http.Client) *tmdbClient {
	if client == nil {
		client = &http.Client{Timeout: tmdbTimeout}
	}
	return &tmdbClient{apiKey: apiKey, language: normalizeLanguage(language), baseURL: tmdbBaseURL, client: client}
}

// get fetches one endpoint with bounded retries and returns the raw body.
func (c *tmdbClient) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	values.Set("language", c.language)
	for k, v := range params {
		values.Set(k, v)
	}
	apiURL := c.baseURL + endpoint + "?" + values.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", endpoint, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
				return retry.Unrecoverable(fmt.Errorf("metadata API returned status %d", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("metadata API returned status %d", resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, tmdbMaxBody))
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(tmdbRetryAttempts),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// cacheKey builds the store key for one request: endpoint plus the sorted
// parameter set, so identical requests always hit the same row.
func cacheKey(endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("tmdb:")
	b.WriteString(endpoint)
	b.WriteString(":")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("&")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	return b.String()
}

// normalizeLanguage maps loose language inputs to TMDB's expected form.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return "en-US"
	}
	parts := strings.SplitN(lang, "-", 2)
	code := strings.ToLower(parts[0])
	if len(parts) == 2 {
		return code + "-" + strings.ToUpper(parts[1])
	}
	switch code {
	case "en":
		return "en-US"
	case "pt":
		return "pt-BR"
	default:
		return code + "-" + strings.ToUpper(code)
	}
}
