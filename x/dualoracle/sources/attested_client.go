package sources

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const maxAttestedBody = 1 << 20

// AttestedClient fetches attested price objects from an HTTP price service.
// It implements types.AttestedPriceReader.
//
// Responses carry the parsed update under "parsed":
//
//	{"parsed": [{"id": "e62d...", "price": {"price": "6140993501", "expo": -8, "publish_time": 1700000000}}]}
type AttestedClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ types.AttestedPriceReader = (*AttestedClient)(nil)

// NewAttestedClient creates a client paced at requestsPerSecond with burst.
func NewAttestedClient(baseURL string, requestsPerSecond float64, burst int, timeout time.Duration) *AttestedClient {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &AttestedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// PriceObject fetches the latest attested price for feedID.
func (c *AttestedClient) PriceObject(ctx context.Context, feedID string) (types.AttestedPrice, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.AttestedPrice{}, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/updates/price/latest?parsed=true&ids[]=%s", c.baseURL, url.QueryEscape(feedID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.AttestedPrice{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.AttestedPrice{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAttestedBody))
	if err != nil {
		return types.AttestedPrice{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.AttestedPrice{}, fmt.Errorf("price service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return ParseAttestedPrice(body)
}

// ParseAttestedPrice decodes the first parsed update of a response. A
// non-negative exponent yields zero decimals, which the adapter rejects.
func ParseAttestedPrice(body []byte) (types.AttestedPrice, error) {
	if !gjson.ValidBytes(body) {
		return types.AttestedPrice{}, fmt.Errorf("response is not valid json")
	}
	update := gjson.GetBytes(body, "parsed.0")
	if !update.Exists() {
		return types.AttestedPrice{}, fmt.Errorf("response carries no parsed update")
	}

	raw := update.Get("price.price").String()
	price, err := sdkmath.ParseUint(raw)
	if err != nil {
		return types.AttestedPrice{}, fmt.Errorf("invalid attested price %q: %w", raw, err)
	}

	var decimals uint32
	expo := update.Get("price.expo").Int()
	if expo < -math.MaxUint32 {
		return types.AttestedPrice{}, fmt.Errorf("attested exponent %d out of range", expo)
	}
	if expo < 0 {
		decimals = uint32(-expo)
	}

	publishTime := update.Get("price.publish_time").Uint()
	if publishTime > maxPublishTimeSec {
		return types.AttestedPrice{}, fmt.Errorf("attested publish time %d out of range", publishTime)
	}

	return types.AttestedPrice{
		FeedID:         update.Get("id").String(),
		Price:          price,
		Decimals:       decimals,
		PublishTimeSec: publishTime,
	}, nil
}
