package sources

import (
	"context"
	"fmt"
	"math"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const (
	defaultQuoteCacheSize   = 1024
	defaultReconnectDelay   = 2 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
)

// StreamClient subscribes to a streaming price service over a websocket and
// keeps the newest quote of every pair. It implements types.StreamFeed.
//
// Quote frames look like:
//
//	{"pair": 1, "value": "6140993501", "decimals": 8, "timestamp_ms": 1700000000000}
type StreamClient struct {
	url            string
	pairs          []uint32
	dialer         websocket.Dialer
	quotes         *lru.Cache[uint32, types.StreamQuote]
	reconnectDelay time.Duration
	logger         log.Logger
}

var _ types.StreamFeed = (*StreamClient)(nil)

// NewStreamClient creates a client for url subscribed to pairs.
func NewStreamClient(url string, pairs []uint32, cacheSize int, logger log.Logger) (*StreamClient, error) {
	if cacheSize <= 0 {
		cacheSize = defaultQuoteCacheSize
	}
	quotes, err := lru.New[uint32, types.StreamQuote](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create quote cache: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &StreamClient{
		url:            url,
		pairs:          pairs,
		dialer:         websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout},
		quotes:         quotes,
		reconnectDelay: defaultReconnectDelay,
		logger:         logger.With("component", "stream-client"),
	}, nil
}

// LatestQuote returns the newest quote received for pairID.
func (c *StreamClient) LatestQuote(ctx context.Context, pairID uint32) (types.StreamQuote, error) {
	if err := ctx.Err(); err != nil {
		return types.StreamQuote{}, err
	}
	quote, ok := c.quotes.Get(pairID)
	if !ok {
		return types.StreamQuote{}, fmt.Errorf("no quote received for pair %d", pairID)
	}
	return quote, nil
}

// Run keeps a subscription open until ctx is cancelled, reconnecting after
// every dropped session.
func (c *StreamClient) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Error("stream session ended", "url", c.url, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
			c.logger.Info("reconnecting to stream", "url", c.url)
		}
	}
}

func (c *StreamClient) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial websocket: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	subscribe := map[string]interface{}{
		"method": "subscribe",
		"pairs":  c.pairs,
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("failed to send subscribe message: %w", err)
	}
	c.logger.Info("subscribed to stream", "url", c.url, "pairs", len(c.pairs))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}
		if err := c.ingest(message); err != nil {
			c.logger.Debug("dropping stream frame", "error", err)
		}
	}
}

// ingest stores a quote frame. Frames older than the cached quote are ignored.
func (c *StreamClient) ingest(message []byte) error {
	if !gjson.ValidBytes(message) {
		return fmt.Errorf("frame is not valid json")
	}
	frame := gjson.ParseBytes(message)

	pair, value := frame.Get("pair"), frame.Get("value")
	if !pair.Exists() || !value.Exists() {
		return fmt.Errorf("frame is not a quote")
	}
	if pair.Uint() > math.MaxUint32 {
		return fmt.Errorf("pair id %d out of range", pair.Uint())
	}
	decimals := frame.Get("decimals").Uint()
	if decimals > math.MaxUint32 {
		return fmt.Errorf("decimals %d out of range", decimals)
	}

	price, err := sdkmath.ParseUint(value.String())
	if err != nil {
		return fmt.Errorf("invalid quote value %q: %w", value.String(), err)
	}
	quote := types.StreamQuote{
		Value:       price,
		Decimals:    uint32(decimals),
		TimestampMs: frame.Get("timestamp_ms").Uint(),
	}

	pairID := uint32(pair.Uint())
	if cached, ok := c.quotes.Peek(pairID); ok && cached.TimestampMs > quote.TimestampMs {
		return nil
	}
	c.quotes.Add(pairID, quote)
	return nil
}
