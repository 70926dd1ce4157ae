package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dualoracle/x/dualoracle/sources"
)

const hermesBody = `{
  "binary": {"encoding": "hex", "data": ["504e4155"]},
  "parsed": [{
    "id": "e62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43",
    "price": {"price": "6140993501", "conf": "3009936", "expo": -8, "publish_time": 1700000000},
    "ema_price": {"price": "6138000000", "conf": "3100000", "expo": -8, "publish_time": 1700000000}
  }]
}`

func TestAttestedClientPriceObject(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/v2/updates/price/latest", r.URL.Path)
		require.Equal(t, []string{feedID}, r.URL.Query()["ids[]"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hermesBody))
	}))
	defer srv.Close()

	client := sources.NewAttestedClient(srv.URL+"/", 0, 1, 5*time.Second)
	obj, err := client.PriceObject(context.Background(), feedID)
	require.NoError(t, err)
	require.Equal(t, "e62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43", obj.FeedID)
	require.Equal(t, "6140993501", obj.Price.String())
	require.Equal(t, uint32(8), obj.Decimals)
	require.Equal(t, uint64(1_700_000_000), obj.PublishTimeSec)
	require.Equal(t, int32(1), hits.Load())
}

func TestAttestedClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "feed not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := sources.NewAttestedClient(srv.URL, 0, 1, time.Second)
	_, err := client.PriceObject(context.Background(), feedID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestAttestedClientRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hermesBody))
	}))
	defer srv.Close()

	client := sources.NewAttestedClient(srv.URL, 0.001, 1, time.Second)
	_, err := client.PriceObject(context.Background(), feedID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.PriceObject(ctx, feedID)
	require.Error(t, err)
}

func TestParseAttestedPrice(t *testing.T) {
	_, err := sources.ParseAttestedPrice([]byte(`not json`))
	require.Error(t, err)

	_, err = sources.ParseAttestedPrice([]byte(`{"parsed": []}`))
	require.Error(t, err)

	_, err = sources.ParseAttestedPrice([]byte(`{"parsed": [{"id": "ab", "price": {"price": "-5", "expo": -8}}]}`))
	require.Error(t, err)

	obj, err := sources.ParseAttestedPrice([]byte(`{"parsed": [{"id": "ab", "price": {"price": "5", "expo": 2, "publish_time": 3}}]}`))
	require.NoError(t, err)
	require.Zero(t, obj.Decimals)

	_, err = sources.ParseAttestedPrice([]byte(`{"parsed": [{"id": "ab", "price": {"price": "5", "expo": -8, "publish_time": 18446744073709552}}]}`))
	require.ErrorContains(t, err, "publish time")

	_, err = sources.ParseAttestedPrice([]byte(`{"parsed": [{"id": "ab", "price": {"price": "5", "expo": -4294967296, "publish_time": 3}}]}`))
	require.ErrorContains(t, err, "exponent")

	obj, err = sources.ParseAttestedPrice([]byte(`{"parsed": [{"id": "ab", "price": {"price": "5", "expo": -4294967295, "publish_time": 18446744073709551}}]}`))
	require.NoError(t, err)
	require.Equal(t, uint32(4294967295), obj.Decimals)
	require.Equal(t, uint64(18446744073709551), obj.PublishTimeSec)
}
