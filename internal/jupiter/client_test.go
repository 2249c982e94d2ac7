package jupiter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/constants"
)

func priceServer(t *testing.T, price string, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		mint := r.URL.Query().Get("ids")
		fmt.Fprintf(w, `{"data":{%q:{"id":%q,"price":%q}}}`, mint, mint, price)
	}))
}

func TestUSDPrice(t *testing.T) {
	srv := priceServer(t, "163.25", nil)
	defer srv.Close()

	c := NewClient(srv.URL, "")
	price, err := c.USDPrice(context.Background(), constants.WSOLMint)
	require.NoError(t, err)
	assert.Equal(t, 163.25, price)
}

func TestUSDPrice_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.USDPrice(context.Background(), constants.WSOLMint)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestUSDPrice_MissingMint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.USDPrice(context.Background(), constants.WSOLMint)
	assert.Error(t, err)
}

func TestSOLOracle_CachesWithinTTL(t *testing.T) {
	var hits int64
	srv := priceServer(t, "150", &hits)
	defer srv.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	o := NewSOLOracle(NewClient(srv.URL, ""), 100, time.Minute, logger)

	assert.Equal(t, 150.0, o.SOLPriceUSD(context.Background()))
	assert.Equal(t, 150.0, o.SOLPriceUSD(context.Background()))
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second read must come from cache")
}

func TestSOLOracle_FallsBackWhenUnreachable(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	c := NewClient("http://127.0.0.1:1", "")
	c.HTTP = &http.Client{Timeout: 50 * time.Millisecond}
	o := NewSOLOracle(c, 100, time.Minute, logger)

	assert.Equal(t, 100.0, o.SOLPriceUSD(context.Background()))
}
