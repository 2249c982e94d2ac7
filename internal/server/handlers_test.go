package server

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/monitor"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/rpc"
)

// tokenChain serves the two reads TokenInfo makes: the pool lookup and the
// mint account.
type tokenChain struct {
	poolAddress string
	poolData    []byte
	mintData    []byte
}

func (f *tokenChain) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		switch req.Method {
		case "getProgramAccounts":
			if f.poolData == nil {
				fmt.Fprint(w, `{"result":[]}`)
				return
			}
			b64 := base64.StdEncoding.EncodeToString(f.poolData)
			fmt.Fprintf(w, `{"result":[{"pubkey":%q,"account":{"lamports":1,"owner":"prog","data":[%q,"base64"]}}]}`, f.poolAddress, b64)
		case "getAccountInfo":
			if f.mintData == nil {
				fmt.Fprint(w, `{"result":{"value":null}}`)
				return
			}
			b64 := base64.StdEncoding.EncodeToString(f.mintData)
			fmt.Fprintf(w, `{"result":{"value":{"lamports":1,"owner":"prog","data":[%q,"base64"]}}}`, b64)
		default:
			fmt.Fprint(w, `{"result":null}`)
		}
	}
}

func poolAccountBytes(token solana.PublicKey, baseReserve, quoteReserve uint64) []byte {
	data := make([]byte, constants.PoolAccountMinLen)
	data[constants.PoolOffsetStatus] = 1
	copy(data[constants.PoolOffsetTokenMint:constants.PoolOffsetTokenMint+32], token.Bytes())
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetLPSupply:], 5_000_000)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetBaseReserve:], baseReserve)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetQuoteReserve:], quoteReserve)
	return data
}

func mintAccountBytes(supply uint64) []byte {
	data := make([]byte, 82)
	binary.LittleEndian.PutUint64(data[36:44], supply)
	return data
}

func tokenInfoFixture(t *testing.T, chain *tokenChain) *Handlers {
	t.Helper()
	srv := httptest.NewServer(chain.handler())
	t.Cleanup(srv.Close)

	client := rpc.NewClient(rpc.ClientConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
	return &Handlers{
		Resolver: raydium.NewResolver(client, ""),
		Chain:    client,
		Prices:   monitor.StaticSOLPrice(100),
	}
}

func callTokenInfo(t *testing.T, h *Handlers, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("token")
	c.SetParamValues(token)
	require.NoError(t, h.TokenInfo(c))
	return rec
}

func TestTokenInfo(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	chain := &tokenChain{
		poolAddress: solana.NewWallet().PublicKey().String(),
		// 1 base unit costs 50 quote lamports, 50 SOL on the quote side.
		poolData: poolAccountBytes(token, 1_000_000_000, 50_000_000_000),
		mintData: mintAccountBytes(1_000_000_000_000),
	}
	h := tokenInfoFixture(t, chain)

	rec := callTokenInfo(t, h, token.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var info TokenInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))

	assert.Equal(t, token.String(), info.Token)
	assert.Equal(t, chain.poolAddress, info.Pool)
	assert.InDelta(t, 50.0, info.PriceSOL, 1e-9)
	assert.InDelta(t, 5000.0, info.PriceUSD, 1e-6)
	// 50 SOL quote side at $100, both sides counted.
	assert.InDelta(t, 10_000.0, info.LiquidityUSD, 1e-6)
	// 1e12 supply units at 50 quote lamports each, in USD.
	assert.InDelta(t, 5_000_000.0, info.MarketCapUSD, 1e-3)
}

func TestTokenInfo_UnreadableMintOmitsMarketCap(t *testing.T) {
	token := solana.NewWallet().PublicKey()
	chain := &tokenChain{
		poolAddress: solana.NewWallet().PublicKey().String(),
		poolData:    poolAccountBytes(token, 1_000_000_000, 50_000_000_000),
	}
	h := tokenInfoFixture(t, chain)

	rec := callTokenInfo(t, h, token.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var info TokenInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.InDelta(t, 50.0, info.PriceSOL, 1e-9)
	assert.Zero(t, info.MarketCapUSD)
}

func TestTokenInfo_NoPool(t *testing.T) {
	h := tokenInfoFixture(t, &tokenChain{})

	rec := callTokenInfo(t, h, solana.NewWallet().PublicKey().String())
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no pool for token", resp.Error)
}

func TestTokenInfo_MissingParam(t *testing.T) {
	h := tokenInfoFixture(t, &tokenChain{})

	rec := callTokenInfo(t, h, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
