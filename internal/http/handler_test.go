package http

import (
	"bytes"
	gohttp "net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/config"
	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

var (
	adminKey  = newKey()
	payerKey  = newKey()
	admin     = adminKey.PublicKey()
	payer     = payerKey.PublicKey()
	treasury  = solana.PublicKey{0x0f}
	recipient = solana.PublicKey{0xb0}
	usdc      = solana.PublicKey{0x02}
	bonk      = solana.PublicKey{0x03}
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newKey() solana.PrivateKey {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return key
}

func newTestRouter(t *testing.T) (*gin.Engine, *swapper.Service) {
	t.Helper()
	custody, err := common.DefaultCustodyAccount()
	require.NoError(t, err)

	svc := &swapper.Service{}
	require.NoError(t, svc.Init(&config.EngineConfig{
		CustodyAccount:     custody,
		InputMint:          common.NativeMint,
		AdminWallet:        admin,
		FeeBps:             100,
		FeeRecipient:       treasury,
		DefaultVenue:       domain.VenuePair,
		RegistryCandidates: 4,
	}))

	deep := uint256.NewInt(1_000_000_000_000)
	for i, mint := range []solana.PublicKey{usdc, bonk} {
		require.NoError(t, svc.RegisterPool(admin, &domain.Pool{
			Address: solana.PublicKey{0x50, byte(i)},
			Type:    domain.PoolTypePair,
			Mints:   []solana.PublicKey{common.NativeMint, mint},
			FeeBps:  30,
		}, map[solana.PublicKey]*uint256.Int{common.NativeMint: deep, mint: deep}))
	}
	require.NoError(t, svc.Mint(admin, payer, common.NativeMint, uint256.NewInt(10_000_000_000)))

	httpSvc := &HTTPService{}
	httpSvc.setup(&config.GeneralConfig{HTTPHost: "localhost", HTTPPort: "0"}, svc)
	return httpSvc.router(), svc
}

func newRequest(t *testing.T, method, path string, body interface{}, wallet solana.PrivateKey) *gohttp.Request {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if len(wallet) > 0 {
		signRequest(t, req, wallet, time.Now(), payload)
	}
	return req
}

func signRequest(t *testing.T, req *gohttp.Request, wallet solana.PrivateKey, at time.Time, payload []byte) {
	t.Helper()
	ts := strconv.FormatInt(at.Unix(), 10)
	sig, err := wallet.Sign(middlewares.SigningMessage(req.Method, req.URL.Path, ts, payload))
	require.NoError(t, err)
	req.Header.Set(middlewares.WalletHeader, wallet.PublicKey().String())
	req.Header.Set(middlewares.TimestampHeader, ts)
	req.Header.Set(middlewares.SignatureHeader, sig.String())
}

func do[T any](t *testing.T, r *gin.Engine, method, path string, body interface{}, wallet solana.PrivateKey) (int, envelope[T]) {
	t.Helper()
	return send[T](t, r, newRequest(t, method, path, body, wallet))
}

func send[T any](t *testing.T, r *gin.Engine, req *gohttp.Request) (int, envelope[T]) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope[T]
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestSwapEndpointSettlesSessionAndStoresReceipt(t *testing.T) {
	r, svc := newTestRouter(t)

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String(), bonk.String()},
		WeightsBps: []uint16{3000, 7000},
		Amount:     "1000000000",
	}, payerKey)
	require.Equal(t, gohttp.StatusOK, status, env.Error)
	require.True(t, env.Success)

	receipt := env.Data
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "v1", receipt.Version)
	assert.Equal(t, "10000000", receipt.FeeAmount)
	assert.Equal(t, "990000000", receipt.NetAmount)
	require.Len(t, receipt.Legs, 2)
	assert.Equal(t, "297000000", receipt.Legs[0].AmountIn)
	assert.Equal(t, "693000000", receipt.Legs[1].AmountIn)
	assert.Equal(t, receipt.EngineBalanceBefore, receipt.EngineBalanceAfter)
	assert.Equal(t, uint64(10_000_000), svc.Balance(treasury, common.NativeMint).Uint64())

	status, stored := do[ReceiptResponse](t, r, gohttp.MethodGet, "/api/v1/receipts/"+receipt.ID, nil, nil)
	require.Equal(t, gohttp.StatusOK, status)
	assert.Equal(t, receipt.ID, stored.Data.ID)
	assert.Equal(t, receipt.Legs, stored.Data.Legs)

	status, missing := do[ReceiptResponse](t, r, gohttp.MethodGet, "/api/v1/receipts/unknown", nil, nil)
	assert.Equal(t, gohttp.StatusNotFound, status)
	assert.False(t, missing.Success)
}

func TestSwapEndpointRejectsBadWeights(t *testing.T) {
	r, svc := newTestRouter(t)

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String(), bonk.String()},
		WeightsBps: []uint16{3000, 6999},
		Amount:     "1000000000",
	}, payerKey)
	assert.Equal(t, gohttp.StatusBadRequest, status)
	assert.Equal(t, "INVALID_DISTRIBUTION", env.Code)
	assert.Equal(t, uint64(10_000_000_000), svc.Balance(payer, common.NativeMint).Uint64())

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String()},
		WeightsBps: []uint16{10000},
		Amount:     "12abc",
	}, payerKey)
	assert.Equal(t, gohttp.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestSwapV2RequiresUpgradeAndKeepsFee(t *testing.T) {
	r, _ := newTestRouter(t)

	v2 := SwapV2Request{
		Recipient: recipient.String(),
		Legs: []LegRequest{
			{Asset: usdc.String(), WeightBps: 5000, Venue: "pair"},
			{Asset: bonk.String(), WeightBps: 5000},
		},
		Amount: "1000000000",
	}

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap/v2", v2, payerKey)
	assert.Equal(t, gohttp.StatusBadRequest, status)
	assert.Equal(t, "UNSUPPORTED_VERSION", env.Code)

	status, info := do[EngineInfoResponse](t, r, gohttp.MethodPost, "/api/v1/admin/engine/upgrade", UpgradeRequest{From: 1, To: 2}, adminKey)
	require.Equal(t, gohttp.StatusOK, status, info.Error)
	assert.Equal(t, uint8(2), info.Data.Version)
	assert.Equal(t, uint16(100), info.Data.Fee.FeeBps)
	assert.Equal(t, treasury.String(), info.Data.Fee.Recipient)

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap/v2", v2, payerKey)
	require.Equal(t, gohttp.StatusOK, status, env.Error)
	assert.Equal(t, "v2", env.Data.Version)
	assert.Equal(t, "10000000", env.Data.FeeAmount)

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/admin/engine/upgrade", UpgradeRequest{From: 2, To: 3}, adminKey)
	assert.Equal(t, gohttp.StatusBadRequest, status)
	assert.Equal(t, "INVALID_MIGRATION", env.Code)
}

func TestQuoteDoesNotMoveBalances(t *testing.T) {
	r, svc := newTestRouter(t)

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap/quote", QuoteRequest{
		Recipient: recipient.String(),
		Legs:      []LegRequest{{Asset: usdc.String(), WeightBps: 10000}},
		Amount:    "1000000000",
	}, nil)
	require.Equal(t, gohttp.StatusOK, status, env.Error)
	assert.True(t, env.Data.DryRun)
	assert.Empty(t, env.Data.ID)
	assert.True(t, svc.Balance(recipient, usdc).IsZero())
	assert.True(t, svc.Balance(treasury, common.NativeMint).IsZero())
}

func TestSwapRoutesDebitOnlyTheSigningWallet(t *testing.T) {
	r, svc := newTestRouter(t)
	body := SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String()},
		WeightsBps: []uint16{10000},
		Amount:     "1000000000",
	}
	payload, err := sonic.Marshal(body)
	require.NoError(t, err)
	pairReserve := svc.Balance(solana.PublicKey{0x50, 0}, common.NativeMint)

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", body, nil)
	assert.Equal(t, gohttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	// wallet header alone is not enough
	req := newRequest(t, gohttp.MethodPost, "/api/v1/swap", body, nil)
	req.Header.Set(middlewares.WalletHeader, payer.String())
	status, _ = send[ReceiptResponse](t, r, req)
	assert.Equal(t, gohttp.StatusUnauthorized, status)

	// signed by someone else
	req = newRequest(t, gohttp.MethodPost, "/api/v1/swap", body, newKey())
	req.Header.Set(middlewares.WalletHeader, payer.String())
	status, _ = send[ReceiptResponse](t, r, req)
	assert.Equal(t, gohttp.StatusUnauthorized, status)

	req = newRequest(t, gohttp.MethodPost, "/api/v1/swap", body, nil)
	signRequest(t, req, payerKey, time.Now().Add(-2*middlewares.MaxClockSkew), payload)
	status, _ = send[ReceiptResponse](t, r, req)
	assert.Equal(t, gohttp.StatusUnauthorized, status)

	// body swapped after signing
	req = newRequest(t, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String()},
		WeightsBps: []uint16{10000},
		Amount:     "9000000000",
	}, nil)
	signRequest(t, req, payerKey, time.Now(), payload)
	status, _ = send[ReceiptResponse](t, r, req)
	assert.Equal(t, gohttp.StatusUnauthorized, status)

	assert.Equal(t, uint64(10_000_000_000), svc.Balance(payer, common.NativeMint).Uint64())
	assert.Equal(t, pairReserve, svc.Balance(solana.PublicKey{0x50, 0}, common.NativeMint))

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", body, payerKey)
	require.Equal(t, gohttp.StatusOK, status, env.Error)
	assert.Equal(t, payer.String(), env.Data.Payer)
	assert.Equal(t, uint64(9_000_000_000), svc.Balance(payer, common.NativeMint).Uint64())
}

func TestSwapRoutesRejectPoolAccounts(t *testing.T) {
	r, svc := newTestRouter(t)
	poolKey := newKey()
	pool := poolKey.PublicKey()
	deep := "1000000000000"

	status, detail := do[PoolDetailResponse](t, r, gohttp.MethodPost, "/api/v1/admin/pools", RegisterPoolRequest{
		Address:  pool.String(),
		Type:     "shared",
		Mints:    []string{common.NativeMint.String(), usdc.String()},
		Reserves: map[string]string{common.NativeMint.String(): deep, usdc.String(): deep},
	}, adminKey)
	require.Equal(t, gohttp.StatusOK, status, detail.Error)

	status, env := do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  recipient.String(),
		Assets:     []string{usdc.String()},
		WeightsBps: []uint16{10000},
		Amount:     "5000000000",
	}, poolKey)
	assert.Equal(t, gohttp.StatusBadRequest, status, env.Error)
	assert.Equal(t, deep, svc.Balance(pool, common.NativeMint).Dec())
	assert.True(t, svc.Balance(recipient, usdc).IsZero())

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap", SwapRequest{
		Recipient:  solana.PublicKey{0x50, 0}.String(),
		Assets:     []string{usdc.String()},
		WeightsBps: []uint16{10000},
		Amount:     "1000000000",
	}, payerKey)
	assert.Equal(t, gohttp.StatusBadRequest, status, env.Error)
	assert.Equal(t, uint64(10_000_000_000), svc.Balance(payer, common.NativeMint).Uint64())

	status, env = do[ReceiptResponse](t, r, gohttp.MethodPost, "/api/v1/swap/quote", QuoteRequest{
		Payer:     pool.String(),
		Recipient: recipient.String(),
		Legs:      []LegRequest{{Asset: usdc.String(), WeightBps: 10000}},
		Amount:    "1000000000",
	}, nil)
	assert.Equal(t, gohttp.StatusBadRequest, status, env.Error)
}

func TestAdminRoutesRequireAdminWallet(t *testing.T) {
	r, _ := newTestRouter(t)
	body := SetFeeRequest{FeeBps: 250, Recipient: treasury.String()}

	status, env := do[FeeConfigResponse](t, r, gohttp.MethodPost, "/api/v1/admin/fee", body, nil)
	assert.Equal(t, gohttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)

	status, _ = do[FeeConfigResponse](t, r, gohttp.MethodPost, "/api/v1/admin/fee", body, payerKey)
	assert.Equal(t, gohttp.StatusUnauthorized, status)

	status, env = do[FeeConfigResponse](t, r, gohttp.MethodPost, "/api/v1/admin/fee", SetFeeRequest{FeeBps: 10001, Recipient: treasury.String()}, adminKey)
	assert.Equal(t, gohttp.StatusBadRequest, status)

	status, env = do[FeeConfigResponse](t, r, gohttp.MethodPost, "/api/v1/admin/fee", body, adminKey)
	require.Equal(t, gohttp.StatusOK, status, env.Error)

	status, env = do[FeeConfigResponse](t, r, gohttp.MethodGet, "/api/v1/fee", nil, nil)
	require.Equal(t, gohttp.StatusOK, status)
	assert.Equal(t, uint16(250), env.Data.FeeBps)
}

func TestPoolAndBalanceEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	shared := solana.PublicKey{0x60}

	status, pool := do[PoolDetailResponse](t, r, gohttp.MethodPost, "/api/v1/admin/pools", RegisterPoolRequest{
		Address:  shared.String(),
		Type:     "shared",
		Mints:    []string{common.NativeMint.String(), usdc.String(), bonk.String()},
		FeeBps:   10,
		Reserves: map[string]string{usdc.String(): "5000"},
	}, adminKey)
	require.Equal(t, gohttp.StatusOK, status, pool.Error)
	assert.Equal(t, "Shared", pool.Data.Type)
	require.Len(t, pool.Data.Reserves, 3)
	assert.Equal(t, "5000", pool.Data.Reserves[1].Amount)

	status, _ = do[PoolDetailResponse](t, r, gohttp.MethodPost, "/api/v1/admin/pools", RegisterPoolRequest{
		Address: shared.String(),
		Type:    "shared",
		Mints:   []string{usdc.String(), bonk.String()},
	}, adminKey)
	assert.Equal(t, gohttp.StatusConflict, status)

	status, pool = do[PoolDetailResponse](t, r, gohttp.MethodPost, "/api/v1/admin/pools/"+shared.String()+"/active", SetPoolActiveRequest{Active: false}, adminKey)
	require.Equal(t, gohttp.StatusOK, status)
	assert.False(t, pool.Data.Active)
	assert.False(t, pool.Data.Ready)

	status, list := do[PoolListResponse](t, r, gohttp.MethodGet, "/api/v1/pools/list?limit=2", nil, nil)
	require.Equal(t, gohttp.StatusOK, status)
	assert.Equal(t, 3, list.Data.Total)
	assert.Len(t, list.Data.Pools, 2)
	assert.Equal(t, 2, list.Data.Pages)

	status, _ = do[PoolDetailResponse](t, r, gohttp.MethodGet, "/api/v1/pools/"+solana.PublicKey{0x99}.String(), nil, nil)
	assert.Equal(t, gohttp.StatusNotFound, status)

	status, bal := do[BalanceResponse](t, r, gohttp.MethodPost, "/api/v1/admin/balances/mint", MintRequest{
		Account: recipient.String(),
		Mint:    usdc.String(),
		Amount:  "42",
	}, adminKey)
	require.Equal(t, gohttp.StatusOK, status, bal.Error)
	assert.Equal(t, "42", bal.Data.Amount)

	status, bal = do[BalanceResponse](t, r, gohttp.MethodPost, "/api/v1/admin/balances/freeze", FreezeRequest{
		Account: recipient.String(),
		Mint:    usdc.String(),
		Frozen:  true,
	}, adminKey)
	require.Equal(t, gohttp.StatusOK, status)

	status, bal = do[BalanceResponse](t, r, gohttp.MethodGet, "/api/v1/balances/"+recipient.String()+"/"+usdc.String(), nil, nil)
	require.Equal(t, gohttp.StatusOK, status)
	assert.Equal(t, "42", bal.Data.Amount)
	assert.True(t, bal.Data.Frozen)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.NewRateLimiter(1, 2).RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(gohttp.StatusNoContent) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(gohttp.MethodGet, "/ping", nil))
		codes[i] = w.Code
	}
	assert.Equal(t, []int{gohttp.StatusNoContent, gohttp.StatusNoContent, gohttp.StatusTooManyRequests}, codes)
}
