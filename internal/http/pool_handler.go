package http

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/services/market"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

type PoolHandler struct {
	swapperSvc *swapper.Service
}

func NewPoolHandler(swapperSvc *swapper.Service) *PoolHandler {
	return &PoolHandler{swapperSvc: swapperSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/list", h.listPools)
	pub.GET("/:address", h.getPool)

	admin.POST("", h.registerPool)
	admin.POST("/:address/active", h.setActive)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolStatsResponse contains aggregated statistics about listed pools
type PoolStatsResponse struct {
	// Number of pools listed in the pair factory and the shared registry
	PoolCount int `json:"pool_count" example:"12"`

	// Number of registrations and activation changes since start
	UpdateCount uint64 `json:"update_count" example:"40"`
}

// @Summary Pool statistics
// @Tags pools
// @Produce json
// @Success 200 {object} PoolStatsResponse
// @Router /api/v1/pools/stats [get]
func (h *PoolHandler) getStats(c *gin.Context) {
	poolCount, updateCount := h.swapperSvc.GetStats()
	httputil.HandleSuccess(c, PoolStatsResponse{
		PoolCount:   poolCount,
		UpdateCount: updateCount,
	})
}

// PoolInfo contains basic information about a liquidity pool
type PoolInfo struct {
	Address string   `json:"address" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`
	Type    string   `json:"type" example:"Pair"`
	Mints   []string `json:"mints"`
	FeeBps  uint16   `json:"fee_bps" example:"30"`
	Active  bool     `json:"active" example:"true"`
}

// PoolListResponse contains a page of listed pools
type PoolListResponse struct {
	Pools []PoolInfo `json:"pools"`
	Total int        `json:"total" example:"12"`
	Page  int        `json:"page" example:"1"`
	Limit int        `json:"limit" example:"100"`
	Pages int        `json:"pages" example:"1"`
}

func newPoolInfo(pool *domain.Pool) PoolInfo {
	mints := make([]string, len(pool.Mints))
	for i, m := range pool.Mints {
		mints[i] = m.String()
	}
	return PoolInfo{
		Address: pool.Address.String(),
		Type:    pool.Type.String(),
		Mints:   mints,
		FeeBps:  pool.FeeBps,
		Active:  pool.Active,
	}
}

// @Summary List pools
// @Tags pools
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size, max 500" default(100)
// @Success 200 {object} PoolListResponse
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	allPools := h.swapperSvc.AllPools()
	total := len(allPools)

	pages := (total + limit - 1) / limit
	offset := (page - 1) * limit
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	pools := make([]PoolInfo, 0, end-offset)
	for _, pool := range allPools[offset:end] {
		pools = append(pools, newPoolInfo(pool))
	}

	httputil.HandleSuccess(c, PoolListResponse{
		Pools: pools,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: pages,
	})
}

// ReserveInfo is the ledger balance a pool holds of one mint
type ReserveInfo struct {
	Mint   string `json:"mint"`
	Amount string `json:"amount" example:"1000000000000"`
}

// PoolDetailResponse contains a pool and its current reserves
type PoolDetailResponse struct {
	PoolInfo
	Ready    bool          `json:"ready" example:"true"`
	Reserves []ReserveInfo `json:"reserves"`
}

// @Summary Pool detail
// @Tags pools
// @Produce json
// @Param address path string true "Pool address"
// @Success 200 {object} PoolDetailResponse
// @Failure 404 {object} httputil.Response "Pool not found"
// @Router /api/v1/pools/{address} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	address, err := parseKey("pool", c.Param("address"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	h.respondPool(c, address)
}

func (h *PoolHandler) respondPool(c *gin.Context, address solana.PublicKey) {
	pool, ok := h.swapperSvc.GetPool(address)
	if !ok {
		httputil.HandleNotFound(c, "pool not found")
		return
	}

	reserves := h.swapperSvc.PoolReserves(pool)
	resp := PoolDetailResponse{
		PoolInfo: newPoolInfo(pool),
		Ready:    pool.IsReady(),
		Reserves: make([]ReserveInfo, 0, len(pool.Mints)),
	}
	for _, m := range pool.Mints {
		resp.Reserves = append(resp.Reserves, ReserveInfo{Mint: m.String(), Amount: decString(reserves[m])})
	}
	httputil.HandleSuccess(c, resp)
}

// RegisterPoolRequest lists a pool and seeds its reserves
type RegisterPoolRequest struct {
	Address string `json:"address" binding:"required" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`

	// "pair" for a factory pair, "shared" for a registry pool
	Type string `json:"type" binding:"required" enums:"pair,shared" example:"pair"`

	Mints  []string `json:"mints" binding:"required"`
	FeeBps uint16   `json:"feeBps" example:"30"`

	// Initial reserve per mint in smallest units
	Reserves map[string]string `json:"reserves,omitempty"`
}

func parsePoolType(raw string) (domain.PoolType, error) {
	switch strings.ToLower(raw) {
	case "pair":
		return domain.PoolTypePair, nil
	case "shared":
		return domain.PoolTypeShared, nil
	default:
		return 0, common.HTTPErrorBadRequest("invalid pool type: must be pair or shared")
	}
}

func handlePoolError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidPool):
		httputil.HandleError(c, common.HTTPErrorBadRequest(err.Error()))
	case errors.Is(err, market.ErrPoolExists), errors.Is(err, market.ErrPairExists):
		httputil.HandleError(c, common.HTTPErrorResourceConflict(err.Error()))
	default:
		httputil.HandleError(c, err)
	}
}

// @Summary Register pool
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body RegisterPoolRequest true "Pool"
// @Success 200 {object} PoolDetailResponse
// @Failure 400 {object} httputil.Response "Invalid pool"
// @Failure 401 {object} httputil.Response "Not the admin"
// @Failure 409 {object} httputil.Response "Pool or pair already listed"
// @Router /api/v1/admin/pools [post]
func (h *PoolHandler) registerPool(c *gin.Context) {
	var req RegisterPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	address, err := parseKey("pool", req.Address)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	poolType, err := parsePoolType(req.Type)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	pool := &domain.Pool{Address: address, Type: poolType, FeeBps: req.FeeBps}
	for _, raw := range req.Mints {
		mint, err := parseKey("mint", raw)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		pool.Mints = append(pool.Mints, mint)
	}

	rawMints := make([]string, 0, len(req.Reserves))
	for raw := range req.Reserves {
		rawMints = append(rawMints, raw)
	}
	sort.Strings(rawMints)
	reserves := make(map[solana.PublicKey]*uint256.Int, len(req.Reserves))
	for _, raw := range rawMints {
		mint, err := parseKey("reserve mint", raw)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		amount, err := parseAmount("reserve", req.Reserves[raw])
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		reserves[mint] = amount
	}

	if err := h.swapperSvc.RegisterPool(middlewares.Caller(c), pool, reserves); err != nil {
		handlePoolError(c, err)
		return
	}
	h.respondPool(c, address)
}

// SetPoolActiveRequest toggles whether a pool may be traded
type SetPoolActiveRequest struct {
	Active bool `json:"active" example:"false"`
}

// @Summary Activate or deactivate pool
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param address path string true "Pool address"
// @Param request body SetPoolActiveRequest true "Activation"
// @Success 200 {object} PoolDetailResponse
// @Failure 401 {object} httputil.Response "Not the admin"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Router /api/v1/admin/pools/{address}/active [post]
func (h *PoolHandler) setActive(c *gin.Context) {
	address, err := parseKey("pool", c.Param("address"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var req SetPoolActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := h.swapperSvc.SetPoolActive(middlewares.Caller(c), address, req.Active); err != nil {
		handlePoolError(c, err)
		return
	}
	h.respondPool(c, address)
}
