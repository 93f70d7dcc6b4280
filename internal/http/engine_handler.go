package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

type EngineHandler struct {
	swapperSvc *swapper.Service
}

func NewEngineHandler(swapperSvc *swapper.Service) *EngineHandler {
	return &EngineHandler{swapperSvc: swapperSvc}
}

func (h *EngineHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/version", h.getVersion)
	admin.POST("/upgrade", h.upgrade)
}

func (h *EngineHandler) Root() string {
	return "/engine"
}

// EngineInfoResponse describes the active routing logic
type EngineInfoResponse struct {
	Version       uint8             `json:"version" example:"1"`
	LatestVersion uint8             `json:"latestVersion" example:"2"`
	Custody       string            `json:"custody"`
	InputMint     string            `json:"inputMint" example:"So11111111111111111111111111111111111111112"`
	Fee           FeeConfigResponse `json:"fee"`
}

func (h *EngineHandler) info() EngineInfoResponse {
	return EngineInfoResponse{
		Version:       uint8(h.swapperSvc.EngineVersion()),
		LatestVersion: uint8(domain.LatestVersion),
		Custody:       h.swapperSvc.Custody().String(),
		InputMint:     h.swapperSvc.InputMint().String(),
		Fee:           newFeeConfigResponse(h.swapperSvc.FeeConfig()),
	}
}

// @Summary Engine version
// @Tags engine
// @Produce json
// @Success 200 {object} EngineInfoResponse
// @Router /api/v1/engine/version [get]
func (h *EngineHandler) getVersion(c *gin.Context) {
	httputil.HandleSuccess(c, h.info())
}

// UpgradeRequest moves the engine to the next routing logic version
type UpgradeRequest struct {
	From uint8 `json:"from" binding:"required" example:"1"`
	To   uint8 `json:"to" binding:"required" example:"2"`
}

// @Summary Upgrade routing logic
// @Description Swaps in the next routing logic. Fee configuration and admin carry over unchanged.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body UpgradeRequest true "Migration"
// @Success 200 {object} EngineInfoResponse
// @Failure 400 {object} httputil.Response "Invalid migration"
// @Failure 401 {object} httputil.Response "Not the admin"
// @Router /api/v1/admin/engine/upgrade [post]
func (h *EngineHandler) upgrade(c *gin.Context) {
	var req UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if _, err := h.swapperSvc.Migrate(middlewares.Caller(c), domain.EngineVersion(req.From), domain.EngineVersion(req.To)); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, h.info())
}
