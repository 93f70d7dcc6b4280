package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/domain"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

type FeeHandler struct {
	swapperSvc *swapper.Service
}

func NewFeeHandler(swapperSvc *swapper.Service) *FeeHandler {
	return &FeeHandler{swapperSvc: swapperSvc}
}

func (h *FeeHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getFee)
	admin.POST("", h.setFee)
}

func (h *FeeHandler) Root() string {
	return "/fee"
}

// FeeConfigResponse is the protocol fee taken once per session on the gross amount
type FeeConfigResponse struct {
	FeeBps    uint16 `json:"feeBps" example:"100"`
	Recipient string `json:"recipient,omitempty" example:"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"`
}

func newFeeConfigResponse(cfg domain.FeeConfig) FeeConfigResponse {
	resp := FeeConfigResponse{FeeBps: cfg.FeeBps}
	if !cfg.Recipient.IsZero() {
		resp.Recipient = cfg.Recipient.String()
	}
	return resp
}

// @Summary Current fee configuration
// @Tags fee
// @Produce json
// @Success 200 {object} FeeConfigResponse
// @Router /api/v1/fee [get]
func (h *FeeHandler) getFee(c *gin.Context) {
	httputil.HandleSuccess(c, newFeeConfigResponse(h.swapperSvc.FeeConfig()))
}

// SetFeeRequest replaces the fee configuration
type SetFeeRequest struct {
	// Fee in basis points, at most 10000
	FeeBps uint16 `json:"feeBps" example:"100"`

	// Required when feeBps is non-zero
	Recipient string `json:"recipient,omitempty" example:"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"`
}

// @Summary Set fee configuration
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body SetFeeRequest true "Fee"
// @Success 200 {object} FeeConfigResponse
// @Failure 400 {object} httputil.Response "Fee too high or missing recipient"
// @Failure 401 {object} httputil.Response "Not the admin"
// @Router /api/v1/admin/fee [post]
func (h *FeeHandler) setFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	recipient, err := parseOptionalKey("recipient", req.Recipient)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	cfg, err := h.swapperSvc.SetFee(middlewares.Caller(c), req.FeeBps, recipient)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, newFeeConfigResponse(cfg))
}
