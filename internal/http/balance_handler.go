package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

type BalanceHandler struct {
	swapperSvc *swapper.Service
}

func NewBalanceHandler(swapperSvc *swapper.Service) *BalanceHandler {
	return &BalanceHandler{swapperSvc: swapperSvc}
}

func (h *BalanceHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:account/:mint", h.getBalance)
	admin.POST("/mint", h.mint)
	admin.POST("/freeze", h.freeze)
}

func (h *BalanceHandler) Root() string {
	return "/balances"
}

// BalanceResponse is one ledger balance
type BalanceResponse struct {
	Account string `json:"account"`
	Mint    string `json:"mint"`
	Amount  string `json:"amount" example:"1000000000"`
	Frozen  bool   `json:"frozen" example:"false"`
}

// @Summary Ledger balance
// @Tags balances
// @Produce json
// @Param account path string true "Account address"
// @Param mint path string true "Mint address"
// @Success 200 {object} BalanceResponse
// @Router /api/v1/balances/{account}/{mint} [get]
func (h *BalanceHandler) getBalance(c *gin.Context) {
	account, err := parseKey("account", c.Param("account"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", c.Param("mint"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, BalanceResponse{
		Account: account.String(),
		Mint:    mint.String(),
		Amount:  h.swapperSvc.Balance(account, mint).Dec(),
		Frozen:  h.swapperSvc.IsFrozen(account, mint),
	})
}

// MintRequest credits new supply to an account
type MintRequest struct {
	Account string `json:"account" binding:"required"`
	Mint    string `json:"mint" binding:"required"`
	Amount  string `json:"amount" binding:"required" example:"1000000000"`
}

// @Summary Mint balance
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body MintRequest true "Mint"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} httputil.Response "Invalid request"
// @Failure 401 {object} httputil.Response "Not the admin"
// @Router /api/v1/admin/balances/mint [post]
func (h *BalanceHandler) mint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	account, err := parseKey("account", req.Account)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", req.Mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	if err := h.swapperSvc.Mint(middlewares.Caller(c), account, mint, amount); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, BalanceResponse{
		Account: account.String(),
		Mint:    mint.String(),
		Amount:  h.swapperSvc.Balance(account, mint).Dec(),
		Frozen:  h.swapperSvc.IsFrozen(account, mint),
	})
}

// FreezeRequest makes an account reject or accept incoming transfers of a mint
type FreezeRequest struct {
	Account string `json:"account" binding:"required"`
	Mint    string `json:"mint" binding:"required"`
	Frozen  bool   `json:"frozen" example:"true"`
}

// @Summary Freeze or thaw account
// @Tags admin
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Admin wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body FreezeRequest true "Freeze"
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} httputil.Response "Not the admin"
// @Router /api/v1/admin/balances/freeze [post]
func (h *BalanceHandler) freeze(c *gin.Context) {
	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	account, err := parseKey("account", req.Account)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", req.Mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	if err := h.swapperSvc.SetFrozen(middlewares.Caller(c), account, mint, req.Frozen); err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, BalanceResponse{
		Account: account.String(),
		Mint:    mint.String(),
		Amount:  h.swapperSvc.Balance(account, mint).Dec(),
		Frozen:  req.Frozen,
	})
}
