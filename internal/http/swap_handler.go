package http

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/services/engine"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

// SwapHandler serves split-swap sessions and their dry-run quotes.
type SwapHandler struct {
	swapperSvc *swapper.Service
}

func NewSwapHandler(swapperSvc *swapper.Service) *SwapHandler {
	return &SwapHandler{swapperSvc: swapperSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("", h.swap)
	private.POST("/v2", h.swapV2)
	pub.POST("/quote", h.quote)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapRequest splits a payment across output assets by weight.
// The payer is the signing wallet.
type SwapRequest struct {
	// Account receiving every leg's output
	Recipient string `json:"recipient" binding:"required" example:"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"`

	// Output asset mints, one per leg
	Assets []string `json:"assets" binding:"required" example:"uSd2czE61Evaf76RNbq4KPpXnkiL3irdzgLFUMe3NoG,DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"`

	// Weight of each leg in basis points, summing to 10000
	WeightsBps []uint16 `json:"weightsBps" binding:"required" example:"3000,7000"`

	// Gross input amount in smallest units
	Amount string `json:"amount" binding:"required" example:"1000000000"`
}

// SwapV2Request routes each leg through its own venue
type SwapV2Request struct {
	Recipient string       `json:"recipient" binding:"required" example:"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"`
	Legs      []LegRequest `json:"legs" binding:"required"`
	Amount    string       `json:"amount" binding:"required" example:"1000000000"`
}

// QuoteRequest is a SwapV2Request with an optional payer
type QuoteRequest struct {
	Payer     string       `json:"payer,omitempty" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
	Recipient string       `json:"recipient" binding:"required" example:"7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"`
	Legs      []LegRequest `json:"legs" binding:"required"`
	Amount    string       `json:"amount" binding:"required" example:"1000000000"`
}

// @Summary Execute split swap
// @Description Pulls the gross amount from the signing wallet, takes the protocol fee once, splits the net
// @Description amount by weight and delivers each leg's output to the recipient.
// @Description The whole session is atomic: if any leg fails nothing moves.
// @Description Under engine v1 every leg uses the default venue; under v2 legs default to "auto".
// @Tags swap
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Paying wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body SwapRequest true "Weighted split"
// @Success 200 {object} ReceiptResponse "Session receipt"
// @Failure 400 {object} httputil.Response "Invalid distribution, amount or address"
// @Failure 401 {object} httputil.Response "Missing or invalid wallet signature"
// @Failure 404 {object} httputil.Response "Venue or pool not found"
// @Failure 422 {object} httputil.Response "Swap or fee transfer failed"
// @Router /api/v1/swap [post]
func (h *SwapHandler) swap(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	recipient, err := parseKey("recipient", req.Recipient)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	swapReq := engine.SwapRequest{
		Payer:      middlewares.Caller(c),
		Recipient:  recipient,
		WeightsBps: req.WeightsBps,
		Amount:     amount,
	}
	for _, raw := range req.Assets {
		asset, err := parseKey("asset", raw)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		swapReq.Assets = append(swapReq.Assets, asset)
	}

	receipt, err := h.swapperSvc.Swap(c.Request.Context(), swapReq)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, newReceiptResponse(receipt))
}

// @Summary Execute split swap with per-leg venues
// @Description Same session as /swap, but each leg names its venue, an optional pool and an optional
// @Description minimum output. Requires engine v2.
// @Tags swap
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Paying wallet"
// @Param X-Timestamp header string true "Unix seconds, signed"
// @Param X-Signature header string true "Wallet signature over the request"
// @Param request body SwapV2Request true "Per-leg split"
// @Success 200 {object} ReceiptResponse "Session receipt"
// @Failure 400 {object} httputil.Response "Invalid distribution, unsupported version or bad input"
// @Failure 401 {object} httputil.Response "Missing or invalid wallet signature"
// @Failure 404 {object} httputil.Response "Venue or pool not found"
// @Failure 422 {object} httputil.Response "Swap or fee transfer failed"
// @Router /api/v1/swap/v2 [post]
func (h *SwapHandler) swapV2(c *gin.Context) {
	var req SwapV2Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	swapReq, err := buildV2Request(middlewares.Caller(c), req.Recipient, req.Amount, req.Legs)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	receipt, err := h.swapperSvc.SwapV2(c.Request.Context(), swapReq)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, newReceiptResponse(receipt))
}

// @Summary Quote split swap
// @Description Runs the session against current reserves without moving any balance.
// @Description Legs are routed by the active engine version. Under v1, legs naming a venue,
// @Description a pool or a minimum output are rejected as an unsupported version.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Per-leg split"
// @Success 200 {object} ReceiptResponse "Simulated receipt"
// @Failure 400 {object} httputil.Response "Invalid request"
// @Failure 404 {object} httputil.Response "Venue or pool not found"
// @Failure 422 {object} httputil.Response "Swap would fail"
// @Router /api/v1/swap/quote [post]
func (h *SwapHandler) quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	payer, err := parseOptionalKey("payer", req.Payer)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	quoteReq, err := buildV2Request(payer, req.Recipient, req.Amount, req.Legs)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	receipt, err := h.swapperSvc.Quote(c.Request.Context(), quoteReq)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, newReceiptResponse(receipt))
}

func buildV2Request(payer solana.PublicKey, rawRecipient, rawAmount string, rawLegs []LegRequest) (engine.SwapV2Request, error) {
	recipient, err := parseKey("recipient", rawRecipient)
	if err != nil {
		return engine.SwapV2Request{}, err
	}
	amount, err := parseAmount("amount", rawAmount)
	if err != nil {
		return engine.SwapV2Request{}, err
	}
	legs, err := legsToDomain(rawLegs)
	if err != nil {
		return engine.SwapV2Request{}, err
	}
	return engine.SwapV2Request{
		Payer:     payer,
		Recipient: recipient,
		Legs:      legs,
		Amount:    amount,
	}, nil
}
