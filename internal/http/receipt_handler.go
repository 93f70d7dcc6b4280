package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

type ReceiptHandler struct {
	swapperSvc *swapper.Service
}

func NewReceiptHandler(swapperSvc *swapper.Service) *ReceiptHandler {
	return &ReceiptHandler{swapperSvc: swapperSvc}
}

func (h *ReceiptHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:id", h.getReceipt)
}

func (h *ReceiptHandler) Root() string {
	return "/receipts"
}

// @Summary Session receipt
// @Tags swap
// @Produce json
// @Param id path string true "Receipt id"
// @Success 200 {object} ReceiptResponse
// @Failure 404 {object} httputil.Response "Receipt not found"
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) getReceipt(c *gin.Context) {
	receipt, err := h.swapperSvc.Receipt(c.Param("id"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, newReceiptResponse(receipt))
}
