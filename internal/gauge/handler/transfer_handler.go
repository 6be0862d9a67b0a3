package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
)

// TransferHandler 保管权转移接口
type TransferHandler struct {
	svc *service.TransferService
}

// NewTransferHandler 创建转移处理器
func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Create 发起转移申请
// POST /api/v1/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	var req service.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	transfer, err := h.svc.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, transfer)
}

// Accept 接收转移
// POST /api/v1/transfers/:id/accept
func (h *TransferHandler) Accept(c *gin.Context) {
	transfer, err := h.svc.Accept(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, transfer)
}

// Reject 拒绝转移
// POST /api/v1/transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	transfer, err := h.svc.Reject(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, transfer)
}

// Cancel 撤回转移
// POST /api/v1/transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	transfer, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, transfer)
}

// Complete 完成交接
// POST /api/v1/transfers/:id/complete
func (h *TransferHandler) Complete(c *gin.Context) {
	transfer, err := h.svc.Complete(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, transfer)
}

// ListMine 查询与当前用户相关的转移单
// GET /api/v1/transfers
func (h *TransferHandler) ListMine(c *gin.Context) {
	views, err := h.svc.ListForUser(c.Request.Context(), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, views)
}
