package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
)

// UnsealHandler 启封审批接口
type UnsealHandler struct {
	svc *service.UnsealService
}

// NewUnsealHandler 创建启封处理器
func NewUnsealHandler(svc *service.UnsealService) *UnsealHandler {
	return &UnsealHandler{svc: svc}
}

// Request 申请启封
// POST /api/v1/unseal-requests
func (h *UnsealHandler) Request(c *gin.Context) {
	var req struct {
		GaugeRef string `json:"gauge_ref" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	request, err := h.svc.Request(c.Request.Context(), req.GaugeRef, actorID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, request)
}

// Approve 批准启封
// POST /api/v1/unseal-requests/:id/approve
func (h *UnsealHandler) Approve(c *gin.Context) {
	var params service.ApproveParams
	// 空请求体合法：到期日与周期走默认值
	if err := c.ShouldBindJSON(&params); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}

	request, err := h.svc.Approve(c.Request.Context(), c.Param("id"), actorID(c), params)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, request)
}

// Reject 驳回启封
// POST /api/v1/unseal-requests/:id/reject
func (h *UnsealHandler) Reject(c *gin.Context) {
	request, err := h.svc.Reject(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, request)
}

// ListPending 查询待审批申请
// GET /api/v1/unseal-requests/pending
func (h *UnsealHandler) ListPending(c *gin.Context) {
	views, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, views)
}
