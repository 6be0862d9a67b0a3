package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
)

// GaugeHandler 量具发放、借还与配对接口
type GaugeHandler struct {
	svc *service.GaugeService
}

// NewGaugeHandler 创建量具处理器
func NewGaugeHandler(svc *service.GaugeService) *GaugeHandler {
	return &GaugeHandler{svc: svc}
}

// IssuePair 发放一对通止规
// POST /api/v1/gauges/pairs
func (h *GaugeHandler) IssuePair(c *gin.Context) {
	var req service.IssuePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	goGauge, noGoGauge, err := h.svc.IssuePair(c.Request.Context(), req, actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, gin.H{"go": goGauge, "no_go": noGoGauge})
}

// Get 查询量具
// GET /api/v1/gauges/:ref
func (h *GaugeHandler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, g)
}

// Checkout 借出量具
// POST /api/v1/gauges/:ref/checkout
func (h *GaugeHandler) Checkout(c *gin.Context) {
	var req struct {
		Department string `json:"department"`
	}
	// 空请求体合法：所有字段均可缺省
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}

	record, err := h.svc.Checkout(c.Request.Context(), c.Param("ref"), actorID(c), req.Department)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, record)
}

// Return 归还量具
// POST /api/v1/gauges/:ref/return
func (h *GaugeHandler) Return(c *gin.Context) {
	if err := h.svc.Return(c.Request.Context(), c.Param("ref"), actorID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Companion 查询配对的另一只量具
// GET /api/v1/gauges/:ref/companion
func (h *GaugeHandler) Companion(c *gin.Context) {
	companion, err := h.svc.Companion(c.Request.Context(), c.Param("ref"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, companion)
}

// PairFromSpares 把两只未配对量具链接成组
// POST /api/v1/gauges/pairs/link
func (h *GaugeHandler) PairFromSpares(c *gin.Context) {
	var req struct {
		GoRef   string `json:"go_ref" binding:"required"`
		NoGoRef string `json:"no_go_ref" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.PairFromSpares(c.Request.Context(), req.GoRef, req.NoGoRef, actorID(c), req.Reason); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// ReplaceCompanion 替换配对
// POST /api/v1/gauges/:ref/replace-companion
func (h *GaugeHandler) ReplaceCompanion(c *gin.Context) {
	var req struct {
		NewRef string `json:"new_ref" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.ReplaceCompanion(c.Request.Context(), c.Param("ref"), req.NewRef, actorID(c), req.Reason); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Unpair 解除配对
// POST /api/v1/gauges/:ref/unpair
func (h *GaugeHandler) Unpair(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Unpair(c.Request.Context(), c.Param("ref"), actorID(c), req.Reason); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// PairingHistory 查询配对历史
// GET /api/v1/gauges/:ref/pairing-history
func (h *GaugeHandler) PairingHistory(c *gin.Context) {
	histories, err := h.svc.PairingHistory(c.Request.Context(), c.Param("ref"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, histories)
}

// ResetSequence 管理员重置序列计数器
// POST /api/v1/admin/sequences/reset
func (h *GaugeHandler) ResetSequence(c *gin.Context) {
	var req struct {
		CategoryID string `json:"category_id" binding:"required"`
		SubType    string `json:"sub_type" binding:"required"`
		Value      int    `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.ResetSequence(req.CategoryID, req.SubType, req.Value); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
