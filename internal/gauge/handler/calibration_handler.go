package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
)

// CalibrationHandler 外校批次接口
type CalibrationHandler struct {
	svc *service.CalibrationService
}

// NewCalibrationHandler 创建外校处理器
func NewCalibrationHandler(svc *service.CalibrationService) *CalibrationHandler {
	return &CalibrationHandler{svc: svc}
}

// CreateBatch 创建批次
// POST /api/v1/calibration-batches
func (h *CalibrationHandler) CreateBatch(c *gin.Context) {
	var req service.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	batch, err := h.svc.CreateBatch(c.Request.Context(), req, actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, batch)
}

// AddGauge 向批次追加量具
// POST /api/v1/calibration-batches/:id/gauges
func (h *CalibrationHandler) AddGauge(c *gin.Context) {
	var req struct {
		GaugeRef string `json:"gauge_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := h.svc.AddGauge(c.Request.Context(), c.Param("id"), req.GaugeRef, actorID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// RemoveGauge 把量具移出批次
// DELETE /api/v1/calibration-batches/:id/gauges/:ref
func (h *CalibrationHandler) RemoveGauge(c *gin.Context) {
	if err := h.svc.RemoveGauge(c.Request.Context(), c.Param("id"), c.Param("ref"), actorID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// MarkSent 批次发出
// POST /api/v1/calibration-batches/:id/send
func (h *CalibrationHandler) MarkSent(c *gin.Context) {
	batch, err := h.svc.MarkSent(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, batch)
}

// CompleteBatch 批次完成
// POST /api/v1/calibration-batches/:id/complete
func (h *CalibrationHandler) CompleteBatch(c *gin.Context) {
	batch, err := h.svc.CompleteBatch(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, batch)
}

// ActiveBatch 查询量具当前所在的在途批次
// GET /api/v1/gauges/:ref/active-batch
func (h *CalibrationHandler) ActiveBatch(c *gin.Context) {
	batch, err := h.svc.ActiveBatchForGauge(c.Request.Context(), c.Param("ref"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, batch)
}

// Statistics 批次进度统计
// GET /api/v1/calibration-batches/:id/statistics
func (h *CalibrationHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, stats)
}

// ExportManifest 导出批次发货清单
// GET /api/v1/calibration-batches/:id/manifest
func (h *CalibrationHandler) ExportManifest(c *gin.Context) {
	data, err := h.svc.ExportManifest(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("calibration-batch-%s.xlsx", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// UploadCertificate 上传批次校准证书
// POST /api/v1/calibration-batches/:id/certificate
func (h *CalibrationHandler) UploadCertificate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "缺少证书文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	defer src.Close()

	objectName, err := h.svc.AttachCertificate(c.Request.Context(), c.Param("id"),
		file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"certificate_path": objectName})
}

// AuditTrail 查询批次审计记录
// GET /api/v1/calibration-batches/:id/audit
func (h *CalibrationHandler) AuditTrail(c *gin.Context) {
	logs, err := h.svc.AuditTrail(c.Param("id"), 100)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, logs)
}
