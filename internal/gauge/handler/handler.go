package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/repository"
	"github.com/kelly-enterprises/gauge-erp/internal/gauge/service"
)

// Handlers 处理器集合
type Handlers struct {
	Gauge       *GaugeHandler
	Transfer    *TransferHandler
	Unseal      *UnsealHandler
	Calibration *CalibrationHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Gauge:       NewGaugeHandler(svc.Gauge),
		Transfer:    NewTransferHandler(svc.Transfer),
		Unseal:      NewUnsealHandler(svc.Unseal),
		Calibration: NewCalibrationHandler(svc.Calibration),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// HandleError 仓库层错误到响应码的统一映射：
// 同一业务规则无论从哪条路径触发，响应码一致
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		Error(c, 40400, err.Error())
	case errors.Is(err, repository.ErrInvalidOperation):
		Error(c, 42200, err.Error())
	case errors.Is(err, repository.ErrConflict):
		Error(c, 40900, err.Error())
	case errors.Is(err, repository.ErrNoTransaction):
		Error(c, 50000, err.Error())
	default:
		Error(c, 50000, err.Error())
	}
}

// actorID 从认证中间件取操作人身份
func actorID(c *gin.Context) string {
	return c.GetString("user_id")
}
