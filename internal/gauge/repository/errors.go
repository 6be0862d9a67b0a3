package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义：四类稳定错误，同一业务规则在任何路径下都返回同一类，
// 服务层据此选择响应码
var (
	// ErrNoTransaction 写路径缺少调用方事务句柄
	ErrNoTransaction = errors.New("write requires an open transaction")
	// ErrNotFound 量具、计数器配置或集合成员不存在
	ErrNotFound = errors.New("record not found")
	// ErrInvalidOperation 业务规则不允许：封存、固定设备、状态不符
	ErrInvalidOperation = errors.New("operation not allowed")
	// ErrConflict 资源抢占冲突：量具已被在途批次占用
	ErrConflict = errors.New("conflicting state")
)

// requireTx 写操作前置校验：事务边界由调用方持有，组件不做隐式自动提交。
// 裸连接池句柄也拒绝——自动提交模式下行锁在语句结束即释放，
// 锁定-递增-回写会退化成竞态。
func requireTx(tx *gorm.DB) error {
	if tx == nil {
		return ErrNoTransaction
	}
	if _, ok := tx.Statement.ConnPool.(gorm.TxCommitter); !ok {
		return ErrNoTransaction
	}
	return nil
}
