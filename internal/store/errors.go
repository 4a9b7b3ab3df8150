package store

import "errors"

// 业务错误定义，handler 层据此映射 HTTP 状态码
var (
	// ErrInvalidSlug 自定义短码不符合字符或长度策略
	ErrInvalidSlug = errors.New("短码不符合规则")
	// ErrSlugTaken 短码已被占用
	ErrSlugTaken = errors.New("短码已被占用")
	// ErrNotFound 短码不存在
	ErrNotFound = errors.New("链接不存在")
	// ErrAllocationExhausted 随机短码多次碰撞仍未成功，属于运维告警信号
	ErrAllocationExhausted = errors.New("短码分配失败，键空间可能已饱和")
	// ErrStoreUnavailable 存储暂时不可用（超时或连接失败）
	ErrStoreUnavailable = errors.New("存储暂时不可用")
)
