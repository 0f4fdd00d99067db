// Package log 定义证明服务各模块共用的日志接口
//
// 实现位于 internal/core/infrastructure/log（基于 zap）。
// 各模块通过 With("module", name) 派生带模块标识的子日志器。
package log

import "go.uber.org/zap"

// LogLevel 日志级别
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// Logger 日志记录器接口
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})

	Info(msg string)
	Infof(format string, args ...interface{})

	Warn(msg string)
	Warnf(format string, args ...interface{})

	Error(msg string)
	Errorf(format string, args ...interface{})

	// Fatal 记录后退出进程
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With 返回附加了键值对字段的子日志器，参数按 key1, value1, key2, value2 排列
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 获取底层 zap 日志器，供需要结构化字段的调用方使用
	GetZapLogger() *zap.Logger
}
