package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	defaultLogLevel  = "info"
	defaultToConsole = true

	// defaultFilePath 为空表示只输出到控制台
	defaultFilePath = ""

	// 轮转
	defaultMaxSize    = 100 // MB
	defaultMaxBackups = 10
	defaultMaxAge     = 30 // 天
	defaultCompress   = true

	defaultEnableCaller     = true
	defaultEnableStacktrace = true
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
