package zkproof

import (
	"io"
	"os"
	"sync"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

var gnarkLoggerOnce sync.Once

// ConfigureGnarkLogger 设置 gnark 内部日志（zerolog），进程内只生效一次
//
// gnark 在编译电路与证明时会输出大量调试信息，默认丢弃。
func ConfigureGnarkLogger(enabled bool) {
	gnarkLoggerOnce.Do(func() {
		if !enabled {
			gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
			return
		}
		gnarklogger.Set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
			With().Timestamp().Str("module", "gnark").Logger())
	})
}
