package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	logconfig "github.com/weisyn/poseidon-prover/internal/config/log"
	"github.com/weisyn/poseidon-prover/pkg/types"
)

// readEntries 读取 JSON 格式的日志文件
func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func newFileLogger(t *testing.T, level string) (string, *Logger) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "prover.log")
	logger, err := New(logconfig.New(&types.UserLogConfig{Level: &level, FilePath: &path}))
	require.NoError(t, err)
	return path, logger.(*Logger)
}

// TestStructuredLogging 测试结构化字段写入文件
func TestStructuredLogging(t *testing.T) {
	path, logger := newFileLogger(t, "info")

	logger.With("module", "zkproof", "task_id", "t1").Info("证明完成")
	logger.Debug("不应出现")
	require.NoError(t, logger.Sync())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "证明完成", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "zkproof", entries[0]["module"])
	assert.Equal(t, "t1", entries[0]["task_id"])
}

// TestOddWithArgs 奇数个参数时丢弃最后一个
func TestOddWithArgs(t *testing.T) {
	fields := toZapFields("a", 1, "dangling")
	require.Len(t, fields, 1)
	assert.Equal(t, "a", fields[0].Key)
}

func TestNewModuleLogger(t *testing.T) {
	path, logger := newFileLogger(t, "debug")

	NewModuleLogger(logger, "api").Debugf("监听 %s", ":8080")
	require.NoError(t, logger.Sync())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "api", entries[0]["module"])
	assert.Equal(t, "监听 :8080", entries[0]["message"])

	assert.NotNil(t, NewModuleLogger(nil, "x"))
}

func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	path, logger := newFileLogger(t, "info")
	SetLogger(logger)
	SetLogger(nil)
	assert.Same(t, logger, GetLogger())

	Infof("全局 %d", 1)
	require.NoError(t, logger.Sync())
	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "全局 1", entries[0]["message"])
}
