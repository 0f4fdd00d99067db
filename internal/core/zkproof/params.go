package zkproof

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377"
	kzg_bls12377 "github.com/consensys/gnark-crypto/ecc/bls12-377/kzg"
	"github.com/consensys/gnark-crypto/kzg"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/test/unsafekzg"

	proverconfig "github.com/weisyn/poseidon-prover/internal/config/prover"
	"github.com/weisyn/poseidon-prover/pkg/interfaces/infrastructure/log"
)

// ============================================================================
// 公共参数管理器（SRS）
// ============================================================================
//
// 🎯 **核心职责**：
// - 启动时一次性获得足以容纳最大电路形状的 KZG SRS
// - 优先从 srs_path 加载；文件不存在时按配置生成测试 SRS（可选落盘）
// - 为每个已知域大小预先导出 Lagrange 形式的 SRS
//
// ⚠️ **注意**：
// - Init 成功后所有字段只读，读取不加锁
// - 测试 SRS 的 toxic waste 在生成后即丢弃，但不适合生产
//
// ============================================================================

// ParameterManager 公共参数管理器
type ParameterManager struct {
	logger  log.Logger
	options *proverconfig.ProverOptions

	initMu sync.Mutex
	ready  atomic.Bool

	// 以下字段仅在 Init 中写入
	canonical *kzg_bls12377.SRS
	lagrange  map[int]*kzg_bls12377.SRS
	source    string
}

// NewParameterManager 创建参数管理器（尚未初始化）
func NewParameterManager(logger log.Logger, options *proverconfig.ProverOptions) *ParameterManager {
	return &ParameterManager{
		logger:  logger,
		options: options,
	}
}

// Init 为给定的约束系统集合准备 SRS，只能成功执行一次
func (m *ParameterManager) Init(ctx context.Context, systems []constraint.ConstraintSystem) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.ready.Load() {
		return ErrParamsAlreadyInitialized
	}
	if len(systems) == 0 {
		return fmt.Errorf("没有需要支持的电路形状")
	}

	// 1. 找到最大的电路
	var largest constraint.ConstraintSystem
	maxCanonical := 0
	lagrangeSizes := make(map[int]struct{})
	for _, ccs := range systems {
		sizeCanonical, sizeLagrange := plonk.SRSSize(ccs)
		lagrangeSizes[sizeLagrange] = struct{}{}
		if sizeCanonical > maxCanonical {
			maxCanonical = sizeCanonical
			largest = ccs
		}
	}

	start := time.Now()

	// 2. 加载或生成
	canonical, source, err := m.obtain(ctx, largest, maxCanonical)
	if err != nil {
		return fmt.Errorf("获取SRS失败: %w", err)
	}

	// 3. 预先导出 Lagrange 形式
	lagrange := make(map[int]*kzg_bls12377.SRS, len(lagrangeSizes))
	for size := range lagrangeSizes {
		if err := ctx.Err(); err != nil {
			return err
		}
		l, err := toLagrange(canonical, size)
		if err != nil {
			return err
		}
		lagrange[size] = l
	}

	m.canonical = canonical
	m.lagrange = lagrange
	m.source = source
	m.ready.Store(true)

	m.logger.Infof("✅ 公共参数就绪: source=%s, capacity=%d, lagrange_sizes=%d, 耗时=%v",
		source, len(canonical.Pk.G1), len(lagrange), time.Since(start))
	return nil
}

// obtain 按 文件 → 测试生成 的顺序获取 SRS
func (m *ParameterManager) obtain(ctx context.Context, largest constraint.ConstraintSystem, required int) (*kzg_bls12377.SRS, string, error) {
	path := m.options.SRSPath

	if path != "" {
		srs, err := loadSRS(path, required)
		switch {
		case err == nil:
			return srs, "file:" + path, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, "", err
		}
		m.logger.Warnf("SRS 文件不存在: %s", path)
	}

	if !m.options.AllowUnsafeSetup {
		return nil, "", ErrUnsafeSetupDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	m.logger.Warn("⚠️ 生成测试用 SRS（unsafekzg），不可用于生产环境")
	generated, _, err := unsafekzg.NewSRS(largest)
	if err != nil {
		return nil, "", fmt.Errorf("生成测试SRS失败: %w", err)
	}
	srs, ok := generated.(*kzg_bls12377.SRS)
	if !ok {
		return nil, "", fmt.Errorf("测试SRS曲线不匹配: %T", generated)
	}

	if path != "" && m.options.PersistSRS {
		if err := persistSRS(path, srs); err != nil {
			// 落盘失败不影响本进程使用
			m.logger.Errorf("写入SRS文件失败: %v", err)
		} else {
			m.logger.Infof("SRS 已写入: %s", path)
		}
	}
	return srs, "unsafe", nil
}

// srsHeaderSize 证明密钥 G1 切片的长度前缀（大端 uint32）
const srsHeaderSize = 4

// srsMinTrailer 验证密钥部分的最小字节数：两个 G2 点与一个 G1 点（压缩）
const srsMinTrailer = 2*bls12377.SizeOfG2AffineCompressed + bls12377.SizeOfG1AffineCompressed

// loadSRS 从文件读取 SRS
//
// 解码器按文件头中的切片长度一次性分配内存，因此先用文件大小校验长度前缀，
// 再把读取范围限制在文件大小之内。
func loadSRS(path string, required int) (*kzg_bls12377.SRS, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()

	var header [srsHeaderSize]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %s 长度=%d 字节，缺少文件头", ErrSRSCorrupt, path, size)
	}
	points := int64(binary.BigEndian.Uint32(header[:]))

	need := srsHeaderSize + points*bls12377.SizeOfG1AffineCompressed + srsMinTrailer
	if size < need {
		return nil, fmt.Errorf("%w: %s 声明 %d 个 G1 点，至少需要 %d 字节，实际 %d 字节",
			ErrSRSCorrupt, path, points, need, size)
	}
	if points < int64(required) {
		return nil, fmt.Errorf("%w: 文件 %s 容量=%d, 需要=%d", ErrSRSTooSmall, path, points, required)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	srs := new(kzg_bls12377.SRS)
	if _, err := srs.ReadFrom(io.LimitReader(f, size)); err != nil {
		return nil, fmt.Errorf("%w: 读取 %s 失败: %v", ErrSRSCorrupt, path, err)
	}
	if len(srs.Pk.G1) < required {
		return nil, fmt.Errorf("%w: 文件 %s 容量=%d, 需要=%d", ErrSRSTooSmall, path, len(srs.Pk.G1), required)
	}
	return srs, nil
}

// persistSRS 先写临时文件再重命名，避免留下半截文件
func persistSRS(path string, srs *kzg_bls12377.SRS) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".srs-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := srs.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// toLagrange 由规范形式 SRS 的前 size 个点导出 Lagrange 形式
func toLagrange(canonical *kzg_bls12377.SRS, size int) (*kzg_bls12377.SRS, error) {
	if size > len(canonical.Pk.G1) {
		return nil, fmt.Errorf("%w: 容量=%d, lagrange=%d", ErrSRSTooSmall, len(canonical.Pk.G1), size)
	}
	points, err := kzg_bls12377.ToLagrangeG1(canonical.Pk.G1[:size])
	if err != nil {
		return nil, fmt.Errorf("导出Lagrange SRS失败: %w", err)
	}
	l := &kzg_bls12377.SRS{Vk: canonical.Vk}
	l.Pk.G1 = points
	return l, nil
}

// Ready 是否已初始化
func (m *ParameterManager) Ready() bool {
	return m.ready.Load()
}

// Capacity SRS 的 G1 点数
func (m *ParameterManager) Capacity() int {
	if !m.Ready() {
		return 0
	}
	return len(m.canonical.Pk.G1)
}

// Source SRS 来源描述（file:<path> 或 unsafe）
func (m *ParameterManager) Source() string {
	if !m.Ready() {
		return ""
	}
	return m.source
}

// SRSFor 返回约束系统对应的 (规范, Lagrange) SRS
//
// Init 时未见过的域大小会临时导出 Lagrange 形式，但不写回缓存。
func (m *ParameterManager) SRSFor(ccs constraint.ConstraintSystem) (kzg.SRS, kzg.SRS, error) {
	if !m.Ready() {
		return nil, nil, ErrParamsNotReady
	}

	sizeCanonical, sizeLagrange := plonk.SRSSize(ccs)
	if sizeCanonical > len(m.canonical.Pk.G1) {
		return nil, nil, fmt.Errorf("%w: 容量=%d, 需要=%d", ErrSRSTooSmall, len(m.canonical.Pk.G1), sizeCanonical)
	}

	if l, ok := m.lagrange[sizeLagrange]; ok {
		return m.canonical, l, nil
	}
	l, err := toLagrange(m.canonical, sizeLagrange)
	if err != nil {
		return nil, nil, err
	}
	return m.canonical, l, nil
}
