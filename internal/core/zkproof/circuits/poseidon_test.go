package circuits

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// PoseidonCircuit测试
// ============================================================================
//
// 🎯 **测试目的**：
// 确认电路内 Poseidon2 与链下参考实现一致，且错误摘要无法满足约束。

func bigs(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func assignment(preimage []*big.Int, digest *big.Int) *PoseidonCircuit {
	w := NewPoseidonCircuit(len(preimage))
	for i, v := range preimage {
		w.Preimage[i] = v
	}
	w.Digest = digest
	return w
}

// TestPoseidonCircuit_Width2 测试Chunk默认宽度
func TestPoseidonCircuit_Width2(t *testing.T) {
	assert := test.NewAssert(t)

	preimage := bigs(123, 456)
	digest, err := Digest(preimage)
	require.NoError(t, err)

	assert.CheckCircuit(
		NewPoseidonCircuit(2),
		test.WithValidAssignment(assignment(preimage, digest)),
		test.WithInvalidAssignment(assignment(preimage, new(big.Int).Add(digest, big.NewInt(1)))),
		test.WithCurves(ecc.BLS12_377),
	)
}

// TestPoseidonCircuit_Width8 测试Batch默认宽度
func TestPoseidonCircuit_Width8(t *testing.T) {
	assert := test.NewAssert(t)

	preimage := bigs(1, 2, 3, 4, 5, 6, 7, 8)
	digest, err := Digest(preimage)
	require.NoError(t, err)

	assert.CheckCircuit(
		NewPoseidonCircuit(8),
		test.WithValidAssignment(assignment(preimage, digest)),
		test.WithCurves(ecc.BLS12_377),
	)
}

// TestPoseidonCircuit_MaxFieldElement 原像取 r-1
func TestPoseidonCircuit_MaxFieldElement(t *testing.T) {
	assert := test.NewAssert(t)

	top := new(big.Int).Sub(fr.Modulus(), big.NewInt(1))
	preimage := []*big.Int{top, big.NewInt(0)}
	digest, err := Digest(preimage)
	require.NoError(t, err)

	assert.CheckCircuit(
		NewPoseidonCircuit(2),
		test.WithValidAssignment(assignment(preimage, digest)),
		test.WithCurves(ecc.BLS12_377),
	)
}

func TestDigest_RejectsOutOfField(t *testing.T) {
	_, err := Digest([]*big.Int{fr.Modulus()})
	require.Error(t, err)

	_, err = Digest([]*big.Int{big.NewInt(-1)})
	require.Error(t, err)
}

func TestDigest_OrderMatters(t *testing.T) {
	a, err := Digest(bigs(1, 2))
	require.NoError(t, err)
	b, err := Digest(bigs(2, 1))
	require.NoError(t, err)
	require.NotEqual(t, 0, a.Cmp(b))
	require.Equal(t, -1, a.Cmp(fr.Modulus()))
}

// TestPoseidonCircuit_EmptyPreimage 宽度为 0 时拒绝定义
func TestPoseidonCircuit_EmptyPreimage(t *testing.T) {
	var c PoseidonCircuit
	err := c.Define(nil)
	require.Error(t, err)
}
