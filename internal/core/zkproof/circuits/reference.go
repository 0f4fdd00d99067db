package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/poseidon2"
)

// Digest 计算与 PoseidonCircuit 一致的链下 Poseidon2 摘要
//
// 每个输入必须位于 [0, r) 内，r 为 BLS12-377 标量域模数。
func Digest(values []*big.Int) (*big.Int, error) {
	modulus := fr.Modulus()
	hasher := poseidon2.NewMerkleDamgardHasher()

	buf := make([]byte, fr.Bytes)
	for i, v := range values {
		if v == nil || v.Sign() < 0 || v.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("第%d个输入不在标量域内: %v", i, v)
		}
		v.FillBytes(buf)
		if _, err := hasher.Write(buf); err != nil {
			return nil, fmt.Errorf("写入Poseidon2哈希器失败: %w", err)
		}
	}

	return new(big.Int).SetBytes(hasher.Sum(nil)), nil
}
