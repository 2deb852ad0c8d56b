package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: 按权重 w_i / W 用 MulDiv 切分 total，各份额之和不超过 total。
// 这是结算引擎按比例分摊永不超分的数值基础。
func TestMulDivSplitConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("pro-rata split never over-distributes", prop.ForAll(
		func(total uint64, weights []uint64) bool {
			var sumW uint64
			for _, w := range weights {
				if sumW+w < sumW {
					return true // 权重和溢出的输入不构成有效切分
				}
				sumW += w
			}
			if sumW == 0 {
				return true
			}

			totalU := uint256.NewInt(total)
			sumWU := uint256.NewInt(sumW)
			distributed := uint256.NewInt(0)
			for _, w := range weights {
				share, err := MulDiv(totalU, uint256.NewInt(w), sumWU)
				if err != nil {
					return false
				}
				next, err := Add(distributed, share)
				if err != nil {
					return false
				}
				distributed = next
			}
			return !distributed.Gt(totalU)
		},
		gen.UInt64(),
		gen.SliceOf(gen.UInt64Range(0, 1_000_000)),
	))

	properties.Property("MulDiv result bounded by a when b <= c", prop.ForAll(
		func(a, b, c uint64) bool {
			if c == 0 || b > c {
				return true
			}
			got, err := MulDiv(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(c))
			if err != nil {
				return false
			}
			return !got.Gt(uint256.NewInt(a))
		},
		gen.UInt64(),
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
