// Package fixedpoint 提供结算引擎使用的定点数运算原语。
// 所有金额统一为带 1e8 隐含小数位的 256 位无符号整数，
// 任何乘除运算必须经过本包的溢出检查接口，保证各副本结果逐位一致。
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrArithmeticOverflow  = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrNegativeAmount      = errors.New("negative amount")
)

// Decimals 隐含小数位数。与主流交易所的 8 位计价精度保持一致。
const Decimals = 8

// One 表示 1.0，即 10^Decimals。
func One() *uint256.Int {
	return uint256.NewInt(100_000_000)
}

// Zero 返回零值金额。
func Zero() *uint256.Int {
	return uint256.NewInt(0)
}

// FromUnits 按隐含精度构造金额，units 为整数单位数。
// FromUnits(5) == 5.0。
func FromUnits(units uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(units), One())
}

// MulDiv 计算 floor(a*b/c)，中间结果放宽到 512 位避免溢出。
// c 为零返回 ErrDivisionByZero；最终结果超出 256 位返回 ErrArithmeticOverflow。
func MulDiv(a, b, c *uint256.Int) (*uint256.Int, error) {
	if c.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, c)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// Add 带溢出检查的加法。
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// Sub 带下溢检查的减法。
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrArithmeticUnderflow
	}
	return z, nil
}

// Mul 带溢出检查的乘法。
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// MulUint64 金额乘以整数份数。
func MulUint64(a *uint256.Int, n uint64) (*uint256.Int, error) {
	return Mul(a, uint256.NewInt(n))
}

// AddUint64 计数器的检查加法，用于发行量累计。
func AddUint64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// SubUint64 计数器的检查减法。
func SubUint64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticUnderflow
	}
	return a - b, nil
}

// SaturatingSub 返回 max(a-b, 0)，用于价内程度计算。
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	if b.Gt(a) {
		return Zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// Min 返回两者中较小的金额。
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// FromDecimal 将 decimal 金额转换为定点表示，截断超出精度的部分。
// 负数返回 ErrNegativeAmount。
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}
	scaled := d.Shift(Decimals).Truncate(0)
	z, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// ToDecimal 将定点金额还原为 decimal，用于对外展示与定价模型。
func ToDecimal(a *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(a.ToBig(), -Decimals)
}
