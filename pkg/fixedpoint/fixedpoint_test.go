package fixedpoint

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func TestMulDiv(t *testing.T) {
	maxU256 := new(uint256.Int).Sub(uint256.NewInt(0), uint256.NewInt(1)) // 2^256 - 1

	tests := []struct {
		name    string
		a, b, c *uint256.Int
		want    *uint256.Int
		wantErr error
	}{
		{name: "exact", a: u(10), b: u(6), c: u(3), want: u(20)},
		{name: "floor", a: u(7), b: u(3), c: u(2), want: u(10)},
		{name: "zero numerator", a: u(0), b: u(123), c: u(7), want: u(0)},
		{name: "division by zero", a: u(1), b: u(1), c: u(0), wantErr: ErrDivisionByZero},
		{name: "wide intermediate", a: maxU256, b: u(1000), c: u(1000), want: maxU256},
		{name: "overflow result", a: maxU256, b: u(2), c: u(1), wantErr: ErrArithmeticOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.c)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MulDiv() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MulDiv() unexpected error: %v", err)
			}
			if !got.Eq(tt.want) {
				t.Fatalf("MulDiv() = %s, want %s", got.Dec(), tt.want.Dec())
			}
		})
	}
}

func TestCheckedAddSub(t *testing.T) {
	maxU256 := new(uint256.Int).Sub(uint256.NewInt(0), uint256.NewInt(1))

	if _, err := Add(maxU256, u(1)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("Add overflow: got %v", err)
	}
	if got, err := Add(u(2), u(3)); err != nil || !got.Eq(u(5)) {
		t.Fatalf("Add(2,3) = %v, %v", got, err)
	}
	if _, err := Sub(u(2), u(3)); !errors.Is(err, ErrArithmeticUnderflow) {
		t.Fatalf("Sub underflow: got %v", err)
	}
	if got, err := Sub(u(3), u(2)); err != nil || !got.Eq(u(1)) {
		t.Fatalf("Sub(3,2) = %v, %v", got, err)
	}
}

func TestUint64Counters(t *testing.T) {
	if _, err := AddUint64(^uint64(0), 1); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("AddUint64 overflow: got %v", err)
	}
	if got, err := AddUint64(7, 9); err != nil || got != 16 {
		t.Fatalf("AddUint64(7,9) = %d, %v", got, err)
	}
	if _, err := SubUint64(3, 5); !errors.Is(err, ErrArithmeticUnderflow) {
		t.Fatalf("SubUint64 underflow: got %v", err)
	}
}

func TestSaturatingSubAndMin(t *testing.T) {
	if got := SaturatingSub(u(3), u(10)); !got.IsZero() {
		t.Fatalf("SaturatingSub(3,10) = %s, want 0", got.Dec())
	}
	if got := SaturatingSub(u(10), u(3)); !got.Eq(u(7)) {
		t.Fatalf("SaturatingSub(10,3) = %s, want 7", got.Dec())
	}
	if got := Min(u(4), u(9)); !got.Eq(u(4)) {
		t.Fatalf("Min(4,9) = %s", got.Dec())
	}
}

func TestFromDecimal(t *testing.T) {
	got, err := FromDecimal(decimal.RequireFromString("1.23456789"))
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if !got.Eq(u(123456789)) {
		t.Fatalf("FromDecimal(1.23456789) = %s, want 123456789", got.Dec())
	}

	// 超出精度的部分截断，不四舍五入。
	got, err = FromDecimal(decimal.RequireFromString("0.000000019"))
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if !got.Eq(u(1)) {
		t.Fatalf("FromDecimal truncation = %s, want 1", got.Dec())
	}

	if _, err := FromDecimal(decimal.RequireFromString("-1")); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("FromDecimal(-1): got %v", err)
	}
}

func TestFromUnitsRoundTrip(t *testing.T) {
	a := FromUnits(5)
	if got := ToDecimal(a); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("ToDecimal(FromUnits(5)) = %s", got.String())
	}
}
