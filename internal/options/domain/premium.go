package domain

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// PremiumModel 权利金定价模型接口。
// 引擎不规定定价公式，只要求同样输入产生同样输出。
type PremiumModel interface {
	// Premium 买入 amount 份需支付的计价资产总额。
	Premium(series *OptionSeries, amount uint64, spot *uint256.Int) (*uint256.Int, error)
}

// FlatPremiumModel 每份固定权利金的占位模型。
type FlatPremiumModel struct {
	PerOption *uint256.Int
}

// NewFlatPremiumModel 创建固定权利金模型。
func NewFlatPremiumModel(perOption *uint256.Int) *FlatPremiumModel {
	return &FlatPremiumModel{PerOption: perOption.Clone()}
}

func (m *FlatPremiumModel) Premium(_ *OptionSeries, amount uint64, _ *uint256.Int) (*uint256.Int, error) {
	return fixedpoint.MulUint64(m.PerOption, amount)
}

// IntrinsicPremiumModel 内在价值加成定价模型。
// 权利金 = (内在价值 + 行权价 × LoadingRate) × 份数，全部使用 decimal
// 精确运算后转换回定点金额，不引入浮点。
type IntrinsicPremiumModel struct {
	// LoadingRate 时间价值加成比例，例如 0.02 表示行权价的 2%。
	LoadingRate decimal.Decimal
}

// NewIntrinsicPremiumModel 创建内在价值定价模型。
func NewIntrinsicPremiumModel(loadingRate decimal.Decimal) *IntrinsicPremiumModel {
	return &IntrinsicPremiumModel{LoadingRate: loadingRate}
}

func (m *IntrinsicPremiumModel) Premium(series *OptionSeries, amount uint64, spot *uint256.Int) (*uint256.Int, error) {
	strike := fixedpoint.ToDecimal(series.Strike)
	price := fixedpoint.ToDecimal(spot)

	var intrinsic decimal.Decimal
	if series.Kind == OptionKindCall {
		intrinsic = price.Sub(strike)
	} else {
		intrinsic = strike.Sub(price)
	}
	if intrinsic.IsNegative() {
		intrinsic = decimal.Zero
	}

	loading := strike.Mul(m.LoadingRate)
	perOption := intrinsic.Add(loading)
	total := perOption.Mul(decimal.NewFromUint64(amount))

	return fixedpoint.FromDecimal(total)
}
