package domain

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// ComputePayout 计算到期时应划拨给买方托管账户的抵押品总量。
//
// Call: 买方覆盖的抵押品 × (现价 - 行权价) / 现价，以基础资产计。
// Put:  买方覆盖的抵押品 × (行权价 - 现价) / 行权价 再换算为计价资产，
//       等价于 份数 × 抵押系数 × (行权价 - 现价)。
// 两者的价内程度在零处饱和，结果严格不超过买方覆盖的锁定抵押品，
// 极端价格下协议损失有界。
func ComputePayout(series *OptionSeries, spot *uint256.Int) (*uint256.Int, error) {
	if spot.IsZero() {
		return nil, ErrPriceUnavailable
	}
	if series.BuyerIssuance == 0 {
		return fixedpoint.Zero(), nil
	}

	// 买方覆盖的抵押品数量，也是赔付的硬上限。
	coveredBase, err := fixedpoint.MulUint64(series.CollateralPerOption, series.BuyerIssuance)
	if err != nil {
		return nil, err
	}

	if series.Kind == OptionKindCall {
		intrinsic := fixedpoint.SaturatingSub(spot, series.Strike)
		if intrinsic.IsZero() {
			return fixedpoint.Zero(), nil
		}
		payout, err := fixedpoint.MulDiv(coveredBase, intrinsic, spot)
		if err != nil {
			return nil, err
		}
		return fixedpoint.Min(payout, coveredBase), nil
	}

	// Put：锁定的是计价资产。
	coveredQuote, err := fixedpoint.MulDiv(coveredBase, series.Strike, fixedpoint.One())
	if err != nil {
		return nil, err
	}
	intrinsic := fixedpoint.SaturatingSub(series.Strike, spot)
	if intrinsic.IsZero() {
		return fixedpoint.Zero(), nil
	}
	payout, err := fixedpoint.MulDiv(coveredBase, intrinsic, fixedpoint.One())
	if err != nil {
		return nil, err
	}
	return fixedpoint.Min(payout, coveredQuote), nil
}

// SettlementLine 结算计划中单个卖方的变动。
type SettlementLine struct {
	Account         AccountID
	CollateralShare *uint256.Int // 该卖方分摊的赔付抵押品
	SharesDelta     *uint256.Int // 对应扣减的金库份额
	Premium         *uint256.Int // 分配到的权利金
	NewShares       *uint256.Int // 扣减后的份额余额
	NewPremium      *uint256.Int // 累计后的权利金余额
}

// SettlementPlan 一次结算的全部状态变动。先完整试算、后一次性落账，
// 任何一行失败整个计划作废，卖方状态不发生部分修改。
type SettlementPlan struct {
	SeriesID    AssetID
	Spot        *uint256.Int
	PayoutTotal *uint256.Int
	Lines       []SettlementLine
}

// BuildSettlementPlan 试算每个卖方按 option_amount/SellerIssuance 比例
// 分摊的抵押品、份额与权利金。sharesFor 把抵押品数量换算为金库份额。
// 扣减下溢在此处暴露为 ErrArithmeticUnderflow，调用方必须放弃整个结算。
func BuildSettlementPlan(
	series *OptionSeries,
	positions []*SellerPosition,
	spot, payout *uint256.Int,
	sharesFor func(amount *uint256.Int) (*uint256.Int, error),
) (*SettlementPlan, error) {
	plan := &SettlementPlan{
		SeriesID:    series.SeriesID,
		Spot:        spot.Clone(),
		PayoutTotal: payout.Clone(),
		Lines:       make([]SettlementLine, 0, len(positions)),
	}
	if series.SellerIssuance == 0 {
		return plan, nil
	}

	totalSeller := uint256.NewInt(series.SellerIssuance)
	distributed := fixedpoint.Zero()

	for _, pos := range positions {
		opt := uint256.NewInt(pos.OptionAmount)

		collateral, err := fixedpoint.MulDiv(payout, opt, totalSeller)
		if err != nil {
			return nil, fmt.Errorf("collateral split for %s: %w", pos.Account, err)
		}

		shares, err := sharesFor(collateral)
		if err != nil {
			return nil, fmt.Errorf("shares conversion for %s: %w", pos.Account, err)
		}

		newShares, err := fixedpoint.Sub(pos.SharesAmount, shares)
		if err != nil {
			return nil, fmt.Errorf("shares deduction for %s: %w", pos.Account, err)
		}

		premium, err := fixedpoint.MulDiv(series.PremiumCollected, opt, totalSeller)
		if err != nil {
			return nil, fmt.Errorf("premium split for %s: %w", pos.Account, err)
		}

		newPremium, err := fixedpoint.Add(pos.PremiumAmount, premium)
		if err != nil {
			return nil, fmt.Errorf("premium accrual for %s: %w", pos.Account, err)
		}

		sum, err := fixedpoint.Add(distributed, collateral)
		if err != nil {
			return nil, err
		}
		distributed = sum

		plan.Lines = append(plan.Lines, SettlementLine{
			Account:         pos.Account,
			CollateralShare: collateral,
			SharesDelta:     shares,
			Premium:         premium,
			NewShares:       newShares,
			NewPremium:      newPremium,
		})
	}

	// 向下取整的分摊之和不得超过总赔付，超出说明计划本身有缺陷。
	if distributed.Gt(payout) {
		return nil, ErrArithmeticOverflow
	}
	return plan, nil
}

// Apply 把试算结果落到头寸账本上。调用前所有校验已在试算阶段完成，不再失败。
func (p *SettlementPlan) Apply(book *PositionBook) {
	for i := range p.Lines {
		line := &p.Lines[i]
		pos, err := book.Get(p.SeriesID, line.Account)
		if err != nil {
			continue
		}
		pos.SharesAmount = line.NewShares.Clone()
		pos.PremiumAmount = line.NewPremium.Clone()
	}
}
