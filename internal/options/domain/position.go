package domain

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// SellerPosition 卖方头寸，按 (系列, 账户) 唯一。
// OptionAmount 为该账户承销的期权份数，SharesAmount 为其在金库中的份额，
// PremiumAmount 为结算时分配、可领取的权利金收入。
type SellerPosition struct {
	SeriesID      AssetID      `json:"series_id"`
	Account       AccountID    `json:"account"`
	OptionAmount  uint64       `json:"option_amount"`
	SharesAmount  *uint256.Int `json:"shares_amount"`
	PremiumAmount *uint256.Int `json:"premium_amount"`
}

// NewSellerPosition 创建空头寸。
func NewSellerPosition(seriesID AssetID, account AccountID) *SellerPosition {
	return &SellerPosition{
		SeriesID:      seriesID,
		Account:       account,
		SharesAmount:  fixedpoint.Zero(),
		PremiumAmount: fixedpoint.Zero(),
	}
}

// Accumulate 追加一次卖出产生的份数与金库份额。
func (p *SellerPosition) Accumulate(optionAmount uint64, shares *uint256.Int) error {
	sum, err := fixedpoint.AddUint64(p.OptionAmount, optionAmount)
	if err != nil {
		return err
	}
	newShares, err := fixedpoint.Add(p.SharesAmount, shares)
	if err != nil {
		return err
	}
	p.OptionAmount = sum
	p.SharesAmount = newShares
	return nil
}

// Empty 头寸是否可以删除。
func (p *SellerPosition) Empty() bool {
	return p.OptionAmount == 0 && p.SharesAmount.IsZero()
}

// PositionBook 卖方头寸账本。两级 map 支持点查与按系列遍历，
// 遍历按账户字典序排序以保证确定性。
type PositionBook struct {
	positions map[AssetID]map[AccountID]*SellerPosition
}

// NewPositionBook 创建空账本。
func NewPositionBook() *PositionBook {
	return &PositionBook{positions: make(map[AssetID]map[AccountID]*SellerPosition)}
}

// Get 点查头寸，不存在返回 ErrPositionNotFound。
func (b *PositionBook) Get(seriesID AssetID, account AccountID) (*SellerPosition, error) {
	bySeries, ok := b.positions[seriesID]
	if !ok {
		return nil, ErrPositionNotFound
	}
	pos, ok := bySeries[account]
	if !ok {
		return nil, ErrPositionNotFound
	}
	return pos, nil
}

// GetOrCreate 点查头寸，首次卖出时创建。
func (b *PositionBook) GetOrCreate(seriesID AssetID, account AccountID) *SellerPosition {
	bySeries, ok := b.positions[seriesID]
	if !ok {
		bySeries = make(map[AccountID]*SellerPosition)
		b.positions[seriesID] = bySeries
	}
	pos, ok := bySeries[account]
	if !ok {
		pos = NewSellerPosition(seriesID, account)
		bySeries[account] = pos
	}
	return pos
}

// BySeries 返回某系列全部头寸，按账户排序。结算的按比例分摊依赖该顺序。
func (b *PositionBook) BySeries(seriesID AssetID) []*SellerPosition {
	bySeries := b.positions[seriesID]
	out := make([]*SellerPosition, 0, len(bySeries))
	for _, pos := range bySeries {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}

// Remove 删除头寸。仅在 Empty 成立时由提取流程调用。
func (b *PositionBook) Remove(seriesID AssetID, account AccountID) {
	bySeries, ok := b.positions[seriesID]
	if !ok {
		return
	}
	delete(bySeries, account)
	if len(bySeries) == 0 {
		delete(b.positions, seriesID)
	}
}

// TotalOptionAmount 某系列全部卖方份数之和，测试用于校验发行量守恒。
func (b *PositionBook) TotalOptionAmount(seriesID AssetID) uint64 {
	var total uint64
	for _, pos := range b.positions[seriesID] {
		total += pos.OptionAmount
	}
	return total
}
