// Package memory 提供全部外部协作者的内存实现，供测试与单机演示使用。
// 实现刻意保持确定性：给定同样的调用序列，状态与返回值完全一致。
package memory

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/internal/options/domain"
	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// assetPool 单一资产的份额核算。share 价格 = totalAmount / totalShares。
type assetPool struct {
	totalAmount *uint256.Int
	totalShares *uint256.Int
}

// Vault 按比例计价份额的内存金库。
// 初始 1 份 = 1 单位资产；通过 Accrue 注入收益后份额升值。
type Vault struct {
	mu    sync.Mutex
	pools map[domain.AssetID]*assetPool
}

// NewVault 创建空金库。
func NewVault() *Vault {
	return &Vault{pools: make(map[domain.AssetID]*assetPool)}
}

func (v *Vault) pool(asset domain.AssetID) *assetPool {
	p, ok := v.pools[asset]
	if !ok {
		p = &assetPool{totalAmount: fixedpoint.Zero(), totalShares: fixedpoint.Zero()}
		v.pools[asset] = p
	}
	return p
}

// Deposit 存入资产，按当前份额价格铸造份额。
func (v *Vault) Deposit(_ context.Context, asset domain.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pool(asset)
	var shares *uint256.Int
	if p.totalShares.IsZero() || p.totalAmount.IsZero() {
		shares = amount.Clone()
	} else {
		var err error
		shares, err = fixedpoint.MulDiv(amount, p.totalShares, p.totalAmount)
		if err != nil {
			return nil, err
		}
	}

	newAmount, err := fixedpoint.Add(p.totalAmount, amount)
	if err != nil {
		return nil, err
	}
	newShares, err := fixedpoint.Add(p.totalShares, shares)
	if err != nil {
		return nil, err
	}
	p.totalAmount = newAmount
	p.totalShares = newShares
	return shares, nil
}

// Withdraw 按份额赎回资产。
func (v *Vault) Withdraw(_ context.Context, asset domain.AssetID, shares *uint256.Int) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pool(asset)
	if p.totalShares.IsZero() {
		return nil, fixedpoint.ErrArithmeticUnderflow
	}
	amount, err := fixedpoint.MulDiv(shares, p.totalAmount, p.totalShares)
	if err != nil {
		return nil, err
	}
	newAmount, err := fixedpoint.Sub(p.totalAmount, amount)
	if err != nil {
		return nil, err
	}
	newShares, err := fixedpoint.Sub(p.totalShares, shares)
	if err != nil {
		return nil, err
	}
	p.totalAmount = newAmount
	p.totalShares = newShares
	return amount, nil
}

// ShareValue 份额当前价值。
func (v *Vault) ShareValue(_ context.Context, asset domain.AssetID, shares *uint256.Int) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pool(asset)
	if p.totalShares.IsZero() {
		return fixedpoint.Zero(), nil
	}
	return fixedpoint.MulDiv(shares, p.totalAmount, p.totalShares)
}

// SharesForAmount 指定资产数量对应的份额。
func (v *Vault) SharesForAmount(_ context.Context, asset domain.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pool(asset)
	if p.totalAmount.IsZero() {
		return amount.Clone(), nil
	}
	return fixedpoint.MulDiv(amount, p.totalShares, p.totalAmount)
}

// Accrue 向资产池注入收益，抬高份额价格。仅测试与演示使用。
func (v *Vault) Accrue(asset domain.AssetID, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := v.pool(asset)
	newAmount, err := fixedpoint.Add(p.totalAmount, amount)
	if err != nil {
		return err
	}
	p.totalAmount = newAmount
	return nil
}
