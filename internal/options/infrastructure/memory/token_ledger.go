package memory

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/internal/options/domain"
	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// TokenLedger map 实现的同质化资产账本。
type TokenLedger struct {
	mu       sync.Mutex
	balances map[domain.AssetID]map[domain.AccountID]*uint256.Int
}

// NewTokenLedger 创建空账本。
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{balances: make(map[domain.AssetID]map[domain.AccountID]*uint256.Int)}
}

func (l *TokenLedger) balance(asset domain.AssetID, account domain.AccountID) *uint256.Int {
	byAsset, ok := l.balances[asset]
	if !ok {
		byAsset = make(map[domain.AccountID]*uint256.Int)
		l.balances[asset] = byAsset
	}
	b, ok := byAsset[account]
	if !ok {
		b = fixedpoint.Zero()
		byAsset[account] = b
	}
	return b
}

// Transfer 账户间转账，余额不足返回 ErrInsufficientFunds。
func (l *TokenLedger) Transfer(_ context.Context, asset domain.AssetID, from, to domain.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal := l.balance(asset, from)
	newFrom, err := fixedpoint.Sub(fromBal, amount)
	if err != nil {
		return domain.ErrInsufficientFunds
	}
	newTo, err := fixedpoint.Add(l.balance(asset, to), amount)
	if err != nil {
		return err
	}
	l.balances[asset][from] = newFrom
	l.balances[asset][to] = newTo
	return nil
}

// MintInto 铸造资产。
func (l *TokenLedger) MintInto(_ context.Context, asset domain.AssetID, to domain.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	newBal, err := fixedpoint.Add(l.balance(asset, to), amount)
	if err != nil {
		return err
	}
	l.balances[asset][to] = newBal
	return nil
}

// BurnFrom 销毁资产，余额不足返回 ErrInsufficientFunds。
func (l *TokenLedger) BurnFrom(_ context.Context, asset domain.AssetID, from domain.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	newBal, err := fixedpoint.Sub(l.balance(asset, from), amount)
	if err != nil {
		return domain.ErrInsufficientFunds
	}
	l.balances[asset][from] = newBal
	return nil
}

// BalanceOf 查询余额。
func (l *TokenLedger) BalanceOf(_ context.Context, asset domain.AssetID, account domain.AccountID) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(asset, account).Clone(), nil
}
