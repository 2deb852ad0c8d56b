package domain

import (
	"context"

	"github.com/holiman/uint256"
)

// Vault 抵押品金库适配器 (External Dependency)。
// 托管与增值策略在引擎之外，引擎只关心存入/赎回与份额换算。
// 实现必须在自身状态给定的情况下保持确定性。
type Vault interface {
	// Deposit 存入抵押品，返回对应的金库份额。
	Deposit(ctx context.Context, asset AssetID, amount *uint256.Int) (*uint256.Int, error)
	// Withdraw 按份额赎回底层资产。
	Withdraw(ctx context.Context, asset AssetID, shares *uint256.Int) (*uint256.Int, error)
	// ShareValue 份额当前对应的资产数量。
	ShareValue(ctx context.Context, asset AssetID, shares *uint256.Int) (*uint256.Int, error)
	// SharesForAmount 指定资产数量对应的份额。
	SharesForAmount(ctx context.Context, asset AssetID, amount *uint256.Int) (*uint256.Int, error)
}

// Oracle 现货价格适配器 (External Dependency)。
// 同一次结算内多次调用必须返回同一价格。
type Oracle interface {
	// Price 返回资产现价与报价时刻。
	Price(ctx context.Context, asset AssetID) (*uint256.Int, Moment, error)
}

// TokenLedger 同质化资产账本适配器 (External Dependency)。
// 抵押资产与铸造的期权代币都经由该账本转移。
type TokenLedger interface {
	Transfer(ctx context.Context, asset AssetID, from, to AccountID, amount *uint256.Int) error
	MintInto(ctx context.Context, asset AssetID, to AccountID, amount *uint256.Int) error
	BurnFrom(ctx context.Context, asset AssetID, from AccountID, amount *uint256.Int) error
	BalanceOf(ctx context.Context, asset AssetID, account AccountID) (*uint256.Int, error)
}

// SeriesIDAllocator 系列 ID 分配器 (External Dependency)，唯一且单调。
type SeriesIDAllocator interface {
	ReserveID(ctx context.Context) (AssetID, error)
}

// EventPublisher 领域事件发布者。
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
