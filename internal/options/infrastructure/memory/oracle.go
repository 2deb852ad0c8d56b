package memory

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/internal/options/domain"
)

type quote struct {
	price *uint256.Int
	asOf  domain.Moment
}

// Oracle 可设价的内存预言机。未设价的资产返回 ErrPriceUnavailable。
type Oracle struct {
	mu     sync.Mutex
	quotes map[domain.AssetID]quote
}

// NewOracle 创建空预言机。
func NewOracle() *Oracle {
	return &Oracle{quotes: make(map[domain.AssetID]quote)}
}

// SetPrice 设置资产现价与报价时刻。
func (o *Oracle) SetPrice(asset domain.AssetID, price *uint256.Int, asOf domain.Moment) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[asset] = quote{price: price.Clone(), asOf: asOf}
}

// Price 返回资产现价。
func (o *Oracle) Price(_ context.Context, asset domain.AssetID) (*uint256.Int, domain.Moment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	q, ok := o.quotes[asset]
	if !ok {
		return nil, 0, domain.ErrPriceUnavailable
	}
	return q.price.Clone(), q.asOf, nil
}
