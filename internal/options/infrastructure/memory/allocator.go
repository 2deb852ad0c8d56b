package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/optionvault/internal/options/domain"
)

// Allocator 单调递增计数器实现的系列 ID 分配器。
// 共识副本间确定性要求分配器不得依赖时间戳类 ID。
type Allocator struct {
	mu   sync.Mutex
	next uint64
}

// NewAllocator 创建分配器，first 为第一个发放的 ID。
func NewAllocator(first uint64) *Allocator {
	return &Allocator{next: first}
}

// ReserveID 发放下一个 ID。
func (a *Allocator) ReserveID(_ context.Context) (domain.AssetID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next++
	return domain.AssetID(id), nil
}
