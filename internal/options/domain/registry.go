package domain

// SeriesRegistry 系列注册表。系列只增不删，结算后作为历史保留。
type SeriesRegistry struct {
	series map[AssetID]*OptionSeries
}

// NewSeriesRegistry 创建空注册表。
func NewSeriesRegistry() *SeriesRegistry {
	return &SeriesRegistry{series: make(map[AssetID]*OptionSeries)}
}

// Insert 登记新系列。
func (r *SeriesRegistry) Insert(s *OptionSeries) {
	r.series[s.SeriesID] = s
}

// Get 查询系列，不存在返回 ErrSeriesNotFound。
func (r *SeriesRegistry) Get(id AssetID) (*OptionSeries, error) {
	s, ok := r.series[id]
	if !ok {
		return nil, ErrSeriesNotFound
	}
	return s, nil
}

// Len 已登记系列数。
func (r *SeriesRegistry) Len() int {
	return len(r.series)
}
