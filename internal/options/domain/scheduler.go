package domain

import "container/heap"

// SchedulerEntry 一次待触发的窗口迁移。
type SchedulerEntry struct {
	Moment   Moment     `json:"moment"`
	SeriesID AssetID    `json:"series_id"`
	Window   WindowType `json:"window"`
}

// less 先按时刻、再按系列 ID 排序，保证批量追赶时处理顺序确定。
func (e SchedulerEntry) less(other SchedulerEntry) bool {
	if e.Moment != other.Moment {
		return e.Moment < other.Moment
	}
	return e.SeriesID < other.SeriesID
}

type entryHeap []SchedulerEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(SchedulerEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler 以 (时刻, 系列ID) 为键的最小堆时间索引。
// 每个系列注册时入队五条迁移，触发后出队；结算失败的条目重新入队等待重试。
type Scheduler struct {
	entries entryHeap
}

// NewScheduler 创建空调度器。
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.entries)
	return s
}

// Enqueue 注册单条迁移。
func (s *Scheduler) Enqueue(e SchedulerEntry) {
	heap.Push(&s.entries, e)
}

// EnqueueSeries 注册一个系列的全部五条窗口迁移。
func (s *Scheduler) EnqueueSeries(series *OptionSeries) {
	s.Enqueue(SchedulerEntry{Moment: series.Epoch.Deposit, SeriesID: series.SeriesID, Window: WindowDeposit})
	s.Enqueue(SchedulerEntry{Moment: series.Epoch.Purchase, SeriesID: series.SeriesID, Window: WindowPurchase})
	s.Enqueue(SchedulerEntry{Moment: series.Epoch.Exercise, SeriesID: series.SeriesID, Window: WindowExercise})
	s.Enqueue(SchedulerEntry{Moment: series.Epoch.Withdraw, SeriesID: series.SeriesID, Window: WindowWithdraw})
	s.Enqueue(SchedulerEntry{Moment: series.Epoch.End, SeriesID: series.SeriesID, Window: WindowEnd})
}

// Pending 待触发条目数。
func (s *Scheduler) Pending() int {
	return s.entries.Len()
}

// PopDue 取出时刻不晚于 now 的最早条目，没有则返回 false。
func (s *Scheduler) PopDue(now Moment) (SchedulerEntry, bool) {
	if s.entries.Len() == 0 {
		return SchedulerEntry{}, false
	}
	if s.entries[0].Moment > now {
		return SchedulerEntry{}, false
	}
	return heap.Pop(&s.entries).(SchedulerEntry), true
}
