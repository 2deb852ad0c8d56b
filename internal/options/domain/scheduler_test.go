package domain

import "testing"

func TestSchedulerPopDueOrdering(t *testing.T) {
	s := NewScheduler()
	s.Enqueue(SchedulerEntry{Moment: 30, SeriesID: 2, Window: WindowExercise})
	s.Enqueue(SchedulerEntry{Moment: 10, SeriesID: 9, Window: WindowDeposit})
	s.Enqueue(SchedulerEntry{Moment: 10, SeriesID: 3, Window: WindowDeposit})
	s.Enqueue(SchedulerEntry{Moment: 20, SeriesID: 1, Window: WindowPurchase})

	want := []SchedulerEntry{
		{Moment: 10, SeriesID: 3, Window: WindowDeposit},
		{Moment: 10, SeriesID: 9, Window: WindowDeposit},
		{Moment: 20, SeriesID: 1, Window: WindowPurchase},
		{Moment: 30, SeriesID: 2, Window: WindowExercise},
	}
	for i, w := range want {
		got, ok := s.PopDue(100)
		if !ok {
			t.Fatalf("PopDue #%d: empty", i)
		}
		if got != w {
			t.Fatalf("PopDue #%d = %+v, want %+v", i, got, w)
		}
	}
	if _, ok := s.PopDue(100); ok {
		t.Fatal("scheduler should be drained")
	}
}

func TestSchedulerPopDueRespectsNow(t *testing.T) {
	s := NewScheduler()
	s.Enqueue(SchedulerEntry{Moment: 10, SeriesID: 1, Window: WindowDeposit})
	s.Enqueue(SchedulerEntry{Moment: 20, SeriesID: 1, Window: WindowPurchase})

	if _, ok := s.PopDue(9); ok {
		t.Fatal("nothing is due before moment 10")
	}
	e, ok := s.PopDue(10)
	if !ok || e.Window != WindowDeposit {
		t.Fatalf("PopDue(10) = %+v, %v", e, ok)
	}
	if _, ok := s.PopDue(15); ok {
		t.Fatal("purchase entry is not due at 15")
	}
	if s.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", s.Pending())
	}
}

func TestSchedulerEnqueueSeries(t *testing.T) {
	s := NewScheduler()
	series := NewOptionSeries(5, validTerms())
	s.EnqueueSeries(series)

	if s.Pending() != 5 {
		t.Fatalf("Pending() = %d, want 5", s.Pending())
	}

	// 一次性追赶到最后时刻，出队顺序必须是完整的窗口序列。
	seq := []WindowType{WindowDeposit, WindowPurchase, WindowExercise, WindowWithdraw, WindowEnd}
	for _, w := range seq {
		e, ok := s.PopDue(series.Epoch.End)
		if !ok || e.Window != w {
			t.Fatalf("got %+v, want window %s", e, w)
		}
	}
}

func TestSchedulerReEnqueueForRetry(t *testing.T) {
	s := NewScheduler()
	e := SchedulerEntry{Moment: 30, SeriesID: 1, Window: WindowExercise}
	s.Enqueue(e)

	popped, _ := s.PopDue(30)
	s.Enqueue(popped)

	again, ok := s.PopDue(31)
	if !ok || again != e {
		t.Fatalf("re-enqueued entry = %+v, %v", again, ok)
	}
}
