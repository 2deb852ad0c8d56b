package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

func validTerms() SeriesTerms {
	return SeriesTerms{
		BaseAsset:           1,
		QuoteAsset:          2,
		Strike:              fixedpoint.FromUnits(50_000),
		Kind:                OptionKindCall,
		Style:               ExerciseStyleEuropean,
		CollateralPerOption: fixedpoint.One(),
		Epoch:               Epoch{Deposit: 10, Purchase: 20, Exercise: 30, Withdraw: 40, End: 50},
	}
}

func TestSeriesTermsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SeriesTerms)
		ok     bool
	}{
		{name: "valid", mutate: func(*SeriesTerms) {}, ok: true},
		{name: "same assets", mutate: func(tm *SeriesTerms) { tm.QuoteAsset = tm.BaseAsset }},
		{name: "zero strike", mutate: func(tm *SeriesTerms) { tm.Strike = fixedpoint.Zero() }},
		{name: "zero collateral", mutate: func(tm *SeriesTerms) { tm.CollateralPerOption = fixedpoint.Zero() }},
		{name: "bad kind", mutate: func(tm *SeriesTerms) { tm.Kind = "STRADDLE" }},
		{name: "bad style", mutate: func(tm *SeriesTerms) { tm.Style = "BERMUDAN" }},
		{name: "epoch not increasing", mutate: func(tm *SeriesTerms) { tm.Epoch.Purchase = tm.Epoch.Deposit }},
		{name: "epoch reversed", mutate: func(tm *SeriesTerms) { tm.Epoch.End = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := validTerms()
			tt.mutate(&terms)
			err := terms.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidSeriesTerms) {
				t.Fatalf("Validate() = %v, want ErrInvalidSeriesTerms", err)
			}
		})
	}
}

func TestEpochWindowAt(t *testing.T) {
	e := Epoch{Deposit: 10, Purchase: 20, Exercise: 30, Withdraw: 40, End: 50}

	tests := []struct {
		moment Moment
		want   WindowType
	}{
		{0, WindowCreated},
		{9, WindowCreated},
		{10, WindowDeposit},
		{19, WindowDeposit},
		{20, WindowPurchase},
		{30, WindowExercise},
		{40, WindowWithdraw},
		{49, WindowWithdraw},
		{50, WindowEnd},
		{1000, WindowEnd},
	}
	for _, tt := range tests {
		if got := e.WindowAt(tt.moment); got != tt.want {
			t.Errorf("WindowAt(%d) = %s, want %s", tt.moment, got, tt.want)
		}
	}
}

func TestOpenWindowStrictlyForward(t *testing.T) {
	ctx := context.Background()
	s := NewOptionSeries(7, validTerms())

	if err := s.OpenWindow(ctx, WindowDeposit); err != nil {
		t.Fatalf("open deposit: %v", err)
	}
	// 不允许跳跃。
	if err := s.OpenWindow(ctx, WindowExercise); err == nil {
		t.Fatal("skipping purchase window should fail")
	}
	if err := s.OpenWindow(ctx, WindowPurchase); err != nil {
		t.Fatalf("open purchase: %v", err)
	}
	// 不允许回退。
	if err := s.OpenWindow(ctx, WindowDeposit); err == nil {
		t.Fatal("reentering deposit window should fail")
	}
	if s.Window != WindowPurchase {
		t.Fatalf("window = %s, want %s", s.Window, WindowPurchase)
	}
}

func TestIssuanceBumps(t *testing.T) {
	s := NewOptionSeries(7, validTerms())

	if err := s.BumpSellerIssuance(16); err != nil {
		t.Fatalf("bump seller: %v", err)
	}
	if err := s.BumpBuyerIssuance(16); err != nil {
		t.Fatalf("bump buyer: %v", err)
	}
	if err := s.BumpBuyerIssuance(1); !errors.Is(err, ErrNotEnoughSellSideCollateral) {
		t.Fatalf("over-buy: got %v", err)
	}
	if s.BuyerIssuance != 16 || s.SellerIssuance != 16 {
		t.Fatalf("issuance = %d/%d, want 16/16", s.BuyerIssuance, s.SellerIssuance)
	}

	if err := s.BumpSellerIssuance(^uint64(0)); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("seller overflow: got %v", err)
	}
}

func TestRequiredCollateral(t *testing.T) {
	call := NewOptionSeries(1, validTerms())
	got, err := call.RequiredCollateral(5)
	if err != nil {
		t.Fatalf("call collateral: %v", err)
	}
	if !got.Eq(fixedpoint.FromUnits(5)) {
		t.Fatalf("call collateral = %s, want 5 units of base", got.Dec())
	}

	putTerms := validTerms()
	putTerms.Kind = OptionKindPut
	put := NewOptionSeries(2, putTerms)
	got, err = put.RequiredCollateral(2)
	if err != nil {
		t.Fatalf("put collateral: %v", err)
	}
	// 行权价 50000，每份抵押系数 1.0 → 每份锁 50000 计价资产。
	if !got.Eq(fixedpoint.FromUnits(100_000)) {
		t.Fatalf("put collateral = %s, want 100000 units of quote", got.Dec())
	}

	if call.CollateralAsset() != call.BaseAsset {
		t.Fatal("call collateral asset must be base")
	}
	if put.CollateralAsset() != put.QuoteAsset {
		t.Fatal("put collateral asset must be quote")
	}
}
