// Package domain 期权系列结算引擎领域模型。
// 引擎为单写者、确定性的状态机：同一操作序列在任意副本上产生逐位一致的状态。
package domain

import (
	"context"
	"time"

	"github.com/holiman/uint256"
	"github.com/wyfcoding/pkg/fsm"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// Moment 离散时刻。由外部共识驱动层推进，引擎内部不读取墙钟。
type Moment uint64

// AssetID 同质化资产标识。期权系列 ID 本身就是其期权代币的资产 ID。
type AssetID uint64

// AccountID 账户标识。
type AccountID string

// 协议内部账户。custody 托管卖方抵押品，escrow 托管结算后归买方的赔付。
const (
	CustodyAccount AccountID = "optionvault:custody"
	EscrowAccount  AccountID = "optionvault:escrow"
)

// OptionKind 期权方向
type OptionKind string

const (
	OptionKindCall OptionKind = "CALL"
	OptionKindPut  OptionKind = "PUT"
)

// ExerciseStyle 行权风格。目前两种风格都在行权窗口开启时集中现金结算，
// 风格仅作为系列条款保留。
type ExerciseStyle string

const (
	ExerciseStyleEuropean ExerciseStyle = "EUROPEAN"
	ExerciseStyleAmerican ExerciseStyle = "AMERICAN"
)

// WindowType 系列生命周期窗口
type WindowType string

const (
	WindowCreated  WindowType = "CREATED"
	WindowDeposit  WindowType = "DEPOSIT"
	WindowPurchase WindowType = "PURCHASE"
	WindowExercise WindowType = "EXERCISE"
	WindowWithdraw WindowType = "WITHDRAW"
	WindowEnd      WindowType = "END"
)

// rank 窗口的先后次序，用于 >= Withdraw 之类的比较。
func (w WindowType) rank() int {
	switch w {
	case WindowCreated:
		return 0
	case WindowDeposit:
		return 1
	case WindowPurchase:
		return 2
	case WindowExercise:
		return 3
	case WindowWithdraw:
		return 4
	case WindowEnd:
		return 5
	default:
		return -1
	}
}

// AtLeast 当前窗口不早于 other。
func (w WindowType) AtLeast(other WindowType) bool {
	return w.rank() >= other.rank()
}

// Epoch 五个严格递增的窗口起点时刻。
type Epoch struct {
	Deposit  Moment `json:"deposit"`
	Purchase Moment `json:"purchase"`
	Exercise Moment `json:"exercise"`
	Withdraw Moment `json:"withdraw"`
	End      Moment `json:"end"`
}

// Valid 校验时刻严格递增。
func (e Epoch) Valid() bool {
	return e.Deposit < e.Purchase &&
		e.Purchase < e.Exercise &&
		e.Exercise < e.Withdraw &&
		e.Withdraw < e.End
}

// WindowAt 按区间归属把时刻映射到窗口。早于 Deposit 的时刻属于创建期。
func (e Epoch) WindowAt(m Moment) WindowType {
	switch {
	case m < e.Deposit:
		return WindowCreated
	case m < e.Purchase:
		return WindowDeposit
	case m < e.Exercise:
		return WindowPurchase
	case m < e.Withdraw:
		return WindowExercise
	case m < e.End:
		return WindowWithdraw
	default:
		return WindowEnd
	}
}

// SeriesTerms 创建系列时由调用方给出的不可变条款。
type SeriesTerms struct {
	BaseAsset           AssetID       `json:"base_asset"`
	QuoteAsset          AssetID       `json:"quote_asset"`
	Strike              *uint256.Int  `json:"strike"`
	Kind                OptionKind    `json:"kind"`
	Style               ExerciseStyle `json:"style"`
	CollateralPerOption *uint256.Int  `json:"collateral_per_option"`
	Epoch               Epoch         `json:"epoch"`
}

// Validate 条款合法性检查。任何一项不满足都返回 ErrInvalidSeriesTerms。
func (t SeriesTerms) Validate() error {
	if t.BaseAsset == t.QuoteAsset {
		return ErrInvalidSeriesTerms
	}
	if t.Strike == nil || t.Strike.IsZero() {
		return ErrInvalidSeriesTerms
	}
	if t.CollateralPerOption == nil || t.CollateralPerOption.IsZero() {
		return ErrInvalidSeriesTerms
	}
	if t.Kind != OptionKindCall && t.Kind != OptionKindPut {
		return ErrInvalidSeriesTerms
	}
	if t.Style != ExerciseStyleEuropean && t.Style != ExerciseStyleAmerican {
		return ErrInvalidSeriesTerms
	}
	if !t.Epoch.Valid() {
		return ErrInvalidSeriesTerms
	}
	return nil
}

// OptionSeries 期权系列聚合根。
// 条款不可变；发行量计数器与结算快照随 sell/buy/exercise/settle 变化。
// 系列永不删除，作为结算历史保留。
type OptionSeries struct {
	SeriesID            AssetID       `json:"series_id"`
	BaseAsset           AssetID       `json:"base_asset"`
	QuoteAsset          AssetID       `json:"quote_asset"`
	Strike              *uint256.Int  `json:"strike"`
	Kind                OptionKind    `json:"kind"`
	Style               ExerciseStyle `json:"style"`
	CollateralPerOption *uint256.Int  `json:"collateral_per_option"`
	Epoch               Epoch         `json:"epoch"`

	SellerIssuance   uint64       `json:"seller_issuance"`
	BuyerIssuance    uint64       `json:"buyer_issuance"`
	ExercisedAmount  uint64       `json:"exercised_amount"`
	PremiumCollected *uint256.Int `json:"premium_collected"`

	Window WindowType `json:"window"`

	// 结算快照。Settled 置位后不再变化，买方行权从 EscrowRemaining 扣减。
	Settled         bool         `json:"settled"`
	SettlementPrice *uint256.Int `json:"settlement_price,omitempty"`
	PayoutTotal     *uint256.Int `json:"payout_total,omitempty"`
	PayoutIssuance  uint64       `json:"payout_issuance"`
	EscrowRemaining *uint256.Int `json:"escrow_remaining,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	fsm *fsm.Machine[string, string]
}

// NewOptionSeries 以给定条款创建系列，计数器从零开始。
func NewOptionSeries(id AssetID, terms SeriesTerms) *OptionSeries {
	s := &OptionSeries{
		SeriesID:            id,
		BaseAsset:           terms.BaseAsset,
		QuoteAsset:          terms.QuoteAsset,
		Strike:              terms.Strike.Clone(),
		Kind:                terms.Kind,
		Style:               terms.Style,
		CollateralPerOption: terms.CollateralPerOption.Clone(),
		Epoch:               terms.Epoch,
		PremiumCollected:    fixedpoint.Zero(),
		Window:              WindowCreated,
		CreatedAt:           time.Now(),
	}
	s.initFSM()
	return s
}

func (s *OptionSeries) initFSM() {
	m := fsm.NewMachine[string, string](string(s.Window))
	m.AddTransition(string(WindowCreated), "OPEN_DEPOSIT", string(WindowDeposit))
	m.AddTransition(string(WindowDeposit), "OPEN_PURCHASE", string(WindowPurchase))
	m.AddTransition(string(WindowPurchase), "OPEN_EXERCISE", string(WindowExercise))
	m.AddTransition(string(WindowExercise), "OPEN_WITHDRAW", string(WindowWithdraw))
	m.AddTransition(string(WindowWithdraw), "OPEN_END", string(WindowEnd))
	s.fsm = m
}

// InitFSM 确保状态机已初始化
func (s *OptionSeries) InitFSM() {
	if s.fsm == nil {
		s.initFSM()
	}
}

var windowTrigger = map[WindowType]string{
	WindowDeposit:  "OPEN_DEPOSIT",
	WindowPurchase: "OPEN_PURCHASE",
	WindowExercise: "OPEN_EXERCISE",
	WindowWithdraw: "OPEN_WITHDRAW",
	WindowEnd:      "OPEN_END",
}

// OpenWindow 推进到下一个窗口。只允许严格向前、不跳跃、不回退，
// 非法迁移由状态机拒绝。
func (s *OptionSeries) OpenWindow(ctx context.Context, w WindowType) error {
	s.InitFSM()
	trigger, ok := windowTrigger[w]
	if !ok {
		return ErrInvalidSeriesTerms
	}
	if err := s.fsm.Trigger(ctx, trigger); err != nil {
		return err
	}
	s.Window = w
	return nil
}

// BumpSellerIssuance 卖方发行量检查累加。
func (s *OptionSeries) BumpSellerIssuance(amount uint64) error {
	sum, err := fixedpoint.AddUint64(s.SellerIssuance, amount)
	if err != nil {
		return err
	}
	s.SellerIssuance = sum
	return nil
}

// BumpBuyerIssuance 买方发行量检查累加。
// 调用前必须已通过卖方覆盖检查，此处仍保持 BuyerIssuance <= SellerIssuance 不变量。
func (s *OptionSeries) BumpBuyerIssuance(amount uint64) error {
	sum, err := fixedpoint.AddUint64(s.BuyerIssuance, amount)
	if err != nil {
		return err
	}
	if sum > s.SellerIssuance {
		return ErrNotEnoughSellSideCollateral
	}
	s.BuyerIssuance = sum
	return nil
}

// AccruePremium 累计买方支付的权利金，结算时按卖方份额分配。
func (s *OptionSeries) AccruePremium(premium *uint256.Int) error {
	sum, err := fixedpoint.Add(s.PremiumCollected, premium)
	if err != nil {
		return err
	}
	s.PremiumCollected = sum
	return nil
}

// RequiredCollateral 卖出 amount 份所需锁定的抵押品数量。
// Call 锁定基础资产；Put 锁定计价资产（行权价 × 每份抵押系数）。
func (s *OptionSeries) RequiredCollateral(amount uint64) (*uint256.Int, error) {
	if s.Kind == OptionKindCall {
		return fixedpoint.MulUint64(s.CollateralPerOption, amount)
	}
	perUnit, err := fixedpoint.MulDiv(s.CollateralPerOption, s.Strike, fixedpoint.One())
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulUint64(perUnit, amount)
}

// CollateralAsset 本系列抵押品所属资产。
func (s *OptionSeries) CollateralAsset() AssetID {
	if s.Kind == OptionKindCall {
		return s.BaseAsset
	}
	return s.QuoteAsset
}

// MarkSettled 记录结算快照。
func (s *OptionSeries) MarkSettled(price, payout *uint256.Int) {
	s.Settled = true
	s.SettlementPrice = price.Clone()
	s.PayoutTotal = payout.Clone()
	s.PayoutIssuance = s.BuyerIssuance
	s.EscrowRemaining = payout.Clone()
}
