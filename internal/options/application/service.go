// Package application 期权结算引擎应用服务。
// 单写者模型：外部派发层保证同一时刻只有一个操作进入，每个操作要么完整提交、
// 要么失败且状态不变。
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"github.com/wyfcoding/optionvault/internal/options/domain"
	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

// Config 引擎参数。
type Config struct {
	// MaxPriceAge 结算允许的最大报价时延（tick 数），超过视为 PriceUnavailable。
	MaxPriceAge uint64
}

// OptionVaultService 期权系列结算引擎编排器。
// 对外暴露 CreateSeries/Sell/Buy/Exercise/WithdrawCollateral 五个调用方操作，
// 以及共识驱动层每个 tick 调用一次的 Advance。
type OptionVaultService struct {
	registry  *domain.SeriesRegistry
	book      *domain.PositionBook
	scheduler *domain.Scheduler

	vault     domain.Vault
	oracle    domain.Oracle
	ledger    domain.TokenLedger
	allocator domain.SeriesIDAllocator
	premium   domain.PremiumModel
	publisher domain.EventPublisher

	cfg     Config
	current domain.Moment
	logger  *slog.Logger
}

// NewOptionVaultService 注入全部外部协作者，创建引擎。
func NewOptionVaultService(
	vault domain.Vault,
	oracle domain.Oracle,
	ledger domain.TokenLedger,
	allocator domain.SeriesIDAllocator,
	premium domain.PremiumModel,
	publisher domain.EventPublisher,
	cfg Config,
	logger *slog.Logger,
) *OptionVaultService {
	return &OptionVaultService{
		registry:  domain.NewSeriesRegistry(),
		book:      domain.NewPositionBook(),
		scheduler: domain.NewScheduler(),
		vault:     vault,
		oracle:    oracle,
		ledger:    ledger,
		allocator: allocator,
		premium:   premium,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With("module", "optionvault_service"),
	}
}

// Now 引擎已推进到的时刻。
func (s *OptionVaultService) Now() domain.Moment {
	return s.current
}

// GetSeries 查询系列。
func (s *OptionVaultService) GetSeries(seriesID domain.AssetID) (*domain.OptionSeries, error) {
	return s.registry.Get(seriesID)
}

// GetPosition 查询卖方头寸。
func (s *OptionVaultService) GetPosition(seriesID domain.AssetID, account domain.AccountID) (*domain.SellerPosition, error) {
	return s.book.Get(seriesID, account)
}

// SellerPositions 某系列全部卖方头寸，按账户排序。
func (s *OptionVaultService) SellerPositions(seriesID domain.AssetID) []*domain.SellerPosition {
	return s.book.BySeries(seriesID)
}

// CreateSeries 创建期权系列：校验条款、分配系列 ID、登记并注册五条窗口迁移。
func (s *OptionVaultService) CreateSeries(ctx context.Context, terms domain.SeriesTerms) (domain.AssetID, error) {
	if err := terms.Validate(); err != nil {
		return 0, err
	}
	if terms.Epoch.Deposit <= s.current {
		return 0, domain.ErrInvalidSeriesTerms
	}

	id, err := s.allocator.ReserveID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reserve series id: %w", err)
	}

	series := domain.NewOptionSeries(id, terms)
	s.registry.Insert(series)
	s.scheduler.EnqueueSeries(series)

	s.logger.InfoContext(ctx, "series created",
		"series_id", uint64(id), "kind", series.Kind, "strike", series.Strike.Dec())
	s.publish(ctx, domain.SeriesCreatedEventType, id, domain.SeriesCreatedEvent{
		SeriesID:   uint64(id),
		BaseAsset:  uint64(series.BaseAsset),
		QuoteAsset: uint64(series.QuoteAsset),
		Kind:       string(series.Kind),
		Style:      string(series.Style),
		Strike:     series.Strike.Dec(),
		Moment:     uint64(s.current),
	})
	return id, nil
}

// Sell 卖方承销 amount 份期权：锁定抵押品入金库，换得金库份额。
// 仅限 Deposit 窗口。
func (s *OptionVaultService) Sell(ctx context.Context, seriesID domain.AssetID, account domain.AccountID, amount uint64) error {
	if amount == 0 {
		return domain.ErrZeroAmount
	}
	series, err := s.registry.Get(seriesID)
	if err != nil {
		return err
	}
	if series.Window != domain.WindowDeposit {
		return domain.ErrNotDepositWindow
	}

	required, err := series.RequiredCollateral(amount)
	if err != nil {
		return err
	}

	// 先做全部纯校验，再触碰外部账本，保证失败时状态不变。
	if _, err := fixedpoint.AddUint64(series.SellerIssuance, amount); err != nil {
		return err
	}
	if existing, posErr := s.book.Get(seriesID, account); posErr == nil {
		if _, err := fixedpoint.AddUint64(existing.OptionAmount, amount); err != nil {
			return err
		}
	}

	asset := series.CollateralAsset()
	balance, err := s.ledger.BalanceOf(ctx, asset, account)
	if err != nil {
		return fmt.Errorf("balance query: %w", err)
	}
	if balance.Lt(required) {
		return domain.ErrInsufficientFunds
	}

	if err := s.ledger.Transfer(ctx, asset, account, domain.CustodyAccount, required); err != nil {
		return fmt.Errorf("collateral transfer: %w", err)
	}
	shares, err := s.vault.Deposit(ctx, asset, required)
	if err != nil {
		// 存入失败则退回抵押品。
		_ = s.ledger.Transfer(ctx, asset, domain.CustodyAccount, account, required)
		return fmt.Errorf("vault deposit: %w", err)
	}

	pos := s.book.GetOrCreate(seriesID, account)
	if err := pos.Accumulate(amount, shares); err != nil {
		return err
	}
	if err := series.BumpSellerIssuance(amount); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "collateral sold",
		"series_id", uint64(seriesID), "account", string(account),
		"amount", amount, "collateral", required.Dec())
	s.publish(ctx, domain.CollateralSoldEventType, seriesID, domain.CollateralSoldEvent{
		SeriesID:     uint64(seriesID),
		Account:      string(account),
		OptionAmount: amount,
		Collateral:   required.Dec(),
		Shares:       shares.Dec(),
		Moment:       uint64(s.current),
	})
	return nil
}

// Buy 买方购入 amount 份敞口：支付权利金，铸造期权代币。仅限 Purchase 窗口。
func (s *OptionVaultService) Buy(ctx context.Context, seriesID domain.AssetID, account domain.AccountID, amount uint64) error {
	if amount == 0 {
		return domain.ErrZeroAmount
	}
	series, err := s.registry.Get(seriesID)
	if err != nil {
		return err
	}
	if series.Window != domain.WindowPurchase {
		return domain.ErrNotPurchaseWindow
	}

	sum, err := fixedpoint.AddUint64(series.BuyerIssuance, amount)
	if err != nil {
		return err
	}
	if sum > series.SellerIssuance {
		return domain.ErrNotEnoughSellSideCollateral
	}

	spot, err := s.spotPrice(ctx, series.BaseAsset)
	if err != nil {
		return err
	}
	premium, err := s.premium.Premium(series, amount, spot)
	if err != nil {
		return fmt.Errorf("premium model: %w", err)
	}
	if _, err := fixedpoint.Add(series.PremiumCollected, premium); err != nil {
		return err
	}

	balance, err := s.ledger.BalanceOf(ctx, series.QuoteAsset, account)
	if err != nil {
		return fmt.Errorf("balance query: %w", err)
	}
	if balance.Lt(premium) {
		return domain.ErrInsufficientFunds
	}

	if err := s.ledger.Transfer(ctx, series.QuoteAsset, account, domain.CustodyAccount, premium); err != nil {
		return fmt.Errorf("premium transfer: %w", err)
	}
	if err := s.ledger.MintInto(ctx, domain.AssetID(seriesID), account, fixedpoint.FromUnits(amount)); err != nil {
		_ = s.ledger.Transfer(ctx, series.QuoteAsset, domain.CustodyAccount, account, premium)
		return fmt.Errorf("option token mint: %w", err)
	}

	if err := series.AccruePremium(premium); err != nil {
		return err
	}
	if err := series.BumpBuyerIssuance(amount); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "options bought",
		"series_id", uint64(seriesID), "account", string(account),
		"amount", amount, "premium", premium.Dec())
	s.publish(ctx, domain.OptionsBoughtEventType, seriesID, domain.OptionsBoughtEvent{
		SeriesID:     uint64(seriesID),
		Account:      string(account),
		OptionAmount: amount,
		Premium:      premium.Dec(),
		Moment:       uint64(s.current),
	})
	return nil
}

// Exercise 买方对已结算系列行权：销毁期权代币，从赔付托管账户按比例领取。
// 允许 Exercise 与 Withdraw 窗口，End 之后不再受理。
func (s *OptionVaultService) Exercise(ctx context.Context, seriesID domain.AssetID, account domain.AccountID, amount uint64) error {
	if amount == 0 {
		return domain.ErrZeroAmount
	}
	series, err := s.registry.Get(seriesID)
	if err != nil {
		return err
	}
	if !series.Window.AtLeast(domain.WindowExercise) || series.Window == domain.WindowEnd {
		return domain.ErrNotExerciseWindow
	}
	if !series.Settled {
		return domain.ErrSeriesNotSettled
	}

	tokens := fixedpoint.FromUnits(amount)
	balance, err := s.ledger.BalanceOf(ctx, domain.AssetID(seriesID), account)
	if err != nil {
		return fmt.Errorf("option token balance: %w", err)
	}
	if balance.Lt(tokens) {
		return domain.ErrInsufficientFunds
	}

	payout := fixedpoint.Zero()
	if series.PayoutIssuance > 0 {
		payout, err = fixedpoint.MulDiv(
			series.PayoutTotal,
			uint256.NewInt(amount),
			uint256.NewInt(series.PayoutIssuance),
		)
		if err != nil {
			return err
		}
		payout = fixedpoint.Min(payout, series.EscrowRemaining)
	}
	newRemaining, err := fixedpoint.Sub(series.EscrowRemaining, payout)
	if err != nil {
		return err
	}
	exercised, err := fixedpoint.AddUint64(series.ExercisedAmount, amount)
	if err != nil {
		return err
	}

	if err := s.ledger.BurnFrom(ctx, domain.AssetID(seriesID), account, tokens); err != nil {
		return fmt.Errorf("option token burn: %w", err)
	}
	if !payout.IsZero() {
		if err := s.ledger.Transfer(ctx, series.CollateralAsset(), domain.EscrowAccount, account, payout); err != nil {
			_ = s.ledger.MintInto(ctx, domain.AssetID(seriesID), account, tokens)
			return fmt.Errorf("payout transfer: %w", err)
		}
	}

	series.ExercisedAmount = exercised
	series.EscrowRemaining = newRemaining

	s.logger.InfoContext(ctx, "options exercised",
		"series_id", uint64(seriesID), "account", string(account),
		"amount", amount, "payout", payout.Dec())
	s.publish(ctx, domain.OptionsExercisedEventType, seriesID, domain.OptionsExercisedEvent{
		SeriesID:     uint64(seriesID),
		Account:      string(account),
		OptionAmount: amount,
		Payout:       payout.Dec(),
		Moment:       uint64(s.current),
	})
	return nil
}

// WithdrawCollateral 卖方赎回剩余金库份额并领取权利金。仅限 Withdraw 及其后。
func (s *OptionVaultService) WithdrawCollateral(ctx context.Context, seriesID domain.AssetID, account domain.AccountID) error {
	series, err := s.registry.Get(seriesID)
	if err != nil {
		return err
	}
	if !series.Window.AtLeast(domain.WindowWithdraw) {
		return domain.ErrNotWithdrawWindow
	}

	pos, err := s.book.Get(seriesID, account)
	if err != nil {
		return err
	}

	asset := series.CollateralAsset()
	collateral := fixedpoint.Zero()
	if !pos.SharesAmount.IsZero() {
		collateral, err = s.vault.Withdraw(ctx, asset, pos.SharesAmount)
		if err != nil {
			return fmt.Errorf("vault withdraw: %w", err)
		}
		if err := s.ledger.Transfer(ctx, asset, domain.CustodyAccount, account, collateral); err != nil {
			return fmt.Errorf("collateral transfer: %w", err)
		}
	}
	premium := pos.PremiumAmount.Clone()
	if !premium.IsZero() {
		if err := s.ledger.Transfer(ctx, series.QuoteAsset, domain.CustodyAccount, account, premium); err != nil {
			return fmt.Errorf("premium transfer: %w", err)
		}
	}

	pos.SharesAmount = fixedpoint.Zero()
	pos.PremiumAmount = fixedpoint.Zero()
	if pos.Empty() {
		s.book.Remove(seriesID, account)
	}

	s.logger.InfoContext(ctx, "collateral withdrawn",
		"series_id", uint64(seriesID), "account", string(account),
		"collateral", collateral.Dec(), "premium", premium.Dec())
	s.publish(ctx, domain.CollateralWithdrawnEventType, seriesID, domain.CollateralWithdrawnEvent{
		SeriesID:   uint64(seriesID),
		Account:    string(account),
		Collateral: collateral.Dec(),
		Premium:    premium.Dec(),
		Moment:     uint64(s.current),
	})
	return nil
}

// Advance 推进到时刻 now：按 (时刻, 系列ID) 顺序触发全部到期迁移。
// 幂等、可追赶；结算失败把条目放回队列并返回错误，下个 tick 重试。
func (s *OptionVaultService) Advance(ctx context.Context, now domain.Moment) error {
	if now > s.current {
		s.current = now
	}
	for {
		entry, ok := s.scheduler.PopDue(now)
		if !ok {
			return nil
		}
		series, err := s.registry.Get(entry.SeriesID)
		if err != nil {
			// 注册与入队在同一操作内完成，理论上不可达。
			s.logger.ErrorContext(ctx, "scheduler entry for unknown series",
				"series_id", uint64(entry.SeriesID))
			continue
		}

		if !series.Window.AtLeast(entry.Window) {
			if err := series.OpenWindow(ctx, entry.Window); err != nil {
				return fmt.Errorf("window transition %d -> %s: %w",
					uint64(entry.SeriesID), entry.Window, err)
			}
			s.logger.InfoContext(ctx, "window opened",
				"series_id", uint64(entry.SeriesID), "window", entry.Window, "moment", uint64(entry.Moment))
		}

		if entry.Window == domain.WindowExercise && !series.Settled {
			if err := s.settleSeries(ctx, series); err != nil {
				// 结算必须成功或重试，绝不能静默跳过。
				s.scheduler.Enqueue(entry)
				return fmt.Errorf("settle series %d: %w", uint64(entry.SeriesID), err)
			}
		}
	}
}

// settleSeries 对进入行权窗口的系列执行一次性结算。
// 流程：取价 → 计算赔付 → 全量试算 → 金库划拨 → 落账 → 打快照。
// 任何一步失败都不产生部分结算。
func (s *OptionVaultService) settleSeries(ctx context.Context, series *domain.OptionSeries) error {
	if series.Settled {
		return domain.ErrSeriesAlreadySettled
	}
	spot, err := s.spotPrice(ctx, series.BaseAsset)
	if err != nil {
		return err
	}

	payout, err := domain.ComputePayout(series, spot)
	if err != nil {
		return err
	}

	asset := series.CollateralAsset()
	positions := s.book.BySeries(series.SeriesID)
	plan, err := domain.BuildSettlementPlan(series, positions, spot, payout,
		func(amount *uint256.Int) (*uint256.Int, error) {
			return s.vault.SharesForAmount(ctx, asset, amount)
		})
	if err != nil {
		return err
	}

	withdrawn := fixedpoint.Zero()
	if !payout.IsZero() {
		sharesNeeded, err := s.vault.SharesForAmount(ctx, asset, payout)
		if err != nil {
			return fmt.Errorf("shares for payout: %w", err)
		}
		withdrawn, err = s.vault.Withdraw(ctx, asset, sharesNeeded)
		if err != nil {
			return fmt.Errorf("vault withdraw: %w", err)
		}
		if err := s.ledger.Transfer(ctx, asset, domain.CustodyAccount, domain.EscrowAccount, withdrawn); err != nil {
			// 划拨失败则把抵押品存回金库，保持结算未发生。
			if _, depErr := s.vault.Deposit(ctx, asset, withdrawn); depErr != nil {
				s.logger.ErrorContext(ctx, "settlement compensation failed",
					"series_id", uint64(series.SeriesID), "error", depErr)
			}
			return fmt.Errorf("escrow transfer: %w", err)
		}
	}

	plan.Apply(s.book)
	series.MarkSettled(spot, withdrawn)

	s.logger.InfoContext(ctx, "series settled",
		"series_id", uint64(series.SeriesID), "price", spot.Dec(),
		"payout", withdrawn.Dec(), "sellers", len(plan.Lines))
	s.publish(ctx, domain.SeriesSettledEventType, series.SeriesID, domain.SeriesSettledEvent{
		SeriesID:        uint64(series.SeriesID),
		SettlementPrice: spot.Dec(),
		PayoutTotal:     withdrawn.Dec(),
		BuyerIssuance:   series.BuyerIssuance,
		SellerIssuance:  series.SellerIssuance,
		Moment:          uint64(s.current),
	})
	return nil
}

// spotPrice 取现货价，过期报价按 PriceUnavailable 处理。
func (s *OptionVaultService) spotPrice(ctx context.Context, asset domain.AssetID) (*uint256.Int, error) {
	price, asOf, err := s.oracle.Price(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	if price == nil || price.IsZero() {
		return nil, domain.ErrPriceUnavailable
	}
	if uint64(asOf)+s.cfg.MaxPriceAge < uint64(s.current) {
		return nil, domain.ErrPriceUnavailable
	}
	return price, nil
}

// publish 事件发布失败只记日志，不影响已提交的状态。
func (s *OptionVaultService) publish(ctx context.Context, topic string, seriesID domain.AssetID, event any) {
	if s.publisher == nil {
		return
	}
	key := fmt.Sprintf("%d", uint64(seriesID))
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		s.logger.WarnContext(ctx, "event publish failed", "topic", topic, "error", err)
	}
}
