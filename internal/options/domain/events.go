package domain

// 事件主题。外部观察者通过消息队列订阅，不参与共识状态。
const (
	SeriesCreatedEventType       = "optionvault.series.created"
	CollateralSoldEventType      = "optionvault.collateral.sold"
	OptionsBoughtEventType       = "optionvault.options.bought"
	SeriesSettledEventType       = "optionvault.series.settled"
	OptionsExercisedEventType    = "optionvault.options.exercised"
	CollateralWithdrawnEventType = "optionvault.collateral.withdrawn"
)

// SeriesCreatedEvent 系列创建事件
type SeriesCreatedEvent struct {
	SeriesID   uint64 `json:"series_id"`
	BaseAsset  uint64 `json:"base_asset"`
	QuoteAsset uint64 `json:"quote_asset"`
	Kind       string `json:"kind"`
	Style      string `json:"style"`
	Strike     string `json:"strike"`
	Moment     uint64 `json:"moment"`
}

// CollateralSoldEvent 卖方锁定抵押品事件
type CollateralSoldEvent struct {
	SeriesID     uint64 `json:"series_id"`
	Account      string `json:"account"`
	OptionAmount uint64 `json:"option_amount"`
	Collateral   string `json:"collateral"`
	Shares       string `json:"shares"`
	Moment       uint64 `json:"moment"`
}

// OptionsBoughtEvent 买方购买事件
type OptionsBoughtEvent struct {
	SeriesID     uint64 `json:"series_id"`
	Account      string `json:"account"`
	OptionAmount uint64 `json:"option_amount"`
	Premium      string `json:"premium"`
	Moment       uint64 `json:"moment"`
}

// SeriesSettledEvent 系列结算事件
type SeriesSettledEvent struct {
	SeriesID        uint64 `json:"series_id"`
	SettlementPrice string `json:"settlement_price"`
	PayoutTotal     string `json:"payout_total"`
	BuyerIssuance   uint64 `json:"buyer_issuance"`
	SellerIssuance  uint64 `json:"seller_issuance"`
	Moment          uint64 `json:"moment"`
}

// OptionsExercisedEvent 买方行权事件
type OptionsExercisedEvent struct {
	SeriesID     uint64 `json:"series_id"`
	Account      string `json:"account"`
	OptionAmount uint64 `json:"option_amount"`
	Payout       string `json:"payout"`
	Moment       uint64 `json:"moment"`
}

// CollateralWithdrawnEvent 卖方提取剩余抵押品与权利金事件
type CollateralWithdrawnEvent struct {
	SeriesID   uint64 `json:"series_id"`
	Account    string `json:"account"`
	Collateral string `json:"collateral"`
	Premium    string `json:"premium"`
	Moment     uint64 `json:"moment"`
}
