package domain

import (
	"errors"

	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

var (
	ErrSeriesNotFound              = errors.New("option series not found")
	ErrInvalidSeriesTerms          = errors.New("invalid option series terms")
	ErrNotDepositWindow            = errors.New("series not in deposit window")
	ErrNotPurchaseWindow           = errors.New("series not in purchase window")
	ErrNotExerciseWindow           = errors.New("series not in exercise window")
	ErrNotWithdrawWindow           = errors.New("series not in withdraw window")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrNotEnoughSellSideCollateral = errors.New("not enough sell side collateral")
	ErrPriceUnavailable            = errors.New("price unavailable")
	ErrSeriesAlreadySettled        = errors.New("series already settled")
	ErrSeriesNotSettled            = errors.New("series not settled")
	ErrPositionNotFound            = errors.New("seller position not found")
	ErrZeroAmount                  = errors.New("amount must be positive")

	// 算术错误直接复用 fixedpoint 的哨兵，调用方可以用 errors.Is 统一判断。
	ErrArithmeticOverflow  = fixedpoint.ErrArithmeticOverflow
	ErrArithmeticUnderflow = fixedpoint.ErrArithmeticUnderflow
	ErrDivisionByZero      = fixedpoint.ErrDivisionByZero
)
