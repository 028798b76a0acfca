package service

import "errors"

// 库存相关错误
var (
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverRelease       = errors.New("release exceeds reserved quantity")
)

// 订单相关错误
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderItemInvalid      = errors.New("order item invalid")
	ErrOrderNotDeletable     = errors.New("order not deletable")
	ErrOrderStillRemote      = errors.New("order still exists at delivery partner")
	ErrVerificationAmbiguous = errors.New("remote verification ambiguous")
)

// 对账相关错误
var (
	ErrNoUsableCredentials   = errors.New("no usable delivery credentials")
	ErrCredentialUnavailable = errors.New("delivery credential unavailable")
	ErrRemoteLookupFailed    = errors.New("remote lookup failed")
	ErrUnknownRemoteStatus   = errors.New("unknown remote status code")
)

// 结算相关错误
var (
	ErrPeriodNameInvalid  = errors.New("period name invalid")
	ErrPeriodNameTaken    = errors.New("period name already used")
	ErrPeriodRangeInvalid = errors.New("period range invalid")
)
