package service

import (
	"context"
	"time"

	"github.com/tijara-next/internal/delivery"
	"github.com/tijara-next/internal/logger"
	"github.com/tijara-next/internal/models"
	"github.com/tijara-next/internal/repository"
)

// VerificationResult 远端双查结果。
// Exists 为真表示订单在配送方仍然可见（或无法确认不可见），
// Verified 为真表示两次查询均正常返回。
type VerificationResult struct {
	Exists    bool
	Verified  bool
	FirstHit  bool
	SecondHit bool
}

// VerificationService 删除前的远端双查服务。
// 两次查询之间留冷却间隔，任一命中即视为远端仍存在；
// 查询失败时宁可误判存在也不放行删除。
type VerificationService struct {
	registry    *delivery.Registry
	accountRepo repository.DeliveryAccountRepository
	cooldown    time.Duration
	timeout     time.Duration
}

// NewVerificationService 创建双查服务
func NewVerificationService(
	registry *delivery.Registry,
	accountRepo repository.DeliveryAccountRepository,
	cooldownMS, timeoutMS int,
) *VerificationService {
	if cooldownMS <= 0 {
		cooldownMS = 5000
	}
	if timeoutMS <= 0 {
		timeoutMS = 15000
	}
	return &VerificationService{
		registry:    registry,
		accountRepo: accountRepo,
		cooldown:    time.Duration(cooldownMS) * time.Millisecond,
		timeout:     time.Duration(timeoutMS) * time.Millisecond,
	}
}

// VerifyOrderGone 确认订单在配送方已不可见。
// 凭证缺失或 ctx 提前取消时返回 Exists=true 的保守结果。
func (s *VerificationService) VerifyOrderGone(ctx context.Context, order *models.Order) (*VerificationResult, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	result := &VerificationResult{Exists: true}

	gateway, err := s.registry.Lookup(order.DeliveryPartner)
	if err != nil {
		return result, err
	}

	cred, err := s.resolveCredential(order)
	if err != nil {
		return result, err
	}

	firstHit, firstErr := s.lookupOnce(ctx, gateway, cred, order, true)
	result.FirstHit = firstHit

	// 冷却后复查，避开配送方侧的短暂不一致
	select {
	case <-ctx.Done():
		return result, nil
	case <-time.After(s.cooldown):
	}

	secondHit, secondErr := s.lookupOnce(ctx, gateway, cred, order, false)
	result.SecondHit = secondHit

	result.Exists = firstHit || secondHit
	result.Verified = firstErr == nil && secondErr == nil
	if !result.Verified {
		// 查询异常时保守判定为存在
		result.Exists = true
	}
	return result, nil
}

// resolveCredential 优先使用对账命中的账号，缺失时回退第一个启用账号
func (s *VerificationService) resolveCredential(order *models.Order) (delivery.Credential, error) {
	if order.DeliveryAccountUsed != "" {
		account, err := s.accountRepo.GetActiveByLabel(order.DeliveryPartner, order.DeliveryAccountUsed)
		if err != nil {
			return delivery.Credential{}, err
		}
		if account != nil {
			return delivery.Credential{
				AccountID:  account.ID,
				Label:      account.Label,
				Token:      account.Token,
				MerchantID: account.MerchantID,
			}, nil
		}
	}
	accounts, err := s.accountRepo.ListActive(order.DeliveryPartner)
	if err != nil {
		return delivery.Credential{}, err
	}
	if len(accounts) == 0 {
		return delivery.Credential{}, ErrCredentialUnavailable
	}
	account := accounts[0]
	return delivery.Credential{
		AccountID:  account.ID,
		Label:      account.Label,
		Token:      account.Token,
		MerchantID: account.MerchantID,
	}, nil
}

// lookupOnce 执行单次远端查询。第一次优先走运单号，第二次优先走配送方订单 ID。
func (s *VerificationService) lookupOnce(
	ctx context.Context,
	gateway delivery.Gateway,
	cred delivery.Credential,
	order *models.Order,
	preferTracking bool,
) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var remote *delivery.RemoteOrder
	var err error
	switch {
	case preferTracking && order.TrackingNumber != "":
		remote, err = gateway.GetOrderByTracking(callCtx, cred, order.TrackingNumber)
	case !preferTracking && order.PartnerOrderID != "":
		remote, err = gateway.GetOrderByID(callCtx, cred, order.PartnerOrderID)
	case order.TrackingNumber != "":
		remote, err = gateway.GetOrderByTracking(callCtx, cred, order.TrackingNumber)
	case order.PartnerOrderID != "":
		remote, err = gateway.GetOrderByID(callCtx, cred, order.PartnerOrderID)
	default:
		// 没有任何远端标识，视为远端不可见
		return false, nil
	}
	if err != nil {
		logger.Warnw("verify_remote_lookup_failed",
			"order_id", order.ID,
			"partner", order.DeliveryPartner,
			"error", err,
		)
		return false, err
	}
	return remote != nil, nil
}
