package delivery

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrPartnerNotConfigured 配送方未注册网关实现
	ErrPartnerNotConfigured = errors.New("delivery partner not configured")
)

// Credential 调用配送方接口所需的商户凭证
type Credential struct {
	AccountID  uint   // 本地账号 ID
	Label      string // 账号标识
	Token      string // API Token
	MerchantID string // 配送方侧商户编号
}

// RemoteOrder 配送方侧的订单快照
type RemoteOrder struct {
	ID             string          // 配送方订单 ID
	QRID           string          // 面单二维码编号
	TrackingNumber string          // 运单号
	StatusCode     string          // 配送方状态码
	StatusLabel    string          // 配送方状态描述
	Price          decimal.Decimal // 代收金额（含运费）
	DeliveryFee    decimal.Decimal // 运费
	MerchantLabel  string          // 归属账号标识
}

// Keys 返回该远端订单可参与匹配的全部键，按优先级排列
func (o *RemoteOrder) Keys() []string {
	var keys []string
	if id := strings.TrimSpace(o.ID); id != "" {
		keys = append(keys, "id_"+id)
	}
	if qr := strings.TrimSpace(o.QRID); qr != "" {
		keys = append(keys, "qr_"+qr)
	}
	if track := strings.TrimSpace(o.TrackingNumber); track != "" {
		keys = append(keys, "track_"+track)
	}
	return keys
}

// Gateway 配送方接口抽象
type Gateway interface {
	// Partner 返回配送方标识
	Partner() string
	// ListMerchantOrders 拉取凭证对应商户的全部在途订单
	ListMerchantOrders(ctx context.Context, cred Credential) ([]RemoteOrder, error)
	// GetOrderByID 按配送方订单 ID 查询单个订单，未找到时返回 (nil, nil)
	GetOrderByID(ctx context.Context, cred Credential, remoteID string) (*RemoteOrder, error)
	// GetOrderByTracking 按运单号查询单个订单，未找到时返回 (nil, nil)
	GetOrderByTracking(ctx context.Context, cred Credential, tracking string) (*RemoteOrder, error)
	// LocalStatusFor 将配送方状态码映射为本地订单状态
	LocalStatusFor(code string) (string, bool)
	// TerminalStatuses 返回配送方侧的终态状态码
	TerminalStatuses() []string
}

// Registry 按配送方标识管理网关实现
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry 创建网关注册表
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

// Register 注册网关实现，重复注册时覆盖
func (r *Registry) Register(gw Gateway) {
	if gw == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[gw.Partner()] = gw
}

// Lookup 按配送方标识查找网关
func (r *Registry) Lookup(partner string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.gateways[strings.TrimSpace(partner)]
	if !ok {
		return nil, ErrPartnerNotConfigured
	}
	return gw, nil
}

// Partners 返回已注册的配送方标识
func (r *Registry) Partners() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	partners := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		partners = append(partners, name)
	}
	return partners
}
