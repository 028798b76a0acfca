package alwaseet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tijara-next/internal/constants"
	"github.com/tijara-next/internal/delivery"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("alwaseet config invalid")
	ErrRequestFailed   = errors.New("alwaseet request failed")
	ErrResponseInvalid = errors.New("alwaseet response invalid")
	ErrTokenRejected   = errors.New("alwaseet token rejected")
)

// Config Al-Waseet 网关配置
type Config struct {
	BaseURL   string `json:"base_url"`   // 网关地址，如 https://api.alwaseet-iq.net
	TimeoutMS int    `json:"timeout_ms"` // 请求超时，毫秒
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
}

// Client Al-Waseet 配送网关客户端
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
	}, nil
}

// Partner 返回配送方标识
func (c *Client) Partner() string {
	return constants.DeliveryPartnerAlWaseet
}

// remoteOrderDTO 接口返回的订单结构，金额字段可能是数字或字符串
type remoteOrderDTO struct {
	ID             string      `json:"id"`
	QRID           string      `json:"qr_id"`
	TrackingNumber string      `json:"tracking_number"`
	StatusID       string      `json:"status_id"`
	Status         string      `json:"status"`
	Price          interface{} `json:"price"`
	DeliveryPrice  interface{} `json:"delivery_price"`
	MerchantName   string      `json:"client_name"`
}

func (d *remoteOrderDTO) toRemoteOrder() delivery.RemoteOrder {
	return delivery.RemoteOrder{
		ID:             strings.TrimSpace(d.ID),
		QRID:           strings.TrimSpace(d.QRID),
		TrackingNumber: strings.TrimSpace(d.TrackingNumber),
		StatusCode:     strings.TrimSpace(d.StatusID),
		StatusLabel:    strings.TrimSpace(d.Status),
		Price:          toDecimal(d.Price),
		DeliveryFee:    toDecimal(d.DeliveryPrice),
		MerchantLabel:  strings.TrimSpace(d.MerchantName),
	}
}

func toDecimal(v interface{}) decimal.Decimal {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(val)); err == nil {
			return d
		}
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// ListMerchantOrders 拉取凭证对应商户的全部在途订单
func (c *Client) ListMerchantOrders(ctx context.Context, cred delivery.Credential) ([]delivery.RemoteOrder, error) {
	respBytes, err := c.getJSON(ctx, "/v1/merchant/statuses", cred, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Status bool             `json:"status"`
		ErrNum string           `json:"errNum"`
		Msg    string           `json:"msg"`
		Data   []remoteOrderDTO `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status {
		if isAuthError(resp.ErrNum) {
			return nil, fmt.Errorf("%w: %s", ErrTokenRejected, resp.Msg)
		}
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Msg)
	}
	orders := make([]delivery.RemoteOrder, 0, len(resp.Data))
	for i := range resp.Data {
		orders = append(orders, resp.Data[i].toRemoteOrder())
	}
	return orders, nil
}

// GetOrderByID 按配送方订单 ID 查询单个订单
func (c *Client) GetOrderByID(ctx context.Context, cred delivery.Credential, remoteID string) (*delivery.RemoteOrder, error) {
	id := strings.TrimSpace(remoteID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty order id", ErrConfigInvalid)
	}
	return c.getOne(ctx, cred, url.Values{"order_id": {id}})
}

// GetOrderByTracking 按运单号查询单个订单
func (c *Client) GetOrderByTracking(ctx context.Context, cred delivery.Credential, tracking string) (*delivery.RemoteOrder, error) {
	track := strings.TrimSpace(tracking)
	if track == "" {
		return nil, fmt.Errorf("%w: empty tracking number", ErrConfigInvalid)
	}
	return c.getOne(ctx, cred, url.Values{"tracking_number": {track}})
}

func (c *Client) getOne(ctx context.Context, cred delivery.Credential, params url.Values) (*delivery.RemoteOrder, error) {
	respBytes, err := c.getJSON(ctx, "/v1/merchant/order", cred, params)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Status bool             `json:"status"`
		ErrNum string           `json:"errNum"`
		Msg    string           `json:"msg"`
		Data   []remoteOrderDTO `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.Status {
		if isAuthError(resp.ErrNum) {
			return nil, fmt.Errorf("%w: %s", ErrTokenRejected, resp.Msg)
		}
		// 查询接口未命中时返回非 status，视为不存在
		return nil, nil
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	order := resp.Data[0].toRemoteOrder()
	return &order, nil
}

// LocalStatusFor 将配送方状态码映射为本地订单状态
func (c *Client) LocalStatusFor(code string) (string, bool) {
	switch strings.TrimSpace(code) {
	case constants.AlWaseetCodeReceived:
		return constants.OrderStatusShipped, true
	case constants.AlWaseetCodeInTransit, constants.AlWaseetCodeOutForDelivery:
		return constants.OrderStatusInDelivery, true
	case constants.AlWaseetCodeDelivered:
		return constants.OrderStatusDelivered, true
	case constants.AlWaseetCodeReturnedInStock:
		return constants.OrderStatusReturnedInStock, true
	case constants.AlWaseetCodeCancelled, constants.AlWaseetCodeRejected:
		return constants.OrderStatusCancelled, true
	default:
		return "", false
	}
}

// TerminalStatuses 返回配送方侧的终态状态码
func (c *Client) TerminalStatuses() []string {
	return []string{
		constants.AlWaseetCodeDelivered,
		constants.AlWaseetCodeReturnedInStock,
		constants.AlWaseetCodeCancelled,
		constants.AlWaseetCodeRejected,
	}
}

func isAuthError(errNum string) bool {
	switch strings.TrimSpace(errNum) {
	case "S280", "S281", "401":
		return true
	default:
		return false
	}
}

func (c *Client) getJSON(ctx context.Context, path string, cred delivery.Credential, params url.Values) ([]byte, error) {
	if strings.TrimSpace(cred.Token) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrConfigInvalid)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", cred.Token)

	endpoint := c.cfg.BaseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: http status %d", ErrTokenRejected, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
