package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"

	"github.com/google/uuid"
)

const bybitBaseURL = "https://api.bybit.com"

// bybitClient implements ports.ExchangeClient against the Bybit REST API.
// Requests are signed with HMAC-SHA256-hex over the sorted parameter string.
type bybitClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *http.Client
	logger    ports.Logger
}

func newBybitClient(apiKey, apiSecret string, logger ports.Logger) *bybitClient {
	return &bybitClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   bybitBaseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// bybitSign signs the parameter set: keys sorted ascending, joined as
// key=value pairs with '&', HMAC-SHA256 over the result, hex-encoded.
func bybitSign(secret string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

type bybitEnvelope struct {
	RetCode int             `json:"ret_code"`
	RetMsg  string          `json:"ret_msg"`
	Result  json.RawMessage `json:"result"`
}

func (b *bybitClient) request(ctx context.Context, method, endpoint string, params map[string]string, signed bool, out interface{}) error {
	if params == nil {
		params = make(map[string]string)
	}
	if signed {
		params["api_key"] = b.apiKey
		params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
		params["sign"] = bybitSign(b.apiSecret, params)
	}

	var req *http.Request
	var err error
	if method == http.MethodGet {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		req, err = http.NewRequestWithContext(ctx, method, b.baseURL+endpoint+"?"+query.Encode(), nil)
	} else {
		raw, mErr := json.Marshal(params)
		if mErr != nil {
			return fmt.Errorf("bybit: failed to marshal request body: %w", mErr)
		}
		req, err = http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, bytes.NewBuffer(raw))
	}
	if err != nil {
		return fmt.Errorf("bybit: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("bybit: %s %s: %w: %w", method, endpoint, ports.ErrExchangeAPI, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bybit: failed to read response: %w", err)
	}

	var env bybitEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("bybit: invalid response (%d): %w", resp.StatusCode, ports.ErrExchangeAPI)
	}
	if env.RetCode != 0 {
		mapped := ports.ErrExchangeAPI
		switch env.RetCode {
		case 10003, 10004, 10005: // invalid key / signature / permission
			mapped = ports.ErrAuthenticationFailed
		case 10006, 10018: // rate limit
			mapped = ports.ErrRateLimited
		}
		return fmt.Errorf("bybit API error: %s (code %d): %w", env.RetMsg, env.RetCode, mapped)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("bybit: failed to decode result: %w", err)
		}
	}
	return nil
}

// GetBalance retrieves all non-zero asset balances for the account.
func (b *bybitClient) GetBalance(ctx context.Context) (map[string]float64, error) {
	var result map[string]struct {
		AvailableBalance float64 `json:"available_balance"`
	}
	if err := b.request(ctx, http.MethodGet, "/v2/private/wallet/balance", nil, true, &result); err != nil {
		return nil, err
	}

	balances := make(map[string]float64)
	for currency, bal := range result {
		if bal.AvailableBalance > 0 {
			balances[currency] = bal.AvailableBalance
		}
	}
	return balances, nil
}

// GetTicker retrieves the normalized 24h ticker for a symbol.
func (b *bybitClient) GetTicker(ctx context.Context, symbol string) (*ports.Ticker, error) {
	params := map[string]string{"symbol": symbol}
	var result []struct {
		Symbol       string `json:"symbol"`
		LastPrice    string `json:"last_price"`
		Price24hPcnt string `json:"price_24h_pcnt"`
		Volume24h    string `json:"volume_24h"`
	}
	if err := b.request(ctx, http.MethodGet, "/v2/public/tickers", params, false, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("bybit: no ticker data for %s: %w", symbol, ports.ErrExchangeAPI)
	}

	price, _ := strconv.ParseFloat(result[0].LastPrice, 64)
	change, _ := strconv.ParseFloat(result[0].Price24hPcnt, 64)
	volume, _ := strconv.ParseFloat(result[0].Volume24h, 64)
	return &ports.Ticker{Symbol: result[0].Symbol, Price: price, Change: change * 100, Volume: volume}, nil
}

// GetOrderbook retrieves order book depth for a symbol.
func (b *bybitClient) GetOrderbook(ctx context.Context, symbol string, depth int) (*ports.OrderBook, error) {
	params := map[string]string{"symbol": symbol}
	var result []struct {
		Price string  `json:"price"`
		Size  float64 `json:"size"`
		Side  string  `json:"side"`
	}
	if err := b.request(ctx, http.MethodGet, "/v2/public/orderBook/L2", params, false, &result); err != nil {
		return nil, err
	}

	book := &ports.OrderBook{Symbol: symbol}
	for _, level := range result {
		p, _ := strconv.ParseFloat(level.Price, 64)
		pl := ports.PriceLevel{Price: p, Quantity: level.Size}
		if strings.EqualFold(level.Side, "buy") {
			book.Bids = append(book.Bids, pl)
		} else {
			book.Asks = append(book.Asks, pl)
		}
		if depth > 0 && len(book.Bids) >= depth && len(book.Asks) >= depth {
			break
		}
	}
	// Best levels first.
	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })
	return book, nil
}

// CreateOrder places an order and returns its normalized result.
func (b *bybitClient) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	clientOrderID := uuid.NewString()
	params := map[string]string{
		"symbol":        req.Symbol,
		"side":          capitalize(string(req.Side)),
		"order_type":    capitalize(string(req.Type)),
		"qty":           formatFloat(req.Quantity),
		"time_in_force": "GoodTillCancel",
		"order_link_id": clientOrderID,
	}
	if req.Type == domain.Limit {
		params["price"] = formatFloat(req.Price)
	}

	var result struct {
		OrderID     string  `json:"order_id"`
		Symbol      string  `json:"symbol"`
		Price       float64 `json:"price"`
		Qty         float64 `json:"qty"`
		OrderStatus string  `json:"order_status"`
	}
	if err := b.request(ctx, http.MethodPost, "/v2/private/order/create", params, true, &result); err != nil {
		return nil, err
	}
	if result.OrderID == "" {
		return nil, fmt.Errorf("bybit: empty order response: %w", ports.ErrOrderPlacementFailed)
	}

	return &ports.Order{
		ID:            result.OrderID,
		ClientOrderID: clientOrderID,
		Symbol:        result.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      result.Qty,
		Price:         result.Price,
		ExecutedPrice: result.Price,
		Status:        normalizeOrderStatus(result.OrderStatus),
		Timestamp:     time.Now().UTC(),
	}, nil
}

// CancelOrder cancels an open order by its exchange-assigned ID.
func (b *bybitClient) CancelOrder(ctx context.Context, orderID, symbol string) error {
	params := map[string]string{
		"symbol":   symbol,
		"order_id": orderID,
	}
	return b.request(ctx, http.MethodPost, "/v2/private/order/cancel", params, true, nil)
}
