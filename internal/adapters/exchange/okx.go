package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"

	"github.com/google/uuid"
)

const okxBaseURL = "https://www.okx.com"

// okxClient implements ports.ExchangeClient against the OKX v5 REST API.
// Requests are signed with HMAC-SHA256 over timestamp+method+path+body,
// base64-encoded, per the OKX signing scheme.
type okxClient struct {
	apiKey     string
	apiSecret  string
	passphrase string
	baseURL    string
	http       *http.Client
	logger     ports.Logger
}

func newOKXClient(apiKey, apiSecret, passphrase string, logger ports.Logger) *okxClient {
	return &okxClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		baseURL:    okxBaseURL,
		http:       &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// okxSign computes the OK-ACCESS-SIGN header value.
func okxSign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// okxSymbol converts a generic symbol into OKX instrument format
// (BTC/USDT -> BTC-USDT; BTCUSDT is passed through unchanged).
func okxSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}

type okxEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (o *okxClient) request(ctx context.Context, method, endpoint string, query url.Values, payload interface{}, out interface{}) error {
	requestPath := endpoint
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var body string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("okx: failed to marshal request body: %w", err)
		}
		body = string(raw)
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+requestPath, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("okx: failed to build request: %w", err)
	}
	req.Header.Set("OK-ACCESS-KEY", o.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", okxSign(o.apiSecret, timestamp, method, requestPath, body))
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", o.passphrase)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return fmt.Errorf("okx: %s %s: %w: %w", method, endpoint, ports.ErrExchangeAPI, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("okx: failed to read response: %w", err)
	}

	var env okxEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("okx: invalid response (%d): %w", resp.StatusCode, ports.ErrExchangeAPI)
	}
	if env.Code != "0" {
		mapped := ports.ErrExchangeAPI
		if resp.StatusCode == http.StatusUnauthorized || env.Code == "50111" || env.Code == "50113" {
			mapped = ports.ErrAuthenticationFailed
		}
		return fmt.Errorf("okx API error: %s (code %s): %w", env.Msg, env.Code, mapped)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("okx: failed to decode data: %w", err)
		}
	}
	return nil
}

// GetBalance retrieves all non-zero asset balances for the trading account.
func (o *okxClient) GetBalance(ctx context.Context) (map[string]float64, error) {
	var data []struct {
		Details []struct {
			Ccy      string `json:"ccy"`
			AvailBal string `json:"availBal"`
		} `json:"details"`
	}
	if err := o.request(ctx, http.MethodGet, "/api/v5/account/balance", nil, nil, &data); err != nil {
		return nil, err
	}

	balances := make(map[string]float64)
	if len(data) > 0 {
		for _, d := range data[0].Details {
			avail, _ := strconv.ParseFloat(d.AvailBal, 64)
			if avail > 0 {
				balances[d.Ccy] = avail
			}
		}
	}
	return balances, nil
}

// GetTicker retrieves the normalized 24h ticker for a symbol.
func (o *okxClient) GetTicker(ctx context.Context, symbol string) (*ports.Ticker, error) {
	query := url.Values{"instId": {okxSymbol(symbol)}}
	var data []struct {
		Last    string `json:"last"`
		Open24h string `json:"open24h"`
		Vol24h  string `json:"vol24h"`
	}
	if err := o.request(ctx, http.MethodGet, "/api/v5/market/ticker", query, nil, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("okx: no ticker data for %s: %w", symbol, ports.ErrExchangeAPI)
	}

	last, _ := strconv.ParseFloat(data[0].Last, 64)
	open, _ := strconv.ParseFloat(data[0].Open24h, 64)
	volume, _ := strconv.ParseFloat(data[0].Vol24h, 64)
	change := 0.0
	if open > 0 {
		change = (last - open) / open * 100
	}
	return &ports.Ticker{Symbol: symbol, Price: last, Change: change, Volume: volume}, nil
}

// GetOrderbook retrieves order book depth for a symbol.
func (o *okxClient) GetOrderbook(ctx context.Context, symbol string, depth int) (*ports.OrderBook, error) {
	if depth <= 0 {
		depth = 100
	}
	query := url.Values{"instId": {okxSymbol(symbol)}, "sz": {strconv.Itoa(depth)}}
	var data []struct {
		Bids [][]string `json:"bids"`
		Asks [][]string `json:"asks"`
	}
	if err := o.request(ctx, http.MethodGet, "/api/v5/market/books", query, nil, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("okx: no orderbook data for %s: %w", symbol, ports.ErrExchangeAPI)
	}

	book := &ports.OrderBook{Symbol: symbol}
	for _, bid := range data[0].Bids {
		if len(bid) < 2 {
			continue
		}
		p, _ := strconv.ParseFloat(bid[0], 64)
		q, _ := strconv.ParseFloat(bid[1], 64)
		book.Bids = append(book.Bids, ports.PriceLevel{Price: p, Quantity: q})
	}
	for _, ask := range data[0].Asks {
		if len(ask) < 2 {
			continue
		}
		p, _ := strconv.ParseFloat(ask[0], 64)
		q, _ := strconv.ParseFloat(ask[1], 64)
		book.Asks = append(book.Asks, ports.PriceLevel{Price: p, Quantity: q})
	}
	return book, nil
}

// CreateOrder places an order and returns its normalized result.
func (o *okxClient) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	clientOrderID := strings.ReplaceAll(uuid.NewString(), "-", "")
	payload := map[string]string{
		"instId":  okxSymbol(req.Symbol),
		"tdMode":  "cash",
		"side":    string(req.Side),
		"ordType": string(req.Type),
		"sz":      formatFloat(req.Quantity),
		"clOrdId": clientOrderID,
	}
	if req.Type == domain.Limit {
		payload["px"] = formatFloat(req.Price)
	}

	var data []struct {
		OrdID string `json:"ordId"`
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := o.request(ctx, http.MethodPost, "/api/v5/trade/order", nil, payload, &data); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("okx: empty order response: %w", ports.ErrOrderPlacementFailed)
	}
	if data[0].SCode != "0" {
		return nil, fmt.Errorf("okx order rejected: %s (code %s): %w", data[0].SMsg, data[0].SCode, ports.ErrOrderPlacementFailed)
	}

	return &ports.Order{
		ID:            data[0].OrdID,
		ClientOrderID: clientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Quantity:      req.Quantity,
		Price:         req.Price,
		// OKX reports fills asynchronously; the submitted order starts live.
		Status:    domain.OrderNew,
		Timestamp: time.Now().UTC(),
	}, nil
}

// CancelOrder cancels an open order by its exchange-assigned ID.
func (o *okxClient) CancelOrder(ctx context.Context, orderID, symbol string) error {
	payload := map[string]string{
		"instId": okxSymbol(symbol),
		"ordId":  orderID,
	}
	var data []struct {
		SCode string `json:"sCode"`
		SMsg  string `json:"sMsg"`
	}
	if err := o.request(ctx, http.MethodPost, "/api/v5/trade/cancel-order", nil, payload, &data); err != nil {
		return err
	}
	if len(data) > 0 && data[0].SCode != "0" {
		return fmt.Errorf("okx cancel rejected: %s (code %s): %w", data[0].SMsg, data[0].SCode, ports.ErrOrderCancelFailed)
	}
	return nil
}
