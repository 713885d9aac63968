package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tradeHive/internal/domain"
)

// actionMap translates incoming webhook actions onto signal types.
// Aliases cover the common vocabularies of external alert sources.
var actionMap = map[string]domain.SignalType{
	"buy":       domain.SignalBuy,
	"sell":      domain.SignalSell,
	"close":     domain.SignalClose,
	"long":      domain.SignalBuy,
	"short":     domain.SignalSell,
	"exit":      domain.SignalClose,
	"update_tp": domain.SignalUpdateTP,
	"update_sl": domain.SignalUpdateSL,
}

// mapAction resolves an action string case-insensitively.
func mapAction(action string) (domain.SignalType, bool) {
	t, ok := actionMap[strings.ToLower(strings.TrimSpace(action))]
	return t, ok
}

// flexFloat unmarshals from a JSON number or a numeric string, since alert
// sources are inconsistent about quoting numbers.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexFloat(v)
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil || *f == 0 {
		return nil
	}
	v := float64(*f)
	return &v
}

// signalRequest is the generic webhook payload.
type signalRequest struct {
	Action     string     `json:"action"`
	Symbol     string     `json:"symbol"`
	Price      *flexFloat `json:"price"`
	Quantity   *flexFloat `json:"quantity"`
	TakeProfit *flexFloat `json:"take_profit"`
	StopLoss   *flexFloat `json:"stop_loss"`
	Leverage   *int       `json:"leverage"`
}

// tradingViewAlert matches alert messages of the form
// "BUY BTCUSDT at 43250 qty 0.1 tp 44000 sl 42000" with every clause after
// the symbol optional.
var tradingViewAlert = regexp.MustCompile(`(?i)(BUY|SELL|CLOSE)\s+(\w+)\s*(?:at\s+(\d+\.?\d*))?(?:\s*qty\s+(\d+\.?\d*))?(?:\s*tp\s+(\d+\.?\d*))?(?:\s*sl\s+(\d+\.?\d*))?`)

// parseTradingViewAlert converts a TradingView alert message into the
// generic request shape.
func parseTradingViewAlert(message string) (*signalRequest, error) {
	match := tradingViewAlert.FindStringSubmatch(message)
	if match == nil {
		return nil, fmt.Errorf("invalid TradingView alert format")
	}

	req := &signalRequest{
		Action: strings.ToLower(match[1]),
		Symbol: match[2],
	}
	req.Price = parseOptionalFloat(match[3])
	req.Quantity = parseOptionalFloat(match[4])
	req.TakeProfit = parseOptionalFloat(match[5])
	req.StopLoss = parseOptionalFloat(match[6])
	return req, nil
}

func parseOptionalFloat(s string) *flexFloat {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f := flexFloat(v)
	return &f
}

// threeCommasRequest is the 3Commas webhook shape, which names the same
// fields differently depending on bot version.
type threeCommasRequest struct {
	Action      string     `json:"action"`
	MessageType string     `json:"message_type"`
	Pair        string     `json:"pair"`
	Symbol      string     `json:"symbol"`
	Price       *flexFloat `json:"price"`
	Quantity    *flexFloat `json:"quantity"`
	Amount      *flexFloat `json:"amount"`
	TakeProfit  *flexFloat `json:"take_profit"`
	StopLoss    *flexFloat `json:"stop_loss"`
}

func (r *threeCommasRequest) toSignalRequest() *signalRequest {
	req := &signalRequest{
		Action:     r.Action,
		Symbol:     r.Pair,
		Price:      r.Price,
		Quantity:   r.Quantity,
		TakeProfit: r.TakeProfit,
		StopLoss:   r.StopLoss,
	}
	if req.Action == "" {
		req.Action = r.MessageType
	}
	if req.Symbol == "" {
		req.Symbol = r.Symbol
	}
	if req.Quantity == nil {
		req.Quantity = r.Amount
	}
	return req
}

// buildSignal turns a validated request into a pending signal for the queue.
func buildSignal(botID string, req *signalRequest, sigType domain.SignalType, rawPayload []byte, sourceIP string) *domain.Signal {
	payload := string(rawPayload)
	if payload == "" {
		if raw, err := json.Marshal(req); err == nil {
			payload = string(raw)
		}
	}
	return &domain.Signal{
		BotID:      botID,
		Type:       sigType,
		Symbol:     req.Symbol,
		Price:      req.Price.ptr(),
		Quantity:   req.Quantity.ptr(),
		TakeProfit: req.TakeProfit.ptr(),
		StopLoss:   req.StopLoss.ptr(),
		Leverage:   req.Leverage,
		Payload:    payload,
		SourceIP:   sourceIP,
	}
}
