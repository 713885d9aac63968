package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockBotRepo implements ports.BotRepository over an in-memory map.
type mockBotRepo struct {
	mu           sync.Mutex
	bots         map[string]*domain.Bot
	statusByID   map[string]domain.BotStatus
	errorsByID   map[string]string
	statusErrs   map[string]error
	perfCalls    int
	configCalls  int
	balanceCalls int
}

func newMockBotRepo(bots ...*domain.Bot) *mockBotRepo {
	r := &mockBotRepo{
		bots:       make(map[string]*domain.Bot),
		statusByID: make(map[string]domain.BotStatus),
		errorsByID: make(map[string]string),
		statusErrs: make(map[string]error),
	}
	for _, b := range bots {
		r.bots[b.ID] = b
		r.statusByID[b.ID] = b.Status
	}
	return r
}

func (r *mockBotRepo) FindByID(ctx context.Context, id string) (*domain.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bots[id], nil
}

func (r *mockBotRepo) FindByStatus(ctx context.Context, status domain.BotStatus) ([]*domain.Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Bot
	for _, b := range r.bots {
		if r.statusByID[b.ID] == status {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *mockBotRepo) UpdateStatus(ctx context.Context, id string, status domain.BotStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.statusErrs[id]; ok {
		return err
	}
	r.statusByID[id] = status
	r.errorsByID[id] = errorMessage
	return nil
}

func (r *mockBotRepo) UpdatePerformance(ctx context.Context, id string, totalTrades int, totalProfit, winRate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perfCalls++
	if b, ok := r.bots[id]; ok {
		b.TotalTrades = totalTrades
		b.TotalProfit = totalProfit
		b.WinRate = winRate
	}
	return nil
}

func (r *mockBotRepo) UpdateCurrentBalance(ctx context.Context, id string, balance float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balanceCalls++
	if b, ok := r.bots[id]; ok {
		b.CurrentBalance = balance
	}
	return nil
}

func (r *mockBotRepo) UpdateConfig(ctx context.Context, id string, cfg domain.BotConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configCalls++
	if b, ok := r.bots[id]; ok {
		b.Config = cfg
	}
	return nil
}

func (r *mockBotRepo) status(id string) domain.BotStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusByID[id]
}

// mockSignalRepo implements ports.SignalRepository with a FIFO in-memory queue.
type mockSignalRepo struct {
	mu            sync.Mutex
	nextID        int64
	signals       map[int64]*domain.Signal
	claimCalls    map[int64]int
	claimFailures int   // Number of upcoming Claim calls that fail
	claimErr      error // Error those calls return
}

func newMockSignalRepo() *mockSignalRepo {
	return &mockSignalRepo{
		signals:    make(map[int64]*domain.Signal),
		claimCalls: make(map[int64]int),
	}
}

func (r *mockSignalRepo) Create(ctx context.Context, sig *domain.Signal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *sig
	cp.ID = r.nextID
	r.signals[cp.ID] = &cp
	return cp.ID, nil
}

func (r *mockSignalRepo) FindPending(ctx context.Context) ([]*domain.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Signal
	for _, s := range r.signals {
		if !s.Processed {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *mockSignalRepo) Claim(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimFailures > 0 {
		r.claimFailures--
		return false, r.claimErr
	}
	sig, ok := r.signals[id]
	if !ok || sig.Processed {
		// Mirrors the store's processed=0 guard: only one caller wins.
		return false, nil
	}
	r.claimCalls[id]++
	sig.Processed = true
	sig.ProcessedAt = time.Now().UTC()
	return true, nil
}

func (r *mockSignalRepo) RecordOutcome(ctx context.Context, id int64, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sig, ok := r.signals[id]
	if !ok {
		return fmt.Errorf("signal %d not found", id)
	}
	sig.ErrorMessage = errorMessage
	return nil
}

func (r *mockSignalRepo) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, s := range r.signals {
		if s.Processed && s.CreatedAt.Before(cutoff) {
			delete(r.signals, id)
			removed++
		}
	}
	return removed, nil
}

func (r *mockSignalRepo) get(id int64) *domain.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.signals[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

// mockTradeRepo implements ports.TradeRepository.
type mockTradeRepo struct {
	mu     sync.Mutex
	nextID int64
	trades []*domain.Trade
}

func (r *mockTradeRepo) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *trade
	cp.ID = r.nextID
	r.trades = append(r.trades, &cp)
	return cp.ID, nil
}

func (r *mockTradeRepo) FindByBot(ctx context.Context, botID string) ([]*domain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Trade
	for _, t := range r.trades {
		if t.BotID == botID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *mockTradeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trades)
}

// mockUserRepo implements ports.UserRepository.
type mockUserRepo struct {
	mu     sync.Mutex
	totals map[string]float64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{totals: make(map[string]float64)}
}

func (r *mockUserRepo) UpdateTotalBalance(ctx context.Context, userID string, total float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[userID] = total
	return nil
}

// mockAuditRepo implements ports.AuditRepository.
type mockAuditRepo struct {
	mu      sync.Mutex
	actions []string
}

func (r *mockAuditRepo) CreateEntry(ctx context.Context, userID, action, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return nil
}

func (r *mockAuditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// mockExchangeClient implements ports.ExchangeClient with scripted behavior.
type mockExchangeClient struct {
	mu sync.Mutex

	balances  map[string]float64
	ticker    *ports.Ticker
	tickerErr error
	book      *ports.OrderBook

	nextOrderID int
	orderErr    error
	orderStatus domain.OrderStatus
	orders      []ports.OrderRequest

	cancelErrs map[string]error
	canceled   []string
}

func newMockExchangeClient() *mockExchangeClient {
	return &mockExchangeClient{
		balances:    map[string]float64{"USDT": 1000},
		ticker:      &ports.Ticker{Symbol: "BTCUSDT", Price: 100},
		book:        &ports.OrderBook{Symbol: "BTCUSDT"},
		orderStatus: domain.OrderFilled,
		cancelErrs:  make(map[string]error),
	}
}

func (c *mockExchangeClient) GetBalance(ctx context.Context) (map[string]float64, error) {
	return c.balances, nil
}

func (c *mockExchangeClient) GetTicker(ctx context.Context, symbol string) (*ports.Ticker, error) {
	if c.tickerErr != nil {
		return nil, c.tickerErr
	}
	return c.ticker, nil
}

func (c *mockExchangeClient) GetOrderbook(ctx context.Context, symbol string, depth int) (*ports.OrderBook, error) {
	return c.book, nil
}

func (c *mockExchangeClient) CreateOrder(ctx context.Context, req ports.OrderRequest) (*ports.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orderErr != nil {
		return nil, c.orderErr
	}
	c.nextOrderID++
	c.orders = append(c.orders, req)

	price := req.Price
	if price == 0 {
		price = c.ticker.Price
	}
	return &ports.Order{
		ID:               strconv.Itoa(c.nextOrderID),
		Symbol:           req.Symbol,
		Side:             req.Side,
		Type:             req.Type,
		Quantity:         req.Quantity,
		Price:            req.Price,
		ExecutedPrice:    price,
		ExecutedQuantity: req.Quantity,
		Status:           c.orderStatus,
		Timestamp:        time.Now().UTC(),
	}, nil
}

func (c *mockExchangeClient) CancelOrder(ctx context.Context, orderID, symbol string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.cancelErrs[orderID]; ok {
		return err
	}
	c.canceled = append(c.canceled, orderID)
	return nil
}

func (c *mockExchangeClient) orderCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.orders)
}

// mockConnector implements ports.Connector handing out scripted clients.
type mockConnector struct {
	mu      sync.Mutex
	clients map[string]ports.ExchangeClient
	errs    map[string]error
	calls   int
}

func newMockConnector() *mockConnector {
	return &mockConnector{
		clients: make(map[string]ports.ExchangeClient),
		errs:    make(map[string]error),
	}
}

func (c *mockConnector) Connect(ctx context.Context, exchange, apiKey, apiSecret, passphrase string) (ports.ExchangeClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err, ok := c.errs[apiKey]; ok {
		return nil, err
	}
	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}
	client := newMockExchangeClient()
	c.clients[apiKey] = client
	return client, nil
}
