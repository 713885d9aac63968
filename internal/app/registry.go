package app

import (
	"sync"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// ActiveBot is the in-memory representation of a loaded bot: its last known
// state, an authenticated exchange client, the strategy instance, and the
// open orders the engine is tracking for it.
//
// mu serializes every order-mutating operation for this bot. Read-only
// exchange calls may run without it.
type ActiveBot struct {
	mu sync.Mutex

	Bot      *domain.Bot
	Client   ports.ExchangeClient
	Strategy ports.Strategy

	// Orders submitted but not yet terminal, keyed by exchange order ID.
	openOrders map[string]*ports.Order

	// Simple position tracking for realized PnL attribution.
	positionQty   float64
	avgEntryPrice float64
}

func newActiveBot(bot *domain.Bot, client ports.ExchangeClient, strat ports.Strategy) *ActiveBot {
	return &ActiveBot{
		Bot:        bot,
		Client:     client,
		Strategy:   strat,
		openOrders: make(map[string]*ports.Order),
	}
}

// IsRunning reports whether the bot is in the running state. Paused bots stay
// registered but are skipped by the monitor and refuse signals.
func (ab *ActiveBot) IsRunning() bool {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	return ab.Bot.IsRunning()
}

func (ab *ActiveBot) setStatus(status domain.BotStatus) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	ab.Bot.Status = status
}

func (ab *ActiveBot) trackOrder(order *ports.Order) {
	switch order.Status {
	case domain.OrderFilled, domain.OrderCanceled, domain.OrderRejected:
		delete(ab.openOrders, order.ID)
	default:
		ab.openOrders[order.ID] = order
	}
}

// openOrdersSnapshot returns a copy of the tracked open orders.
func (ab *ActiveBot) openOrdersSnapshot() []*ports.Order {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	orders := make([]*ports.Order, 0, len(ab.openOrders))
	for _, o := range ab.openOrders {
		orders = append(orders, o)
	}
	return orders
}

// Registry is the concurrent map of loaded bots. It owns membership only;
// per-bot state is guarded by each ActiveBot's own mutex.
type Registry struct {
	mu   sync.RWMutex
	bots map[string]*ActiveBot
}

func NewRegistry() *Registry {
	return &Registry{bots: make(map[string]*ActiveBot)}
}

// Get returns the active bot for the ID, or nil when not loaded.
func (r *Registry) Get(id string) *ActiveBot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bots[id]
}

func (r *Registry) Put(id string, ab *ActiveBot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bots[id] = ab
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bots, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bots)
}

// Snapshot returns the current membership as a slice, so job ticks can
// iterate without holding the registry lock across exchange calls.
func (r *Registry) Snapshot() []*ActiveBot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bots := make([]*ActiveBot, 0, len(r.bots))
	for _, ab := range r.bots {
		bots = append(bots, ab)
	}
	return bots
}
