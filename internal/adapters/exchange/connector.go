package exchange

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tradeHive/internal/ports"
)

// Connector implements ports.Connector. Clients are cached by
// (exchange name, API key) so repeated bot initializations reuse one
// authenticated session; this avoids redundant auth handshakes and respects
// exchange connection-rate limits.
type Connector struct {
	logger ports.Logger
	build  func(name, apiKey, apiSecret, passphrase string) (ports.ExchangeClient, error)

	mu      sync.Mutex
	clients map[string]ports.ExchangeClient
}

// NewConnector creates a connector with an empty connection cache.
func NewConnector(logger ports.Logger) *Connector {
	c := &Connector{
		logger:  logger,
		clients: make(map[string]ports.ExchangeClient),
	}
	c.build = c.buildClient
	return c
}

// buildClient selects the concrete implementation by exchange name.
func (c *Connector) buildClient(name, apiKey, apiSecret, passphrase string) (ports.ExchangeClient, error) {
	switch name {
	case "binance":
		return newBinanceClient(apiKey, apiSecret, c.logger), nil
	case "okx":
		return newOKXClient(apiKey, apiSecret, passphrase, c.logger), nil
	case "bybit":
		return newBybitClient(apiKey, apiSecret, c.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ports.ErrUnsupportedExchange, name)
	}
}

// Connect returns an authenticated client for the given exchange and
// credentials. The authentication check (a balance fetch) runs once per
// cached connection; its failure is fatal to the caller's initialization.
func (c *Connector) Connect(ctx context.Context, exchange, apiKey, apiSecret, passphrase string) (ports.ExchangeClient, error) {
	name := strings.ToLower(exchange)
	cacheKey := name + "_" + apiKey

	c.mu.Lock()
	if client, ok := c.clients[cacheKey]; ok {
		c.mu.Unlock()
		return client, nil
	}
	c.mu.Unlock()

	client, err := c.build(name, apiKey, apiSecret, passphrase)
	if err != nil {
		return nil, err
	}

	// Authentication check before the client enters the cache.
	if _, err := client.GetBalance(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s auth check: %v", ports.ErrConnectionFailed, name, err)
	}

	c.mu.Lock()
	// Another caller may have connected with the same credentials meanwhile;
	// keep the first client so everyone shares one session.
	if existing, ok := c.clients[cacheKey]; ok {
		c.mu.Unlock()
		return existing, nil
	}
	c.clients[cacheKey] = client
	c.mu.Unlock()

	c.logger.Info(ctx, "Exchange connection established", map[string]interface{}{"exchange": name})
	return client, nil
}

// Close drops all cached connections. Called on process shutdown or
// credential rotation.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients = make(map[string]ports.ExchangeClient)
}
