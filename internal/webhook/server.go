package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"tradeHive/internal/domain"
	"tradeHive/internal/ports"
)

// SignalQueue is the slice of the processor the webhook boundary needs.
type SignalQueue interface {
	Enqueue(ctx context.Context, sig *domain.Signal) (int64, error)
}

// Server is the webhook ingestion boundary. It validates and enqueues
// signals; execution happens asynchronously in the processing job.
type Server struct {
	logger  ports.Logger
	bots    ports.BotRepository
	queue   SignalQueue
	addr    string
	baseURL string

	httpServer *http.Server
}

// Config collects the webhook server's dependencies.
type Config struct {
	Logger  ports.Logger
	Bots    ports.BotRepository
	Queue   SignalQueue
	Addr    string // Listen address, e.g. ":8080"
	BaseURL string // Public base URL advertised in webhook URLs
}

// Response is the uniform JSON envelope for all endpoints.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil || cfg.Bots == nil || cfg.Queue == nil {
		return nil, fmt.Errorf("missing required dependencies for webhook server")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{
		logger:  cfg.Logger,
		bots:    cfg.Bots,
		queue:   cfg.Queue,
		addr:    cfg.Addr,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Handler builds the route table. Exposed separately so tests can drive it
// without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhooks/signal/{botID}", s.handleSignal)
	mux.HandleFunc("POST /webhooks/tradingview/{botID}", s.handleTradingView)
	mux.HandleFunc("POST /webhooks/3commas/{botID}", s.handleThreeCommas)
	mux.HandleFunc("GET /webhooks/url/{botID}", s.handleWebhookURL)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Webhook server listening", map[string]interface{}{"addr": s.addr})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleSignal is the generic ingestion endpoint: look up the bot, verify
// the signature when a secret is configured, map the action, enqueue.
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	bot, err := s.bots.FindByID(r.Context(), botID)
	if err != nil {
		s.sendError(w, "Failed to load bot", http.StatusInternalServerError)
		return
	}
	if bot == nil || bot.StrategyType != domain.StrategySignal {
		s.sendError(w, "Signal bot not found", http.StatusNotFound)
		return
	}

	if bot.WebhookSecret != "" {
		signature := r.Header.Get("X-Signature")
		if signature == "" {
			signature = r.Header.Get("Signature")
		}
		if signature == "" {
			s.sendError(w, "Missing signature", http.StatusUnauthorized)
			return
		}
		if !verifySignature(bot.WebhookSecret, body, signature) {
			s.sendError(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var req signalRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.enqueueRequest(w, r, bot, &req, body)
}

// handleTradingView parses the alert message format and feeds the same path.
// TradingView cannot sign requests, so the bot secret is not enforced here.
func (s *Server) handleTradingView(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var alert struct {
		Message string `json:"message"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(body, &alert); err != nil {
		// TradingView can also send the bare alert text.
		alert.Message = string(body)
	}
	message := alert.Message
	if message == "" {
		message = alert.Text
	}

	req, err := parseTradingViewAlert(message)
	if err != nil {
		s.sendError(w, "Invalid TradingView alert format", http.StatusBadRequest)
		return
	}

	bot, err := s.bots.FindByID(r.Context(), botID)
	if err != nil {
		s.sendError(w, "Failed to load bot", http.StatusInternalServerError)
		return
	}
	if bot == nil || bot.StrategyType != domain.StrategySignal {
		s.sendError(w, "Signal bot not found", http.StatusNotFound)
		return
	}
	s.enqueueRequest(w, r, bot, req, body)
}

// handleThreeCommas converts the 3Commas payload shape and feeds the same path.
func (s *Server) handleThreeCommas(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var tc threeCommasRequest
	if err := json.Unmarshal(body, &tc); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bot, err := s.bots.FindByID(r.Context(), botID)
	if err != nil {
		s.sendError(w, "Failed to load bot", http.StatusInternalServerError)
		return
	}
	if bot == nil || bot.StrategyType != domain.StrategySignal {
		s.sendError(w, "Signal bot not found", http.StatusNotFound)
		return
	}
	s.enqueueRequest(w, r, bot, tc.toSignalRequest(), body)
}

// enqueueRequest validates the mapped request and persists it as pending.
func (s *Server) enqueueRequest(w http.ResponseWriter, r *http.Request, bot *domain.Bot, req *signalRequest, rawBody []byte) {
	if req.Action == "" {
		s.sendError(w, "Missing required field: action", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		s.sendError(w, "Missing required field: symbol", http.StatusBadRequest)
		return
	}

	sigType, ok := mapAction(req.Action)
	if !ok {
		s.sendError(w, fmt.Sprintf("Invalid action: %s", req.Action), http.StatusBadRequest)
		return
	}

	sig := buildSignal(bot.ID, req, sigType, rawBody, clientIP(r))
	id, err := s.queue.Enqueue(r.Context(), sig)
	if err != nil {
		s.logger.Error(r.Context(), err, "Failed to enqueue webhook signal", map[string]interface{}{"botID": bot.ID})
		s.sendError(w, "Failed to create signal", http.StatusInternalServerError)
		return
	}

	s.logger.Info(r.Context(), "Signal received", map[string]interface{}{
		"botID":    bot.ID,
		"signalID": id,
		"type":     string(sigType),
		"symbol":   req.Symbol,
	})
	s.sendSuccess(w, map[string]interface{}{
		"message":   "Signal received and queued for processing",
		"signal_id": id,
	})
}

// handleWebhookURL returns the ingestion URLs and secret for a signal bot.
func (s *Server) handleWebhookURL(w http.ResponseWriter, r *http.Request) {
	botID := r.PathValue("botID")

	bot, err := s.bots.FindByID(r.Context(), botID)
	if err != nil {
		s.sendError(w, "Failed to load bot", http.StatusInternalServerError)
		return
	}
	if bot == nil {
		s.sendError(w, "Bot not found", http.StatusNotFound)
		return
	}
	if bot.StrategyType != domain.StrategySignal {
		s.sendError(w, "Bot is not a signal bot", http.StatusBadRequest)
		return
	}

	base := s.baseURL
	if base == "" {
		base = "http://" + r.Host
	}
	s.sendSuccess(w, map[string]interface{}{
		"webhook_urls": map[string]string{
			"generic":     fmt.Sprintf("%s/webhooks/signal/%s", base, botID),
			"tradingview": fmt.Sprintf("%s/webhooks/tradingview/%s", base, botID),
			"3commas":     fmt.Sprintf("%s/webhooks/3commas/%s", base, botID),
		},
		"webhook_secret": bot.WebhookSecret,
		"instructions": map[string]string{
			"generic":     "Send POST requests with JSON payload containing action, symbol, price, quantity, etc.",
			"tradingview": `Use alert message format: "BUY BTCUSDT at 43250 qty 0.1 tp 44000 sl 42000"`,
			"3commas":     "Compatible with 3Commas webhook format",
		},
	})
}

// verifySignature checks an HMAC-SHA256 hex signature over the raw body.
func verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{Success: true, Data: data})
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Success: false, Error: message})
}
