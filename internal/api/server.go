package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Summary состояние счета и бота
type Summary struct {
	Account    string                `json:"account"`
	Accounts   []string              `json:"accounts"`
	Balance    domain.AccountSummary `json:"balance"`
	Profit     domain.DailyProfit    `json:"profit"`
	KillSwitch bool                  `json:"kill_switch"`
	QueueLen   int                   `json:"queue_len"`
}

// Source снимки состояния для чтения. Реализация сама обращается к циклу событий.
type Source interface {
	Summary(ctx context.Context) (Summary, error)
	Positions(ctx context.Context, hold domain.HoldType) ([]domain.Position, error)
	Conditions(ctx context.Context) ([]condition.Condition, error)
}

// History журнал торговли
type History interface {
	GetRecentOrders(limit int) ([]domain.OrderRecord, error)
	GetFills(code string, limit int) ([]domain.FillRecord, error)
	GetRecentProfits(account string, limit int) ([]domain.DailyProfit, error)
	GetRecentLogs(level string, limit int) ([]domain.Log, error)
}

type Server struct {
	logger    *utils.Logger
	source    Source
	hub       *Hub
	history   History
	port      int
	startedAt time.Time
	timeout   time.Duration
}

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewServer(logger *utils.Logger, source Source, hub *Hub, port int) *Server {
	return &Server{
		logger:    logger,
		source:    source,
		hub:       hub,
		port:      port,
		startedAt: time.Now(),
		timeout:   5 * time.Second,
	}
}

// SetHistory подключает журнал для /orders, /fills, /profits и /logs
func (s *Server) SetHistory(h History) {
	s.history = h
}

// Handler возвращает маршруты сервера
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/stocks", s.handleStocks)
	mux.HandleFunc("/conditions", s.handleConditions)
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/fills", s.handleFills)
	mux.HandleFunc("/profits", s.handleProfits)
	mux.HandleFunc("/logs", s.handleLogs)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}

	return mux
}

// Start обслуживает запросы до отмены контекста
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting HTTP server on %s", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// handleHealth - health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.hub != nil {
		health["ws_clients"] = s.hub.ClientCount()
	}

	s.sendSuccess(w, health)
}

// handleStatus - account and bot state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	summary, err := s.source.Summary(ctx)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get status: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, summary)
}

// handleStocks - stocks of the ledger, filtered by ?hold=
func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hold, err := parseHold(getQueryParam(r, "hold", "all"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	positions, err := s.source.Positions(ctx, hold)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get stocks: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, map[string]interface{}{
		"hold":   hold.String(),
		"stocks": positions,
	})
}

// handleConditions - condition list with signal types
func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	list, err := s.source.Conditions(ctx)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get conditions: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, list)
}

// handleOrders - recent orders from the journal
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalRequest(w, r)
	if !ok {
		return
	}
	orders, err := s.history.GetRecentOrders(limit)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get orders: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, orders)
}

// handleFills - fill notifications of one stock
func (s *Server) handleFills(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalRequest(w, r)
	if !ok {
		return
	}
	code := getQueryParam(r, "code", "")
	if code == "" {
		s.sendError(w, "code is required", http.StatusBadRequest)
		return
	}
	fills, err := s.history.GetFills(code, limit)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get fills: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, fills)
}

// handleProfits - daily realized P&L, current account by default
func (s *Server) handleProfits(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalRequest(w, r)
	if !ok {
		return
	}
	account := getQueryParam(r, "account", "")
	if account == "" {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		summary, err := s.source.Summary(ctx)
		if err != nil {
			s.sendError(w, fmt.Sprintf("Failed to get status: %v", err), http.StatusInternalServerError)
			return
		}
		account = summary.Account
	}
	profits, err := s.history.GetRecentProfits(account, limit)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get profits: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, profits)
}

// handleLogs - journal events, optionally filtered by ?level=
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.journalRequest(w, r)
	if !ok {
		return
	}
	logs, err := s.history.GetRecentLogs(getQueryParam(r, "level", ""), limit)
	if err != nil {
		s.sendError(w, fmt.Sprintf("Failed to get logs: %v", err), http.StatusInternalServerError)
		return
	}
	s.sendSuccess(w, logs)
}

// journalRequest проверяет метод, наличие журнала и ?limit=
func (s *Server) journalRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return 0, false
	}
	if s.history == nil {
		s.sendError(w, "Journal not available", http.StatusServiceUnavailable)
		return 0, false
	}
	limit := getQueryParamInt(r, "limit", 20)
	if limit <= 0 || limit > 500 {
		s.sendError(w, "limit must be between 1 and 500", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}

// Helper methods
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(Response{
		Success: true,
		Data:    data,
	})
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error:   message,
	})
}

func parseHold(s string) (domain.HoldType, error) {
	switch strings.ToLower(s) {
	case "all":
		return domain.HoldAll, nil
	case "holding":
		return domain.HoldHolding, nil
	case "interest":
		return domain.HoldInterest, nil
	case "target":
		return domain.HoldTarget, nil
	}
	return domain.HoldAll, fmt.Errorf("unknown hold type %q", s)
}

// Helper function to parse query parameter
func getQueryParam(r *http.Request, key string, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}

// Helper function to parse int query parameter
func getQueryParamInt(r *http.Request, key string, defaultValue int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
