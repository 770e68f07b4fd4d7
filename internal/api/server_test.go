package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

type fakeSource struct {
	holds []domain.HoldType
}

func (f *fakeSource) Summary(ctx context.Context) (Summary, error) {
	return Summary{Account: "8000001", KillSwitch: true}, nil
}

func (f *fakeSource) Positions(ctx context.Context, hold domain.HoldType) ([]domain.Position, error) {
	f.holds = append(f.holds, hold)
	return []domain.Position{{Code: "005930", Name: "삼성전자", Qty: 3}}, nil
}

func (f *fakeSource) Conditions(ctx context.Context) ([]condition.Condition, error) {
	return []condition.Condition{{Index: 1, Name: "돌파", SignalType: domain.SignalBuy}}, nil
}

type fakeHistory struct {
	err error
}

func (f fakeHistory) GetRecentOrders(limit int) ([]domain.OrderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.OrderRecord{{Code: "005930", Side: domain.SideSell, Quantity: limit}}, nil
}

func (f fakeHistory) GetFills(code string, limit int) ([]domain.FillRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.FillRecord{{Code: code, Quantity: 10}}, nil
}

func (f fakeHistory) GetRecentProfits(account string, limit int) ([]domain.DailyProfit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.DailyProfit{{Account: account, TradeDate: "20240315", Realized: -1200}}, nil
}

func (f fakeHistory) GetRecentLogs(level string, limit int) ([]domain.Log, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Log{{Level: level, Message: "kill switch activated"}}, nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestServer_Endpoints(t *testing.T) {
	src := &fakeSource{}
	s := NewServer(utils.NewLogger("error"), src, nil, 0)
	h := s.Handler()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, `"healthy"`},
		{"health wrong method", http.MethodPost, "/health", http.StatusMethodNotAllowed, "Method not allowed"},
		{"status", http.MethodGet, "/status", http.StatusOK, `"kill_switch":true`},
		{"stocks default", http.MethodGet, "/stocks", http.StatusOK, `"hold":"ALL"`},
		{"stocks holding", http.MethodGet, "/stocks?hold=holding", http.StatusOK, `"005930"`},
		{"stocks bad hold", http.MethodGet, "/stocks?hold=foo", http.StatusBadRequest, "unknown hold type"},
		{"conditions", http.MethodGet, "/conditions", http.StatusOK, `"signal_type":"BUY"`},
		{"orders without journal", http.MethodGet, "/orders", http.StatusServiceUnavailable, "not available"},
		{"logs without journal", http.MethodGet, "/logs", http.StatusServiceUnavailable, "not available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("%s %s body = %s, want substring %s", tt.method, tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}

	if len(src.holds) != 2 || src.holds[0] != domain.HoldAll || src.holds[1] != domain.HoldHolding {
		t.Errorf("Positions() holds = %v, want [ALL HOLDING]", src.holds)
	}
}

func TestServer_Orders(t *testing.T) {
	s := NewServer(utils.NewLogger("error"), &fakeSource{}, nil, 0)
	s.SetHistory(fakeHistory{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?limit=5", nil))
	resp := decode(t, rec)
	if !resp.Success {
		t.Fatalf("GET /orders = %+v", resp)
	}
	orders, ok := resp.Data.([]interface{})
	if !ok || len(orders) != 1 {
		t.Fatalf("GET /orders data = %#v", resp.Data)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?limit=1000", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /orders?limit=1000 status = %d, want 400", rec.Code)
	}

	s.SetHistory(fakeHistory{err: errors.New("db down")})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET /orders with failing journal status = %d, want 500", rec.Code)
	}
}

func TestServer_Journal(t *testing.T) {
	s := NewServer(utils.NewLogger("error"), &fakeSource{}, nil, 0)
	s.SetHistory(fakeHistory{})
	h := s.Handler()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"fills", "/fills?code=005930", http.StatusOK, `"005930"`},
		{"fills without code", "/fills", http.StatusBadRequest, "code is required"},
		{"profits explicit account", "/profits?account=8000002", http.StatusOK, `"8000002"`},
		{"profits current account", "/profits", http.StatusOK, `"8000001"`},
		{"logs by level", "/logs?level=warn", http.StatusOK, `"kill switch activated"`},
		{"logs bad limit", "/logs?limit=0", http.StatusBadRequest, "limit must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("GET %s body = %s, want substring %s", tt.path, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHub_Broadcast(t *testing.T) {
	logger := utils.NewLogger("error")
	hub := NewHub(8, logger)
	s := NewServer(logger, &fakeSource{}, hub, 0)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.OnSellSignal("005930", 7)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ev.Type != "sell_signal" || ev.Code != "005930" || ev.Qty != 7 {
		t.Errorf("event = %+v", ev)
	}
}

func TestHub_DropsWhenFull(t *testing.T) {
	hub := NewHub(1, utils.NewLogger("error"))

	// Run не запущен: второе событие не помещается в буфер и не блокирует
	done := make(chan struct{})
	go func() {
		hub.OnDataUpdated(domain.TopicBalanceTable)
		hub.OnDataUpdated(domain.TopicConditionTable)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
	if len(hub.broadcast) != 1 {
		t.Errorf("buffered = %d, want 1", len(hub.broadcast))
	}
}
