package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event сообщение, которое получают подписчики /ws
type Event struct {
	Type  string       `json:"type"` // topic, buy_signal, sell_signal
	Topic domain.Topic `json:"topic,omitempty"`
	Code  string       `json:"code,omitempty"`
	Qty   int          `json:"qty,omitempty"`
	Time  time.Time    `json:"time"`
}

// Hub рассылает события реестра websocket клиентам. Реализует ledger.Listener
// и никогда не блокирует цикл событий: при переполнении событие теряется.
type Hub struct {
	logger    *utils.Logger
	lock      sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	now       func() time.Time
}

// NewHub создает хаб с буфером size сообщений
func NewHub(size int, logger *utils.Logger) *Hub {
	if size <= 0 {
		size = 64
	}
	return &Hub{
		logger:    logger,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, size),
		now:       time.Now,
	}
}

func (h *Hub) OnDataUpdated(topic domain.Topic) {
	h.publish(Event{Type: "topic", Topic: topic})
}

func (h *Hub) OnBuySignal(code string, qty int) {
	h.publish(Event{Type: "buy_signal", Code: code, Qty: qty})
}

func (h *Hub) OnSellSignal(code string, qty int) {
	h.publish(Event{Type: "sell_signal", Code: code, Qty: qty})
}

func (h *Hub) publish(ev Event) {
	ev.Time = h.now()
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("ws event marshal: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("ws broadcast buffer full, %s dropped", ev.Type)
	}
}

// Run рассылает события до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case message := <-h.broadcast:
			h.lock.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.lock.Unlock()
		}
	}
}

// ServeWS подключает клиента к рассылке
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade error: %v", err)
		return
	}
	h.lock.Lock()
	h.clients[conn] = true
	h.lock.Unlock()
	h.logger.Info("ws client connected: %s", r.RemoteAddr)

	// Входящие сообщения не нужны, чтение только обнаруживает закрытие
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}
