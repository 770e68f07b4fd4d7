// Package bridge реализует broker.Gateway поверх websocket соединения с
// процессом на Windows, в котором живет OCX Kiwoom OpenAPI.
//
// Протокол JSON:
//
//	-> {"id": 7, "method": "CommRqData", "args": ["RQ_BALANCE", "OPW00004", 0, "4444"]}
//	<- {"id": 7, "result": 0}
//	<- {"id": 8, "error": "not connected"}
//	<- {"event": "OnReceiveTrData", "args": ["4444", "RQ_BALANCE", "OPW00004", "", "0"]}
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// ErrClosed соединение с мостом закрыто
var ErrClosed = errors.New("bridge connection closed")

type request struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Args   []interface{} `json:"args"`
}

type message struct {
	ID     uint64            `json:"id,omitempty"`
	Result json.RawMessage   `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Event  string            `json:"event,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
}

type response struct {
	result json.RawMessage
	err    error
}

// Client шлюз брокера через websocket мост
type Client struct {
	logger  *utils.Logger
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan response
	handler broker.EventHandler
	closed  bool
}

// Dial подключается к мосту. timeout ограничивает ожидание ответа на каждую команду.
func Dial(ctx context.Context, url string, timeout time.Duration, logger *utils.Logger) (*Client, error) {
	logger.Info("Connecting to broker bridge %s...", url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}
	logger.Info("Broker bridge connected")
	return &Client{
		logger:  logger,
		conn:    conn,
		timeout: timeout,
		pending: make(map[uint64]chan response),
	}, nil
}

// SetHandler задает получателя событий. Обычно broker.Serialize(router, loop).
func (c *Client) SetHandler(h broker.EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Run читает ответы и события до отмены контекста или обрыва соединения
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.failPending()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("bridge read: %w", err)
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("bridge: malformed message: %v", err)
			continue
		}

		if msg.Event != "" {
			c.dispatch(msg.Event, msg.Args)
			continue
		}
		c.resolve(msg)
	}
}

// Close закрывает соединение, ожидающие команды получают ошибку
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) resolve(msg message) {
	c.mu.Lock()
	ch, ok := c.pending[msg.ID]
	delete(c.pending, msg.ID)
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("bridge: response for unknown id %d", msg.ID)
		return
	}
	var resp response
	if msg.Error != "" {
		resp.err = fmt.Errorf("%s: %w", msg.Error, domain.ErrGateway)
	} else {
		resp.result = msg.Result
	}
	ch <- resp
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.pending {
		ch <- response{err: ErrClosed}
		delete(c.pending, id)
	}
}

// call отправляет команду и ждет ответ
func (c *Client) call(method string, args ...interface{}) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if args == nil {
		args = []interface{}{}
	}
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err := c.conn.WriteJSON(request{ID: id, Method: method, Args: args})
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.err != nil {
			return nil, fmt.Errorf("%s: %w", method, resp.err)
		}
		return resp.result, nil
	case <-timer.C:
		c.forget(id)
		return nil, fmt.Errorf("%s: timeout after %v: %w", method, c.timeout, domain.ErrGateway)
	}
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// callInt возвращает -1, если команда не дошла до брокера
func (c *Client) callInt(method string, args ...interface{}) int {
	raw, err := c.call(method, args...)
	if err != nil {
		c.logger.Error("bridge: %v", err)
		return -1
	}
	var ret int
	if err := json.Unmarshal(raw, &ret); err != nil {
		c.logger.Error("bridge: %s result %s: %v", method, raw, err)
		return -1
	}
	return ret
}

func (c *Client) callString(method string, args ...interface{}) string {
	raw, err := c.call(method, args...)
	if err != nil {
		c.logger.Error("bridge: %v", err)
		return ""
	}
	var ret string
	if err := json.Unmarshal(raw, &ret); err != nil {
		c.logger.Error("bridge: %s result %s: %v", method, raw, err)
		return ""
	}
	return ret
}

func (c *Client) callVoid(method string, args ...interface{}) {
	if _, err := c.call(method, args...); err != nil {
		c.logger.Error("bridge: %v", err)
	}
}
