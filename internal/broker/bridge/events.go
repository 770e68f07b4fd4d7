package bridge

import (
	"encoding/json"
	"fmt"
)

type eventArgs []json.RawMessage

func (a eventArgs) str(i int) (string, error) {
	if i >= len(a) {
		return "", fmt.Errorf("missing arg %d", i)
	}
	var s string
	if err := json.Unmarshal(a[i], &s); err != nil {
		return "", fmt.Errorf("arg %d: %w", i, err)
	}
	return s, nil
}

func (a eventArgs) num(i int) (int, error) {
	if i >= len(a) {
		return 0, fmt.Errorf("missing arg %d", i)
	}
	var n int
	if err := json.Unmarshal(a[i], &n); err != nil {
		return 0, fmt.Errorf("arg %d: %w", i, err)
	}
	return n, nil
}

// argReader собирает первую ошибку разбора
type argReader struct {
	args eventArgs
	err  error
}

func (r *argReader) str(i int) string {
	s, err := r.args.str(i)
	if err != nil && r.err == nil {
		r.err = err
	}
	return s
}

func (r *argReader) num(i int) int {
	n, err := r.args.num(i)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n
}

// dispatch разбирает событие OCX и передает его обработчику
func (c *Client) dispatch(event string, raw []json.RawMessage) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		c.logger.Warn("bridge: event %s without handler", event)
		return
	}

	r := &argReader{args: raw}
	var fire func()

	switch event {
	case "OnEventConnect":
		errCode := r.num(0)
		fire = func() { h.OnEventConnect(errCode) }
	case "OnReceiveTrData":
		screenNo, rqName, trCode, recordName, prevNext := r.str(0), r.str(1), r.str(2), r.str(3), r.str(4)
		fire = func() { h.OnReceiveTrData(screenNo, rqName, trCode, recordName, prevNext) }
	case "OnReceiveRealData":
		code, realType, realData := r.str(0), r.str(1), r.str(2)
		fire = func() { h.OnReceiveRealData(code, realType, realData) }
	case "OnReceiveMsg":
		screenNo, rqName, trCode, msg := r.str(0), r.str(1), r.str(2), r.str(3)
		fire = func() { h.OnReceiveMsg(screenNo, rqName, trCode, msg) }
	case "OnReceiveChejanData":
		gubun, itemCnt, fidList := r.str(0), r.num(1), r.str(2)
		fire = func() { h.OnReceiveChejanData(gubun, itemCnt, fidList) }
	case "OnReceiveConditionVer":
		ret, msg := r.num(0), r.str(1)
		fire = func() { h.OnReceiveConditionVer(ret, msg) }
	case "OnReceiveTrCondition":
		screenNo, codeList, name, index, next := r.str(0), r.str(1), r.str(2), r.num(3), r.num(4)
		fire = func() { h.OnReceiveTrCondition(screenNo, codeList, name, index, next) }
	case "OnReceiveRealCondition":
		code, eventType, name, index := r.str(0), r.str(1), r.str(2), r.str(3)
		fire = func() { h.OnReceiveRealCondition(code, eventType, name, index) }
	default:
		c.logger.Warn("bridge: unknown event %s", event)
		return
	}

	if r.err != nil {
		c.logger.Warn("bridge: event %s: %v", event, r.err)
		return
	}
	fire()
}
