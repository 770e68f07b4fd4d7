package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/dispatch"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/internal/policy"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// ReasonKillSwitch причина удержания стороны, заблокированной kill switch
const ReasonKillSwitch = "kill switch active"

// Messenger отправляет текстовое уведомление
type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

// OrderJournal записывает отправленные заявки. Метод не должен блокировать.
type OrderJournal interface {
	RecordOrder(o domain.OrderRecord)
}

// Executor превращает запросы и сигналы в задачи очереди команд брокера.
// Публичные методы вызываются из цикла событий: реестр читается в момент
// постановки задачи, а сама команда выполняется воркером очереди.
type Executor struct {
	queue      *dispatch.Queue
	gw         broker.Gateway
	ledger     *ledger.Ledger
	poster     broker.Poster
	killSwitch *KillSwitch
	messenger  Messenger
	journal    OrderJournal
	policy     *policy.Engine
	logger     *utils.Logger

	msgTimeout time.Duration
	now        func() time.Time
}

// NewExecutor создает новый executor
func NewExecutor(
	queue *dispatch.Queue,
	gw broker.Gateway,
	l *ledger.Ledger,
	poster broker.Poster,
	killSwitch *KillSwitch,
	logger *utils.Logger,
) *Executor {
	return &Executor{
		queue:      queue,
		gw:         gw,
		ledger:     l,
		poster:     poster,
		killSwitch: killSwitch,
		logger:     logger,
		msgTimeout: 10 * time.Second,
		now:        time.Now,
	}
}

// SetMessenger подключает канал уведомлений о заявках
func (e *Executor) SetMessenger(m Messenger) {
	e.messenger = m
}

// SetJournal подключает журнал заявок
func (e *Executor) SetJournal(j OrderJournal) {
	e.journal = j
}

// SetPolicy подключает проверку заявок на покупку по риск-профилю
func (e *Executor) SetPolicy(p *policy.Engine) {
	e.policy = p
}

// Connect ставит подключение к брокеру. Очередь стоит до Release.
func (e *Executor) Connect() {
	job := dispatch.NewJob("comm_connect", e.gw.CommConnect)
	job.Gate = true
	e.queue.Put(job)
}

// Release продолжает очередь после ответа на подключение
func (e *Executor) Release() {
	e.queue.Release()
}

// LoadConditions запрашивает список условий поиска
func (e *Executor) LoadConditions() {
	e.queue.Put(dispatch.NewJob("get_condition_load", func() int {
		return okOnOne(e.gw.GetConditionLoad())
	}))
}

// CheckCondition выполняет разовый поиск по условию
func (e *Executor) CheckCondition(index int, name string) {
	e.sendCondition("check_condition", index, name, broker.ConditionQueryOnce)
}

// RegisterCondition подписывает условие на события в реальном времени
func (e *Executor) RegisterCondition(index int, name string) {
	e.sendCondition("register_condition", index, name, broker.ConditionQueryReal)
}

func (e *Executor) sendCondition(jobName string, index int, name string, queryType int) {
	e.queue.Put(dispatch.NewJob(jobName, func() int {
		return okOnOne(e.gw.SendCondition(broker.ScreenCondition, name, index, queryType))
	}, index, name))
}

// RequestMultiCodeDetail запрашивает цены инструментов без позиции
func (e *Executor) RequestMultiCodeDetail() {
	codes := e.ledger.CodeList(domain.HoldInterest)
	if len(codes) == 0 {
		e.logger.Info("no interest codes to refresh")
		return
	}
	list := strings.Join(codes, ";")
	e.queue.Put(dispatch.NewJob("comm_kw_rq_data", func() int {
		return e.gw.CommKwRqData(list, 0, len(codes), 0, broker.RqMultiCode, broker.ScreenInterest)
	}, list))
}

// RegisterReal подписывает инструменты выбранного типа на тики
func (e *Executor) RegisterReal(hold domain.HoldType, mode string) {
	codes := e.ledger.CodeList(hold)
	if len(codes) == 0 {
		e.logger.Info("no %s codes to register", hold)
		return
	}
	list := strings.Join(codes, ";")
	e.queue.Put(dispatch.NewJob("set_real_reg", func() int {
		return e.gw.SetRealReg(broker.ScreenReal, list, broker.RealFids, mode)
	}, list, mode))
}

// RemoveReal снимает подписку инструмента на тики
func (e *Executor) RemoveReal(code string) {
	e.queue.Put(dispatch.NewJob("set_real_remove", func() int {
		e.gw.SetRealRemove(broker.ScreenReal, code)
		return 0
	}, code))
}

// RequestBalance запрашивает состояние счета
func (e *Executor) RequestBalance() {
	account := e.ledger.Account()
	e.queue.Put(dispatch.NewJob("request_balance", func() int {
		e.gw.SetInputValue("계좌번호", account)
		e.gw.SetInputValue("비밀번호", "")
		e.gw.SetInputValue("상장폐지조회구분", "0")
		e.gw.SetInputValue("비밀번호입력매체구분", "00")
		return e.gw.CommRqData(broker.RqBalance, broker.TrBalance, 0, broker.ScreenBalance)
	}, account))
}

// RequestCodeInfo запрашивает основную информацию об инструменте
func (e *Executor) RequestCodeInfo(code string) {
	e.queue.Put(dispatch.NewJob("request_code_info", func() int {
		e.gw.SetInputValue("종목코드", code)
		return e.gw.CommRqData(broker.RqCodeInfo, broker.TrCodeInfo, 0, broker.ScreenCode)
	}, code))
}

// RequestProfit запрашивает реализованный результат за сегодня
func (e *Executor) RequestProfit() {
	account := e.ledger.Account()
	today := e.now().Format("20060102")
	e.queue.Put(dispatch.NewJob("request_profit", func() int {
		e.gw.SetInputValue("계좌번호", account)
		e.gw.SetInputValue("시작일자", today)
		e.gw.SetInputValue("종료일자", today)
		e.gw.SetInputValue("구분", "0")
		return e.gw.CommRqData(broker.RqProfit, broker.TrProfit, 0, broker.ScreenProfit)
	}, account, today))
}

// BuyOrder ставит рыночную заявку на покупку
func (e *Executor) BuyOrder(code string, qty int) error {
	return e.order(ledger.SideBuy, code, qty)
}

// SellOrder ставит рыночную заявку на продажу
func (e *Executor) SellOrder(code string, qty int) error {
	return e.order(ledger.SideSell, code, qty)
}

func (e *Executor) order(side ledger.Side, code string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("order qty %d: %w", qty, domain.ErrInvalidInput)
	}

	name := code
	if s, ok := e.ledger.Find(code); ok && s.Name != "" {
		name = s.Name
	}

	if e.killSwitch.IsActive() {
		e.logger.Warn("%s order %s(%s) qty:%d blocked by kill switch", side, name, code, qty)
		e.hold(side, code, qty, ReasonKillSwitch)
		return domain.ErrKillSwitchActive
	}

	if err := e.checkPolicy(side, code, qty); err != nil {
		e.hold(side, code, qty, err.Error())
		return err
	}

	account := e.ledger.Account()
	orderType, sideName, title := broker.OrderNewBuy, domain.SideBuy, "매수주문"
	if side == ledger.SideSell {
		orderType, sideName, title = broker.OrderNewSell, domain.SideSell, "매도주문"
	}

	job := dispatch.NewJob("send_order", nil, code, qty)
	job.Fn = func() int {
		if e.killSwitch.IsActive() {
			e.logger.Warn("%s dropped: kill switch active", job)
			e.hold(side, code, qty, ReasonKillSwitch)
			return -1
		}
		ret := e.gw.SendOrder(broker.RqOrder, broker.ScreenOrder, account, orderType, code, qty, 0, broker.HogaMarket, "")
		if e.journal != nil {
			e.journal.RecordOrder(domain.OrderRecord{
				JobID:     job.ID,
				Account:   account,
				Code:      code,
				Name:      name,
				Side:      sideName,
				Quantity:  qty,
				RetCode:   ret,
				CreatedAt: e.now(),
			})
		}
		if ret != 0 {
			reason := fmt.Sprintf("send order ret %d", ret)
			e.Message(fmt.Sprintf("⚠️ %s `%s`(%s) %d주 held: %s", title, name, code, qty, reason))
			e.hold(side, code, qty, reason)
		}
		return ret
	}
	e.queue.Put(job)

	e.Message(fmt.Sprintf("%s!! `%s`(%s) %d주", title, name, code, qty))
	return nil
}

// checkPolicy сверяет заявку с риск-профилем по текущему состоянию реестра
func (e *Executor) checkPolicy(side ledger.Side, code string, qty int) error {
	if e.policy == nil {
		return nil
	}

	req := policy.OrderRequest{Side: domain.SideBuy, Code: code, Qty: qty}
	if side == ledger.SideSell {
		req.Side = domain.SideSell
	}
	if s, ok := e.ledger.Find(code); ok {
		req.Price = s.CurPrice
		req.PositionWon = int64(s.BuyPrice) * int64(s.Qty)
	}

	var m policy.Metrics
	for _, s := range e.ledger.Stocks(domain.HoldHolding) {
		m.ExposureWon += int64(s.BuyPrice) * int64(s.Qty)
		m.UnrealizedWon += int64(s.CurPrice-s.BuyPrice) * int64(s.Qty)
	}
	m.RealizedWon = e.ledger.TodayProfit().Realized

	res := e.policy.ValidateOrder(req, m)
	if res.Breaker != nil && res.Breaker.Action == policy.ActionKillSwitch {
		e.killSwitch.Activate(res.Breaker.Reason)
	}
	if !res.Approved {
		reason := res.Reason()
		e.Message(fmt.Sprintf("⚠️ %s `%s` %d주 rejected: %s", req.Side, code, qty, reason))
		return fmt.Errorf("%s %s: %s: %w", req.Side, code, reason, domain.ErrPolicyViolation)
	}
	return nil
}

// hold оставляет сторону заблокированной после отказа брокера или политики.
// Повторную заявку по этой стороне разрешает только действие оператора.
func (e *Executor) hold(side ledger.Side, code string, qty int, reason string) {
	e.poster.Post(func() {
		s, ok := e.ledger.Find(code)
		if !ok {
			return
		}
		s.Hold(side, qty, reason)
		e.logger.Warn("%s(%s) %s held: %s", s.Name, code, side, reason)
		e.ledger.SetUpdated(domain.TopicBalanceTable)
	})
}

// ReleaseHeld снимает удержания с указанной причиной и возвращает их число
func (e *Executor) ReleaseHeld(reason string) int {
	n := 0
	for _, s := range e.ledger.Stocks(domain.HoldAll) {
		for _, side := range []ledger.Side{ledger.SideBuy, ledger.SideSell} {
			if r, ok := s.Held(side); ok && r == reason {
				s.Release(side)
				n++
			}
		}
	}
	if n > 0 {
		e.ledger.SetUpdated(domain.TopicBalanceTable)
	}
	return n
}

// Message ставит текстовое уведомление в очередь за предыдущими командами
func (e *Executor) Message(text string) {
	if e.messenger == nil {
		return
	}
	e.queue.Put(dispatch.NewJob("send_message", func() int {
		ctx, cancel := context.WithTimeout(context.Background(), e.msgTimeout)
		defer cancel()
		if err := e.messenger.SendMessage(ctx, text); err != nil {
			e.logger.Error("send message: %v", err)
			return -1
		}
		return 0
	}, text))
}

// okOnOne приводит ответ команд условий (1 при успехе) к общему виду
func okOnOne(ret int) int {
	if ret == 1 {
		return 0
	}
	if ret == 0 {
		return -1
	}
	return ret
}
