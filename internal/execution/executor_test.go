package execution

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/broker"
	"github.com/kirillm/sns-trade-bot/internal/dispatch"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/internal/policy"
	"github.com/kirillm/sns-trade-bot/internal/strategy"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

type sentOrder struct {
	account   string
	orderType int
	code      string
	qty       int
	price     int
	hoga      string
}

type fakeGateway struct {
	broker.Gateway

	mu       sync.Mutex
	orderRet int
	orders   []sentOrder
	inputs   []string
	requests []string
	done     chan string
}

func (f *fakeGateway) SendOrder(_, _, account string, orderType int, code string, qty, price int, hoga, _ string) int {
	f.mu.Lock()
	f.orders = append(f.orders, sentOrder{account, orderType, code, qty, price, hoga})
	ret := f.orderRet
	f.mu.Unlock()
	f.done <- "send_order"
	return ret
}

func (f *fakeGateway) SetInputValue(item, value string) {
	f.mu.Lock()
	f.inputs = append(f.inputs, item+"="+value)
	f.mu.Unlock()
}

func (f *fakeGateway) CommRqData(rqName, trCode string, _ int, screenNo string) int {
	f.mu.Lock()
	f.requests = append(f.requests, rqName+"/"+trCode+"/"+screenNo)
	f.mu.Unlock()
	f.done <- rqName
	return 0
}

type fakeMessenger struct {
	texts chan string
}

func (m *fakeMessenger) SendMessage(_ context.Context, text string) error {
	m.texts <- text
	return nil
}

type postRecorder struct {
	mu    sync.Mutex
	tasks []func()
}

func (p *postRecorder) Post(fn func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()
}

func (p *postRecorder) flush() int {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

type orderRecorder struct {
	mu     sync.Mutex
	orders []domain.OrderRecord
}

func (o *orderRecorder) RecordOrder(r domain.OrderRecord) {
	o.mu.Lock()
	o.orders = append(o.orders, r)
	o.mu.Unlock()
}

type testEnv struct {
	gw        *fakeGateway
	messenger *fakeMessenger
	poster    *postRecorder
	journal   *orderRecorder
	ledger    *ledger.Ledger
	queue     *dispatch.Queue
	ks        *KillSwitch
	exec      *Executor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := utils.NewLoggerWithWriter("error", io.Discard)
	env := &testEnv{
		gw:        &fakeGateway{done: make(chan string, 16)},
		messenger: &fakeMessenger{texts: make(chan string, 16)},
		poster:    &postRecorder{},
		journal:   &orderRecorder{},
		ledger:    ledger.New(logger),
		queue:     dispatch.NewQueue(time.Millisecond, logger),
		ks:        NewKillSwitch(logger),
	}
	env.ledger.SetAccounts([]string{"8000001"})
	env.exec = NewExecutor(env.queue, env.gw, env.ledger, env.poster, env.ks, logger)
	env.exec.SetMessenger(env.messenger)
	env.exec.SetJournal(env.journal)
	env.exec.now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.queue.Run(ctx)
	return env
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
	}
	var zero T
	return zero
}

func TestExecutor_BuyOrder(t *testing.T) {
	env := newTestEnv(t)
	s := env.ledger.GetOrCreate("005930")
	s.Name = "삼성전자"
	s.OnBuySignal(10)

	if err := env.exec.BuyOrder("005930", 10); err != nil {
		t.Fatalf("BuyOrder() error = %v", err)
	}
	waitFor(t, env.gw.done)
	text := waitFor(t, env.messenger.texts)

	env.gw.mu.Lock()
	got := env.gw.orders
	env.gw.mu.Unlock()
	want := []sentOrder{{"8000001", broker.OrderNewBuy, "005930", 10, 0, broker.HogaMarket}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("orders = %+v, want %+v", got, want)
	}
	if text != "매수주문!! `삼성전자`(005930) 10주" {
		t.Errorf("message = %q", text)
	}
	if n := env.poster.flush(); n != 0 {
		t.Errorf("posted %d holds for accepted order", n)
	}
	if s.RemainedBuyQty != 10 {
		t.Errorf("RemainedBuyQty = %d, want 10", s.RemainedBuyQty)
	}

	env.journal.mu.Lock()
	defer env.journal.mu.Unlock()
	if len(env.journal.orders) != 1 || env.journal.orders[0].Side != domain.SideBuy || env.journal.orders[0].JobID == "" {
		t.Errorf("journal = %+v", env.journal.orders)
	}
}

// orderListener передает сигналы реестра в executor, как это делает приложение
type orderListener struct {
	ledger.NopListener
	exec *Executor
}

func (o orderListener) OnBuySignal(code string, qty int)  { o.exec.BuyOrder(code, qty) }
func (o orderListener) OnSellSignal(code string, qty int) { o.exec.SellOrder(code, qty) }

func (env *testEnv) attach(t *testing.T, s *ledger.Stock, side ledger.Side, name string, params strategy.Params) {
	t.Helper()
	reg := strategy.NewRegistry(utils.NewLoggerWithWriter("error", io.Discard))
	if err := reg.Attach(s, side, name, params); err != nil {
		t.Fatalf("Attach(%s) error = %v", name, err)
	}
}

func TestExecutor_RejectedOrderHoldsSide(t *testing.T) {
	env := newTestEnv(t)
	env.gw.orderRet = -308
	env.ledger.AddListener(orderListener{exec: env.exec})

	s := env.ledger.GetOrCreate("005930")
	s.SetHolding(10, 10000)
	env.attach(t, s, ledger.SideSell, strategy.SellStopLoss, nil)

	s.SetPrice(9000)
	s.EvaluatePrice()
	waitFor(t, env.gw.done)
	if text := waitFor(t, env.messenger.texts); text != "매도주문!! `005930`(005930) 10주" {
		t.Errorf("order message = %q", text)
	}
	if text := waitFor(t, env.messenger.texts); !strings.Contains(text, "held: send order ret -308") {
		t.Errorf("held message = %q", text)
	}
	if n := env.poster.flush(); n != 1 {
		t.Fatalf("posted = %d, want 1 hold", n)
	}

	for i := 0; i < 5; i++ {
		s.SetPrice(8900 - i*10)
		s.EvaluatePrice()
		env.poster.flush()
	}

	env.gw.mu.Lock()
	sent := len(env.gw.orders)
	env.gw.mu.Unlock()
	if sent != 1 {
		t.Errorf("SendOrder calls = %d, want 1 while the sell side is held", sent)
	}
	if env.queue.Len() != 0 {
		t.Errorf("queue len = %d, want 0", env.queue.Len())
	}
	if reason, ok := s.Held(ledger.SideSell); !ok || s.RemainedSellQty != 10 {
		t.Errorf("Held() = %q, %v, RemainedSellQty = %d", reason, ok, s.RemainedSellQty)
	}

	// оператор снимает удержание, и стратегия снова может продавать
	env.gw.mu.Lock()
	env.gw.orderRet = 0
	env.gw.mu.Unlock()
	s.Release(ledger.SideSell)
	s.EvaluatePrice()
	waitFor(t, env.gw.done)
}

func TestExecutor_KillSwitchBlocksOrders(t *testing.T) {
	env := newTestEnv(t)
	s := env.ledger.GetOrCreate("005930")
	s.OnBuySignal(3)
	env.ks.Activate("test")

	err := env.exec.BuyOrder("005930", 3)
	if !errors.Is(err, domain.ErrKillSwitchActive) {
		t.Fatalf("BuyOrder() error = %v, want ErrKillSwitchActive", err)
	}
	if env.queue.Len() != 0 {
		t.Errorf("queue len = %d, want 0", env.queue.Len())
	}
	env.poster.flush()
	if reason, ok := s.Held(ledger.SideBuy); !ok || reason != ReasonKillSwitch || s.RemainedBuyQty != 3 {
		t.Errorf("Held() = %q, %v, RemainedBuyQty = %d", reason, ok, s.RemainedBuyQty)
	}

	env.ks.Deactivate()
	if n := env.exec.ReleaseHeld(ReasonKillSwitch); n != 1 {
		t.Errorf("ReleaseHeld() = %d, want 1", n)
	}
	if s.RemainedBuyQty != 0 {
		t.Errorf("RemainedBuyQty = %d, want 0 after release", s.RemainedBuyQty)
	}
}

func TestExecutor_PolicyRejectsBuy(t *testing.T) {
	env := newTestEnv(t)
	logger := utils.NewLoggerWithWriter("error", io.Discard)
	env.exec.SetPolicy(policy.NewEngine(&policy.Policy{
		ProfileName: "test",
		MaxOrderWon: 1_000_000,
		CircuitBreakers: []policy.CircuitBreaker{
			{Type: "daily_loss", Threshold: 500_000, Action: policy.ActionKillSwitch},
		},
	}, logger))

	s := env.ledger.GetOrCreate("005930")
	s.SetPrice(70000)
	s.OnBuySignal(20)

	err := env.exec.BuyOrder("005930", 20)
	if !errors.Is(err, domain.ErrPolicyViolation) {
		t.Fatalf("BuyOrder() error = %v, want ErrPolicyViolation", err)
	}
	if n := env.poster.flush(); n != 1 {
		t.Errorf("posted %d holds, want 1", n)
	}
	if _, ok := s.Held(ledger.SideBuy); !ok || s.RemainedBuyQty != 20 {
		t.Errorf("buy side not held after rejection, RemainedBuyQty = %d", s.RemainedBuyQty)
	}

	// продажи не ограничиваются
	s.SetHolding(5, 70000)
	if err := env.exec.SellOrder("005930", 5); err != nil {
		t.Errorf("SellOrder() error = %v", err)
	}

	env.ledger.SetTodayProfit(domain.DailyProfit{Realized: -600_000})
	if err := env.exec.BuyOrder("005930", 1); !errors.Is(err, domain.ErrPolicyViolation) {
		t.Errorf("BuyOrder() after daily loss error = %v, want ErrPolicyViolation", err)
	}
	if !env.ks.IsActive() {
		t.Error("daily loss breaker should activate the kill switch")
	}
}

func TestExecutor_PolicyRejectionNotifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	logger := utils.NewLoggerWithWriter("error", io.Discard)
	env.exec.SetPolicy(policy.NewEngine(&policy.Policy{ProfileName: "test", MaxOrderWon: 100_000}, logger))
	env.ledger.AddListener(orderListener{exec: env.exec})

	s := env.ledger.GetOrCreate("005930")
	env.attach(t, s, ledger.SideBuy, strategy.BuyJustBuy, strategy.Params{"budget": 300.0})

	for i := 0; i < 20; i++ {
		s.SetPrice(15000)
		s.EvaluatePrice()
		env.poster.flush()
	}

	if text := waitFor(t, env.messenger.texts); !strings.Contains(text, "rejected") {
		t.Errorf("message = %q, want rejection", text)
	}
	select {
	case text := <-env.messenger.texts:
		t.Errorf("extra message %q, want one rejection", text)
	case <-time.After(50 * time.Millisecond):
	}
	if env.queue.Len() != 0 {
		t.Errorf("queue len = %d, want 0", env.queue.Len())
	}
	env.gw.mu.Lock()
	defer env.gw.mu.Unlock()
	if len(env.gw.orders) != 0 {
		t.Errorf("orders = %+v, want none", env.gw.orders)
	}
}

func TestExecutor_InvalidQty(t *testing.T) {
	env := newTestEnv(t)
	if err := env.exec.BuyOrder("005930", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("BuyOrder(qty 0) error = %v, want ErrInvalidInput", err)
	}
}

func TestExecutor_RequestBalance(t *testing.T) {
	env := newTestEnv(t)
	env.exec.RequestBalance()
	waitFor(t, env.gw.done)

	env.gw.mu.Lock()
	defer env.gw.mu.Unlock()
	wantInputs := []string{"계좌번호=8000001", "비밀번호=", "상장폐지조회구분=0", "비밀번호입력매체구분=00"}
	if !reflect.DeepEqual(env.gw.inputs, wantInputs) {
		t.Errorf("inputs = %v, want %v", env.gw.inputs, wantInputs)
	}
	want := broker.RqBalance + "/" + broker.TrBalance + "/" + broker.ScreenBalance
	if !reflect.DeepEqual(env.gw.requests, []string{want}) {
		t.Errorf("requests = %v", env.gw.requests)
	}
}

func TestExecutor_RequestProfit(t *testing.T) {
	env := newTestEnv(t)
	env.exec.RequestProfit()
	waitFor(t, env.gw.done)

	env.gw.mu.Lock()
	defer env.gw.mu.Unlock()
	wantInputs := []string{"계좌번호=8000001", "시작일자=20240315", "종료일자=20240315", "구분=0"}
	if !reflect.DeepEqual(env.gw.inputs, wantInputs) {
		t.Errorf("inputs = %v, want %v", env.gw.inputs, wantInputs)
	}
}

func TestOkOnOne(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 0},
		{0, -1},
		{-200, -200},
	}
	for _, tt := range tests {
		if got := okOnOne(tt.in); got != tt.want {
			t.Errorf("okOnOne(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestKillSwitch(t *testing.T) {
	ks := NewKillSwitch(utils.NewLoggerWithWriter("error", io.Discard))
	if ks.IsActive() {
		t.Fatal("new kill switch is active")
	}
	ks.Activate("panic stop")
	active, reason, at := ks.GetStatus()
	if !active || reason != "panic stop" || at.IsZero() {
		t.Errorf("GetStatus() = %v, %q, %v", active, reason, at)
	}
	ks.Deactivate()
	if ks.IsActive() {
		t.Error("kill switch still active")
	}
}
