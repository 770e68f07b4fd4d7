package ledger

import (
	"io"
	"math"
	"reflect"
	"testing"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

func newTestLedger() *Ledger {
	return New(utils.NewLoggerWithWriter("error", io.Discard))
}

type recorder struct {
	topics []domain.Topic
	buys   []int
	sells  []int
}

func (r *recorder) OnDataUpdated(t domain.Topic)   { r.topics = append(r.topics, t) }
func (r *recorder) OnBuySignal(_ string, qty int)  { r.buys = append(r.buys, qty) }
func (r *recorder) OnSellSignal(_ string, qty int) { r.sells = append(r.sells, qty) }

type stubStrategy struct {
	name    string
	enabled bool
	calls   *[]string
}

func (s *stubStrategy) Name() string            { return s.name }
func (s *stubStrategy) Enabled() bool           { return s.enabled }
func (s *stubStrategy) Params() map[string]any  { return nil }
func (s *stubStrategy) OnPriceUpdated()         { *s.calls = append(*s.calls, s.name) }
func (s *stubStrategy) OnTime(string)           { *s.calls = append(*s.calls, s.name+"@time") }
func (s *stubStrategy) OnCondition(int, string) { *s.calls = append(*s.calls, s.name+"@cond") }
func (s *stubStrategy) OnTrData(int)            {}

func TestEarningRate(t *testing.T) {
	tests := []struct {
		name      string
		cur       int
		buy       int
		qty       int
		want      float64
		tolerance float64
	}{
		{"loss", 2020, 2915, 100, -30.90, 0.1},
		{"gain", 67200, 37650, 1, 78.01, 0.1},
		{"zero buy price", 1000, 0, 10, 0, 0},
		{"zero qty", 1000, 900, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EarningRate(tt.cur, tt.buy, tt.qty)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("EarningRate(%d, %d, %d) = %v, want %v", tt.cur, tt.buy, tt.qty, got, tt.want)
			}
		})
	}
}

func TestEarningRate_Exact(t *testing.T) {
	// 202000 - 40 - 30 - 606 - 291500 = -90176
	want := -90176.0 / 291500.0 * 100
	if got := EarningRate(2020, 2915, 100); math.Abs(got-want) > 1e-9 {
		t.Errorf("EarningRate() = %v, want %v", got, want)
	}
}

func TestLedger_GetOrCreateIdempotent(t *testing.T) {
	l := newTestLedger()
	a := l.GetOrCreate("005930")
	a.Name = "삼성전자"
	b := l.GetOrCreate("005930")

	if a != b {
		t.Fatal("GetOrCreate() returned different instances for the same code")
	}
	if got := l.CodeList(domain.HoldAll); !reflect.DeepEqual(got, []string{"005930"}) {
		t.Errorf("CodeList() = %v", got)
	}
}

func TestLedger_Remove(t *testing.T) {
	l := newTestLedger()
	l.GetOrCreate("A")
	l.GetOrCreate("B")

	if !l.Remove("A") {
		t.Error("Remove(A) = false, want true")
	}
	if l.Remove("A") {
		t.Error("Remove(A) twice = true, want false")
	}
	if _, ok := l.Find("A"); ok {
		t.Error("A still present")
	}
	if got := l.CodeList(domain.HoldAll); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("CodeList() = %v", got)
	}
}

func TestLedger_CodeList(t *testing.T) {
	l := newTestLedger()
	var calls []string

	held := l.GetOrCreate("HELD")
	held.SetHolding(10, 1000)
	l.GetOrCreate("WATCH")
	planned := l.GetOrCreate("PLAN")
	planned.Attach(SideBuy, &stubStrategy{name: "buy_just_buy", enabled: true, calls: &calls})

	tests := []struct {
		hold domain.HoldType
		want []string
	}{
		{domain.HoldInterest, []string{"WATCH", "PLAN"}},
		{domain.HoldHolding, []string{"HELD"}},
		{domain.HoldTarget, []string{"HELD", "PLAN"}},
		{domain.HoldAll, []string{"HELD", "WATCH", "PLAN"}},
	}

	for _, tt := range tests {
		t.Run(tt.hold.String(), func(t *testing.T) {
			if got := l.CodeList(tt.hold); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CodeList(%v) = %v, want %v", tt.hold, got, tt.want)
			}
		})
	}
}

func TestLedger_SetUpdatedOrder(t *testing.T) {
	l := newTestLedger()
	var order []string
	l.AddListener(&orderListener{id: "gui", order: &order})
	l.AddListener(&orderListener{id: "slack", order: &order})

	l.SetUpdated(domain.TopicBalanceTable)

	if !reflect.DeepEqual(order, []string{"gui", "slack"}) {
		t.Errorf("notification order = %v", order)
	}
}

type orderListener struct {
	NopListener
	id    string
	order *[]string
}

func (o *orderListener) OnDataUpdated(domain.Topic) { *o.order = append(*o.order, o.id) }

func TestLedger_Accounts(t *testing.T) {
	l := newTestLedger()
	rec := &recorder{}
	l.AddListener(rec)

	l.SetAccounts([]string{"8000001", "8000002"})
	if l.Account() != "8000001" {
		t.Errorf("Account() = %s", l.Account())
	}
	if err := l.SetAccount("8000002"); err != nil {
		t.Fatalf("SetAccount() error = %v", err)
	}
	if err := l.SetAccount("999"); err == nil {
		t.Error("SetAccount(unknown) expected error")
	}
	if len(rec.topics) != 2 || rec.topics[0] != domain.TopicAccountCombo {
		t.Errorf("topics = %v", rec.topics)
	}
}

func TestLedger_AddAllTempStocks(t *testing.T) {
	l := newTestLedger()
	l.GetOrCreate("A").Name = "kept"
	l.SetTempStocks([]TempStock{{Code: "A", Name: "other"}, {Code: "B", Name: "new"}})

	if n := l.AddAllTempStocks(); n != 2 {
		t.Errorf("AddAllTempStocks() = %d, want 2", n)
	}
	a, _ := l.Find("A")
	b, _ := l.Find("B")
	if a.Name != "kept" || b == nil || b.Name != "new" {
		t.Errorf("names = %q, %+v", a.Name, b)
	}
}

func TestStock_SignalsLatch(t *testing.T) {
	l := newTestLedger()
	rec := &recorder{}
	l.AddListener(rec)

	s := l.GetOrCreate("A")
	s.OnSellSignal(7)
	s.OnBuySignal(0)

	if s.RemainedSellQty != 7 {
		t.Errorf("RemainedSellQty = %d, want 7", s.RemainedSellQty)
	}
	if !reflect.DeepEqual(rec.sells, []int{7}) || len(rec.buys) != 0 {
		t.Errorf("signals buys=%v sells=%v", rec.buys, rec.sells)
	}
}

func TestStock_EvaluatePriceOrder(t *testing.T) {
	l := newTestLedger()
	var calls []string
	s := l.GetOrCreate("A")
	s.Attach(SideBuy, &stubStrategy{name: "b1", enabled: true, calls: &calls})
	s.Attach(SideSell, &stubStrategy{name: "s1", enabled: true, calls: &calls})
	s.Attach(SideSell, &stubStrategy{name: "s2", enabled: false, calls: &calls})
	s.Attach(SideSell, &stubStrategy{name: "s3", enabled: true, calls: &calls})

	s.EvaluatePrice()
	if !reflect.DeepEqual(calls, []string{"b1"}) {
		t.Errorf("no holding: calls = %v", calls)
	}

	calls = nil
	s.SetHolding(10, 1000)
	s.EvaluatePrice()
	if !reflect.DeepEqual(calls, []string{"s1", "s3", "b1"}) {
		t.Errorf("holding: calls = %v", calls)
	}

	calls = nil
	s.RemainedSellQty = 10
	s.RemainedBuyQty = 3
	s.EvaluatePrice()
	if len(calls) != 0 {
		t.Errorf("outstanding orders: calls = %v", calls)
	}
}

func TestStock_AttachReplacesByName(t *testing.T) {
	var calls []string
	s := newStock("A", nil)
	first := &stubStrategy{name: "sell_stop_loss", enabled: true, calls: &calls}
	second := &stubStrategy{name: "sell_stop_loss", enabled: true, calls: &calls}
	s.Attach(SideSell, first)
	s.Attach(SideSell, &stubStrategy{name: "sell_on_closing", enabled: true, calls: &calls})
	s.Attach(SideSell, second)

	list := s.Strategies(SideSell)
	if len(list) != 2 || list[0] != Strategy(second) {
		t.Errorf("Strategies() = %v", list)
	}
	if !s.Detach(SideSell, "sell_on_closing") || s.Detach(SideSell, "sell_on_closing") {
		t.Error("Detach() results unexpected")
	}
}

func TestStock_TopPriceTracksHolding(t *testing.T) {
	s := newTestLedger().GetOrCreate("005930")

	// цены до покупки не попадают в максимум
	s.SetPrice(11000)
	s.SetPrice(10000)
	if s.TopPrice != 0 {
		t.Fatalf("TopPrice before purchase = %d, want 0", s.TopPrice)
	}

	s.SetHolding(10, 10000)
	if s.TopPrice != 10000 {
		t.Errorf("TopPrice at open = %d, want 10000", s.TopPrice)
	}
	s.SetPrice(10500)
	s.SetPrice(10200)
	if s.TopPrice != 10500 {
		t.Errorf("TopPrice while held = %d, want 10500", s.TopPrice)
	}

	// докупка не сбрасывает максимум
	s.SetHolding(15, 10100)
	if s.TopPrice != 10500 {
		t.Errorf("TopPrice after adding = %d, want 10500", s.TopPrice)
	}

	s.SetHolding(0, 0)
	if s.TopPrice != 0 {
		t.Errorf("TopPrice after close = %d, want 0", s.TopPrice)
	}
}

func TestStock_HoldRelease(t *testing.T) {
	var calls []string
	s := newTestLedger().GetOrCreate("005930")
	s.Attach(SideBuy, &stubStrategy{name: "b1", enabled: true, calls: &calls})

	s.OnBuySignal(20)
	s.Hold(SideBuy, 20, "order rejected")
	if reason, ok := s.Held(SideBuy); !ok || reason != "order rejected" {
		t.Fatalf("Held() = %q, %v", reason, ok)
	}
	if s.RemainedBuyQty != 20 {
		t.Errorf("RemainedBuyQty = %d, want 20 while held", s.RemainedBuyQty)
	}
	if _, ok := s.Held(SideSell); ok {
		t.Error("sell side held")
	}

	s.EvaluatePrice()
	if len(calls) != 0 {
		t.Errorf("held side evaluated: %v", calls)
	}

	s.Release(SideBuy)
	if _, ok := s.Held(SideBuy); ok || s.RemainedBuyQty != 0 {
		t.Errorf("after Release held = %v, RemainedBuyQty = %d", ok, s.RemainedBuyQty)
	}
	s.EvaluatePrice()
	if !reflect.DeepEqual(calls, []string{"b1"}) {
		t.Errorf("after Release calls = %v", calls)
	}

	// удержание без активной заявки все равно блокирует сторону
	s.Hold(SideSell, 0, "kill switch")
	if s.RemainedSellQty != 1 {
		t.Errorf("RemainedSellQty = %d, want 1", s.RemainedSellQty)
	}
	s.OnSellSignal(5)
	if _, ok := s.Held(SideSell); ok {
		t.Error("new signal should clear the hold reason")
	}
}
