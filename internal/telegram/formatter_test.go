package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
)

func TestFormatter_T(t *testing.T) {
	tests := []struct {
		name string
		lang Lang
		key  string
		want string
	}{
		{"english status", LangEN, "status", "Status"},
		{"russian status", LangRU, "status", "Статус"},
		{"english error", LangEN, "error", "Error"},
		{"russian error", LangRU, "error", "Ошибка"},
		{"unknown key", LangEN, "unknown_key", "unknown_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.lang)
			if got := f.T(tt.key); got != tt.want {
				t.Errorf("T() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatter_SetGetLang(t *testing.T) {
	f := NewFormatter("de")
	if f.GetLang() != LangEN {
		t.Errorf("NewFormatter(de) lang = %v, want %v", f.GetLang(), LangEN)
	}
	f.SetLang(LangRU)
	if f.GetLang() != LangRU {
		t.Error("Language should be Russian after SetLang")
	}
}

func TestFormatter_FormatStatus(t *testing.T) {
	f := NewFormatter(LangEN)

	s := Status{
		Account:    "8000001",
		Accounts:   []string{"8000001", "8000002"},
		Summary:    domain.AccountSummary{AccountName: "홍길동", Evaluation: 1234567, DepositD2: 500000},
		Profit:     domain.DailyProfit{Realized: -14688},
		Holding:    2,
		Target:     5,
		Conditions: 3,
		QueueLen:   1,
		KillSwitch: true,
		KillReason: "manual",
		Uptime:     90 * time.Minute,
	}

	result := f.FormatStatus(s)

	for _, want := range []string{
		"Account: 8000001 (홍길동)",
		"Accounts: 8000001, 8000002",
		"1,234,567원",
		"-14,688원",
		"Holding: 2 / Watched: 5",
		"Kill switch: Active (manual)",
		"Uptime: 1h 30m",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("FormatStatus() missing %q in:\n%s", want, result)
		}
	}
}

func TestFormatter_FormatPositions(t *testing.T) {
	f := NewFormatter(LangEN)

	if got := f.FormatPositions(nil); !strings.Contains(got, "No positions") {
		t.Errorf("FormatPositions(nil) = %q", got)
	}

	got := f.FormatPositions([]domain.Position{
		{Code: "005930", Name: "삼성전자", CurPrice: 2020, BuyPrice: 2915, Qty: 3, EarningRate: -30.9, SellStrategies: []string{"stop_loss"}},
	})
	for _, want := range []string{"🔴 삼성전자 (005930)", "현재가: 2020, 매입가: 2915", "수량: 3, 수익율: -30.9%", "sell: stop_loss"} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatPositions() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatter_FormatConditions(t *testing.T) {
	f := NewFormatter(LangEN)

	got := f.FormatConditions([]condition.Condition{
		{Index: 0, Name: "돌파", SignalType: domain.SignalBuy},
		{Index: 12, Name: "손절", SignalType: domain.SignalSell},
	})
	if !strings.Contains(got, "000 돌파 [BUY]") || !strings.Contains(got, "012 손절 [SELL]") {
		t.Errorf("FormatConditions() = %q", got)
	}
	if got := f.FormatConditions(nil); !strings.Contains(got, "No conditions loaded") {
		t.Errorf("FormatConditions(nil) = %q", got)
	}
}

func TestFormatter_Messages(t *testing.T) {
	f := NewFormatter(LangEN)

	if got := f.FormatError(errors.New("boom")); got != "❌ Error: boom" {
		t.Errorf("FormatError() = %q", got)
	}
	if got := f.FormatSuccess("done"); got != "✅ Success: done" {
		t.Errorf("FormatSuccess() = %q", got)
	}
	if got := f.FormatProfit(domain.DailyProfit{TradeDate: "20240102", Realized: 2915}); !strings.Contains(got, "20240102") || !strings.Contains(got, "2,915원") {
		t.Errorf("FormatProfit() = %q", got)
	}
}

func TestFormatWon(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0원"},
		{999, "999원"},
		{1000, "1,000원"},
		{-1234567, "-1,234,567원"},
	}
	for _, tt := range tests {
		if got := FormatWon(tt.in); got != tt.want {
			t.Errorf("FormatWon(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
