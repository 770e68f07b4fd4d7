package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
)

// Lang представляет язык
type Lang string

const (
	LangEN Lang = "en"
	LangRU Lang = "ru"
)

// Status снимок состояния бота для /status
type Status struct {
	Account    string
	Accounts   []string
	Summary    domain.AccountSummary
	Profit     domain.DailyProfit
	Holding    int
	Target     int
	Conditions int
	QueueLen   int
	KillSwitch bool
	KillReason string
	Uptime     time.Duration
}

// Formatter форматирует ответы для пользователя
type Formatter struct {
	lang Lang
}

// NewFormatter создает новый форматтер
func NewFormatter(lang Lang) *Formatter {
	if lang != LangRU && lang != LangEN {
		lang = LangEN
	}
	return &Formatter{lang: lang}
}

// SetLang устанавливает язык
func (f *Formatter) SetLang(lang Lang) {
	f.lang = lang
}

// GetLang возвращает текущий язык
func (f *Formatter) GetLang() Lang {
	return f.lang
}

var translations = map[string]map[Lang]string{
	"status":          {LangEN: "Status", LangRU: "Статус"},
	"balance":         {LangEN: "Balance", LangRU: "Баланс"},
	"conditions":      {LangEN: "Conditions", LangRU: "Условия"},
	"account":         {LangEN: "Account", LangRU: "Счет"},
	"accounts":        {LangEN: "Accounts", LangRU: "Счета"},
	"evaluation":      {LangEN: "Evaluation", LangRU: "Оценка"},
	"deposit":         {LangEN: "Deposit D+2", LangRU: "Депозит D+2"},
	"buy_total":       {LangEN: "Bought", LangRU: "Куплено"},
	"realized_profit": {LangEN: "Realized today", LangRU: "Реализовано сегодня"},
	"holding":         {LangEN: "Holding", LangRU: "Позиции"},
	"target":          {LangEN: "Watched", LangRU: "Отслеживается"},
	"queue":           {LangEN: "Queued jobs", LangRU: "Задач в очереди"},
	"uptime":          {LangEN: "Uptime", LangRU: "Время работы"},
	"kill_switch":     {LangEN: "Kill switch", LangRU: "Аварийная остановка"},
	"active":          {LangEN: "Active", LangRU: "Активна"},
	"inactive":        {LangEN: "Inactive", LangRU: "Неактивна"},
	"no_position":     {LangEN: "No positions", LangRU: "Нет позиций"},
	"no_conditions":   {LangEN: "No conditions loaded", LangRU: "Условия не загружены"},
	"success":         {LangEN: "Success", LangRU: "Успешно"},
	"error":           {LangEN: "Error", LangRU: "Ошибка"},
	"executing":       {LangEN: "Executing", LangRU: "Выполняется"},
	"confirm_action":  {LangEN: "Please confirm this action:", LangRU: "Пожалуйста, подтвердите действие:"},
	"confirm":         {LangEN: "Confirm", LangRU: "Подтвердить"},
	"cancel":          {LangEN: "Cancel", LangRU: "Отмена"},
	"expired":         {LangEN: "Confirmation expired", LangRU: "Подтверждение устарело"},
	"access_denied":   {LangEN: "Access denied", LangRU: "Доступ запрещен"},
	"admin_required":  {LangEN: "Admin permission required", LangRU: "Требуются права администратора"},
	"unknown_command": {LangEN: "unknown command", LangRU: "неизвестная команда"},
}

// T переводит строку
func (f *Formatter) T(key string) string {
	if trans, ok := translations[key]; ok {
		if val, ok := trans[f.lang]; ok {
			return val
		}
	}
	return key
}

// FormatStatus форматирует статус бота
func (f *Formatter) FormatStatus(s Status) string {
	var sb strings.Builder

	sb.WriteString("📊 ")
	sb.WriteString(f.T("status"))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("%s: %s", f.T("account"), s.Account))
	if s.Summary.AccountName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", s.Summary.AccountName))
	}
	sb.WriteString("\n")
	if len(s.Accounts) > 1 {
		sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("accounts"), strings.Join(s.Accounts, ", ")))
	}
	sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("evaluation"), FormatWon(s.Summary.Evaluation)))
	sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("deposit"), FormatWon(s.Summary.DepositD2)))
	sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("buy_total"), FormatWon(s.Summary.BuyTotal)))
	sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("realized_profit"), FormatWon(s.Profit.Realized)))
	sb.WriteString(fmt.Sprintf("%s: %d / %s: %d\n", f.T("holding"), s.Holding, f.T("target"), s.Target))
	sb.WriteString(fmt.Sprintf("%s: %d\n", f.T("conditions"), s.Conditions))
	sb.WriteString(fmt.Sprintf("%s: %d\n", f.T("queue"), s.QueueLen))

	if s.KillSwitch {
		sb.WriteString(fmt.Sprintf("🚨 %s: %s (%s)\n", f.T("kill_switch"), f.T("active"), s.KillReason))
	} else {
		sb.WriteString(fmt.Sprintf("🟢 %s: %s\n", f.T("kill_switch"), f.T("inactive")))
	}

	if s.Uptime > 0 {
		sb.WriteString(fmt.Sprintf("%s: %s\n", f.T("uptime"), FormatDuration(s.Uptime)))
	}

	return sb.String()
}

// FormatPositions форматирует позиции в том же виде, что и уведомление о балансе
func (f *Formatter) FormatPositions(positions []domain.Position) string {
	var sb strings.Builder

	sb.WriteString("💼 ")
	sb.WriteString(f.T("balance"))
	sb.WriteString("\n")

	if len(positions) == 0 {
		sb.WriteString("\n")
		sb.WriteString(f.T("no_position"))
		return sb.String()
	}

	for _, p := range positions {
		emoji := "🟢"
		if p.EarningRate < 0 {
			emoji = "🔴"
		}
		sb.WriteString(fmt.Sprintf("\n%s %s (%s)\n", emoji, p.Name, p.Code))
		sb.WriteString(fmt.Sprintf("  현재가: %d, 매입가: %d\n", p.CurPrice, p.BuyPrice))
		sb.WriteString(fmt.Sprintf("  수량: %d, 수익율: %.1f%%\n", p.Qty, p.EarningRate))
		if len(p.SellStrategies) > 0 {
			sb.WriteString(fmt.Sprintf("  sell: %s\n", strings.Join(p.SellStrategies, ", ")))
		}
	}

	return sb.String()
}

// FormatProfit форматирует реализованный результат за день
func (f *Formatter) FormatProfit(p domain.DailyProfit) string {
	emoji := "💰"
	if p.Realized < 0 {
		emoji = "💸"
	}
	return fmt.Sprintf("%s %s %s: %s\nbuy %s / sell %s\nfee %s, tax %s",
		emoji, p.TradeDate, f.T("realized_profit"), FormatWon(p.Realized),
		FormatWon(p.BuyAmount), FormatWon(p.SellAmount),
		FormatWon(p.Commission), FormatWon(p.Tax))
}

// FormatConditions форматирует список условий поиска
func (f *Formatter) FormatConditions(list []condition.Condition) string {
	var sb strings.Builder

	sb.WriteString("🔎 ")
	sb.WriteString(f.T("conditions"))
	sb.WriteString("\n\n")

	if len(list) == 0 {
		sb.WriteString(f.T("no_conditions"))
		return sb.String()
	}

	for _, c := range list {
		sb.WriteString(fmt.Sprintf("%03d %s [%s]\n", c.Index, c.Name, c.SignalType))
	}
	return sb.String()
}

// FormatError форматирует сообщение об ошибке
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("❌ %s: %v", f.T("error"), err)
}

// FormatSuccess форматирует сообщение об успехе
func (f *Formatter) FormatSuccess(message string) string {
	return fmt.Sprintf("✅ %s: %s", f.T("success"), message)
}

// FormatExecuting форматирует сообщение о выполнении
func (f *Formatter) FormatExecuting(action string) string {
	return fmt.Sprintf("🔄 %s %s...", f.T("executing"), action)
}

// FormatWon форматирует сумму в вонах с разделителями разрядов
func FormatWon(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	digits := fmt.Sprintf("%d", v)
	var sb strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sign + sb.String() + "원"
}

// FormatDuration форматирует длительность
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
