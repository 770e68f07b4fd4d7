package broker

import (
	"strconv"
	"strings"
	"time"

	"github.com/kirillm/sns-trade-bot/internal/condition"
	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/internal/ledger"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

// Clock получает биржевое время HHMMSS
type Clock interface {
	OnTime(hhmmss string)
}

// Journal записывает исполнения и дневной результат. Методы не должны блокировать.
type Journal interface {
	RecordFill(f domain.FillRecord)
	RecordProfit(p domain.DailyProfit)
}

// Router разбирает события брокера и обновляет реестр инструментов.
// Все методы вызываются только из цикла событий.
type Router struct {
	gw         Gateway
	ledger     *ledger.Ledger
	conditions *condition.Registry
	clock      Clock
	journal    Journal
	logger     *utils.Logger
	now        func() time.Time

	onConnected        func()
	onConditionsLoaded func()
}

// NewRouter создает маршрутизатор событий
func NewRouter(gw Gateway, l *ledger.Ledger, conds *condition.Registry, clock Clock, logger *utils.Logger) *Router {
	return &Router{
		gw:         gw,
		ledger:     l,
		conditions: conds,
		clock:      clock,
		logger:     logger,
		now:        time.Now,
	}
}

// SetJournal подключает журнал исполнений
func (r *Router) SetJournal(j Journal) {
	r.journal = j
}

// OnConnected задает обработчик успешного подключения
func (r *Router) OnConnected(fn func()) {
	r.onConnected = fn
}

// OnConditionsLoaded задает обработчик обновления списка условий
func (r *Router) OnConditionsLoaded(fn func()) {
	r.onConditionsLoaded = fn
}

func (r *Router) OnEventConnect(errCode int) {
	if errCode != 0 {
		r.logger.Error("disconnected. err_code:%d", errCode)
		return
	}

	accounts := SplitList(r.gw.GetLoginInfo("ACCNO"))
	r.logger.Info("connected. accounts:%v", accounts)
	r.ledger.SetAccounts(accounts)

	if r.onConnected != nil {
		r.onConnected()
	}
}

func (r *Router) OnReceiveTrData(screenNo, rqName, trCode, recordName, prevNext string) {
	r.logger.Debug("tr data screen:%s rq:%s tr:%s record:%s next:%s", screenNo, rqName, trCode, recordName, prevNext)

	switch rqName {
	case RqMultiCode:
		r.handleMultiCode(trCode, recordName)
	case RqBalance:
		r.handleBalance(trCode, recordName)
	case RqCodeInfo:
		r.handleCodeInfo(trCode, recordName)
	case RqOrder:
		orderNo := strings.TrimSpace(r.gw.GetCommData(trCode, recordName, 0, "주문번호"))
		if orderNo == "" {
			r.logger.Warn("order rejected: empty order number")
			return
		}
		r.logger.Info("order accepted. order_no:%s", orderNo)
	case RqProfit:
		r.handleProfit(trCode, recordName)
	default:
		r.logger.Warn("unknown tr data rq:%s tr:%s", rqName, trCode)
	}
}

func (r *Router) comm(trCode, recordName string, index int, item string) string {
	return strings.TrimSpace(r.gw.GetCommData(trCode, recordName, index, item))
}

func (r *Router) handleMultiCode(trCode, recordName string) {
	count := r.gw.GetRepeatCnt(trCode, recordName)
	for i := 0; i < count; i++ {
		code := r.comm(trCode, recordName, i, "종목코드")
		name := r.comm(trCode, recordName, i, "종목명")
		price, err := ParsePrice(r.comm(trCode, recordName, i, "현재가"))
		if code == "" || err != nil {
			r.logger.Error("multi code row %d: code:%q err:%v", i, code, err)
			continue
		}

		s := r.ledger.GetOrCreate(code)
		s.Name = name
		s.SetPrice(price)
		s.EvaluateTrData(price)
		r.logger.Info("%s(%s) price:%d", name, code, price)
	}
	r.gw.DisconnectRealData(ScreenInterest)
	r.ledger.SetUpdated(domain.TopicBalanceTable)
}

func (r *Router) handleBalance(trCode, recordName string) {
	sum := domain.AccountSummary{
		Account:     r.ledger.Account(),
		AccountName: r.comm(trCode, recordName, 0, "계좌명"),
	}
	var err error
	fields := []struct {
		item string
		dst  *int64
	}{
		{"유가잔고평가액", &sum.Evaluation},
		{"예수금", &sum.Deposit},
		{"D+2추정예수금", &sum.DepositD2},
		{"총매입금액", &sum.BuyTotal},
	}
	for _, f := range fields {
		if *f.dst, err = ParseSigned(r.comm(trCode, recordName, 0, f.item)); err != nil {
			r.logger.Error("balance %s: %v", f.item, err)
		}
	}
	r.ledger.SetSummary(sum)

	count := r.gw.GetRepeatCnt(trCode, recordName)
	r.logger.Info("balance account:%q evaluation:%d deposit:%d d2:%d buy_total:%d count:%d",
		sum.AccountName, sum.Evaluation, sum.Deposit, sum.DepositD2, sum.BuyTotal, count)

	for i := 0; i < count; i++ {
		code := TrimCode(r.comm(trCode, recordName, i, "종목코드"))
		name := r.comm(trCode, recordName, i, "종목명")
		qty, errQty := ParseQty(r.comm(trCode, recordName, i, "보유수량"))
		buyPrice, errBuy := ParsePrice(r.comm(trCode, recordName, i, "평균단가"))
		curPrice, errCur := ParsePrice(r.comm(trCode, recordName, i, "현재가"))
		if code == "" || errQty != nil || errBuy != nil || errCur != nil {
			r.logger.Error("balance row %d %q: qty:%v buy:%v cur:%v", i, code, errQty, errBuy, errCur)
			continue
		}

		// брокерская доходность только для лога, в реестре она пересчитывается
		rawRate, _ := ParseSigned(r.comm(trCode, recordName, i, "손익율"))

		s := r.ledger.GetOrCreate(code)
		s.Name = name
		s.CurPrice = curPrice
		s.SetHolding(qty, buyPrice)
		r.logger.Info("%s(%s) qty:%d buy_price:%d cur_price:%d earning_rate:%.2f broker_rate:%.2f",
			name, code, qty, buyPrice, curPrice, s.EarningRate, float64(rawRate)/10000)
	}
	r.ledger.SetUpdated(domain.TopicBalanceTable)
}

func (r *Router) handleCodeInfo(trCode, recordName string) {
	code := r.comm(trCode, recordName, 0, "종목코드")
	name := r.comm(trCode, recordName, 0, "종목명")
	priceStr := r.comm(trCode, recordName, 0, "현재가")
	if code == "" || name == "" || priceStr == "" {
		r.logger.Error("code info: empty field code:%q name:%q price:%q", code, name, priceStr)
		return
	}
	price, err := ParsePrice(priceStr)
	if err != nil {
		r.logger.Error("code info %s: %v", code, err)
		return
	}

	s := r.ledger.GetOrCreate(code)
	s.Name = name
	s.SetPrice(price)
	s.EvaluateTrData(price)
	r.logger.Info("%s(%s) price:%d", name, code, price)
	r.ledger.SetUpdated(domain.TopicBalanceTable)
}

func (r *Router) handleProfit(trCode, recordName string) {
	p := domain.DailyProfit{
		Account:   r.ledger.Account(),
		TradeDate: r.now().Format("20060102"),
		CreatedAt: r.now(),
	}
	fields := []struct {
		item string
		dst  *int64
	}{
		{"실현손익", &p.Realized},
		{"총매수금액", &p.BuyAmount},
		{"총매도금액", &p.SellAmount},
		{"매매수수료", &p.Commission},
		{"매매세금", &p.Tax},
	}
	for _, f := range fields {
		v, err := ParseSigned(r.comm(trCode, recordName, 0, f.item))
		if err != nil {
			r.logger.Error("profit %s: %v", f.item, err)
			return
		}
		*f.dst = v
	}

	r.logger.Info("today profit realized:%d buy:%d sell:%d commission:%d tax:%d",
		p.Realized, p.BuyAmount, p.SellAmount, p.Commission, p.Tax)
	r.ledger.SetTodayProfit(p)
	if r.journal != nil {
		r.journal.RecordProfit(p)
	}
}

func (r *Router) OnReceiveRealData(code, realType, realData string) {
	switch realType {
	case RealMarketTime:
		t := strings.TrimSpace(r.gw.GetCommRealData(code, FidTradeTime))
		if len(t) < 6 {
			r.logger.Error("market time %q: %v", t, domain.ErrMalformedField)
			return
		}
		r.clock.OnTime(t[:6])

	case RealTrade:
		price, err := ParsePrice(r.gw.GetCommRealData(code, FidCurPrice))
		if err != nil {
			r.logger.Error("trade tick %s: %v", code, err)
			return
		}
		s, ok := r.ledger.Find(code)
		if !ok {
			r.logger.Debug("tick for untracked %s", code)
			return
		}
		s.SetPrice(price)
		s.EvaluatePrice()
		r.ledger.SetUpdated(domain.TopicBalanceTable)
	}
}

func (r *Router) OnReceiveMsg(screenNo, rqName, trCode, msg string) {
	r.logger.Info("msg screen:%s rq:%s tr:%s msg:%q", screenNo, rqName, trCode, msg)
}

func (r *Router) chejan(fid int) string {
	return strings.TrimSpace(r.gw.GetChejanData(fid))
}

func (r *Router) OnReceiveChejanData(gubun string, itemCnt int, fidList string) {
	r.logger.Info("chejan gubun:%q item_cnt:%d", gubun, itemCnt)
	for _, f := range SplitList(fidList) {
		if fid, err := strconv.Atoi(f); err == nil {
			r.logger.Debug("  fid %d: %q", fid, r.gw.GetChejanData(fid))
		}
	}

	code := TrimCode(r.chejan(FidCode))
	name := r.chejan(FidName)
	if code == "" {
		r.logger.Error("chejan without code")
		return
	}

	switch gubun {
	case ChejanOrder:
		r.handleOrderChejan(code, name)
	case ChejanBalance:
		r.handleBalanceChejan(code, name)
	default:
		r.logger.Debug("chejan gubun %q ignored", gubun)
	}
}

func (r *Router) handleOrderChejan(code, name string) {
	orderNo := r.chejan(FidOrderNo)
	status := r.chejan(FidOrderStatus)
	sideFlag := r.chejan(FidOrderSide)
	orderTime := r.chejan(FidOrderTime)

	fill := domain.FillRecord{
		Account:   r.chejan(FidAccount),
		OrderNo:   orderNo,
		Code:      code,
		Name:      name,
		Side:      sideName(sideFlag),
		CreatedAt: r.now(),
	}

	switch status {
	case StatusAccepted:
		r.logger.Info("%s(%s) order accepted. order_no:%s side:%s time:%s", name, code, orderNo, sideFlag, orderTime)
		fill.Status = domain.StatusAccepted
		fill.Quantity, _ = ParseQty(r.chejan(FidOrderQty))

	case StatusFilled:
		remained, err := ParseQty(r.chejan(FidRemainedQty))
		if err != nil {
			r.logger.Error("%s(%s) remained qty: %v", name, code, err)
			return
		}
		r.logger.Info("%s(%s) order filled. order_no:%s side:%s time:%s remained:%d",
			name, code, orderNo, sideFlag, orderTime, remained)

		s := r.ledger.GetOrCreate(code)
		if s.Name == "" {
			s.Name = name
		}
		switch sideFlag {
		case SideSellFlag:
			s.RemainedSellQty = remained
		case SideBuyFlag:
			s.RemainedBuyQty = remained
		}
		r.ledger.SetUpdated(domain.TopicBalanceTable)

		fill.Status = domain.StatusFilled
		fill.RemainedQty = remained
		fill.Price, _ = ParsePrice(r.chejan(FidFillPrice))
		fill.Quantity, _ = ParseQty(r.chejan(FidFillQty))

	default:
		r.logger.Warn("%s(%s) unknown order status %q", name, code, status)
		return
	}

	if r.journal != nil {
		r.journal.RecordFill(fill)
	}
}

func (r *Router) handleBalanceChejan(code, name string) {
	qty, err := ParseQty(r.chejan(FidHoldingQty))
	if err != nil {
		r.logger.Error("%s(%s) holding qty: %v", name, code, err)
		return
	}
	buyPrice, err := ParsePrice(r.chejan(FidBuyPrice))
	if err != nil {
		r.logger.Error("%s(%s) buy price: %v", name, code, err)
		return
	}
	sideFlag := r.chejan(FidBalanceSide)
	r.logger.Info("%s(%s) balance notice. side:%s qty:%d buy_price:%d", name, code, sideFlag, qty, buyPrice)

	if r.journal != nil {
		r.journal.RecordFill(domain.FillRecord{
			Account:   r.chejan(FidAccount),
			Code:      code,
			Name:      name,
			Side:      sideName(sideFlag),
			Status:    domain.StatusBalance,
			Price:     buyPrice,
			Quantity:  qty,
			CreatedAt: r.now(),
		})
	}

	if qty == 0 {
		r.logger.Info("%s(%s) liquidated", name, code)
		r.gw.SetRealRemove(ScreenReal, code)
		r.ledger.Remove(code)
		r.ledger.SetUpdated(domain.TopicBalanceTable)
		return
	}

	s := r.ledger.GetOrCreate(code)
	if s.Name == "" {
		s.Name = name
	}
	if cur, err := ParsePrice(r.chejan(FidCurPrice)); err == nil && cur > 0 {
		s.SetPrice(cur)
	}
	s.SetHolding(qty, buyPrice)
	r.ledger.SetUpdated(domain.TopicBalanceTable)
}

func (r *Router) OnReceiveConditionVer(ret int, msg string) {
	r.logger.Debug("condition ver ret:%d msg:%q", ret, msg)
	if ret != 1 {
		r.logger.Error("condition load failed. ret:%d msg:%q", ret, msg)
		return
	}

	list, err := condition.ParseNameList(r.gw.GetConditionNameList())
	if err != nil {
		r.logger.Error("condition list: %v", err)
		return
	}
	r.conditions.ReplaceAll(list)
	if r.onConditionsLoaded != nil {
		r.onConditionsLoaded()
	}
	r.ledger.SetUpdated(domain.TopicConditionTable)
}

func (r *Router) OnReceiveTrCondition(screenNo, codeList, conditionName string, index, next int) {
	codes := SplitList(codeList)
	r.logger.Info("condition %d(%s) matched %d codes", index, conditionName, len(codes))

	list := make([]ledger.TempStock, 0, len(codes))
	for _, code := range codes {
		name := strings.TrimSpace(r.gw.GetMasterCodeName(code))
		list = append(list, ledger.TempStock{Code: code, Name: name})
		r.logger.Debug("  %s(%s)", name, code)
	}
	r.ledger.SetTempStocks(list)
}

func (r *Router) OnReceiveRealCondition(code, eventType, conditionName, conditionIndex string) {
	index, err := strconv.Atoi(strings.TrimSpace(conditionIndex))
	if err != nil {
		r.logger.Error("real condition index %q: %v", conditionIndex, domain.ErrMalformedField)
		return
	}
	cond := r.conditions.Get(index)
	r.logger.Info("real condition %d(%s) %s %s type:%s", index, conditionName, code, eventType, cond.SignalType)

	if eventType != ConditionEntered {
		return
	}

	switch cond.SignalType {
	case domain.SignalSell:
		s, ok := r.ledger.Find(code)
		if !ok {
			r.logger.Warn("sell condition %d for untracked %s", index, code)
			return
		}
		s.EvaluateCondition(index, cond.Name)
	case domain.SignalBuy, domain.SignalBuyOnClosing:
		r.logger.Info("buy condition %d(%s) hit %s", index, cond.Name, code)
	}
}

func sideName(flag string) string {
	switch flag {
	case SideSellFlag:
		return domain.SideSell
	case SideBuyFlag:
		return domain.SideBuy
	}
	return flag
}
