package broker

// Номера экранов
const (
	ScreenCondition = "1111"
	ScreenReal      = "2222"
	ScreenInterest  = "3333"
	ScreenBalance   = "4444"
	ScreenCode      = "5555"
	ScreenOrder     = "6666"
	ScreenProfit    = "7777"
)

// Имена запросов
const (
	RqMultiCode = "RQ_MULTI_CODE_QUERY" // OPTKWFID
	RqBalance   = "RQ_BALANCE"          // OPW00004
	RqCodeInfo  = "RQ_CODE_INFO"        // opt10001
	RqOrder     = "RQ_ORDER"            // SendOrder
	RqProfit    = "RQ_PROFIT"           // opt10074
)

// Коды запросов
const (
	TrMultiCode = "OPTKWFID"
	TrBalance   = "OPW00004"
	TrCodeInfo  = "opt10001"
	TrProfit    = "opt10074"
)

// Типы реальных данных
const (
	RealMarketTime = "장시작시간"
	RealTrade      = "주식체결"
)

// Типы заявок и вид цены
const (
	OrderNewBuy  = 1
	OrderNewSell = 2
	HogaMarket   = "03"
)

// Режим SetRealReg
const (
	RealRegReplace = "0"
	RealRegAppend  = "1"
)

// RealFids поля, на которые подписываются инструменты
const RealFids = "9001;10;13"

// Тип запроса SendCondition
const (
	ConditionQueryOnce = 0
	ConditionQueryReal = 1
)

// Вид события реального условия
const (
	ConditionEntered = "I"
	ConditionExited  = "D"
)

// Значения полей уведомления об исполнении
const (
	ChejanOrder   = "0" // прием или исполнение
	ChejanBalance = "1" // изменение остатка

	StatusAccepted = "접수"
	StatusFilled   = "체결"

	SideSellFlag = "1"
	SideBuyFlag  = "2"
)

// FID полей уведомлений
const (
	FidAccount       = 9201
	FidOrderNo       = 9203
	FidCode          = 9001
	FidOrderStatus   = 913
	FidName          = 302
	FidOrderQty      = 900
	FidOrderPrice    = 901
	FidRemainedQty   = 902
	FidOrgOrderNo    = 904
	FidOrderSide     = 907
	FidOrderTime     = 908
	FidFillPrice     = 910
	FidFillQty       = 911
	FidCurPrice      = 10
	FidTradeTime     = 20
	FidHoldingQty    = 930
	FidBuyPrice      = 931
	FidBuyTotal      = 932
	FidOrderableQty  = 933
	FidBalanceSide   = 946
	FidDeposit       = 951
	FidEarningRate   = 8019
	FidRealizedToday = 990
)
