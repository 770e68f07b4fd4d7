package broker

// Gateway команды Kiwoom OpenAPI. Методы с кодом возврата возвращают 0 при успехе
// (GetConditionLoad и SendCondition возвращают 1).
type Gateway interface {
	CommConnect() int
	GetLoginInfo(tag string) string
	SetInputValue(item, value string)
	CommRqData(rqName, trCode string, next int, screenNo string) int
	CommKwRqData(codes string, next, count, typeFlag int, rqName, screenNo string) int
	SendOrder(rqName, screenNo, account string, orderType int, code string, qty, price int, hogaGb, orgOrderNo string) int
	GetRepeatCnt(trCode, recordName string) int
	GetCommData(trCode, recordName string, index int, item string) string
	GetCommRealData(code string, fid int) string
	GetChejanData(fid int) string
	SetRealReg(screenNo, codes, fids, realType string) int
	SetRealRemove(screenNo, code string)
	DisconnectRealData(screenNo string)
	GetConditionLoad() int
	GetConditionNameList() string
	SendCondition(screenNo, name string, index, queryType int) int
	GetMasterCodeName(code string) string
}

// EventHandler события Kiwoom OpenAPI
type EventHandler interface {
	OnEventConnect(errCode int)
	OnReceiveTrData(screenNo, rqName, trCode, recordName, prevNext string)
	OnReceiveRealData(code, realType, realData string)
	OnReceiveMsg(screenNo, rqName, trCode, msg string)
	OnReceiveChejanData(gubun string, itemCnt int, fidList string)
	OnReceiveConditionVer(ret int, msg string)
	OnReceiveTrCondition(screenNo, codeList, conditionName string, index, next int)
	OnReceiveRealCondition(code, eventType, conditionName, conditionIndex string)
}

// Poster ставит задачу в цикл событий
type Poster interface {
	Post(fn func())
}

// Serialize оборачивает обработчик так, что каждое событие выполняется в цикле событий
func Serialize(h EventHandler, p Poster) EventHandler {
	return &serialized{h: h, p: p}
}

type serialized struct {
	h EventHandler
	p Poster
}

func (s *serialized) OnEventConnect(errCode int) {
	s.p.Post(func() { s.h.OnEventConnect(errCode) })
}

func (s *serialized) OnReceiveTrData(screenNo, rqName, trCode, recordName, prevNext string) {
	s.p.Post(func() { s.h.OnReceiveTrData(screenNo, rqName, trCode, recordName, prevNext) })
}

func (s *serialized) OnReceiveRealData(code, realType, realData string) {
	s.p.Post(func() { s.h.OnReceiveRealData(code, realType, realData) })
}

func (s *serialized) OnReceiveMsg(screenNo, rqName, trCode, msg string) {
	s.p.Post(func() { s.h.OnReceiveMsg(screenNo, rqName, trCode, msg) })
}

func (s *serialized) OnReceiveChejanData(gubun string, itemCnt int, fidList string) {
	s.p.Post(func() { s.h.OnReceiveChejanData(gubun, itemCnt, fidList) })
}

func (s *serialized) OnReceiveConditionVer(ret int, msg string) {
	s.p.Post(func() { s.h.OnReceiveConditionVer(ret, msg) })
}

func (s *serialized) OnReceiveTrCondition(screenNo, codeList, conditionName string, index, next int) {
	s.p.Post(func() { s.h.OnReceiveTrCondition(screenNo, codeList, conditionName, index, next) })
}

func (s *serialized) OnReceiveRealCondition(code, eventType, conditionName, conditionIndex string) {
	s.p.Post(func() { s.h.OnReceiveRealCondition(code, eventType, conditionName, conditionIndex) })
}
