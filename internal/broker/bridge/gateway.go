package bridge

import "github.com/kirillm/sns-trade-bot/internal/broker"

var _ broker.Gateway = (*Client)(nil)

func (c *Client) CommConnect() int {
	return c.callInt("CommConnect")
}

func (c *Client) GetLoginInfo(tag string) string {
	return c.callString("GetLoginInfo", tag)
}

func (c *Client) SetInputValue(item, value string) {
	c.callVoid("SetInputValue", item, value)
}

func (c *Client) CommRqData(rqName, trCode string, next int, screenNo string) int {
	return c.callInt("CommRqData", rqName, trCode, next, screenNo)
}

func (c *Client) CommKwRqData(codes string, next, count, typeFlag int, rqName, screenNo string) int {
	return c.callInt("CommKwRqData", codes, next, count, typeFlag, rqName, screenNo)
}

func (c *Client) SendOrder(rqName, screenNo, account string, orderType int, code string, qty, price int, hogaGb, orgOrderNo string) int {
	return c.callInt("SendOrder", rqName, screenNo, account, orderType, code, qty, price, hogaGb, orgOrderNo)
}

func (c *Client) GetRepeatCnt(trCode, recordName string) int {
	return c.callInt("GetRepeatCnt", trCode, recordName)
}

func (c *Client) GetCommData(trCode, recordName string, index int, item string) string {
	return c.callString("GetCommData", trCode, recordName, index, item)
}

func (c *Client) GetCommRealData(code string, fid int) string {
	return c.callString("GetCommRealData", code, fid)
}

func (c *Client) GetChejanData(fid int) string {
	return c.callString("GetChejanData", fid)
}

func (c *Client) SetRealReg(screenNo, codes, fids, realType string) int {
	return c.callInt("SetRealReg", screenNo, codes, fids, realType)
}

func (c *Client) SetRealRemove(screenNo, code string) {
	c.callVoid("SetRealRemove", screenNo, code)
}

func (c *Client) DisconnectRealData(screenNo string) {
	c.callVoid("DisconnectRealData", screenNo)
}

func (c *Client) GetConditionLoad() int {
	return c.callInt("GetConditionLoad")
}

func (c *Client) GetConditionNameList() string {
	return c.callString("GetConditionNameList")
}

func (c *Client) SendCondition(screenNo, name string, index, queryType int) int {
	return c.callInt("SendCondition", screenNo, name, index, queryType)
}

func (c *Client) GetMasterCodeName(code string) string {
	return c.callString("GetMasterCodeName", code)
}
