package consts

// 业务码按段划分：
//
//	0       成功
//	1xxxx   请求本身有问题（参数、频率）
//	2xxxx   身份认证
//	11xxx   用户
//	12xxx   校友连接与好友申请
//	15xxx   通知
//	3xxxx   服务端故障，客户端可稍后重试
const CodeSuccess = 0

const (
	CodeParamError      = 10001
	CodeFrameInvalid    = 10002 // ws 上行帧不是合法 JSON
	CodeFrameUnsupport  = 10003 // ws 上行帧类型未知
	CodeTooManyRequests = 10005
)

const (
	CodeUnauthorized = 20001
	CodeInvalidToken = 20002
)

const CodeUserNotFound = 11001

const (
	CodeAlreadyFriend         = 12001
	CodeFriendRequestSent     = 12002 // 双方之间已有待处理申请
	CodeNotFriend             = 12003
	CodeSelfRequest           = 12005
	CodeFriendRequestNotFound = 12006 // 不存在，或已被接受/拒绝/撤回
)

const (
	CodeNotificationNotFound    = 15001
	CodeNotificationTypeInvalid = 15002
)

const (
	CodeInternalError      = 30001
	CodeServiceUnavailable = 30002
	CodeTimeoutError       = 30003
)

var messages = map[int32]string{
	CodeSuccess: "success",

	CodeParamError:      "参数验证失败",
	CodeFrameInvalid:    "invalid frame format",
	CodeFrameUnsupport:  "unsupported message type",
	CodeTooManyRequests: "请求过于频繁",

	CodeUnauthorized: "未认证",
	CodeInvalidToken: "Token 无效",

	CodeUserNotFound: "用户不存在",

	CodeAlreadyFriend:         "已经是好友",
	CodeFriendRequestSent:     "好友申请已发送",
	CodeNotFriend:             "不存在该好友关系",
	CodeSelfRequest:           "不能对自己发起好友操作",
	CodeFriendRequestNotFound: "好友申请不存在或已处理",

	CodeNotificationNotFound:    "通知不存在",
	CodeNotificationTypeInvalid: "通知类型不合法",

	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
	CodeTimeoutError:       "请求超时",
}

// GetMessage 业务码对应的提示文案，未登记的码返回"未知错误"。
func GetMessage(code int32) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 业务码是否属于调用方可以自行处理的错误，3xxxx 段以外的非零码都算。
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
