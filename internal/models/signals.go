package models

// 信号名：用户消息写入聊天流后发出，危机监听器据此评估风险
const (
	SigUserMessage    = "chat.user_message"
	SigAlertCreated   = "crisis.alert_created"
	SigAlertEscalated = "crisis.alert_escalated"
)

// UserMessage 是信号携带的最小载荷：只有作者与文本。
// 专员（persona）生成的文本绝不发这个信号。
type UserMessage struct {
	UserID int64
	Text   string
}
