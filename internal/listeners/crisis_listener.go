package listeners

import (
	"context"

	"go.uber.org/zap"

	"MateGuard/internal/crisis"
	"MateGuard/internal/models"
	"MateGuard/pkg/logger"
	"MateGuard/pkg/util"
	"MateGuard/pkg/websocket"
)

// InitCrisisListeners wires the chat stream into the crisis pipeline and
// bridges alert lifecycle events onto the live channel.
func InitCrisisListeners(responder *crisis.Responder, hub *websocket.Hub) {
	// 每条用户消息都过一遍风险评估，达到阈值即拉起应急响应
	util.Sig().Connect(models.SigUserMessage, func(sender any, params ...any) {
		msg, ok := sender.(*models.UserMessage)
		if !ok {
			return
		}
		level := crisis.AssessRiskLevel(msg.Text)
		if !level.Triggers() {
			return
		}
		go func() {
			_, err := responder.TriggerEmergencyResponse(context.Background(), level, msg.Text, msg.UserID)
			if err != nil {
				logger.Error("crisis response from chat message failed",
					zap.Int64("user_id", msg.UserID), zap.Error(err))
			}
		}()
	})

	util.Sig().Connect(models.SigAlertCreated, func(sender any, params ...any) {
		alert, ok := sender.(*models.CrisisAlert)
		if !ok || alert == nil {
			return
		}
		hub.PushToUser(alert.UserID, &websocket.Message{
			Type:    "alert_created",
			AlertID: alert.ID,
			Data:    alert,
		})
	})

	util.Sig().Connect(models.SigAlertEscalated, func(sender any, params ...any) {
		alert, ok := sender.(*models.CrisisAlert)
		if !ok || alert == nil {
			return
		}
		hub.PushToUser(alert.UserID, &websocket.Message{
			Type:    "alert_escalated",
			AlertID: alert.ID,
			Data:    alert,
		})
	})
}
