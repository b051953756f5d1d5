package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"MateGuard/internal/crisis"
	"MateGuard/internal/models"
	"MateGuard/pkg/response"
)

type assessRequest struct {
	Message string `json:"message" binding:"required"`
}

// handleAssess 只做风险评估，不触发任何响应动作
func (h *Handlers) handleAssess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "message is required", nil)
		return
	}
	level := crisis.AssessRiskLevel(req.Message)
	response.Success(c, "ok", gin.H{
		"risk_level":        level,
		"triggers_response": level.Triggers(),
	})
}

type triggerRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// handleTrigger 评估消息并在达到阈值时启动完整应急响应
func (h *Handlers) handleTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "user_id and message are required", nil)
		return
	}

	level := crisis.AssessRiskLevel(req.Message)
	if !level.Triggers() {
		response.Success(c, "risk below response threshold", gin.H{
			"risk_level": level,
			"triggered":  false,
		})
		return
	}

	alert, err := h.responder.TriggerEmergencyResponse(c.Request.Context(), level, req.Message, req.UserID)
	if err != nil {
		response.Fail(c, err.Error(), nil)
		return
	}
	response.Success(c, "emergency response started", gin.H{
		"risk_level": level,
		"triggered":  true,
		"alert":      alert,
	})
}

// handleAcknowledge 标记警报已获响应，取消尚未触发的升级
func (h *Handlers) handleAcknowledge(c *gin.Context) {
	alertID := c.Param("id")
	if !h.responder.MarkResponseReceived(alertID) {
		response.FailWithStatus(c, http.StatusNotFound, "unknown alert")
		return
	}
	alert, _ := h.ledger.GetAlert(alertID)
	response.Success(c, "alert acknowledged", gin.H{"alert": alert})
}

func (h *Handlers) handleAlertHistory(c *gin.Context) {
	userID := cast.ToInt64(c.Query("user_id"))
	if userID == 0 {
		response.Fail(c, "user_id is required", nil)
		return
	}
	response.Success(c, "ok", gin.H{"alerts": h.ledger.AlertsForUser(userID)})
}

func (h *Handlers) handleEscalationHistory(c *gin.Context) {
	userID := cast.ToInt64(c.Query("user_id"))
	if userID == 0 {
		response.Fail(c, "user_id is required", nil)
		return
	}
	response.Success(c, "ok", gin.H{"escalations": h.ledger.EscalationsForUser(userID)})
}

// handleRecentActions 返回能力层诊断日志，供排查应急链路问题
func (h *Handlers) handleRecentActions(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "100"))
	response.Success(c, "ok", gin.H{"actions": h.ledger.RecentActions(limit)})
}

// handleResources 返回热线通知与地区服务目录，无需触发警报即可查询
func (h *Handlers) handleResources(c *gin.Context) {
	level := models.RiskLevel(c.DefaultQuery("level", string(models.RiskHigh)))
	if !level.Valid() {
		response.Fail(c, "unknown risk level", nil)
		return
	}
	response.Success(c, "ok", gin.H{
		"notice":   crisis.NoticeFor(level),
		"services": crisis.ServicesForRegion(c.Query("region")),
	})
}

// handleAlertChannel 升级为 WebSocket 实时警报通道
func (h *Handlers) handleAlertChannel(c *gin.Context) {
	userID := cast.ToInt64(c.Query("user_id"))
	if userID == 0 {
		response.Fail(c, "user_id is required", nil)
		return
	}
	h.hub.Serve(c.Writer, c.Request, userID)
}
