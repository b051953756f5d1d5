package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"MateGuard/pkg/response"
)

// handlePermissionSnapshot 返回最近一次权限快照，从未刷新过则 404
func (h *Handlers) handlePermissionSnapshot(c *gin.Context) {
	snap := h.caps.Snapshot(c.Request.Context())
	if snap == nil {
		response.FailWithStatus(c, http.StatusNotFound, "no permission snapshot taken yet")
		return
	}
	response.Success(c, "ok", gin.H{"permissions": snap})
}

// handlePermissionRefresh 重新请求全部能力权限并持久化新快照
func (h *Handlers) handlePermissionRefresh(c *gin.Context) {
	snap := h.caps.RequestAll(c.Request.Context())
	response.Success(c, "permissions refreshed", gin.H{"permissions": snap})
}
