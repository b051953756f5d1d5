package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"MateGuard/internal/contacts"
	"MateGuard/internal/models"
	"MateGuard/pkg/errors"
	"MateGuard/pkg/response"
)

type contactRequest struct {
	UserID       int64  `json:"user_id" binding:"required"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	userID := cast.ToInt64(c.Query("user_id"))
	if userID == 0 {
		response.Fail(c, "user_id is required", nil)
		return
	}
	list := h.book.List(userID)
	if list == nil {
		list = []models.EmergencyContact{}
	}
	response.Success(c, "ok", gin.H{"contacts": list})
}

func (h *Handlers) handleAddContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "user_id is required", nil)
		return
	}
	contact, err := h.book.Add(req.UserID, req.Name, req.Phone, req.Relationship)
	if err != nil {
		response.Fail(c, errors.GetMessage(err), nil)
		return
	}
	response.Success(c, "contact added", gin.H{"contact": contact})
}

func (h *Handlers) handleUpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "user_id is required", nil)
		return
	}
	contact, err := h.book.Update(req.UserID, cast.ToInt64(c.Param("id")), req.Name, req.Phone, req.Relationship)
	if err != nil {
		if errors.GetCode(err) == errors.GetCode(contacts.ErrNotFound) {
			response.FailWithStatus(c, http.StatusNotFound, errors.GetMessage(err))
			return
		}
		response.Fail(c, errors.GetMessage(err), nil)
		return
	}
	response.Success(c, "contact updated", gin.H{"contact": contact})
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	userID := cast.ToInt64(c.Query("user_id"))
	if userID == 0 {
		response.Fail(c, "user_id is required", nil)
		return
	}
	if err := h.book.Delete(userID, cast.ToInt64(c.Param("id"))); err != nil {
		response.FailWithStatus(c, http.StatusNotFound, errors.GetMessage(err))
		return
	}
	response.Success(c, "contact deleted", nil)
}
