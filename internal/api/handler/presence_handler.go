package handler

import (
	"Marquee/internal/api/middleware"
	"Marquee/internal/pkg/response"
	"Marquee/internal/service"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	presence *service.PresenceService
	contacts service.ContactLookup
}

func NewPresenceHandler(presence *service.PresenceService, contacts service.ContactLookup) *PresenceHandler {
	return &PresenceHandler{presence: presence, contacts: contacts}
}

// GetPresence 单个用户的在线状态
func (s *PresenceHandler) GetPresence(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	rec, err := s.presence.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rec)
}

// GetContactsPresence 当前用户所有联系人的在线状态，重连后用于补齐错过的 presence_changed
func (s *PresenceHandler) GetContactsPresence(c *gin.Context) {
	user, ok := middleware.ChatUserFrom(c)
	if !ok {
		response.Error(c, service.UnauthorizedError)
		return
	}
	ids, err := s.contacts.ContactsOf(c.Request.Context(), user.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := s.presence.GetMany(c.Request.Context(), ids)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, records)
}
