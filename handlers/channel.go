package handlers

import (
	"net/http"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/services"
)

type ChannelHandler struct {
	channelService services.ChannelService
}

func NewChannelHandler(channelService services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

// Bootstrap handles GET /api/bootstrap.
func (h *ChannelHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	boot, err := h.channelService.Bootstrap(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, boot)
}

// UpdateVoiceSettings handles PUT /api/channels/{id}/voice-settings.
func (h *ChannelHandler) UpdateVoiceSettings(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.VoiceSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	channel, err := h.channelService.UpdateVoiceSettings(r.Context(), channelID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, channel)
}
