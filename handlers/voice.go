package handlers

import (
	"net/http"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/services"
)

type VoiceHandler struct {
	voiceService services.VoiceService
}

func NewVoiceHandler(voiceService services.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService}
}

// Toggle handles POST /api/channels/{id}/voice-toggle.
// An empty body unmutes both flags.
func (h *VoiceHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r)
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.VoiceToggleRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	if _, err := h.voiceService.Toggle(r.Context(), user.ID, channelID, &req); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, pkg.OK)
}

// Presence handles GET /api/channels/{id}/voice-presence.
func (h *VoiceHandler) Presence(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r)
	if !ok {
		return
	}

	list, err := h.voiceService.ListPresence(r.Context(), channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, list)
}
