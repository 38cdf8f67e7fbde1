package handlers

import (
	"errors"
	"net/http"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/pkg/ratelimit"
	"github.com/akinalp/gaduly/services"
)

type MessageHandler struct {
	messageService services.MessageService
	uploadService  services.UploadService
	limiter        *ratelimit.MessageRateLimiter
	maxUploadSize  int64
}

func NewMessageHandler(
	messageService services.MessageService,
	uploadService services.UploadService,
	limiter *ratelimit.MessageRateLimiter,
	maxUploadSize int64,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		uploadService:  uploadService,
		limiter:        limiter,
		maxUploadSize:  maxUploadSize,
	}
}

// List handles GET /api/channels/{id}/messages: the full history, oldest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.List(r.Context(), channelID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, messages)
}

// Create handles POST /api/channels/{id}/messages.
//
// Accepts JSON {content, emojis} or multipart with content, emojis and an
// optional image part. The 201 body is the record pushed to the channel.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r)
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.limiter != nil && !h.limiter.Allow(user.ID) {
		w.Header().Set("Retry-After", h.limiter.RetryAfterHeader(user.ID))
		pkg.Error(w, pkg.ErrTooManyRequests)
		return
	}

	var req models.CreateMessageRequest

	if isMultipart(r.Header.Get("Content-Type")) {
		if !parseMultipart(w, r, h.maxUploadSize) {
			return
		}
		req.Content = r.FormValue("content")
		req.Emojis = r.FormValue("emojis")

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			url, saveErr := h.uploadService.SaveImage(file, header)
			file.Close()
			if saveErr != nil {
				pkg.Error(w, saveErr)
				return
			}
			req.ImageURL = &url
		case !errors.Is(err, http.ErrMissingFile):
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid image part")
			return
		}
	} else {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	message, err := h.messageService.Create(r.Context(), user.ID, channelID, &req)
	if err != nil {
		if req.ImageURL != nil {
			h.uploadService.Remove(*req.ImageURL)
		}
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, message)
}

// Update handles PUT /api/messages/{id}.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r)
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.messageService.Update(r.Context(), user.ID, messageID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, message)
}

// Delete handles DELETE /api/messages/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r)
	if !ok {
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.messageService.Delete(r.Context(), user.ID, messageID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, pkg.OK)
}
