package handlers

import (
	"errors"
	"net/http"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
	"github.com/akinalp/gaduly/services"
)

type MemberHandler struct {
	memberService services.MemberService
	uploadService services.UploadService
	maxUploadSize int64
}

func NewMemberHandler(memberService services.MemberService, uploadService services.UploadService, maxUploadSize int64) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		uploadService: uploadService,
		maxUploadSize: maxUploadSize,
	}
}

// UpdateProfile handles PUT /api/me. JSON or multipart; a multipart request
// may carry an avatar image. Fields that are not sent stay unchanged.
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest

	if isMultipart(r.Header.Get("Content-Type")) {
		if !parseMultipart(w, r, h.maxUploadSize) {
			return
		}
		if err := readProfileForm(r, &req); err != nil {
			pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
			return
		}

		file, header, err := r.FormFile("avatar")
		switch {
		case err == nil:
			url, saveErr := h.uploadService.SaveImage(file, header)
			file.Close()
			if saveErr != nil {
				pkg.Error(w, saveErr)
				return
			}
			req.AvatarURL = &url
		case !errors.Is(err, http.ErrMissingFile):
			pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid avatar part")
			return
		}
	} else {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	profile, err := h.memberService.UpdateProfile(r.Context(), user.ID, &req)
	if err != nil {
		if req.AvatarURL != nil {
			h.uploadService.Remove(*req.AvatarURL)
		}
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, profile)
}

func readProfileForm(r *http.Request, req *models.UpdateProfileRequest) error {
	req.Nickname = formString(r, "nickname")
	req.AudioInput = formString(r, "audio_input")
	req.AudioOutput = formString(r, "audio_output")

	ints := map[string]**int{
		"mic_sensitivity":      &req.MicSensitivity,
		"automatic_voice_gain": &req.AutomaticVoiceGain,
		"speaker_volume":       &req.SpeakerVolume,
		"mic_volume":           &req.MicVolume,
	}
	for key, dst := range ints {
		v, err := formInt(r, key)
		if err != nil {
			return errors.New(key + " must be a number")
		}
		*dst = v
	}
	return nil
}
