package handlers

import (
	"net/http"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/profile"
	"git.home.luguber.info/inful/linkbio/internal/server/responses"
	"git.home.luguber.info/inful/linkbio/internal/upload"
)

// UploadField is the multipart field carrying the image.
const UploadField = "file"

// UploadKindBackground selects the background image instead of the avatar.
const UploadKindBackground = "background"

// UserHandlers serves profile settings, analytics and uploads.
type UserHandlers struct {
	profile        *profile.Service
	maxUploadBytes int64
	errorAdapter   *errors.HTTPErrorAdapter
}

// NewUserHandlers creates the user API handlers.
func NewUserHandlers(svc *profile.Service, maxUploadBytes int64, adapter *errors.HTTPErrorAdapter) *UserHandlers {
	return &UserHandlers{profile: svc, maxUploadBytes: maxUploadBytes, errorAdapter: adapter}
}

// HandleGetSettings returns the profile settings.
func (h *UserHandlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	settings, err := h.profile.GetSettings(r.Context(), u.ID)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, settings)
}

// HandlePatchSettings applies a partial settings update. Empty strings clear a field.
func (h *UserHandlers) HandlePatchSettings(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	var raw map[string]any
	if err := decodeJSON(w, r, &raw); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	settings, err := h.profile.UpdateSettings(r.Context(), u.ID, raw)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, settings)
}

// HandleAnalytics returns click and view statistics.
func (h *UserHandlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	a, err := h.profile.Analytics(r.Context(), u.ID)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, a)
}

// HandleUpload stores the posted image as avatar, or as background with ?kind=background.
func (h *UserHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	res, err := uploadImage(r, h.profile, u.ID, h.maxUploadBytes)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.UploadResponse{URL: res.URL})
}

func uploadImage(r *http.Request, svc *profile.Service, userID string, maxBytes int64) (*upload.Result, error) {
	img, err := upload.FromRequest(r, UploadField, maxBytes)
	if err != nil {
		return nil, err
	}
	if r.URL.Query().Get("kind") == UploadKindBackground {
		return svc.UploadBackground(r.Context(), userID, img)
	}
	return svc.UploadAvatar(r.Context(), userID, img)
}
