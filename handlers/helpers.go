package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akinalp/gaduly/models"
	"github.com/akinalp/gaduly/pkg"
)

// currentUser reads the user the auth middleware stored. It writes the 401
// itself when the route was mounted without the middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// pathID parses the {id} wildcard.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// maxJSONBody caps every JSON request body. A message at MaxMessageLength
// runes with its emoji annotation stays far below it.
const maxJSONBody = 64 << 10

// multipartOverhead is allowed on top of the upload size for the text
// fields and part headers of a multipart form.
const multipartOverhead = 1 << 20

// decodeJSON reads a bounded JSON body into dst. On failure it writes the
// 400 or 413 itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, false)
}

// decodeOptionalJSON is decodeJSON for routes where an empty body means
// "all defaults".
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
	return false
}

// parseMultipart bounds the whole body to the upload size plus
// multipartOverhead before parsing it.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxUploadSize int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return false
	}
	return true
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/form-data")
}

// formString returns nil when the field was not sent at all.
func formString(r *http.Request, key string) *string {
	if _, ok := r.MultipartForm.Value[key]; !ok {
		return nil
	}
	v := r.FormValue(key)
	return &v
}

func formInt(r *http.Request, key string) (*int, error) {
	s := formString(r, key)
	if s == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
