package control

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hpungsan/clipz/internal/errors"
)

// maxBodyBytes bounds JSON request bodies. Pin text travels in the body.
const maxBodyBytes = 16 << 20

// errorBody is the JSON error envelope shared by server and client.
type errorBody struct {
	Error struct {
		Code    errors.ErrorCode `json:"code"`
		Message string           `json:"message"`
		Status  int              `json:"status"`
	} `json:"error"`
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError maps err to its status and writes the error envelope.
// Internal details are logged, never returned.
func renderError(w http.ResponseWriter, log *slog.Logger, err error) {
	var cErr *errors.ClipzError
	if !stderrors.As(err, &cErr) {
		cErr = errors.NewInternal(err)
	}
	if cErr.Code == errors.ErrInternal {
		log.Error("request failed", "error", err, "details", cErr.Details)
	}

	var body errorBody
	body.Error.Code = cErr.Code
	body.Error.Message = cErr.Message
	body.Error.Status = cErr.Status

	status := cErr.Status
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	renderJSON(w, status, body)
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.NewInvalidRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseOptionalBool parses a boolean query parameter; absent or unparseable is nil.
func parseOptionalBool(r *http.Request, name string) *bool {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}
