package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/casing"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/repository"
	"github.com/duaragha/cat-tracker-sub000/internal/service"
)

// maxBodyBytes allows inline data-URL photos.
const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an already encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
}

func readBodyJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, out any) error {
	body, err := readBody(w, r, maxBytes)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// writeBodyError answers a failed body read: 413 past the limit, else 400
// with msg.
func writeBodyError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, Fail("request body too large"))
		return
	}
	writeJSON(w, http.StatusBadRequest, Fail(msg))
}

// decodeWire turns a snake_case request object into v (camelCase struct),
// accepting the legacy row shapes: photos/tags as a JSON or comma-joined
// string and booleans as 0/1.
func decodeWire(raw []byte, v any) error {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	if m == nil {
		return errors.New("expected a JSON object")
	}
	for _, key := range []string{"photos", "tags"} {
		switch val := m[key].(type) {
		case string:
			m[key] = domain.ParsePhotos(val)
		case nil:
			if _, ok := m[key]; ok {
				m[key] = []string{}
			}
		}
	}
	if n, ok := m["has_blood"].(float64); ok {
		m["has_blood"] = n != 0
	}
	b, err := json.Marshal(casing.KeysToCamel(m))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// statusFor maps service and repository errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalid), errors.Is(err, domain.ErrUnknownKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		writeJSON(w, status, Fail("internal error"))
		return
	}
	writeJSON(w, status, Fail(err.Error()))
}
