package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/casing"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
	"github.com/duaragha/cat-tracker-sub000/internal/service"
	"github.com/duaragha/cat-tracker-sub000/internal/stats"
)

// TrackerHandler serves /api/profile, /api/stats, /api/sync/{kind} and the
// per-kind entry routes. Request and response bodies are snake_case.
type TrackerHandler struct {
	svc    *service.TrackerService
	logger *zap.Logger
}

func NewTrackerHandler(svc *service.TrackerService, logger *zap.Logger) *TrackerHandler {
	return &TrackerHandler{svc: svc, logger: logger}
}

func (h *TrackerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/"), "/")

	switch {
	// Profile
	case parts[0] == "profile" && len(parts) == 1 && r.Method == http.MethodGet:
		h.GetProfile(w, r)
	case parts[0] == "profile" && len(parts) == 1 && r.Method == http.MethodPost:
		h.SaveProfile(w, r)
	case parts[0] == "profile" && len(parts) == 2 && r.Method == http.MethodPut:
		h.UpdateProfile(w, r, parts[1])
	case parts[0] == "profile" && len(parts) == 2 && r.Method == http.MethodDelete:
		h.DeleteProfile(w, r, parts[1])

	// Stats
	case parts[0] == "stats" && len(parts) == 1 && r.Method == http.MethodGet:
		h.GetStats(w, r)

	// Batch sync
	case parts[0] == "sync" && len(parts) == 2 && r.Method == http.MethodPost:
		h.SyncKind(w, r, parts[1])

	// Entries
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.ListEntries(w, r, parts[0], "")
	case len(parts) == 1 && r.Method == http.MethodPost:
		h.CreateEntry(w, r, parts[0])
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.ListEntries(w, r, parts[0], parts[1])
	case len(parts) == 2 && r.Method == http.MethodPut:
		h.ReplaceEntry(w, r, parts[0], parts[1])
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.DeleteEntry(w, r, parts[0], parts[1])

	default:
		writeJSON(w, http.StatusNotFound, Fail("route not found"))
	}
}

// ---- profile ----

func (h *TrackerHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeProfile(w, http.StatusOK, p)
}

func (h *TrackerHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.CatProfile
	if !h.decode(w, r, &p) {
		return
	}
	saved, err := h.svc.SaveProfile(r.Context(), &p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeProfile(w, http.StatusOK, saved)
}

func (h *TrackerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, id string) {
	var p domain.CatProfile
	if !h.decode(w, r, &p) {
		return
	}
	saved, err := h.svc.UpdateProfile(r.Context(), id, &p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeProfile(w, http.StatusOK, saved)
}

func (h *TrackerHandler) DeleteProfile(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.DeleteProfile(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

func (h *TrackerHandler) writeProfile(w http.ResponseWriter, status int, p *domain.CatProfile) {
	if p == nil {
		writeRaw(w, status, []byte("null"))
		return
	}
	body, err := casing.MarshalSnake(p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeRaw(w, status, body)
}

// ---- entries ----

func (h *TrackerHandler) ListEntries(w http.ResponseWriter, r *http.Request, kindName, catID string) {
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	list, err := h.svc.ListEntries(r.Context(), kind, catID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	body, err := casing.MarshalSnakeList(list)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *TrackerHandler) CreateEntry(w http.ResponseWriter, r *http.Request, kindName string) {
	e, ok := h.decodeEntry(w, r, kindName)
	if !ok {
		return
	}
	saved, err := h.svc.CreateEntry(r.Context(), e)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeEntry(w, http.StatusCreated, saved)
}

func (h *TrackerHandler) ReplaceEntry(w http.ResponseWriter, r *http.Request, kindName, id string) {
	e, ok := h.decodeEntry(w, r, kindName)
	if !ok {
		return
	}
	saved, err := h.svc.ReplaceEntry(r.Context(), id, e)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.writeEntry(w, http.StatusOK, saved)
}

func (h *TrackerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request, kindName, id string) {
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	if err := h.svc.DeleteEntry(r.Context(), kind, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

func (h *TrackerHandler) writeEntry(w http.ResponseWriter, status int, e domain.Entry) {
	body, err := casing.MarshalSnake(e)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeRaw(w, status, body)
}

// ---- sync ----

type syncRequest struct {
	Upserts []json.RawMessage `json:"upserts"`
	Deletes []string          `json:"deletes"`
}

func (h *TrackerHandler) SyncKind(w http.ResponseWriter, r *http.Request, kindName string) {
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return
	}
	var req syncRequest
	if err := readBodyJSON(w, r, maxBodyBytes, &req); err != nil {
		writeBodyError(w, err, "invalid json body")
		return
	}

	upserts := make([]domain.Entry, 0, len(req.Upserts))
	for i, raw := range req.Upserts {
		e, _ := domain.NewEntry(kind)
		if err := decodeWire(raw, e); err != nil {
			writeJSON(w, http.StatusBadRequest, Fail(fmt.Sprintf("upserts[%d]: %v", i, err)))
			return
		}
		upserts = append(upserts, e)
	}

	res, err := h.svc.SyncBatch(r.Context(), kind, upserts, req.Deletes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- stats ----

// GetStats accepts ?days=N to limit the window to the last N days.
func (h *TrackerHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var opts stats.Options
	if days := parseInt(r.URL.Query().Get("days"), 0); days > 0 {
		opts.Since = time.Now().UTC().AddDate(0, 0, -days)
	}
	sum, err := h.svc.Stats(r.Context(), opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	body, err := casing.MarshalSnake(sum)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// ---- decoding ----

func (h *TrackerHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := readBody(w, r, maxBodyBytes)
	if err != nil {
		writeBodyError(w, err, "request body is required")
		return false
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("request body is required"))
		return false
	}
	if err := decodeWire(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid json body: "+err.Error()))
		return false
	}
	return true
}

func (h *TrackerHandler) decodeEntry(w http.ResponseWriter, r *http.Request, kindName string) (domain.Entry, bool) {
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
		return nil, false
	}
	e, _ := domain.NewEntry(kind)
	if !h.decode(w, r, e) {
		return nil, false
	}
	return e, true
}
