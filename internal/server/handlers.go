package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mnemosyne/internal/logging"
	"mnemosyne/internal/query"
	"mnemosyne/internal/store"
)

const unknownDeviceID = "Unknown"

type addContentRequest struct {
	Image       string `json:"image"`
	Description string `json:"description"`
	DeviceID    string `json:"deviceid"`
}

// handleAddContent accepts one upload. Empty descriptions are filled in by
// the vision provider before the row is written; a provider failure rejects
// the upload with 502 so no row is stored without a description.
func (s *Server) handleAddContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload addContentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(payload.Image) == "" {
		s.writeError(w, http.StatusBadRequest, "image required")
		return
	}

	deviceID := strings.TrimSpace(payload.DeviceID)
	if deviceID == "" {
		deviceID = unknownDeviceID
	}

	description := strings.TrimSpace(payload.Description)
	if description == "" {
		enriched, err := s.provider.Describe(r.Context(), payload.Image)
		if err != nil || strings.TrimSpace(enriched) == "" {
			s.logger.Warn("description enrichment failed",
				logging.String(logging.FieldDeviceID, deviceID),
				logging.String(logging.FieldProvider, s.provider.Name()),
				logging.Error(err),
			)
			s.writeJSON(w, http.StatusBadGateway, map[string]string{"message": "No Content added"})
			return
		}
		description = strings.TrimSpace(enriched)
	}

	id, err := s.store.Insert(r.Context(), store.Content{
		Image:       payload.Image,
		Description: description,
		Timestamp:   store.FormatTimestamp(time.Now()),
		DeviceID:    deviceID,
	})
	if err != nil {
		s.logger.Error("insert failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "insert failed")
		return
	}

	s.logger.Info("content added",
		logging.Int64(logging.FieldContentID, id),
		logging.String(logging.FieldDeviceID, deviceID),
	)
	s.writeJSON(w, http.StatusCreated, map[string]string{"message": "Content added successfully"})
}

type contentResponse struct {
	ID          int64  `json:"id"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	DeviceID    string `json:"deviceid"`
}

func (s *Server) handleGetContents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rows, err := s.store.ListAll(r.Context())
	if err != nil {
		s.logger.Error("list failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "list failed")
		return
	}

	out := make([]contentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, contentResponse{
			ID:          row.ID,
			Image:       row.Image,
			Description: row.Description,
			Timestamp:   row.Timestamp,
			DeviceID:    row.DeviceID,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// handleContents renders the management page. POST deletes the submitted ids
// first, then re-renders either the full set or the date filtered set.
// Clients that accept JSON get the row set and deletion count instead of HTML.
func (s *Server) handleContents(w http.ResponseWriter, r *http.Request) {
	var removed int64
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		ids := parseIDs(r.PostForm["content_id"])
		if len(ids) > 0 {
			var err error
			removed, err = s.store.DeleteByIDs(r.Context(), ids)
			if err != nil {
				s.logger.Error("delete failed", logging.Error(err))
				s.writeError(w, http.StatusInternalServerError, "delete failed")
				return
			}
			s.logger.Info("content deleted", logging.Int64("rows", removed))
		}
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, filtered := rangeBoundsFromForm(r)

	var (
		rows []store.Content
		err  error
	)
	if filtered {
		rows, err = s.store.ListRange(r.Context(), start, end)
	} else {
		rows, err = s.store.ListAll(r.Context())
	}
	if err != nil {
		s.logger.Error("list failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "list failed")
		return
	}

	if wantsJSON(r) {
		out := make([]contentResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, contentResponse{
				ID:          row.ID,
				Image:       row.Image,
				Description: row.Description,
				Timestamp:   row.Timestamp,
				DeviceID:    row.DeviceID,
			})
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"deleted": removed, "contents": out})
		return
	}

	inlineImages := r.URL.Query().Get("i") == "1"
	s.renderContents(w, rows, inlineImages, start, end)
}

// handleQuery renders the question form and, on POST, the model's answer
// alongside the entries text that was sent as context.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderQuery(w, queryView{})
	case http.MethodPost:
		if s.answerer == nil {
			s.writeError(w, http.StatusServiceUnavailable, "query engine not configured")
			return
		}
		if err := r.ParseForm(); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		question := strings.TrimSpace(r.PostFormValue("question"))
		if question == "" {
			s.writeError(w, http.StatusBadRequest, "question required")
			return
		}

		start, end, _ := rangeBoundsFromForm(r)
		entries, err := s.store.ListEntries(r.Context(), start, end)
		if err != nil {
			s.logger.Error("list entries failed", logging.Error(err))
			s.writeError(w, http.StatusInternalServerError, "list failed")
			return
		}

		answer, err := s.answerer.Answer(r.Context(), question, entries)
		if err != nil {
			s.logger.Error("query failed", logging.Error(err))
			s.writeError(w, http.StatusBadGateway, "query failed")
			return
		}

		if wantsJSON(r) {
			s.writeJSON(w, http.StatusOK, map[string]string{
				"question": question,
				"answer":   answer,
			})
			return
		}

		s.renderQuery(w, queryView{
			Question: question,
			Answer:   answer,
			Entries:  query.EntriesText(entries),
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderIndex(w)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "contents": count})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func parseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// rangeBoundsFromForm builds the inclusive [start, end] timestamp bounds from
// date and time form fields. HH:MM times are widened to full-minute bounds so
// the lexical comparison stays inclusive at both ends. Missing fields fall
// back to the widest possible range.
func rangeBoundsFromForm(r *http.Request) (start, end string, filtered bool) {
	startDate := strings.TrimSpace(formValue(r, "start_date"))
	endDate := strings.TrimSpace(formValue(r, "end_date"))
	if startDate == "" || endDate == "" {
		return "0000-01-01 00:00:00", "9999-12-31 23:59:59", false
	}

	startTime := normalizeTime(formValue(r, "start_time"), "00")
	endTime := normalizeTime(formValue(r, "end_time"), "59")
	return startDate + " " + startTime, endDate + " " + endTime, true
}

func formValue(r *http.Request, key string) string {
	if r.Method == http.MethodPost {
		return r.PostFormValue(key)
	}
	return r.URL.Query().Get(key)
}

func normalizeTime(value, fallbackSeconds string) string {
	value = strings.TrimSpace(value)
	switch strings.Count(value, ":") {
	case 2:
		return value
	case 1:
		return value + ":" + fallbackSeconds
	default:
		if fallbackSeconds == "00" {
			return "00:00:00"
		}
		return "23:59:59"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
