// src/handlers/record_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Majid760/xpensemate-sub000/src/database"
	"github.com/Majid760/xpensemate-sub000/src/logger"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/go-chi/chi/v5"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	maxRequestBytes  = 1 << 20
)

// RecordHandler serves list/create/update/delete for one record type.
// Each resource keeps its historical envelope shapes.
type RecordHandler[T models.Identifiable[T]] struct {
	db       *sql.DB
	table    database.Table[T]
	singular string
	sanitize func(T) T
	validate func(T) error
	listBody func(records []T, total, page int) any
	itemBody func(rec T) any
}

func (h *RecordHandler[T]) pagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func (h *RecordHandler[T]) decode(w http.ResponseWriter, r *http.Request) (T, bool) {
	var rec T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return rec, false
	}
	rec = h.sanitize(rec)
	if err := h.validate(rec); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return rec, false
	}
	return rec, true
}

func (h *RecordHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	page, limit := h.pagination(r)
	records, total, err := h.table.List(r.Context(), h.db, userID, page, limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list records", "table", h.table.Name, "error", err)
		sendJSONError(w, "Failed to retrieve "+h.singular+" list", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.listBody(records, total, page))
}

func (h *RecordHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.table.Insert(r.Context(), h.db, userID, rec)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to create record", "table", h.table.Name, "error", err)
		sendJSONError(w, "Failed to add the "+h.singular, http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context()).Info("Record created", "table", h.table.Name, "id", created.RecordID())
	writeJSON(w, http.StatusCreated, h.itemBody(created))
}

func (h *RecordHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.table.Update(r.Context(), h.db, userID, id, rec)
	if errors.Is(err, database.ErrNotFound) {
		sendJSONError(w, capitalize(h.singular)+" not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to update record", "table", h.table.Name, "id", id, "error", err)
		sendJSONError(w, "Failed to update the "+h.singular, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.itemBody(updated))
}

func (h *RecordHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	err := h.table.Delete(r.Context(), h.db, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		sendJSONError(w, capitalize(h.singular)+" not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete record", "table", h.table.Name, "id", id, "error", err)
		sendJSONError(w, "Failed to delete the "+h.singular, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
