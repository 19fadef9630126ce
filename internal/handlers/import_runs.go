package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ledgerdesk/api/internal/httpx"
	"github.com/ledgerdesk/api/internal/middleware"
	"github.com/ledgerdesk/api/internal/store"
)

type importRunResponse struct {
	ID           uuid.UUID       `json:"id"`
	CompanyID    int64           `json:"companyId"`
	Filename     string          `json:"filename"`
	FileSha256   string          `json:"fileSha256"`
	ArchiveURI   *string         `json:"archiveUri"`
	Status       string          `json:"status"`
	RowsTotal    int32           `json:"rowsTotal"`
	RowsInserted int32           `json:"rowsInserted"`
	RowsFailed   int32           `json:"rowsFailed"`
	Summary      json.RawMessage `json:"summary,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	CompletedAt  *time.Time      `json:"completedAt"`
}

func mapImportRun(run store.ImportRun) importRunResponse {
	resp := importRunResponse{
		ID:           run.ID,
		CompanyID:    run.CompanyID,
		Filename:     run.Filename,
		FileSha256:   run.FileSha256,
		ArchiveURI:   run.ArchiveURI,
		Status:       run.Status,
		RowsTotal:    run.RowsTotal,
		RowsInserted: run.RowsInserted,
		RowsFailed:   run.RowsFailed,
		CreatedAt:    run.CreatedAt.UTC(),
	}
	if len(run.SummaryJson) > 0 && json.Valid(run.SummaryJson) {
		resp.Summary = json.RawMessage(run.SummaryJson)
	}
	if run.CompletedAt != nil {
		completed := run.CompletedAt.UTC()
		resp.CompletedAt = &completed
	}
	return resp
}

func (s *Server) GetImportRun(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	runID, err := uuid.Parse(chi.URLParam(r, "importRunId"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Valid import run ID is required", nil)
		return
	}

	run, err := s.Store.GetImportRunForUser(r.Context(), runID, actor.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.WriteError(w, http.StatusNotFound, "Import run not found", nil)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to load import run", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mapImportRun(run))
}
