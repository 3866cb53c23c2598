package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/formweave/formweave/internal/registry"
)

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	status := registry.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = registry.StatusDraft
	}
	switch status {
	case registry.StatusDraft, registry.StatusActive, registry.StatusDeprecated:
	default:
		errorResponse(w, http.StatusBadRequest, "unknown status")
		return
	}

	entries, err := s.engine.SchemasByStatus(r.Context(), entity, status)
	if err != nil {
		registryError(w, err)
		return
	}
	if entries == nil {
		entries = []*registry.Entry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

func (s *Server) handleCreateSchema(w http.ResponseWriter, r *http.Request) {
	var req CreateSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		errorResponse(w, http.StatusBadRequest, "missing document")
		return
	}

	entry, err := s.engine.CreateSchema(r.Context(), req.Document, req.MigrationScript)
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

func (s *Server) handleActiveSchema(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	if entity == "" {
		errorResponse(w, http.StatusBadRequest, "missing entity")
		return
	}
	variant := r.URL.Query().Get("variant")

	entry, err := s.engine.ActiveSchema(r.Context(), entity, variant)
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.Schema(r.Context(), r.PathValue("id"))
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	var req UpdateSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Document == nil {
		errorResponse(w, http.StatusBadRequest, "missing document")
		return
	}

	entry, err := s.engine.UpdateSchema(r.Context(), r.PathValue("id"), req.Document, req.ExpectedUpdatedAt)
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteSchema(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteSchema(r.Context(), r.PathValue("id")); err != nil {
		registryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivateSchema(w http.ResponseWriter, r *http.Request) {
	entry, err := s.engine.ActivateSchema(r.Context(), r.PathValue("id"))
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

func (s *Server) handleExportSchema(w http.ResponseWriter, r *http.Request) {
	data, err := s.engine.ExportSchema(r.Context(), r.PathValue("id"))
	if err != nil {
		registryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

func (s *Server) handleImportSchema(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "reading request body")
		return
	}

	entry, err := s.engine.ImportSchema(r.Context(), data)
	if err != nil {
		if registry.IsStructural(err) || registry.IsNotFound(err) || registry.IsConflict(err) || registry.IsState(err) {
			registryError(w, err)
			return
		}
		// Parse failures are the caller's problem too.
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

func (s *Server) handlePreviewSchema(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.PreviewSchema(r.Context(), r.PathValue("id"))
	if err != nil {
		registryError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, PreviewResponse{
		Entry:   p.Entry,
		Values:  p.Values,
		Visible: p.Visible,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.engine.Submit(r.Context(), r.PathValue("entity"), req.Variant, req.Values)
	if err != nil {
		registryError(w, err)
		return
	}

	resp := SubmitResponse{Accepted: len(res.Issues) == 0, Issues: res.Issues}
	if res.Outcome.Err != nil {
		resp.ActionError = res.Outcome.Err.Error()
		resp.ErrorChainRan = res.Outcome.ErrorChainRan
	}
	if !resp.Accepted {
		jsonResponse(w, http.StatusUnprocessableEntity, resp)
		return
	}
	jsonResponse(w, http.StatusOK, resp)
}
