package httpserver

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"

	"github.com/and161185/jobtrack/internal/convert"
	"github.com/and161185/jobtrack/internal/errs"
)

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type listResponse struct {
	Success bool                     `json:"success"`
	Count   int                      `json:"count"`
	Data    []convert.ApplicationDTO `json:"data"`
}

// caller returns the id stored by AuthGate.
func caller(r *http.Request) uuid.UUID {
	id, _ := UserIDFromCtx(r.Context())
	return id
}

// pathID parses {id}; anything that is not a UUID names no record.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.FromString(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, errs.ErrNotFound
	}
	return id, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.apps.List(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Count: len(list), Data: convert.ToApplicationDTOs(list)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.apps.Stats(r.Context(), caller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: convert.ToStatsDTO(st)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	app, err := s.apps.Get(r.Context(), caller(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: convert.ToApplicationDTO(*app)})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req convert.ApplicationRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	in := convert.FromApplicationRequest(req)
	app, err := s.apps.Create(r.Context(), caller(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: convert.ToApplicationDTO(*app)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req convert.ApplicationRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	in := convert.FromApplicationRequest(req)
	app, err := s.apps.Update(r.Context(), caller(r), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: convert.ToApplicationDTO(*app)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.apps.Delete(r.Context(), caller(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: struct{}{}})
}
