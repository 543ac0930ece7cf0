package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tpgainz/sirene-search/postgres"
	"github.com/tpgainz/sirene-search/sirene"
)

const ownerHeader = "X-User-Id"

func ownerID(r *http.Request) string {
	if id := r.Header.Get(ownerHeader); id != "" {
		return id
	}

	return "anonymous"
}

// handleCompanySearch serves GET /api/company-search. All filters are
// optional, free text goes in q.
func (s *Server) handleCompanySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := sirene.SearchCriteria{
		Siren:              q.Get("siren"),
		Siret:              q.Get("siret"),
		CodePostal:         q.Get("codePostal"),
		Commune:            q.Get("commune"),
		ActivitePrincipale: q.Get("activitePrincipale"),
		CategorieJuridique: q.Get("categorieJuridique"),
		EtatAdministratif:  q.Get("etat"),
		TrancheEffectifs:   q.Get("trancheEffectifs"),
		Departement:        q.Get("departement"),
		DateCreationDebut:  q.Get("dateCreationDebut"),
		DateCreationFin:    q.Get("dateCreationFin"),
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	start := time.Now()

	result, err := s.cfg.Facade.SearchByText(r.Context(), q.Get("q"), criteria, page, pageSize)

	s.cfg.Metrics.ObserveSearchLatency(time.Since(start))

	if err != nil {
		s.cfg.Metrics.IncrementSearch("error")
		writeError(w, err)

		return
	}

	s.cfg.Metrics.IncrementSearch("ok")
	s.cfg.Analytics.CaptureSearch(ownerID(r), q.Get("q"), result.Total)

	if s.cfg.History != nil && q.Get("q") != "" {
		if err := s.cfg.History.Record(r.Context(), ownerID(r), q.Get("q"), result.Total); err != nil {
			logHandlerError(r, fmt.Errorf("historique: %w", err))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSireneUnit serves GET /api/sirene-unit/{siren}. The optional date
// parameter selects the historized period.
func (s *Server) handleSireneUnit(w http.ResponseWriter, r *http.Request) {
	siren := chi.URLParam(r, "siren")
	date := r.URL.Query().Get("date")

	record, err := s.cfg.Facade.LookupUnit(r.Context(), siren, date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

type createListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("un nom de liste est requis"))
		return
	}

	list, err := s.cfg.Lists.Create(r.Context(), ownerID(r), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("archived") == "true"

	lists, err := s.cfg.Lists.List(r.Context(), ownerID(r), includeArchived)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Lists.Get(r.Context(), ownerID(r), chi.URLParam(r, "listID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Lists.Archive(r.Context(), ownerID(r), chi.URLParam(r, "listID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Lists.Delete(r.Context(), ownerID(r), chi.URLParam(r, "listID")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	if _, err := s.cfg.Lists.Get(r.Context(), ownerID(r), listID); err != nil {
		writeError(w, err)
		return
	}

	query := postgres.NewListCompaniesQuery(listID)

	if siren := r.URL.Query().Get("siren"); siren != "" {
		query.WithSiren(siren)
	}

	if r.URL.Query().Get("enriched") == "true" {
		query.WithEnrichedOnly()
	}

	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		query.WithLimit(limit)
	}

	companies, err := s.cfg.Lists.Companies(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, companies)
}

type addCompanyRequest struct {
	Siren string `json:"siren"`
}

func (s *Server) handleAddCompany(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	var req addCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("corps de requête invalide"))
		return
	}

	if !sirene.IsValidSiren(req.Siren) {
		writeJSON(w, http.StatusBadRequest, errorBody("siren invalide"))
		return
	}

	if _, err := s.cfg.Lists.Get(r.Context(), ownerID(r), listID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.cfg.Lists.AddCompany(r.Context(), listID, req.Siren); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCompany(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")

	if _, err := s.cfg.Lists.Get(r.Context(), ownerID(r), listID); err != nil {
		writeError(w, err)
		return
	}

	if err := s.cfg.Lists.RemoveCompany(r.Context(), listID, chi.URLParam(r, "siren")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type importRequest struct {
	Sirens []string `json:"sirens"`
}

// handleImport enqueues an enrichment batch for the list. Invalid sirens
// are rejected up front, the rest of the pipeline assumes clean input.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Enqueue == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("aucune file de jobs configurée"))
		return
	}

	listID := chi.URLParam(r, "listID")

	if _, err := s.cfg.Lists.Get(r.Context(), ownerID(r), listID); err != nil {
		writeError(w, err)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Sirens) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("au moins un siren est requis"))
		return
	}

	for _, siren := range req.Sirens {
		if !sirene.IsValidSiren(siren) {
			writeJSON(w, http.StatusBadRequest, errorBody("siren invalide: "+siren))
			return
		}
	}

	jobID, err := s.cfg.Enqueue(r.Context(), listID, ownerID(r), req.Sirens)
	if err != nil {
		writeError(w, err)
		return
	}

	s.cfg.Analytics.CaptureImport(ownerID(r), listID, len(req.Sirens))

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

func (s *Server) handleSearchHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.cfg.History.Recent(r.Context(), ownerID(r), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
