package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
	"github.com/balhadj47/fleet-console/internal/wizard"
)

// createTripRequest mirrors the wizard submission payload the legacy
// console sends. Company/Branch carry the display names of the first
// destination; SelectedCompanies carries the full one-to-many set.
type createTripRequest struct {
	Van               *uuid.UUID         `json:"van"`
	Driver            string             `json:"driver"`
	Company           string             `json:"company,omitempty"`
	Branch            string             `json:"branch,omitempty"`
	Notes             string             `json:"notes"`
	UserIDs           []uuid.UUID        `json:"userIds"`
	UserRoles         []crewEntry        `json:"userRoles"`
	StartKm           *int64             `json:"startKm"`
	StartDate         *time.Time         `json:"startDate,omitempty"`
	EndDate           *time.Time         `json:"endDate,omitempty"`
	SelectedCompanies []companySelection `json:"selectedCompanies"`
}

// crewEntry pairs one user with their role set. Role elements accept both
// legacy wire shapes via domain.Role's UnmarshalJSON.
type crewEntry struct {
	UserID uuid.UUID     `json:"userId"`
	Roles  []domain.Role `json:"roles"`
}

type companySelection struct {
	CompanyID   uuid.UUID `json:"companyId"`
	BranchID    uuid.UUID `json:"branchId"`
	CompanyName string    `json:"companyName,omitempty"`
	BranchName  string    `json:"branchName,omitempty"`
}

type completeTripRequest struct {
	EndKm *int64 `json:"endKm"`
}

// listTrips handles GET /trips. Supports ?page= and ?limit= query
// parameters; unpaginated requests go through the repository cache.
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	var params *domain.PaginationParams
	useCache := true
	if page != nil || limit != nil {
		p := domain.NewPaginationParams(page, limit)
		params = &p
		useCache = false
	}

	trips, err := s.trips.List(r.Context(), useCache, params)
	if err != nil {
		writeError(w, err)
		return
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": trips})
}

// createTrip handles POST /trips. The body is run through the wizard's
// full-form validation before the optimistic store is touched, so an
// invalid submission never reaches the repository.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}
	if req.Van == nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "van is required")
		return
	}
	if req.StartKm == nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "startKm is required")
		return
	}

	eng := wizard.New()
	eng.SetVehicle(*req.Van, req.Driver)
	eng.SetClients(clientSites(req))
	eng.SetCrew(crewMembers(req))
	eng.SetDetails(*req.StartKm, req.StartDate, req.EndDate, req.Notes)

	trip, err := eng.Submit()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.store.Add(r.Context(), trip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// completeTrip handles POST /trips/{id}/complete.
func (s *Server) completeTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "invalid trip id")
		return
	}

	var req completeTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EndKm == nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "endKm is required")
		return
	}

	if err := s.store.Complete(r.Context(), id, *req.EndKm); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteTrip handles DELETE /trips/{id}.
func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorCode(w, http.StatusUnprocessableEntity, "validation_error", "invalid trip id")
		return
	}

	if err := s.store.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// clientSites builds the destination set. The legacy single company/branch
// display names are backfilled onto the first selection when it carries
// none of its own.
func clientSites(req createTripRequest) []domain.ClientSite {
	sites := make([]domain.ClientSite, len(req.SelectedCompanies))
	for i, c := range req.SelectedCompanies {
		sites[i] = domain.ClientSite{
			CompanyID:   c.CompanyID,
			BranchID:    c.BranchID,
			CompanyName: c.CompanyName,
			BranchName:  c.BranchName,
		}
	}
	if len(sites) > 0 && sites[0].CompanyName == "" {
		sites[0].CompanyName = req.Company
		sites[0].BranchName = req.Branch
	}
	return sites
}

// crewMembers merges userRoles with the redundant userIds array: ids that
// carry no role entry become role-less members, matching the stored shape.
func crewMembers(req createTripRequest) []domain.CrewMember {
	crew := make([]domain.CrewMember, 0, len(req.UserRoles))
	seen := make(map[uuid.UUID]bool, len(req.UserRoles))
	for _, e := range req.UserRoles {
		crew = append(crew, domain.CrewMember{UserID: e.UserID, Roles: e.Roles})
		seen[e.UserID] = true
	}
	for _, id := range req.UserIDs {
		if !seen[id] {
			crew = append(crew, domain.CrewMember{UserID: id})
		}
	}
	return crew
}

// pageParams parses optional ?page= and ?limit= integers.
func pageParams(r *http.Request) (page, limit *int, err error) {
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, nil, errors.New("page must be an integer")
		}
		page = &n
	}
	if v := q.Get("limit"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, nil, errors.New("limit must be an integer")
		}
		limit = &n
	}
	return page, limit, nil
}
