package handler

import (
	"net/http"

	"github.com/balhadj47/fleet-console/internal/availability"
)

// listAvailableVans handles GET /vans/available: the full fleet filtered
// through the availability resolver against the current trip snapshot.
func (s *Server) listAvailableVans(w http.ResponseWriter, r *http.Request) {
	vans, err := s.vans.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	free := availability.Available(vans, s.store.Snapshot())
	writeJSON(w, http.StatusOK, map[string]any{"data": free})
}
