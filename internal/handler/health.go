package handler

import "net/http"

// Health handles GET /health. It is registered outside the auth
// middleware so load balancers can probe without a token.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
