package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness and database reachability
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Routes builds the API router wrapped in request logging
func Routes(mw *Middleware, db Pinger, profiles *ProfileHandler, family *FamilyHandler, activities *ActivityHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", Health(db))

	mux.HandleFunc("POST /api/profiles", mw.Protected(profiles.Register))
	mux.HandleFunc("GET /api/profiles", mw.Protected(profiles.List))
	mux.HandleFunc("GET /api/profiles/{id}", mw.Protected(profiles.Get))
	mux.HandleFunc("PATCH /api/profiles/{id}", mw.Protected(profiles.Update))
	mux.HandleFunc("DELETE /api/account", mw.Protected(profiles.CloseAccount))

	mux.HandleFunc("POST /api/children", mw.Protected(family.OnboardChild))
	mux.HandleFunc("GET /api/children", mw.Protected(family.ListChildren))
	mux.HandleFunc("GET /api/children/{id}/parents", mw.Protected(family.ListParents))
	mux.HandleFunc("POST /api/children/{id}/link", mw.Protected(family.LinkChild))
	mux.HandleFunc("DELETE /api/children/{id}/link", mw.Protected(family.UnlinkChild))
	mux.HandleFunc("POST /api/children/{id}/guardians", mw.Protected(family.AddGuardian))
	mux.HandleFunc("GET /api/family/overview", mw.Protected(family.Overview))

	mux.HandleFunc("POST /api/activities", mw.Protected(activities.Record))
	mux.HandleFunc("DELETE /api/activities/{id}", mw.Protected(activities.Delete))
	mux.HandleFunc("GET /api/profiles/{id}/activities", mw.Protected(activities.List))
	mux.HandleFunc("GET /api/profiles/{id}/progress", mw.Protected(activities.Progress))
	mux.HandleFunc("GET /api/profiles/{id}/achievements", mw.Protected(activities.Achievements))
	mux.HandleFunc("GET /api/profiles/{id}/adventures", mw.Protected(activities.Adventures))
	mux.HandleFunc("POST /api/adventures/{code}/advance", mw.Protected(activities.AdvanceAdventure))

	return mw.Logging(mux)
}
