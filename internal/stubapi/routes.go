package stubapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/renzo/client/internal/middleware"
)

// Handler returns the routed API, mounted under /api and open to any origin.
// Each request is logged through logger.
func (a *API) Handler(logger *slog.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", a.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.Login).Methods(http.MethodPost)
	api.HandleFunc("/users", a.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", a.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/videos", a.ListVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos", a.CreateVideo).Methods(http.MethodPost)
	api.HandleFunc("/videos/{id}", a.GetVideo).Methods(http.MethodGet)
	api.HandleFunc("/videos/{id}/like", a.LikeVideo).Methods(http.MethodPost)
	api.HandleFunc("/connections", a.CreateConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{userId}", a.ListConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections/{id}/respond", a.RespondConnection).Methods(http.MethodPost)
	api.HandleFunc("/recommendations/{userId}", a.Recommendations).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return middleware.RequestLogger(logger)(c.Handler(r))
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
