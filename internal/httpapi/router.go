package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func NewRouter(handler *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", handler.healthz).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/scan", handler.scan).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/scan", handler.cancel).Methods(http.MethodDelete)
	r.HandleFunc("/api/v1/manual", handler.manual).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/history", handler.history).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/last", handler.last).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/state", handler.state).Methods(http.MethodGet)

	return withRequestLogging(withCORS(r))
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s -> %d (%s) from %s", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Truncate(time.Millisecond), r.RemoteAddr)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
