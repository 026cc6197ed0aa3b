package utils

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"
)

// loopbackOnlyMiddleware rejects requests from anything but the local
// machine. The caption proxy exists solely for the player process next to
// it; nothing on the network has business talking to it.
func loopbackOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		addr, err := netip.ParseAddr(host)
		if err != nil || !addr.IsLoopback() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter constructs the caption proxy's base mux router.
func NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(loopbackOnlyMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	return r
}
