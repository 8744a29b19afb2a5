// Package metrics exposes Prometheus-format metrics for the registry.
//
// Counters are package-level so the store, protocol, and reaper can
// record events without carrying a metrics handle. The MetricsServer
// serves them on a dedicated listener, separate from the public API.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

var (
	registrationsSuccess    = metrics.NewCounter(`handshake_registrations_total{result="success"}`)
	registrationsNameTaken  = metrics.NewCounter(`handshake_registrations_total{result="name_taken"}`)
	registrationsInvalidKey = metrics.NewCounter(`handshake_registrations_total{result="invalid_key"}`)

	decodesSuccess = metrics.NewCounter(`handshake_decodes_total{result="success"}`)
	decodesFailure = metrics.NewCounter(`handshake_decodes_total{result="failure"}`)

	reaperEvictions = metrics.NewCounter(`registry_evictions_total`)
)

// IncRegistrationSuccess records a completed registration.
func IncRegistrationSuccess() { registrationsSuccess.Inc() }

// IncRegistrationNameTaken records a registration rejected for a duplicate name.
func IncRegistrationNameTaken() { registrationsNameTaken.Inc() }

// IncRegistrationInvalidKey records a registration rejected for a bad public key.
func IncRegistrationInvalidKey() { registrationsInvalidKey.Inc() }

// IncDecodeSuccess records a decode that opened and rotated the nonce.
func IncDecodeSuccess() { decodesSuccess.Inc() }

// IncDecodeFailure records a decode that failed for any reason.
func IncDecodeFailure() { decodesFailure.Inc() }

// AddEvictions records records removed by a reaper sweep.
func AddEvictions(n int) { reaperEvictions.Add(n) }

// RegisterUsersGauge registers a gauge reporting the current number of
// registered users. The callback is invoked on every scrape.
func RegisterUsersGauge(f func() float64) {
	metrics.GetOrCreateGauge(`registry_users`, f)
}

// MetricsServer serves the /metrics endpoint on its own listener so
// operational traffic stays off the public API address.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name listening on
// addr. The server is inert until ListenAndServe is called.
func New(name, addr string) (*MetricsServer, error) {
	metrics.GetOrCreateGauge(fmt.Sprintf(`service_up{service=%q}`, name), func() float64 {
		return 1
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{Addr: addr, Handler: mux},
	}, nil
}

// ListenAndServe starts serving metrics. It blocks until the server
// stops and returns http.ErrServerClosed after a clean Shutdown.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
