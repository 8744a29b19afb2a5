// Package httpserver provides the HTTP surface of the handshake
// registry: a base server with health endpoints and lifecycle
// management, plus the handler exposing the registry API.
//
// # Key Components
//
//   - BaseServer: HTTP server with health checks, CORS, request
//     logging, an optional metrics listener, and graceful shutdown
//   - RouteRegistrar: Interface for handlers to register their routes
//   - RegistryHandler: The public registry API (list, public-key,
//     handshake, decode)
//
// # Server Lifecycle
//
//  1. Initialization: configure the server and pass route registrars
//  2. Startup: RunInBackground starts the HTTP and metrics listeners
//  3. Readiness control: /drain and /undrain flip the /readyz answer
//     for load balancers
//  4. Graceful shutdown: Shutdown waits for in-flight requests
//
// # Health and Diagnostics
//
// Every server built on BaseServer includes /livez, /readyz, /drain and
// /undrain, an optional Prometheus-compatible metrics listener, and
// optional pprof endpoints under /debug.
//
// # Usage
//
//	handler := httpserver.NewRegistryHandler(handshake)
//	srv, err := httpserver.New(cfg, handler)
//	if err != nil {
//		...
//	}
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
