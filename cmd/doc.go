// Package cmd provides the CLI commands for the registry service.
//
// # Commands
//
// registry: Runs the credential registry HTTP service.
//
//	go run ./cmd/registry --config=registry.yaml
//	go run ./cmd/registry --addr=127.0.0.1:7878 --metrics-addr=127.0.0.1:9090
//
// client: CLI for interacting with a running registry.
//
//	go run ./cmd/client send -r http://localhost:7878 -n alice -m "Hello"
//	go run ./cmd/client list -r http://localhost:7878
//	go run ./cmd/client status -r http://localhost:7878
//
// # Configuration
//
// The registry command supports a YAML configuration file via the --config
// flag. Command-line flags override config file values.
package cmd
