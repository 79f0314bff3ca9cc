// Package health serves the liveness and readiness endpoints.
//
// Liveness (GET /health) always answers healthy with the build version.
// Readiness (GET /ready) runs registered checks, such as the upstream
// provider probe, in parallel and answers 503 when any of them fails.
package health
