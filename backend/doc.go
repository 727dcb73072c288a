// Package backend implements the engine/provider selection, fallback and
// resilience core shared by the speech and translation subsystems.
//
// A backend is anything that can list options (voices or models) and execute
// a request (synthesize or translate). The package owns platform capability
// probing, priority-ordered selection with live availability checks, a
// retry-with-backoff decorator, a per-request state machine, a candidate
// scoring heuristic and a bounded auto-discovery loop. Callers get a single
// stable contract regardless of which concrete backend is active.
package backend
