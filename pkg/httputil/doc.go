// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// This package offers helper functions for JSON encoding/decoding, error responses,
// parameter parsing, validation, and the middleware chain used by the API server.
//
// # Response Helpers
//
// JSON responses:
//
//	httputil.WriteSuccess(w, subscriber)
//	httputil.WriteCreated(w, transaction)
//
// Error responses:
//
//	httputil.WriteBadRequest(w, "invalid subscriber id")
//	httputil.WriteNotFoundError(w, "subscriber not found")
//	httputil.WriteConflict(w, "payment already linked")
//
// # Request Parsing
//
// JSON parsing:
//
//	var req ResolvePaymentRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// Path and query parameters:
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	search := httputil.ParseQueryString(r, "search", "")
//	limit, err := httputil.ParseQueryInt(r, "limit", 100)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
//
// # Related Packages
//
//   - pkg/api: the HTTP handlers built on these helpers
package httputil
