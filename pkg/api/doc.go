// Package api exposes the engine's HTTP surface: subscriber accounts and
// their derived service state, live session data from the NAS accounting
// feed, rate-limit previews per NAS vendor, and the payment reconciliation
// queue. All routes live under /api/v1 and return JSON envelopes.
package api
