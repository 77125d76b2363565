package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/derrickgolden/easyisp-engine/pkg/connectivity"
	"github.com/derrickgolden/easyisp-engine/pkg/httputil"
	"github.com/derrickgolden/easyisp-engine/pkg/observability"
	"github.com/derrickgolden/easyisp-engine/pkg/radius"
	"github.com/derrickgolden/easyisp-engine/pkg/subscribers"
)

// SubscriberHandlers serves subscriber accounts, effective service state,
// live session data and rate-limit previews.
type SubscriberHandlers struct {
	service  subscribers.Service
	source   connectivity.StatusSource
	profiles *radius.ProfileSet
	metrics  *observability.Metrics
}

// PolicyEncoder is implemented by service layers that cache encoded
// rate-limit attributes per package and vendor.
type PolicyEncoder interface {
	PolicyString(ctx context.Context, packageID int64, profile *radius.Profile) (string, error)
}

// PackageInvalidator is implemented by service layers that cache package
// state. Packages are edited out-of-band; the eviction endpoint makes the
// next encode see the new QoS columns immediately.
type PackageInvalidator interface {
	InvalidatePackage(ctx context.Context, id int64) error
}

// NewSubscriberHandlers creates handlers for subscriber endpoints.
func NewSubscriberHandlers(service subscribers.Service, source connectivity.StatusSource, profiles *radius.ProfileSet, metrics *observability.Metrics) *SubscriberHandlers {
	if profiles == nil {
		profiles = radius.DefaultProfiles()
	}
	return &SubscriberHandlers{
		service:  service,
		source:   source,
		profiles: profiles,
		metrics:  metrics,
	}
}

// RegisterRoutes registers subscriber routes on the router.
func (h *SubscriberHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/subscribers/{id}", h.GetSubscriber).Methods("GET")
	router.HandleFunc("/subscribers/{id}/status", h.GetStatus).Methods("GET")
	router.HandleFunc("/subscribers/{id}/sessions", h.GetSessions).Methods("GET")
	router.HandleFunc("/subscribers/{id}/children", h.ListChildren).Methods("GET")
	router.HandleFunc("/subscribers/{id}/parent", h.SetParent).Methods("PUT")
	router.HandleFunc("/packages/{id}/rate-limit", h.GetRateLimit).Methods("GET")
	router.HandleFunc("/packages/{id}/cache", h.InvalidatePackageCache).Methods("DELETE")
}

// GetSubscriber returns a single subscriber record.
func (h *SubscriberHandlers) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	sub, err := h.service.GetSubscriber(r.Context(), id)
	if err != nil {
		if errors.Is(err, subscribers.ErrNotFound) {
			httputil.WriteNotFoundError(w, "subscriber not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, sub)
}

// StatusResponse reports the derived service state alongside the raw
// account record.
type StatusResponse struct {
	Subscriber    *subscribers.Subscriber  `json:"subscriber"`
	State         subscribers.ServiceState `json:"state"`
	Role          subscribers.AccountRole  `json:"role"`
	ExpiresAt     time.Time                `json:"expires_at"`
	DaysRemaining int                      `json:"days_remaining"`
}

// GetStatus returns the subscriber's effective service state after the
// parent cascade, with the paid window that produced it.
func (h *SubscriberHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	sub, state, err := h.service.ResolveEffectiveState(r.Context(), id)
	if err != nil {
		if errors.Is(err, subscribers.ErrNotFound) {
			httputil.WriteNotFoundError(w, "subscriber not found")
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	expiry := sub.EffectiveExpiry()
	days, err := subscribers.DaysRemaining(expiry, time.Now())
	if err != nil {
		// Zero expiry means the account never had a paid window.
		days = 0
	}

	childCount, err := h.service.CountChildren(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, StatusResponse{
		Subscriber:    sub,
		State:         state,
		Role:          subscribers.Role(sub, childCount),
		ExpiresAt:     expiry,
		DaysRemaining: days,
	})
}

// GetSessions returns the subscriber's live connection state from the NAS
// accounting feed.
func (h *SubscriberHandlers) GetSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if h.source == nil {
		httputil.WriteServiceUnavailable(w, "accounting feed not configured")
		return
	}

	status, err := h.source.SubscriberStatus(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, status)
}

// ListChildren returns the sub-accounts linked under a parent account.
func (h *SubscriberHandlers) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	children, err := h.service.ListChildren(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if children == nil {
		children = []*subscribers.Subscriber{}
	}

	httputil.WriteSuccess(w, children)
}

// SetParentRequest links (or, with a null parent_id, detaches) a subscriber
// under a parent account.
type SetParentRequest struct {
	ParentID    *int64 `json:"parent_id"`
	Independent bool   `json:"independent"`
}

// SetParent updates the subscriber's parent link.
func (h *SubscriberHandlers) SetParent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req SetParentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := h.service.SetParent(r.Context(), id, req.ParentID, req.Independent); err != nil {
		switch {
		case errors.Is(err, subscribers.ErrNotFound):
			httputil.WriteNotFoundError(w, "subscriber not found")
		case errors.Is(err, subscribers.ErrHasChildren):
			httputil.WriteConflict(w, err.Error())
		case errors.Is(err, subscribers.ErrParentIsChild):
			httputil.WriteConflict(w, err.Error())
		default:
			httputil.WriteInternalError(w, err)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// RateLimitResponse carries the encoded attribute for one NAS vendor.
type RateLimitResponse struct {
	PackageID int64  `json:"package_id"`
	Vendor    string `json:"vendor"`
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// GetRateLimit encodes the package's QoS columns into the vendor's
// rate-limit attribute and returns it without provisioning anything.
func (h *SubscriberHandlers) GetRateLimit(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	vendor := httputil.ParseQueryString(r, "vendor", "mikrotik")

	profile, err := h.profiles.Lookup(vendor)
	if err != nil {
		httputil.WriteNotFoundError(w, "unknown vendor profile: "+vendor)
		return
	}

	value, err := h.encodePolicy(r.Context(), id, profile)
	if err != nil {
		switch {
		case errors.Is(err, subscribers.ErrPackageNotFound) || errors.Is(err, subscribers.ErrNotFound):
			httputil.WriteNotFoundError(w, "package not found")
		case errors.Is(err, radius.ErrInvalidBandwidthToken),
			errors.Is(err, radius.ErrInvalidTimeToken),
			errors.Is(err, radius.ErrInvalidPriority):
			if h.metrics != nil {
				h.metrics.PolicyRejectsTotal.WithLabelValues(rejectReason(err)).Inc()
			}
			httputil.WriteValidationError(w, err.Error())
		default:
			httputil.WriteInternalError(w, err)
		}
		return
	}
	if h.metrics != nil {
		h.metrics.PolicyEncodesTotal.WithLabelValues(vendor).Inc()
	}

	httputil.WriteSuccess(w, RateLimitResponse{
		PackageID: id,
		Vendor:    vendor,
		Attribute: profile.Attribute,
		Value:     value,
	})
}

// encodePolicy goes through the service's policy cache when it has one and
// falls back to a direct encode otherwise.
func (h *SubscriberHandlers) encodePolicy(ctx context.Context, packageID int64, profile *radius.Profile) (string, error) {
	if enc, ok := h.service.(PolicyEncoder); ok {
		return enc.PolicyString(ctx, packageID, profile)
	}

	pkg, err := h.service.GetPackage(ctx, packageID)
	if err != nil {
		return "", err
	}
	return profile.EncodeFor(pkg.QoS())
}

// InvalidatePackageCache evicts a package's cached record and encoded
// policies. A no-op on uncached deployments.
func (h *SubscriberHandlers) InvalidatePackageCache(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if inv, ok := h.service.(PackageInvalidator); ok {
		if err := inv.InvalidatePackage(r.Context(), id); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}

	httputil.WriteNoContent(w)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, radius.ErrInvalidBandwidthToken):
		return "bandwidth"
	case errors.Is(err, radius.ErrInvalidTimeToken):
		return "time"
	case errors.Is(err, radius.ErrInvalidPriority):
		return "priority"
	default:
		return "other"
	}
}
