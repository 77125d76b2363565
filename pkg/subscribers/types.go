package subscribers

import (
	"time"

	"github.com/derrickgolden/easyisp-engine/pkg/radius"
)

// Status is the stored, owner-set account status.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

// ServiceState is the derived state after applying the parent cascade.
type ServiceState string

const (
	StateActive   ServiceState = "ACTIVE"
	StateInactive ServiceState = "INACTIVE"
)

// AccountRole classifies an account's position in the (depth-capped) tree.
type AccountRole string

const (
	RoleStandalone AccountRole = "standalone"
	RoleParent     AccountRole = "parent"
	RoleChild      AccountRole = "child"
)

// Subscriber is a billed network account.
type Subscriber struct {
	ID            int64      `json:"id"`
	AccountNo     string     `json:"account_no"`
	Status        Status     `json:"status"`
	ParentID      *int64     `json:"parent_id,omitempty"`
	IsIndependent bool       `json:"is_independent"`
	ExpiryDate    time.Time  `json:"expiry_date"`
	ExtensionDate *time.Time `json:"extension_date,omitempty"`
	BalanceCents  int64      `json:"balance_cents"`
	PackageID     int64      `json:"package_id"`
	Phone         string     `json:"phone,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// EffectiveExpiry returns the end of the subscriber's paid window. An
// operator-granted extension pushes the window out past the billed expiry.
func (s *Subscriber) EffectiveExpiry() time.Time {
	if s.ExtensionDate != nil && s.ExtensionDate.After(s.ExpiryDate) {
		return *s.ExtensionDate
	}
	return s.ExpiryDate
}

// Package is a QoS/billing plan.
type Package struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	ValidityDays int    `json:"validity_days"`

	SpeedUp            string `json:"speed_up"`
	SpeedDown          string `json:"speed_down"`
	BurstLimitUp       string `json:"burst_limit_up,omitempty"`
	BurstLimitDown     string `json:"burst_limit_down,omitempty"`
	BurstThresholdUp   string `json:"burst_threshold_up,omitempty"`
	BurstThresholdDown string `json:"burst_threshold_down,omitempty"`
	BurstTime          string `json:"burst_time,omitempty"`
	Priority           int    `json:"priority,omitempty"`
	MinLimitUp         string `json:"min_limit_up,omitempty"`
	MinLimitDown       string `json:"min_limit_down,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// QoS maps the package's bandwidth columns onto a rate-limit policy.
func (p *Package) QoS() radius.Policy {
	return radius.Policy{
		SpeedUp:            p.SpeedUp,
		SpeedDown:          p.SpeedDown,
		BurstLimitUp:       p.BurstLimitUp,
		BurstLimitDown:     p.BurstLimitDown,
		BurstThresholdUp:   p.BurstThresholdUp,
		BurstThresholdDown: p.BurstThresholdDown,
		BurstTime:          p.BurstTime,
		Priority:           p.Priority,
		MinLimitUp:         p.MinLimitUp,
		MinLimitDown:       p.MinLimitDown,
	}
}
