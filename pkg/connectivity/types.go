package connectivity

import (
	"context"
	"time"
)

// Session is a single accounting session reported by the NAS feed.
type Session struct {
	AcctStartTime      time.Time  `json:"acctstarttime"`
	AcctStopTime       *time.Time `json:"acctstoptime,omitempty"`
	AcctInputOctets    int64      `json:"acctinputoctets"`
	AcctOutputOctets   int64      `json:"acctoutputoctets"`
	AcctTerminateCause string     `json:"acctterminatecause,omitempty"`
}

// TechnicalStatus is the subscriber's live connection state as reported by
// the NAS accounting feed.
type TechnicalStatus struct {
	IsOnline  bool       `json:"is_online"`
	StartTime *time.Time `json:"start_time,omitempty"`
	FramedIP  string     `json:"framed_ip,omitempty"`
	Sessions  []Session  `json:"sessions"`
}

// StatusSource is the external feed contract. Implementations talk to the
// RADIUS accounting backend; this package only consumes the result.
type StatusSource interface {
	SubscriberStatus(ctx context.Context, subscriberID int64) (*TechnicalStatus, error)
}
