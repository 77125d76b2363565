package connectivity

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSource reads subscriber sessions from the RADIUS accounting
// table. The table is owned by the AAA stack; the engine only ever reads
// from it, so point this at a replica where one exists.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgresSource creates a status source over the accounting database.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// SubscriberStatus reports the subscriber's most recent sessions, newest
// first. The subscriber is online when an open session exists (no stop
// time); the reported start time and framed IP come from that session.
func (s *PostgresSource) SubscriberStatus(ctx context.Context, subscriberID int64) (*TechnicalStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT acctstarttime, acctstoptime, framedipaddress,
			COALESCE(acctinputoctets, 0), COALESCE(acctoutputoctets, 0),
			COALESCE(acctterminatecause, '')
		FROM radacct
		WHERE username = (SELECT account_no FROM subscribers WHERE id = $1)
		ORDER BY acctstarttime DESC
		LIMIT 10
	`, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounting sessions: %w", err)
	}
	defer rows.Close()

	status := &TechnicalStatus{Sessions: []Session{}}
	for rows.Next() {
		var (
			sess     Session
			stopTime sql.NullTime
			framedIP sql.NullString
		)
		if err := rows.Scan(&sess.AcctStartTime, &stopTime, &framedIP,
			&sess.AcctInputOctets, &sess.AcctOutputOctets, &sess.AcctTerminateCause); err != nil {
			return nil, fmt.Errorf("failed to scan accounting session: %w", err)
		}
		if stopTime.Valid {
			t := stopTime.Time
			sess.AcctStopTime = &t
		}
		status.Sessions = append(status.Sessions, sess)

		if !stopTime.Valid && !status.IsOnline {
			status.IsOnline = true
			start := sess.AcctStartTime
			status.StartTime = &start
			if framedIP.Valid {
				status.FramedIP = framedIP.String
			}
		}
	}
	return status, rows.Err()
}
