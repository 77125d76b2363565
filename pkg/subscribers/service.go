package subscribers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Service is the subscriber account store consumed by the API layer, the
// reconciliation engine and the expiry sweeper.
type Service interface {
	GetSubscriber(ctx context.Context, id int64) (*Subscriber, error)
	GetPackage(ctx context.Context, id int64) (*Package, error)
	ListChildren(ctx context.Context, parentID int64) ([]*Subscriber, error)
	CountChildren(ctx context.Context, id int64) (int, error)

	// ResolveEffectiveState loads the subscriber (and its parent when one is
	// declared) and applies the cascade rules.
	ResolveEffectiveState(ctx context.Context, id int64) (*Subscriber, ServiceState, error)

	// SetParent links a subscriber under a parent account, enforcing the
	// depth-one tree invariant. A nil parentID detaches the subscriber.
	SetParent(ctx context.Context, id int64, parentID *int64, independent bool) error

	// SweepExpired marks every active subscriber whose effective expiry
	// (including any extension) is before now as expired, returning the
	// affected IDs. Safe to re-run: already-expired rows do not match.
	SweepExpired(ctx context.Context, now time.Time) ([]int64, error)
}

// PostgresService implements Service using PostgreSQL.
type PostgresService struct {
	db *sql.DB
}

// NewPostgresService creates a new PostgresService.
func NewPostgresService(db *sql.DB) *PostgresService {
	return &PostgresService{db: db}
}

const subscriberColumns = `id, account_no, status, parent_id, is_independent,
	expiry_date, extension_date, balance_cents, package_id, phone, created_at, updated_at`

func scanSubscriber(row interface{ Scan(...any) error }) (*Subscriber, error) {
	var s Subscriber
	var phone sql.NullString
	err := row.Scan(&s.ID, &s.AccountNo, &s.Status, &s.ParentID, &s.IsIndependent,
		&s.ExpiryDate, &s.ExtensionDate, &s.BalanceCents, &s.PackageID, &phone,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Phone = phone.String
	return &s, nil
}

// GetSubscriber retrieves a subscriber by ID.
func (s *PostgresService) GetSubscriber(ctx context.Context, id int64) (*Subscriber, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id)

	sub, err := scanSubscriber(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscriber %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return sub, nil
}

// GetPackage retrieves a package by ID.
func (s *PostgresService) GetPackage(ctx context.Context, id int64) (*Package, error) {
	var p Package
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, validity_days,
		       speed_up, speed_down,
		       COALESCE(burst_limit_up, ''), COALESCE(burst_limit_down, ''),
		       COALESCE(burst_threshold_up, ''), COALESCE(burst_threshold_down, ''),
		       COALESCE(burst_time, ''), COALESCE(priority, 0),
		       COALESCE(min_limit_up, ''), COALESCE(min_limit_down, ''),
		       created_at
		FROM packages WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.ValidityDays,
		&p.SpeedUp, &p.SpeedDown,
		&p.BurstLimitUp, &p.BurstLimitDown,
		&p.BurstThresholdUp, &p.BurstThresholdDown,
		&p.BurstTime, &p.Priority,
		&p.MinLimitUp, &p.MinLimitDown,
		&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("package %d: %w", id, ErrPackageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &p, nil
}

// ListChildren returns the sub-accounts of a parent subscriber.
func (s *PostgresService) ListChildren(ctx context.Context, parentID int64) ([]*Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE parent_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []*Subscriber
	for rows.Next() {
		child, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

// CountChildren returns the number of sub-accounts attached to a subscriber.
func (s *PostgresService) CountChildren(ctx context.Context, id int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE parent_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return count, nil
}

// ResolveEffectiveState loads the subscriber and, when needed, its parent,
// then applies the cascade rules. The parent is always resolved before the
// rules run so the resolver never has to fail closed on live data.
func (s *PostgresService) ResolveEffectiveState(ctx context.Context, id int64) (*Subscriber, ServiceState, error) {
	sub, err := s.GetSubscriber(ctx, id)
	if err != nil {
		return nil, StateInactive, err
	}

	var parent *Subscriber
	if sub.ParentID != nil && !sub.IsIndependent {
		parent, err = s.GetSubscriber(ctx, *sub.ParentID)
		if err != nil {
			return nil, StateInactive, fmt.Errorf("failed to resolve parent: %w", err)
		}
	}

	state, err := EffectiveState(sub, parent)
	if err != nil {
		return nil, StateInactive, err
	}
	return sub, state, nil
}

// SetParent links a subscriber under a parent account. The depth-one tree
// invariant is enforced here: the subscriber must not have children and the
// parent must not itself be a child.
func (s *PostgresService) SetParent(ctx context.Context, id int64, parentID *int64, independent bool) error {
	if parentID != nil {
		if *parentID == id {
			return fmt.Errorf("subscriber %d cannot be its own parent", id)
		}

		childCount, err := s.CountChildren(ctx, id)
		if err != nil {
			return err
		}
		if childCount > 0 {
			return fmt.Errorf("subscriber %d: %w", id, ErrHasChildren)
		}

		parent, err := s.GetSubscriber(ctx, *parentID)
		if err != nil {
			return err
		}
		if parent.ParentID != nil {
			return fmt.Errorf("subscriber %d: %w", *parentID, ErrParentIsChild)
		}
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE subscribers SET parent_id = $2, is_independent = $3, updated_at = NOW()
		WHERE id = $1
	`, id, parentID, independent)
	if err != nil {
		return fmt.Errorf("failed to set parent: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscriber %d: %w", id, ErrNotFound)
	}
	return nil
}

// SweepExpired marks overdue active subscribers as expired.
func (s *PostgresService) SweepExpired(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE subscribers SET status = 'expired', updated_at = NOW()
		WHERE status = 'active'
		  AND GREATEST(expiry_date, COALESCE(extension_date, expiry_date)) < $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep expired subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan swept id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
