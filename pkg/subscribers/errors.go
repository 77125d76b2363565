package subscribers

import "errors"

var (
	// ErrNotFound indicates an unknown subscriber or package.
	ErrNotFound = errors.New("subscriber not found")

	// ErrPackageNotFound indicates an unknown package.
	ErrPackageNotFound = errors.New("package not found")

	// ErrInvalidDate indicates a malformed or zero expiry date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrParentNotResolved indicates a subscriber with a declared parent was
	// evaluated without the parent record. The resolver fails closed in this
	// case; callers must resolve the parent first.
	ErrParentNotResolved = errors.New("parent account not resolved")

	// ErrHasChildren rejects turning an account that already has sub-accounts
	// into a child. The account tree is at most one level deep.
	ErrHasChildren = errors.New("account has sub-accounts and cannot be assigned a parent")

	// ErrParentIsChild rejects a parent that is itself a child account.
	ErrParentIsChild = errors.New("parent account is itself a sub-account")
)
