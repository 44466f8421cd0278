package pgstore

import (
	"context"
	"database/sql"
	"errors"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// IdentityStore implements [schoolGuard.IdentityStore].
type IdentityStore struct {
	db *sql.DB
}

var _ schoolGuard.IdentityStore = (*IdentityStore)(nil)

const identityColumns = `id, email, role, secret_hash, failed_login_attempts, last_failed_login_at, lockout_until`

func (s *IdentityStore) FindByID(ctx context.Context, id string) (*schoolGuard.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from identities where id=$1`, id)
	return scanIdentity(row)
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (*schoolGuard.Identity, error) {
	row := s.db.QueryRowContext(ctx, `select `+identityColumns+` from identities where lower(email)=lower($1)`, email)
	return scanIdentity(row)
}

// UpdateLockoutState writes the three lockout columns in one statement.
func (s *IdentityStore) UpdateLockoutState(ctx context.Context, id string, state schoolGuard.LockoutState) error {
	res, err := s.db.ExecContext(ctx, `
		update identities
		set failed_login_attempts=$2, last_failed_login_at=$3, lockout_until=$4
		where id=$1
	`, id, state.FailedLoginAttempts, nullTime(state.LastFailedLoginAt), nullTime(state.LockoutUntil))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return schoolGuard.ErrIdentityNotFound
	}
	return nil
}

// Create inserts identity with a zero lockout state.
func (s *IdentityStore) Create(ctx context.Context, identity schoolGuard.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		insert into identities(id, email, role, secret_hash)
		values ($1,$2,$3,$4)
	`, identity.ID, identity.Email, string(identity.Role), identity.SecretHash)
	return err
}

func scanIdentity(row *sql.Row) (*schoolGuard.Identity, error) {
	var (
		out        schoolGuard.Identity
		role       string
		lastFailed sql.NullTime
		lockedTill sql.NullTime
	)
	err := row.Scan(&out.ID, &out.Email, &role, &out.SecretHash, &out.FailedLoginAttempts, &lastFailed, &lockedTill)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schoolGuard.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	out.Role = schoolGuard.Role(role)
	out.LastFailedLoginAt = timePtr(lastFailed)
	out.LockoutUntil = timePtr(lockedTill)
	return &out, nil
}
