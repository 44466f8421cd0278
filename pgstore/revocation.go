package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrEthical07/schoolGuard/revocation"
)

// RevocationStore implements [revocation.Store]. Rows are keyed by token
// fingerprint; the raw token is never stored.
type RevocationStore struct {
	db *sql.DB
}

var _ revocation.Store = (*RevocationStore)(nil)

func (s *RevocationStore) Insert(ctx context.Context, rec revocation.Record) error {
	res, err := s.db.ExecContext(ctx, `
		insert into revoked_tokens(fingerprint, identity_id, expires_at, reason, revoked_by, revoked_at)
		values ($1,$2,$3,$4,$5,$6)
		on conflict (fingerprint) do nothing
	`, revocation.Fingerprint(rec.Token), rec.IdentityID, rec.ExpiresAt.UTC(), string(rec.Reason), nullString(rec.RevokedBy), rec.RevokedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", revocation.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return revocation.ErrAlreadyRevoked
	}
	return nil
}

func (s *RevocationStore) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from revoked_tokens where fingerprint=$1)`, revocation.Fingerprint(token)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", revocation.ErrStoreUnavailable, err)
	}
	return exists, nil
}

func (s *RevocationStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `delete from revoked_tokens where expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", revocation.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", revocation.ErrStoreUnavailable, err)
	}
	return int(n), nil
}
