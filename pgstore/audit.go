package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	schoolGuard "github.com/MrEthical07/schoolGuard"
)

// AuditStore persists audit entries. It implements [schoolGuard.AuditSink],
// [schoolGuard.AuditPurger] and [schoolGuard.AuditChainHead].
type AuditStore struct {
	db *sql.DB
}

var (
	_ schoolGuard.AuditSink      = (*AuditStore)(nil)
	_ schoolGuard.AuditPurger    = (*AuditStore)(nil)
	_ schoolGuard.AuditChainHead = (*AuditStore)(nil)
)

func (s *AuditStore) Write(ctx context.Context, entry schoolGuard.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	if entry.Metadata == nil {
		metadata = []byte("{}")
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_entries(id, actor_id, action, description, target_id, metadata, ts, prev_hash, hash)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, nullString(entry.ActorID), entry.Action, entry.Description, nullString(entry.TargetID),
		string(metadata), entry.Timestamp.UTC(), nullString(entry.PrevHash), entry.Hash)
	return err
}

// PurgeBefore deletes entries with a timestamp before cutoff.
func (s *AuditStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `delete from audit_entries where ts < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// LastHash returns the hash of the newest entry, or "" for an empty trail.
func (s *AuditStore) LastHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `select hash from audit_entries order by seq desc limit 1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// List returns up to limit entries in write order starting after seq.
func (s *AuditStore) List(ctx context.Context, afterSeq int64, limit int) ([]schoolGuard.AuditEntry, int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		select seq, id, actor_id, action, description, target_id, metadata, ts, prev_hash, hash
		from audit_entries
		where seq > $1
		order by seq
		limit $2
	`, afterSeq, limit)
	if err != nil {
		return nil, afterSeq, err
	}
	defer rows.Close()

	var (
		out  []schoolGuard.AuditEntry
		last = afterSeq
	)
	for rows.Next() {
		var (
			e                   schoolGuard.AuditEntry
			actor, target, prev sql.NullString
			metadata            []byte
		)
		if err := rows.Scan(&last, &e.ID, &actor, &e.Action, &e.Description, &target, &metadata, &e.Timestamp, &prev, &e.Hash); err != nil {
			return nil, afterSeq, err
		}
		e.ActorID, e.TargetID, e.PrevHash = actor.String, target.String, prev.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, afterSeq, err
			}
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	return out, last, rows.Err()
}
