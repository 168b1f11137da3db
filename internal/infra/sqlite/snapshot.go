package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/squadplanner/squadxp/internal/domain"
)

// ─── Snapshots ──────────────────────────────────────────────────────────────

// SaveSnapshot upserts the snapshot row and records any newly unlocked
// achievements in one transaction. Stored achievements are never removed.
func (d *DB) SaveSnapshot(namespace string, snap domain.Snapshot) error {
	stats, err := json.Marshal(snap.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.Exec(
		`INSERT INTO snapshots (namespace, xp, level, stats, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET
			xp=excluded.xp,
			level=excluded.level,
			stats=excluded.stats,
			updated_at=excluded.updated_at`,
		namespace, snap.XP, snap.Level, string(stats), now,
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	for _, id := range snap.UnlockedAchievements {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO achievements (namespace, id, unlocked_at) VALUES (?, ?, ?)`,
			namespace, id, now,
		); err != nil {
			return fmt.Errorf("insert achievement %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads the snapshot for namespace.
// Returns domain.ErrSnapshotNotFound if nothing was ever saved.
func (d *DB) LoadSnapshot(namespace string) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var stats string

	err := d.db.QueryRow(
		`SELECT xp, level, stats FROM snapshots WHERE namespace = ?`, namespace,
	).Scan(&snap.XP, &snap.Level, &stats)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stats), &snap.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	snap.UnlockedAchievements, err = d.ListUnlockedAchievements(namespace)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ─── Achievements ───────────────────────────────────────────────────────────

// ListUnlockedAchievements returns achievement ids in unlock order.
func (d *DB) ListUnlockedAchievements(namespace string) ([]string, error) {
	rows, err := d.db.Query(
		`SELECT id FROM achievements WHERE namespace = ? ORDER BY rowid ASC`, namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockedAchievementCount returns the number of unlocked achievements.
func (d *DB) UnlockedAchievementCount(namespace string) (int, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM achievements WHERE namespace = ?`, namespace,
	).Scan(&count)
	return count, err
}
