package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

const scheduleRevisionKey = "schedule_revision"

// SaveNodes replaces the stored schedule snapshot with the given nodes and
// records the revision. The swap is atomic: readers see either the old
// snapshot or the new one, never a mix.
func (s *SQLiteStorage) SaveNodes(ctx context.Context, nodes []model.HtsNode, revision string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(revision, "revision"); err != nil {
		return err
	}
	for i := range nodes {
		if err := nodes[i].Validate(); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM hts_nodes`); err != nil {
		return fmt.Errorf("failed to clear schedule snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hts_nodes (code, level, description, parent_code, general_rate, special_rates, revision)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range nodes {
		n := &nodes[i]
		var specials []byte
		if len(n.SpecialRates) > 0 {
			specials, err = json.Marshal(n.SpecialRates)
			if err != nil {
				return fmt.Errorf("failed to marshal special rates for %s: %w", n.Code, err)
			}
		}
		if _, err = stmt.ExecContext(ctx,
			n.Code, string(n.Level), n.Description, n.ParentCode,
			n.GeneralRate, nullableString(string(specials)), revision,
		); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.Code, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO schedule_meta (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, scheduleRevisionKey, revision); err != nil {
		return fmt.Errorf("failed to record schedule revision: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule snapshot: %w", err)
	}
	return nil
}

// GetAllNodes returns the full stored schedule snapshot.
func (s *SQLiteStorage) GetAllNodes(ctx context.Context) ([]model.HtsNode, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, level, description, parent_code, general_rate, special_rates, revision
		FROM hts_nodes
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []model.HtsNode
	for rows.Next() {
		node, scanErr := scanNode(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		nodes = append(nodes, *node)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return nodes, nil
}

// GetNode returns one node by its canonical code.
func (s *SQLiteStorage) GetNode(ctx context.Context, code string) (*model.HtsNode, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT code, level, description, parent_code, general_rate, special_rates, revision
		FROM hts_nodes
		WHERE code = ?
	`, code)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: node %s", ErrNotFound, code)
	}
	return node, err
}

// GetScheduleRevision returns the revision identifier of the stored snapshot,
// or empty when no schedule has been imported.
func (s *SQLiteStorage) GetScheduleRevision(ctx context.Context) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	var revision string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM schedule_meta WHERE key = ?`, scheduleRevisionKey,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schedule revision: %w", err)
	}
	return revision, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*model.HtsNode, error) {
	var (
		node     model.HtsNode
		level    string
		specials sql.NullString
	)
	if err := row.Scan(&node.Code, &level, &node.Description, &node.ParentCode,
		&node.GeneralRate, &specials, &node.Revision); err != nil {
		return nil, err
	}
	node.Level = model.HtsLevel(level)

	if specials.Valid && specials.String != "" {
		if err := json.Unmarshal([]byte(specials.String), &node.SpecialRates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal special rates for %s: %w", node.Code, err)
		}
	}
	return &node, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
