package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
	"github.com/chrishsmith/sourcify-sub007/internal/service"
)

// SaveClassificationRecord appends one classification to the audit history.
func (s *SQLiteStorage) SaveClassificationRecord(ctx context.Context, record *model.ClassificationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrEmptyString)
	}
	if err := validateString(record.ID, "record.ID"); err != nil {
		return err
	}
	if err := validateString(record.PrimaryCode, "record.PrimaryCode"); err != nil {
		return err
	}

	hints, err := json.Marshal(record.Hints)
	if err != nil {
		return fmt.Errorf("failed to marshal hints: %w", err)
	}
	var alternatives []byte
	if len(record.Alternatives) > 0 {
		alternatives, err = json.Marshal(record.Alternatives)
		if err != nil {
			return fmt.Errorf("failed to marshal alternatives: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classification_history (
			id, description, hints, primary_code, confidence, alternatives,
			needs_clarification, oracle_degraded, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Description, string(hints), record.PrimaryCode,
		record.Confidence, nullableString(string(alternatives)),
		record.NeedsClarification, record.OracleDegraded, record.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert classification record: %w", err)
	}
	return nil
}

// GetClassificationRecords returns history records, newest first, honoring
// the filter's since/limit/offset.
func (s *SQLiteStorage) GetClassificationRecords(ctx context.Context, filter service.RecordFilter) ([]model.ClassificationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, description, hints, primary_code, confidence, alternatives,
		       needs_clarification, oracle_degraded, created_at
		FROM classification_history
	`
	var args []any
	if filter.Since != nil {
		query += ` WHERE created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ClassificationRecord
	for rows.Next() {
		var (
			r            model.ClassificationRecord
			hints        sql.NullString
			alternatives sql.NullString
		)
		if err = rows.Scan(&r.ID, &r.Description, &hints, &r.PrimaryCode, &r.Confidence,
			&alternatives, &r.NeedsClarification, &r.OracleDegraded, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification record: %w", err)
		}
		if hints.Valid && hints.String != "" {
			if err = json.Unmarshal([]byte(hints.String), &r.Hints); err != nil {
				return nil, fmt.Errorf("failed to unmarshal hints for %s: %w", r.ID, err)
			}
		}
		if alternatives.Valid && alternatives.String != "" {
			if err = json.Unmarshal([]byte(alternatives.String), &r.Alternatives); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alternatives for %s: %w", r.ID, err)
			}
		}
		r.CreatedAt = r.CreatedAt.UTC()
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classification history: %w", err)
	}
	return records, nil
}
