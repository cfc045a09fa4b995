package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chrishsmith/sourcify-sub007/internal/model"
)

// SaveLayers replaces the stored tariff layer catalog.
func (s *SQLiteStorage) SaveLayers(ctx context.Context, layers []model.TariffLayer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range layers {
		if err := layers[i].Validate(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tariff_layers`); err != nil {
		return fmt.Errorf("failed to clear layer catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tariff_layers (
			program_id, scope_pattern, countries_all, countries_include, countries_exclude,
			rate, effective_from, effective_to, precedence_class, exclusion_flag, live_rate, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range layers {
		l := &layers[i]
		if _, err = stmt.ExecContext(ctx,
			l.ProgramID, l.ScopePattern, l.Countries.All,
			nullableString(strings.Join(l.Countries.Include, ",")),
			nullableString(strings.Join(l.Countries.Exclude, ",")),
			l.Rate, nullableTime(l.EffectiveFrom), nullableTime(l.EffectiveTo),
			l.PrecedenceClass, l.ExclusionFlag, l.LiveRate, l.Source,
		); err != nil {
			return fmt.Errorf("failed to insert layer %s/%s: %w", l.ProgramID, l.ScopePattern, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit layer catalog: %w", err)
	}
	return nil
}

// GetAllLayers returns the full stored layer catalog.
func (s *SQLiteStorage) GetAllLayers(ctx context.Context) ([]model.TariffLayer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryLayers(ctx, `
		SELECT program_id, scope_pattern, countries_all, countries_include, countries_exclude,
		       rate, effective_from, effective_to, precedence_class, exclusion_flag, live_rate, source
		FROM tariff_layers
		ORDER BY program_id, scope_pattern, id
	`)
}

// GetLayersByProgram returns the stored layers for one duty program.
func (s *SQLiteStorage) GetLayersByProgram(ctx context.Context, programID string) ([]model.TariffLayer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(programID, "programID"); err != nil {
		return nil, err
	}
	return s.queryLayers(ctx, `
		SELECT program_id, scope_pattern, countries_all, countries_include, countries_exclude,
		       rate, effective_from, effective_to, precedence_class, exclusion_flag, live_rate, source
		FROM tariff_layers
		WHERE program_id = ?
		ORDER BY scope_pattern, id
	`, programID)
}

func (s *SQLiteStorage) queryLayers(ctx context.Context, query string, args ...any) ([]model.TariffLayer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query layers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var layers []model.TariffLayer
	for rows.Next() {
		var (
			l                model.TariffLayer
			include, exclude sql.NullString
			from, to         sql.NullTime
			source           sql.NullString
		)
		if err = rows.Scan(&l.ProgramID, &l.ScopePattern, &l.Countries.All, &include, &exclude,
			&l.Rate, &from, &to, &l.PrecedenceClass, &l.ExclusionFlag, &l.LiveRate, &source); err != nil {
			return nil, fmt.Errorf("failed to scan layer: %w", err)
		}
		l.Countries.Include = splitList(include)
		l.Countries.Exclude = splitList(exclude)
		l.EffectiveFrom = parseTimePtr(from)
		l.EffectiveTo = parseTimePtr(to)
		l.Source = source.String
		layers = append(layers, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate layers: %w", err)
	}
	return layers, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func parseTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

func splitList(v sql.NullString) []string {
	if !v.Valid || v.String == "" {
		return nil
	}
	return strings.Split(v.String, ",")
}
