package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/bayanwatch/patrol-server/internal/ingest"
	"github.com/bayanwatch/patrol-server/internal/models"
	"github.com/bayanwatch/patrol-server/internal/report"
)

const (
	tableBarangays    = "barangays"
	tableConcernTypes = "concern_types"
)

// CatalogService manages the barangay and concern-type reference
// catalogs.
type CatalogService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(db *pgxpool.Pool, logger *zap.SugaredLogger) *CatalogService {
	return &CatalogService{db: db, logger: logger}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ListBarangays returns the barangay catalog, optionally filtered by
// municipality.
func (s *CatalogService) ListBarangays(ctx context.Context, municipality string) ([]models.Barangay, error) {
	q := builder().Select("id", "name", "municipality").From(tableBarangays).OrderBy("municipality", "name")
	if municipality != "" {
		q = q.Where(squirrel.Eq{"municipality": municipality})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build barangay query: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list barangays: %w", err)
	}
	defer rows.Close()

	var out []models.Barangay
	for rows.Next() {
		var b models.Barangay
		if err := rows.Scan(&b.ID, &b.Name, &b.Municipality); err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListConcernTypes returns the concern-type catalog, optionally
// filtered by municipality.
func (s *CatalogService) ListConcernTypes(ctx context.Context, municipality string) ([]models.ConcernType, error) {
	q := builder().Select("id", "name", "municipality").From(tableConcernTypes).OrderBy("municipality", "name")
	if municipality != "" {
		q = q.Where(squirrel.Eq{"municipality": municipality})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build concern type query: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list concern types: %w", err)
	}
	defer rows.Close()

	var out []models.ConcernType
	for rows.Next() {
		var c models.ConcernType
		if err := rows.Scan(&c.ID, &c.Name, &c.Municipality); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ImportBarangays upserts catalog rows, returning how many were
// inserted. Duplicates are ignored, not errors: reference imports are
// re-run whole whenever the source sheet changes.
func (s *CatalogService) ImportBarangays(ctx context.Context, rows []ingest.CatalogRow, defaultMunicipality string) (int, error) {
	return s.importCatalog(ctx, tableBarangays, rows, defaultMunicipality)
}

// ImportConcernTypes upserts concern-type rows.
func (s *CatalogService) ImportConcernTypes(ctx context.Context, rows []ingest.CatalogRow, defaultMunicipality string) (int, error) {
	return s.importCatalog(ctx, tableConcernTypes, rows, defaultMunicipality)
}

func (s *CatalogService) importCatalog(ctx context.Context, table string, rows []ingest.CatalogRow, defaultMunicipality string) (int, error) {
	inserted := 0
	for _, row := range rows {
		municipality := row.Municipality
		if municipality == "" {
			municipality = defaultMunicipality
		}
		sql, args, err := builder().
			Insert(table).
			Columns("name", "municipality").
			Values(row.Name, municipality).
			Suffix("ON CONFLICT (name, municipality) DO NOTHING").
			ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build catalog insert: %w", err)
		}
		tag, err := s.db.Exec(ctx, sql, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Resolver loads the whole barangay catalog into a case-insensitive
// lookup for municipality resolution during summarization.
func (s *CatalogService) Resolver(ctx context.Context) (report.BarangayResolver, error) {
	all, err := s.ListBarangays(ctx, "")
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(all))
	for _, b := range all {
		byName[strings.ToLower(b.Name)] = b.Municipality
	}
	return report.ResolverFunc(func(name string) (string, bool) {
		m, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		return m, ok
	}), nil
}
