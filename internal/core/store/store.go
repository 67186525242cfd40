// Package store persists compiled-ruleset provenance and classification
// results. It is the audit-trail surface consumed by external reporters:
// callers only see flat result rows and named counts, never the engine's
// scoring internals.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/solatis/docketkeeper/internal/classify"
	"github.com/solatis/docketkeeper/internal/core/db"
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

// Store wraps named queries over the classification schema.
type Store struct {
	queries *db.Queries
}

// New creates a store over loaded queries.
func New(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

// ResultRow is the flat database representation of one classification.
// List-typed result fields are stored as JSON text for portability between
// SQLite and PostgreSQL.
type ResultRow struct {
	DocumentID       string  `db:"document_id"`
	RunID            string  `db:"run_id"`
	RulesetHash      string  `db:"ruleset_hash"`
	PrimaryClass     string  `db:"primary_class"`
	SecondaryClasses string  `db:"secondary_classes"`
	Procedures       string  `db:"procedures"`
	RulesConfidence  float64 `db:"rules_confidence"`
	RulesStatus      string  `db:"rules_status"`
	IsSuspect        bool    `db:"is_suspect"`
	IsIrrelevant     bool    `db:"is_irrelevant"`
	IsEquivalent     bool    `db:"is_equivalent"`
	DiscardFlags     string  `db:"discard_flags"`
	Evidence         string  `db:"evidence"`
	CreatedAt        string  `db:"created_at"`
}

// StatusCount is one row of the per-run status breakdown.
type StatusCount struct {
	RulesStatus string `db:"rules_status"`
	N           int64  `db:"n"`
}

// SaveRuleset records compiled-ruleset provenance, idempotently by hash.
func (s *Store) SaveRuleset(rs *ruleset.CompiledRuleset) error {
	warnings, err := json.Marshal(rs.Warnings)
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}
	_, err = s.queries.Exec("insert-ruleset",
		rs.Hash,
		rs.Provenance.JurisdictionID,
		rs.Provenance.CoreVersion,
		rs.Provenance.OverlayVersion,
		rs.Provenance.CompiledAt.Format(time.RFC3339),
		string(warnings),
	)
	if err != nil {
		return fmt.Errorf("failed to save ruleset %s: %w", rs.Hash, err)
	}
	return nil
}

// SaveResult persists one classification result under a run id.
func (s *Store) SaveResult(runID types.RunID, result classify.Result) error {
	secondary, err := json.Marshal(result.SecondaryClasses)
	if err != nil {
		return fmt.Errorf("failed to encode secondary classes: %w", err)
	}
	procedures, err := json.Marshal(result.Procedures)
	if err != nil {
		return fmt.Errorf("failed to encode procedures: %w", err)
	}
	flags, err := json.Marshal(result.DiscardFlags)
	if err != nil {
		return fmt.Errorf("failed to encode discard flags: %w", err)
	}
	evidence, err := json.Marshal(result.Evidence)
	if err != nil {
		return fmt.Errorf("failed to encode evidence: %w", err)
	}

	_, err = s.queries.Exec("insert-result",
		string(result.DocumentID),
		string(runID),
		result.RulesetHash,
		result.PrimaryClass,
		string(secondary),
		string(procedures),
		result.RulesConfidence,
		string(result.RulesStatus),
		result.IsSuspect,
		result.IsIrrelevant,
		result.IsEquivalent,
		string(flags),
		string(evidence),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save result for document %s: %w", result.DocumentID, err)
	}
	return nil
}

// ListResults returns all results of a run in insertion order.
func (s *Store) ListResults(runID types.RunID) ([]ResultRow, error) {
	var rows []ResultRow
	if err := s.queries.Select("list-results-by-run", &rows, string(runID)); err != nil {
		return nil, fmt.Errorf("failed to list results for run %s: %w", runID, err)
	}
	return rows, nil
}

// StatusBreakdown returns per-status result counts for a run.
func (s *Store) StatusBreakdown(runID types.RunID) ([]StatusCount, error) {
	var counts []StatusCount
	if err := s.queries.Select("count-results-by-status", &counts, string(runID)); err != nil {
		return nil, fmt.Errorf("failed to count results for run %s: %w", runID, err)
	}
	return counts, nil
}

// SuspectCount returns how many results of a run are flagged suspect.
func (s *Store) SuspectCount(runID types.RunID) (int64, error) {
	var row struct {
		N int64 `db:"n"`
	}
	if err := s.queries.Get("count-suspect-results", &row, string(runID)); err != nil {
		return 0, fmt.Errorf("failed to count suspect results for run %s: %w", runID, err)
	}
	return row.N, nil
}
