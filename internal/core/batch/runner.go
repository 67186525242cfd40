// Package batch drives classification of a directory of extracted documents
// against one shared compiled ruleset.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/solatis/docketkeeper/internal/classify"
	"github.com/solatis/docketkeeper/internal/core/config"
	"github.com/solatis/docketkeeper/internal/core/store"
	"github.com/solatis/docketkeeper/internal/ruleset"
	"github.com/solatis/docketkeeper/internal/types"
)

/*
 * Batch classification runner.
 *
 * The natural concurrency unit is one document per goroutine: classify is a
 * pure, CPU-only computation over an immutable shared ruleset, so a bounded
 * worker pool fans documents out with no locking around the ruleset itself.
 *
 * Output is two-tier: the database (when configured) is the source of
 * truth; daily JSONL files are a best-effort debugging aid. JSONL may
 * contain results the database rejected. Per-file mutexes serialize
 * concurrent appends to the same daily file.
 */

// Runner classifies document files against one compiled ruleset.
type Runner struct {
	rs  *ruleset.CompiledRuleset
	cfg *config.ClassifierConfig
	st  *store.Store // nil disables persistence
	log *logrus.Logger

	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// Summary aggregates one batch run.
type Summary struct {
	RunID     types.RunID    `json:"run_id"`
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	Suspect   int            `json:"suspect"`
	Failed    int            `json:"failed"`
	Ruleset   string         `json:"ruleset_hash"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// NewRunner creates a runner. Auto-creates the results directory.
func NewRunner(rs *ruleset.CompiledRuleset, cfg *config.ClassifierConfig, st *store.Store, log *logrus.Logger) (*Runner, error) {
	if rs == nil {
		return nil, fmt.Errorf("ruleset cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("log cannot be nil")
	}

	resultsDir := filepath.Join(cfg.DataDir, "results")
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return nil, err
	}

	return &Runner{
		rs:           rs,
		cfg:          cfg,
		st:           st,
		log:          log,
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

// Run classifies every document JSON file in inputDir on a bounded worker
// pool and returns the aggregated summary. Individual document failures are
// logged and counted, never fatal to the run.
func (r *Runner) Run(ctx context.Context, inputDir string) (*Summary, error) {
	paths, err := listDocumentFiles(inputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) > r.cfg.MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds maximum of %d documents", len(paths), r.cfg.MaxBatchSize)
	}

	runID := types.NewRunID()
	start := time.Now()

	if r.st != nil {
		if err := r.st.SaveRuleset(r.rs); err != nil {
			return nil, err
		}
	}

	// All results of a run append to the same daily file even when the run
	// spans midnight
	jsonlFilename := filepath.Join(r.cfg.DataDir, "results", start.UTC().Format("2006-01-02")+".jsonl")
	jsonlMutex := r.getJSONLMutex(jsonlFilename)

	r.log.WithFields(logrus.Fields{
		"run_id":       runID,
		"documents":    len(paths),
		"workers":      r.cfg.Workers,
		"ruleset_hash": r.rs.Hash,
		"jurisdiction": r.rs.Provenance.JurisdictionID,
	}).Info("starting batch classification")

	type outcome struct {
		status  classify.Status
		suspect bool
		failed  bool
	}

	jobs := make(chan string)
	outcomes := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := r.processDocument(runID, path, jsonlFilename, jsonlMutex)
				if err != nil {
					r.log.WithError(err).WithField("path", path).Warn("document failed")
					outcomes <- outcome{failed: true}
					continue
				}
				outcomes <- outcome{status: result.RulesStatus, suspect: result.IsSuspect}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{
		RunID:     runID,
		ByStatus:  make(map[string]int),
		Ruleset:   r.rs.Hash,
		StartedAt: start,
	}
	for o := range outcomes {
		summary.Total++
		if o.failed {
			summary.Failed++
			continue
		}
		summary.ByStatus[string(o.status)]++
		if o.suspect {
			summary.Suspect++
		}
	}
	summary.Duration = time.Since(start)

	r.log.WithFields(logrus.Fields{
		"run_id":    runID,
		"total":     summary.Total,
		"by_status": summary.ByStatus,
		"suspect":   summary.Suspect,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	}).Info("batch classification finished")

	return summary, nil
}

// processDocument loads, classifies, persists, and logs a single document.
func (r *Runner) processDocument(runID types.RunID, path, jsonlFilename string, jsonlMutex *sync.Mutex) (classify.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return classify.Result{}, fmt.Errorf("failed to read document: %w", err)
	}

	var doc types.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return classify.Result{}, fmt.Errorf("invalid document JSON: %w", err)
	}
	if doc.DocumentID == "" {
		doc.DocumentID = types.NewDocumentID()
	}

	result := classify.Classify(r.rs, doc)

	if r.st != nil {
		if err := r.st.SaveResult(runID, result); err != nil {
			return classify.Result{}, err
		}
	}

	// JSONL is best-effort; the database is the source of truth
	jsonlMutex.Lock()
	defer jsonlMutex.Unlock()
	f, err := os.OpenFile(jsonlFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		defer f.Close()
		_ = json.NewEncoder(f).Encode(result)
	}

	return result, nil
}

// getJSONLMutex returns the mutex for a filename, creating it if needed.
// The map grows by ~1 entry/day, an acceptable footprint for a run lifecycle.
func (r *Runner) getJSONLMutex(filename string) *sync.Mutex {
	r.mutexLock.Lock()
	defer r.mutexLock.Unlock()

	if _, ok := r.jsonlMutexes[filename]; !ok {
		r.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return r.jsonlMutexes[filename]
}

// listDocumentFiles returns the .json files of inputDir in name order for
// deterministic job dispatch.
func listDocumentFiles(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(inputDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
