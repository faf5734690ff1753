// Package export runs beam label exports: it reads records from a stored
// source file (or takes them inline), renders them with the DXF builder and
// stores the resulting drawing.
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beam-label/backend/internal/dxf"
	"github.com/beam-label/backend/internal/logging"
	"github.com/beam-label/backend/internal/models"
	"github.com/beam-label/backend/internal/source"
	"github.com/google/uuid"
)

// DefaultFileName is used for exports whose name has no usable base.
const DefaultFileName = "beam_labels.dxf"

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("export job not found")
	// ErrTooManyRecords is returned when an export exceeds the record limit.
	ErrTooManyRecords = errors.New("too many records")
)

// Store defines the interface needed from the storage layer.
type Store interface {
	Get(id string) (*models.FileInfo, error)
	GetFilePath(id string) (string, error)
	SaveBytes(name string, kind models.FileKind, data []byte) (*models.FileInfo, error)
}

// LabelIndex receives the labels of each finished export.
type LabelIndex interface {
	Append(ctx context.Context, exportID string, records []models.BeamLabelRecord) error
	Delete(ctx context.Context, exportID string) error
}

// Options configures a Manager.
type Options struct {
	// MaxRecords rejects larger exports when positive.
	MaxRecords int
	// DefaultFileName replaces DefaultFileName when set.
	DefaultFileName string
}

// Manager tracks export jobs.
type Manager struct {
	jobs     map[string]*models.ExportJob
	mu       sync.RWMutex
	store    Store
	registry *source.Registry
	index    LabelIndex
	opts     Options
}

// NewManager creates an export manager. index may be nil to skip label
// indexing.
func NewManager(store Store, registry *source.Registry, index LabelIndex, opts Options) *Manager {
	if registry == nil {
		registry = source.GetGlobalRegistry()
	}
	if opts.DefaultFileName == "" {
		opts.DefaultFileName = DefaultFileName
	}
	return &Manager{
		jobs:     make(map[string]*models.ExportJob),
		store:    store,
		registry: registry,
		index:    index,
		opts:     opts,
	}
}

// StartFromFile begins an async export of a stored source file. The reader
// is chosen before the job starts, so an unsupported format is reported
// immediately. sheet restricts Excel sources to one sheet.
func (m *Manager) StartFromFile(fileID, sheet string) (*models.ExportJob, error) {
	info, err := m.store.Get(fileID)
	if err != nil {
		return nil, err
	}
	path, err := m.store.GetFilePath(fileID)
	if err != nil {
		return nil, err
	}

	rd, err := m.registry.FindReader(path)
	if err != nil {
		return nil, err
	}
	if _, ok := rd.(*source.XLSXReader); ok && sheet != "" {
		rd = &source.XLSXReader{Sheet: sheet}
	}

	job := models.NewExportJob(uuid.New().String(), info.Name)
	job.SourceFileID = fileID
	job.SourceFormat = rd.Name()
	m.addJob(job)

	go m.runFromFile(job, rd, path)

	return m.snapshot(job), nil
}

// ExportRecords runs a synchronous export of records supplied by the caller.
// The job is returned in its final state; a failed job is returned together
// with the error.
func (m *Manager) ExportRecords(ctx context.Context, name string, records []models.BeamLabelRecord) (*models.ExportJob, error) {
	job := models.NewExportJob(uuid.New().String(), name)
	job.SourceFormat = "inline"
	m.addJob(job)

	if err := m.build(ctx, job, records); err != nil {
		m.markJobError(job, err.Error())
		return m.snapshot(job), err
	}
	m.markJobComplete(job)
	return m.snapshot(job), nil
}

// GetJob returns a copy of the job's current state.
func (m *Manager) GetJob(id string) (*models.ExportJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return copyJob(job), nil
}

// ListJobs returns copies of every job, newest first.
func (m *Manager) ListJobs() []*models.ExportJob {
	m.mu.RLock()
	list := make([]*models.ExportJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		list = append(list, copyJob(job))
	}
	m.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// CleanupOldJobs removes finished jobs older than maxAge together with their
// indexed labels. Stored DXF files are kept. It returns the number of jobs
// removed.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var removed []string
	for id, job := range m.jobs {
		if job.Finished() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed = append(removed, id)
		}
	}
	m.mu.Unlock()

	if m.index != nil {
		for _, id := range removed {
			if err := m.index.Delete(context.Background(), id); err != nil {
				logging.Logger().Warn("failed to delete indexed labels", "job", shortID(id), "error", err)
			}
		}
	}
	return len(removed)
}

func (m *Manager) runFromFile(job *models.ExportJob, rd source.Reader, path string) {
	log := logging.Logger().With("job", shortID(job.ID))
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic recovered", "panic", r)
			m.markJobError(job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	start := time.Now()
	log.Info("starting export", "file", job.Name, "format", rd.Name())

	ctx := context.Background()
	m.updateJobStatus(job, models.ExportStatusReading, 0)
	res, err := rd.Read(ctx, path)
	if err != nil {
		m.markJobError(job, fmt.Sprintf("failed to read %s: %v", job.Name, err))
		return
	}

	m.mu.Lock()
	job.RowErrors = append(job.RowErrors, res.Errors...)
	m.mu.Unlock()
	if len(res.Errors) > 0 {
		log.Warn("rows skipped", "count", len(res.Errors))
	}
	m.updateJobStatus(job, models.ExportStatusReading, 100)

	if err := m.build(ctx, job, res.Records); err != nil {
		m.markJobError(job, err.Error())
		return
	}

	m.markJobComplete(job)
	log.Info("export complete", "records", len(res.Records), "elapsed", time.Since(start))
}

// build renders records into a fresh document, stores it and indexes the
// labels. Index failures are logged and do not fail the job.
func (m *Manager) build(ctx context.Context, job *models.ExportJob, records []models.BeamLabelRecord) error {
	if m.opts.MaxRecords > 0 && len(records) > m.opts.MaxRecords {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyRecords, len(records), m.opts.MaxRecords)
	}

	m.updateJobStatus(job, models.ExportStatusBuilding, 0)

	b := dxf.NewBuilder()
	b.ExportBeamLabels(records)
	doc := b.Generate()

	m.updateJobStatus(job, models.ExportStatusBuilding, 50)

	info, err := m.store.SaveBytes(m.resultName(job.Name), models.FileKindDXF, []byte(doc))
	if err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}

	if m.index != nil {
		if err := m.index.Append(ctx, job.ID, records); err != nil {
			logging.Logger().Warn("failed to index labels", "job", shortID(job.ID), "error", err)
		}
	}

	m.mu.Lock()
	job.RecordCount = len(records)
	job.EntityCount = len(b.Entities())
	job.LayerCounts = b.LayerCounts()
	job.ResultFileID = info.ID
	m.mu.Unlock()

	m.updateJobStatus(job, models.ExportStatusBuilding, 100)
	return nil
}

// resultName turns a source file name into the output name: "beams.xlsx"
// becomes "beams.dxf".
func (m *Manager) resultName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return m.opts.DefaultFileName
	}
	return base + ".dxf"
}

func (m *Manager) addJob(job *models.ExportJob) {
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
}

func (m *Manager) snapshot(job *models.ExportJob) *models.ExportJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyJob(job)
}

// updateJobStatus updates job progress (thread-safe).
// Reading: 0-40%, Building: 40-100%.
func (m *Manager) updateJobStatus(job *models.ExportJob, status models.ExportStatus, stageProgress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = status
	switch status {
	case models.ExportStatusReading:
		job.Progress = stageProgress * 0.4
	case models.ExportStatusBuilding:
		job.Progress = 40 + stageProgress*0.6
	}
}

// markJobComplete marks job as complete (thread-safe).
func (m *Manager) markJobComplete(job *models.ExportJob) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = models.ExportStatusComplete
	job.Progress = 100
	now := time.Now()
	job.CompletedAt = &now
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(job *models.ExportJob, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = models.ExportStatusError
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
	logging.Logger().Error("export failed", "job", shortID(job.ID), "error", errMsg)
}

func copyJob(job *models.ExportJob) *models.ExportJob {
	cp := *job
	if job.LayerCounts != nil {
		cp.LayerCounts = make(map[string]int, len(job.LayerCounts))
		for k, v := range job.LayerCounts {
			cp.LayerCounts[k] = v
		}
	}
	cp.RowErrors = append([]models.RowError(nil), job.RowErrors...)
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
