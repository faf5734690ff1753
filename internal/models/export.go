package models

import "time"

// ExportStatus represents the state of an export job.
type ExportStatus string

const (
	ExportStatusPending  ExportStatus = "pending"
	ExportStatusReading  ExportStatus = "reading"
	ExportStatusBuilding ExportStatus = "building"
	ExportStatusComplete ExportStatus = "complete"
	ExportStatusError    ExportStatus = "error"
)

// ExportJob tracks one conversion of beam records into a DXF document.
type ExportJob struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	SourceFileID string         `json:"sourceFileId,omitempty"`
	SourceFormat string         `json:"sourceFormat,omitempty"`
	Status       ExportStatus   `json:"status"`
	Progress     float64        `json:"progress"` // 0-100
	RecordCount  int            `json:"recordCount"`
	EntityCount  int            `json:"entityCount"`
	LayerCounts  map[string]int `json:"layerCounts,omitempty"`
	ResultFileID string         `json:"resultFileId,omitempty"`
	RowErrors    []RowError     `json:"rowErrors,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
}

// NewExportJob creates a job in pending status.
func NewExportJob(id, name string) *ExportJob {
	return &ExportJob{
		ID:        id,
		Name:      name,
		Status:    ExportStatusPending,
		RowErrors: make([]RowError, 0),
		CreatedAt: time.Now(),
	}
}

// Finished reports whether the job reached a terminal state.
func (j *ExportJob) Finished() bool {
	return j.Status == ExportStatusComplete || j.Status == ExportStatusError
}
