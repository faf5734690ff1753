package models

import "time"

// FileKind distinguishes uploaded sources from generated drawings.
type FileKind string

const (
	FileKindSource FileKind = "source"
	FileKindDXF    FileKind = "dxf"
)

// FileInfo represents metadata about a stored file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       FileKind  `json:"kind"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded", "exported", "error"
}
