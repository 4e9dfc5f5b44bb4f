package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/example/artifact-scout/internal/domain"
)

// UploadLog is one append-only analytics row. Every value is stored as text;
// absent values are empty strings and an absent confidence is "0".
type UploadLog struct {
	ID                  uint      `gorm:"primaryKey"`
	Location            string    `gorm:"column:location;size:32"`
	ConfidenceThreshold string    `gorm:"column:confidence_threshold;size:8"`
	ObjectDetected      string    `gorm:"column:object_detected;size:64"`
	ObjectConfidence    string    `gorm:"column:object_confidence;size:8"`
	TeamMatched         string    `gorm:"column:team_matched;size:255"`
	ErrorType           string    `gorm:"column:error_type;size:8"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (UploadLog) TableName() string {
	return "upload_logs"
}

// NewUploadLog flattens an audit entry into its stored form.
func NewUploadLog(entry domain.AuditLogEntry) *UploadLog {
	log := &UploadLog{
		Location:            entry.Location,
		ConfidenceThreshold: strconv.Itoa(int(entry.ConfidenceThreshold)),
		ObjectConfidence:    "0",
	}
	if entry.ObjectDetected != nil {
		log.ObjectDetected = *entry.ObjectDetected
	}
	if entry.ObjectConfidence != nil {
		log.ObjectConfidence = strconv.Itoa(*entry.ObjectConfidence)
	}
	if entry.TeamMatched != nil {
		log.TeamMatched = *entry.TeamMatched
	}
	if entry.ErrorType != nil {
		log.ErrorType = string(*entry.ErrorType)
	}
	return log
}

// SaveUploadLog appends one audit entry.
func (r *ArtifactRepository) SaveUploadLog(ctx context.Context, entry domain.AuditLogEntry) error {
	log := NewUploadLog(entry)
	log.CreatedAt = time.Now().UTC()
	return r.executeWithRetry(ctx, "repository.save_upload_log", "", func() error {
		log.ID = 0
		return r.db.WithContext(ctx).Create(log).Error
	})
}
