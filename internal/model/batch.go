// internal/model/batch.go
package model

import "time"

type BatchStatus string

const (
    BatchQueued     BatchStatus = "queued"
    BatchProcessing BatchStatus = "processing"
    BatchCompleted  BatchStatus = "completed"
    BatchFailed     BatchStatus = "failed"
)

type Batch struct {
    ID              int         `db:"id" json:"id"`
    CampaignID      int         `db:"campaign_id" json:"campaign_id"`
    BatchIndex      int         `db:"batch_index" json:"batch_index"`
    TotalRecipients int         `db:"total_recipients" json:"total_recipients"`
    Processed       int         `db:"processed" json:"processed"`
    SuccessCount    int         `db:"success_count" json:"success_count"`
    FailureCount    int         `db:"failure_count" json:"failure_count"`
    Status          BatchStatus `db:"status" json:"status"`
    JobID           string      `db:"job_id" json:"job_id,omitempty"`
    CreatedAt       time.Time   `db:"created_at" json:"created_at"`
    UpdatedAt       *time.Time  `db:"updated_at" json:"updated_at,omitempty"`
}
