package repository

import (
    "database/sql"
    "time"

    "github.com/votereach/broadcast-backend/internal/model"
)

type BatchRepositoryInterface interface {
    GetByID(id int) (*model.Batch, error)
    ListByCampaign(campaignID int) ([]*model.Batch, error)
    UpdateStatus(batchID int, status model.BatchStatus) error
    SetJobID(batchID int, jobID string) error
    AddCounters(batchID, processed, success, failure int) error
}

type BatchRepository struct {
    DB *sql.DB
}

func (r *BatchRepository) GetByID(id int) (*model.Batch, error) {
    query := `
        SELECT id, campaign_id, batch_index, total_recipients, processed, success_count,
               failure_count, status, job_id, created_at, updated_at
        FROM batches WHERE id=$1
    `
    var b model.Batch
    err := r.DB.QueryRow(query, id).Scan(&b.ID, &b.CampaignID, &b.BatchIndex,
        &b.TotalRecipients, &b.Processed, &b.SuccessCount, &b.FailureCount,
        &b.Status, &b.JobID, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return &b, nil
}

func (r *BatchRepository) ListByCampaign(campaignID int) ([]*model.Batch, error) {
    query := `
        SELECT id, campaign_id, batch_index, total_recipients, processed, success_count,
               failure_count, status, job_id, created_at, updated_at
        FROM batches WHERE campaign_id=$1 ORDER BY batch_index
    `
    rows, err := r.DB.Query(query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    batches := []*model.Batch{}
    for rows.Next() {
        b := &model.Batch{}
        if err := rows.Scan(&b.ID, &b.CampaignID, &b.BatchIndex, &b.TotalRecipients,
            &b.Processed, &b.SuccessCount, &b.FailureCount, &b.Status, &b.JobID,
            &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        batches = append(batches, b)
    }
    return batches, rows.Err()
}

func (r *BatchRepository) UpdateStatus(batchID int, status model.BatchStatus) error {
    query := `UPDATE batches SET status=$1, updated_at=$2 WHERE id=$3`
    _, err := r.DB.Exec(query, status, time.Now(), batchID)
    return err
}

func (r *BatchRepository) SetJobID(batchID int, jobID string) error {
    query := `UPDATE batches SET job_id=$1, updated_at=NOW() WHERE id=$2`
    _, err := r.DB.Exec(query, jobID, batchID)
    return err
}

// AddCounters follows the same atomic-increment rule as the campaign row.
func (r *BatchRepository) AddCounters(batchID, processed, success, failure int) error {
    query := `
        UPDATE batches
        SET processed = processed + $1,
            success_count = success_count + $2,
            failure_count = failure_count + $3,
            updated_at = NOW()
        WHERE id = $4
    `
    _, err := r.DB.Exec(query, processed, success, failure, batchID)
    return err
}

var _ BatchRepositoryInterface = (*BatchRepository)(nil)
