package repository

import (
    "database/sql"
    "fmt"
    "time"

    "github.com/lib/pq"

    appErrors "github.com/votereach/broadcast-backend/internal/errors"
    "github.com/votereach/broadcast-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    CreateCampaignGraph(c *model.Campaign, chunks [][]model.Voter) ([]*model.Batch, error)
    GetByID(id int) (*model.Campaign, error)
    GetStatus(id int) (model.CampaignStatus, error)
    ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error)
    UpdateStatus(campaignID int, status model.CampaignStatus) error
    AddCounters(campaignID, processed, success, failure int) error
    MarkOutcome(campaignID int, status model.CampaignStatus) error
    Cancel(campaignID int) error
}

type CampaignRepository struct {
    DB *sql.DB
}

// ====================== Campaign graph ======================

// CreateCampaignGraph inserts the campaign, one batch per chunk, and one
// recipient per voter, all in a single transaction. Voters whose phone number
// fails the defensive re-check are dropped; a chunk that loses every voter
// produces no batch row. Counts on the returned rows reflect what was
// actually materialized.
func (r *CampaignRepository) CreateCampaignGraph(c *model.Campaign, chunks [][]model.Voter) ([]*model.Batch, error) {
    tx, err := r.DB.Begin()
    if err != nil {
        return nil, err
    }
    defer tx.Rollback()

    c.CreatedAt = time.Now()
    if c.Status == "" {
        c.Status = model.CampaignQueued
    }

    err = tx.QueryRow(`
        INSERT INTO campaigns
            (title, channel, status, target_lgas, message_template, audio_asset_id,
             throttle_rate, total_recipients, processed_recipients, success_count, failure_count,
             created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, 0, $8, $9)
        RETURNING id
    `, c.Title, c.Channel, c.Status, pq.Array(c.TargetLGAs), c.MessageTemplate, c.AudioAssetID,
        c.ThrottleRate, c.CreatedBy, c.CreatedAt).Scan(&c.ID)
    if err != nil {
        return nil, err
    }

    batches := []*model.Batch{}
    total := 0
    index := 0

    for _, chunk := range chunks {
        valid := chunk[:0:0]
        for _, v := range chunk {
            if model.ValidPhone(v.Phone) {
                valid = append(valid, v)
            }
        }
        if len(valid) == 0 {
            continue
        }

        b := &model.Batch{
            CampaignID:      c.ID,
            BatchIndex:      index,
            TotalRecipients: len(valid),
            Status:          model.BatchQueued,
            CreatedAt:       c.CreatedAt,
        }
        err = tx.QueryRow(`
            INSERT INTO batches (campaign_id, batch_index, total_recipients, processed,
                                 success_count, failure_count, status, job_id, created_at)
            VALUES ($1, $2, $3, 0, 0, 0, $4, '', $5)
            RETURNING id
        `, b.CampaignID, b.BatchIndex, b.TotalRecipients, b.Status, b.CreatedAt).Scan(&b.ID)
        if err != nil {
            return nil, err
        }

        for _, v := range valid {
            _, err = tx.Exec(`
                INSERT INTO recipients (campaign_id, batch_id, voter_id, phone, first_name,
                                        last_name, state, lga, ward, polling_unit, status,
                                        attempt_count, provider_ref, last_error, created_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, '', '', $12)
            `, c.ID, b.ID, v.ID, v.Phone, v.FirstName, v.LastName, v.State, v.LGA, v.Ward,
                v.PollingUnit, model.RecipientQueued, c.CreatedAt)
            if err != nil {
                return nil, err
            }
        }

        batches = append(batches, b)
        total += len(valid)
        index++
    }

    if total == 0 {
        // Nothing materialized; roll the campaign row back too.
        return nil, appErrors.NewNoEligibleRecipients(c.TargetLGAs)
    }

    if _, err = tx.Exec(`UPDATE campaigns SET total_recipients=$1 WHERE id=$2`, total, c.ID); err != nil {
        return nil, err
    }
    c.TotalRecipients = total

    if err = tx.Commit(); err != nil {
        return nil, err
    }
    return batches, nil
}

// ====================== Campaign reads ======================

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
    query := `
        SELECT id, title, channel, status, target_lgas, message_template, audio_asset_id,
               throttle_rate, total_recipients, processed_recipients, success_count,
               failure_count, created_by, created_at, updated_at, completed_at
        FROM campaigns WHERE id=$1
    `
    var c model.Campaign
    err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Title, &c.Channel, &c.Status,
        pq.Array(&c.TargetLGAs), &c.MessageTemplate, &c.AudioAssetID, &c.ThrottleRate,
        &c.TotalRecipients, &c.ProcessedRecipients, &c.SuccessCount, &c.FailureCount,
        &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.CompletedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, appErrors.NewCampaignNotFound(id)
        }
        return nil, err
    }
    return &c, nil
}

// GetStatus is the lightweight read used for the per-recipient cancellation
// check inside the worker loop.
func (r *CampaignRepository) GetStatus(id int) (model.CampaignStatus, error) {
    var status model.CampaignStatus
    err := r.DB.QueryRow(`SELECT status FROM campaigns WHERE id=$1`, id).Scan(&status)
    if err != nil {
        if err == sql.ErrNoRows {
            return "", appErrors.NewCampaignNotFound(id)
        }
        return "", err
    }
    return status, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
    campaigns := []*model.Campaign{}
    query := `SELECT id, title, channel, status, target_lgas, message_template, audio_asset_id,
                     throttle_rate, total_recipients, processed_recipients, success_count,
                     failure_count, created_by, created_at, updated_at, completed_at
              FROM campaigns WHERE 1=1`
    args := []interface{}{}
    argPos := 1

    if channel != "" {
        query += fmt.Sprintf(" AND channel=$%d", argPos)
        args = append(args, channel)
        argPos++
    }
    if status != "" {
        query += fmt.Sprintf(" AND status=$%d", argPos)
        args = append(args, status)
        argPos++
    }

    query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
    args = append(args, limit, offset)

    rows, err := r.DB.Query(query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    for rows.Next() {
        c := &model.Campaign{}
        if err := rows.Scan(&c.ID, &c.Title, &c.Channel, &c.Status, pq.Array(&c.TargetLGAs),
            &c.MessageTemplate, &c.AudioAssetID, &c.ThrottleRate, &c.TotalRecipients,
            &c.ProcessedRecipients, &c.SuccessCount, &c.FailureCount, &c.CreatedBy,
            &c.CreatedAt, &c.UpdatedAt, &c.CompletedAt); err != nil {
            return nil, 0, err
        }
        campaigns = append(campaigns, c)
    }

    countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
    argsCount := []interface{}{}
    argPosCount := 1
    if channel != "" {
        countQuery += fmt.Sprintf(" AND channel=$%d", argPosCount)
        argsCount = append(argsCount, channel)
        argPosCount++
    }
    if status != "" {
        countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
        argsCount = append(argsCount, status)
    }

    var total int
    if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
        return nil, 0, err
    }

    return campaigns, total, nil
}

// ====================== Campaign writes ======================

func (r *CampaignRepository) UpdateStatus(campaignID int, status model.CampaignStatus) error {
    query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
    _, err := r.DB.Exec(query, status, time.Now(), campaignID)
    return err
}

// AddCounters applies deltas as a single increment statement. Multiple batch
// workers and the webhook reconciler hit the same row concurrently, so the
// arithmetic has to happen in the database.
func (r *CampaignRepository) AddCounters(campaignID, processed, success, failure int) error {
    query := `
        UPDATE campaigns
        SET processed_recipients = processed_recipients + $1,
            success_count = success_count + $2,
            failure_count = failure_count + $3,
            updated_at = NOW()
        WHERE id = $4
    `
    _, err := r.DB.Exec(query, processed, success, failure, campaignID)
    return err
}

// MarkOutcome promotes a running campaign to completed or failed and stamps
// completed_at exactly once. Terminal campaigns (cancelled included) are
// never demoted, so the guard lives in the WHERE clause.
func (r *CampaignRepository) MarkOutcome(campaignID int, status model.CampaignStatus) error {
    query := `
        UPDATE campaigns
        SET status=$1, completed_at=COALESCE(completed_at, NOW()), updated_at=NOW()
        WHERE id=$2 AND status IN ('queued', 'in_progress')
    `
    _, err := r.DB.Exec(query, status, campaignID)
    return err
}

// Cancel moves a non-terminal campaign to cancelled.
func (r *CampaignRepository) Cancel(campaignID int) error {
    res, err := r.DB.Exec(`
        UPDATE campaigns SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status IN ('queued', 'in_progress')
    `, model.CampaignCancelled, campaignID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        status, err := r.GetStatus(campaignID)
        if err != nil {
            return err
        }
        return appErrors.NewCampaignTerminal(campaignID, string(status))
    }
    return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
