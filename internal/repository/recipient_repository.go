package repository

import (
    "database/sql"

    "github.com/votereach/broadcast-backend/internal/model"
)

type RecipientRepositoryInterface interface {
    ListByBatch(batchID int) ([]*model.Recipient, error)
    MarkResult(id int, status model.RecipientStatus, providerRef, lastError string) error
    GetByProviderRef(ref string) (*model.Recipient, error)
    TransitionByProviderRef(ref string, status model.RecipientStatus) (model.RecipientStatus, bool, error)
    StatusHistogram(campaignID int) (map[string]int, error)
}

type RecipientRepository struct {
    DB *sql.DB
}

// ListByBatch returns the batch's recipients ordered by id so a retried job
// walks them in the same order.
func (r *RecipientRepository) ListByBatch(batchID int) ([]*model.Recipient, error) {
    query := `
        SELECT id, campaign_id, batch_id, voter_id, phone, first_name, last_name, state,
               lga, ward, polling_unit, status, attempt_count, provider_ref, last_error,
               delivered_at, created_at, updated_at
        FROM recipients WHERE batch_id=$1 ORDER BY id
    `
    rows, err := r.DB.Query(query, batchID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    recipients := []*model.Recipient{}
    for rows.Next() {
        rec := &model.Recipient{}
        if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.BatchID, &rec.VoterID, &rec.Phone,
            &rec.FirstName, &rec.LastName, &rec.State, &rec.LGA, &rec.Ward, &rec.PollingUnit,
            &rec.Status, &rec.AttemptCount, &rec.ProviderRef, &rec.LastError,
            &rec.DeliveredAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
            return nil, err
        }
        recipients = append(recipients, rec)
    }
    return recipients, rows.Err()
}

// MarkResult records the outcome of one send attempt.
func (r *RecipientRepository) MarkResult(id int, status model.RecipientStatus, providerRef, lastError string) error {
    query := `
        UPDATE recipients
        SET status=$1, provider_ref=$2, last_error=$3,
            attempt_count=attempt_count+1, updated_at=NOW()
        WHERE id=$4
    `
    _, err := r.DB.Exec(query, status, providerRef, lastError, id)
    return err
}

func (r *RecipientRepository) GetByProviderRef(ref string) (*model.Recipient, error) {
    query := `
        SELECT id, campaign_id, batch_id, voter_id, phone, first_name, last_name, state,
               lga, ward, polling_unit, status, attempt_count, provider_ref, last_error,
               delivered_at, created_at, updated_at
        FROM recipients WHERE provider_ref=$1
    `
    rec := &model.Recipient{}
    err := r.DB.QueryRow(query, ref).Scan(&rec.ID, &rec.CampaignID, &rec.BatchID, &rec.VoterID,
        &rec.Phone, &rec.FirstName, &rec.LastName, &rec.State, &rec.LGA, &rec.Ward,
        &rec.PollingUnit, &rec.Status, &rec.AttemptCount, &rec.ProviderRef, &rec.LastError,
        &rec.DeliveredAt, &rec.CreatedAt, &rec.UpdatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil
        }
        return nil, err
    }
    return rec, nil
}

// TransitionByProviderRef applies a webhook-driven status change as one
// conditional update: it only fires when the stored status differs from the
// new one, and it returns the previous status so the caller can compute the
// signed counter delta. The row lock keeps a duplicate callback from applying
// the same delta twice.
func (r *RecipientRepository) TransitionByProviderRef(ref string, status model.RecipientStatus) (model.RecipientStatus, bool, error) {
    query := `
        UPDATE recipients r
        SET status=$1,
            delivered_at=CASE WHEN $1='delivered' THEN COALESCE(r.delivered_at, NOW()) ELSE r.delivered_at END,
            updated_at=NOW()
        FROM (SELECT id, status AS prev_status FROM recipients WHERE provider_ref=$2 FOR UPDATE) prev
        WHERE r.id = prev.id AND prev.prev_status <> $1
        RETURNING prev.prev_status
    `
    var prev model.RecipientStatus
    err := r.DB.QueryRow(query, status, ref).Scan(&prev)
    if err != nil {
        if err == sql.ErrNoRows {
            return "", false, nil // unknown ref or status unchanged
        }
        return "", false, err
    }
    return prev, true, nil
}

func (r *RecipientRepository) StatusHistogram(campaignID int) (map[string]int, error) {
    query := `SELECT status, COUNT(*) FROM recipients WHERE campaign_id=$1 GROUP BY status`
    rows, err := r.DB.Query(query, campaignID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    stats := map[string]int{"queued": 0, "sending": 0, "sent": 0, "delivered": 0, "failed": 0}
    for rows.Next() {
        var status string
        var count int
        if err := rows.Scan(&status, &count); err != nil {
            return nil, err
        }
        stats[status] = count
    }
    return stats, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
