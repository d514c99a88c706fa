// internal/model/recipient.go
package model

import "time"

type RecipientStatus string

const (
    RecipientQueued    RecipientStatus = "queued"
    RecipientSending   RecipientStatus = "sending"
    RecipientSent      RecipientStatus = "sent"
    RecipientDelivered RecipientStatus = "delivered"
    RecipientFailed    RecipientStatus = "failed"
)

// IsTerminal reports whether the worker must not attempt this recipient again.
// A retried batch job only re-sends recipients still queued or sending.
func (s RecipientStatus) IsTerminal() bool {
    return s == RecipientSent || s == RecipientDelivered || s == RecipientFailed
}

// CountsAsSuccess reports whether the status contributes to success_count.
// The signed webhook delta is the membership difference between old and new.
func (s RecipientStatus) CountsAsSuccess() bool {
    return s == RecipientSending || s == RecipientSent || s == RecipientDelivered
}

type Recipient struct {
    ID          int             `db:"id" json:"id"`
    CampaignID  int             `db:"campaign_id" json:"campaign_id"`
    BatchID     int             `db:"batch_id" json:"batch_id"`
    VoterID     int             `db:"voter_id" json:"voter_id"`
    Phone       string          `db:"phone" json:"phone"`
    FirstName   string          `db:"first_name" json:"first_name"`
    LastName    string          `db:"last_name" json:"last_name"`
    State       string          `db:"state" json:"state"`
    LGA         string          `db:"lga" json:"lga"`
    Ward        string          `db:"ward" json:"ward"`
    PollingUnit string          `db:"polling_unit" json:"polling_unit"`
    Status      RecipientStatus `db:"status" json:"status"`
    AttemptCount int            `db:"attempt_count" json:"attempt_count"`
    ProviderRef string          `db:"provider_ref" json:"provider_ref,omitempty"`
    LastError   string          `db:"last_error" json:"last_error,omitempty"`
    DeliveredAt *time.Time      `db:"delivered_at" json:"delivered_at,omitempty"`
    CreatedAt   time.Time       `db:"created_at" json:"created_at"`
    UpdatedAt   *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// Attributes exposes the fields usable for template substitution.
func (r *Recipient) Attributes() map[string]any {
    return map[string]any{
        "first_name":   r.FirstName,
        "last_name":    r.LastName,
        "phone":        r.Phone,
        "state":        r.State,
        "lga":          r.LGA,
        "ward":         r.Ward,
        "polling_unit": r.PollingUnit,
        "voter": map[string]any{
            "id": r.VoterID,
        },
    }
}
