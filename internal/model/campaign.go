// internal/model/campaign.go
package model

import "time"

type Channel string

const (
    ChannelSMS   Channel = "sms"
    ChannelVoice Channel = "voice"
)

type CampaignStatus string

const (
    CampaignQueued     CampaignStatus = "queued"
    CampaignInProgress CampaignStatus = "in_progress"
    CampaignCompleted  CampaignStatus = "completed"
    CampaignFailed     CampaignStatus = "failed"
    CampaignCancelled  CampaignStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s CampaignStatus) IsTerminal() bool {
    return s == CampaignCompleted || s == CampaignFailed || s == CampaignCancelled
}

type Campaign struct {
    ID                  int            `db:"id" json:"id"`
    Title               string         `db:"title" json:"title"`
    Channel             Channel        `db:"channel" json:"channel"`
    Status              CampaignStatus `db:"status" json:"status"`
    TargetLGAs          []string       `db:"target_lgas" json:"target_lgas"`
    MessageTemplate     string         `db:"message_template" json:"message_template,omitempty"`
    AudioAssetID        *int           `db:"audio_asset_id" json:"audio_asset_id,omitempty"`
    ThrottleRate        int            `db:"throttle_rate" json:"throttle_rate"`
    TotalRecipients     int            `db:"total_recipients" json:"total_recipients"`
    ProcessedRecipients int            `db:"processed_recipients" json:"processed_recipients"`
    SuccessCount        int            `db:"success_count" json:"success_count"`
    FailureCount        int            `db:"failure_count" json:"failure_count"`
    CreatedBy           string         `db:"created_by" json:"created_by"`
    CreatedAt           time.Time      `db:"created_at" json:"created_at"`
    UpdatedAt           *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
    CompletedAt         *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}
