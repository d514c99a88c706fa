// internal/service/builder.go
package service

import (
    "strings"

    appErrors "github.com/votereach/broadcast-backend/internal/errors"
    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/repository"
)

// CampaignBuilder selects the audience, chunks it into batches, and persists
// the campaign/batch/recipient hierarchy in one transaction.
type CampaignBuilder struct {
    CampaignRepo   repository.CampaignRepositoryInterface
    VoterRepo      repository.VoterRepositoryInterface
    AudioRepo      repository.AudioAssetRepositoryInterface
    SMSBatchSize   int
    VoiceBatchSize int
}

type BuildInput struct {
    Title           string
    Channel         model.Channel
    TargetLGAs      []string
    MessageTemplate string
    AudioAssetID    *int
    ThrottleRate    int
    CreatedBy       string
}

type BuildResult struct {
    Campaign        *model.Campaign `json:"campaign"`
    Batches         []*model.Batch  `json:"batches"`
    TotalRecipients int             `json:"total_recipients"`
}

func (b *CampaignBuilder) Build(in BuildInput) (*BuildResult, error) {
    if err := b.validate(&in); err != nil {
        return nil, err
    }

    voters, err := b.VoterRepo.ListByLGAs(in.TargetLGAs)
    if err != nil {
        return nil, err
    }
    if len(voters) == 0 {
        // Nothing is persisted in this case.
        return nil, appErrors.NewNoEligibleRecipients(in.TargetLGAs)
    }

    campaign := &model.Campaign{
        Title:           in.Title,
        Channel:         in.Channel,
        Status:          model.CampaignQueued,
        TargetLGAs:      in.TargetLGAs,
        MessageTemplate: in.MessageTemplate,
        AudioAssetID:    in.AudioAssetID,
        ThrottleRate:    in.ThrottleRate,
        CreatedBy:       in.CreatedBy,
    }

    chunks := chunkVoters(voters, b.batchSize(in.Channel))
    batches, err := b.CampaignRepo.CreateCampaignGraph(campaign, chunks)
    if err != nil {
        return nil, err
    }

    return &BuildResult{
        Campaign:        campaign,
        Batches:         batches,
        TotalRecipients: campaign.TotalRecipients,
    }, nil
}

func (b *CampaignBuilder) validate(in *BuildInput) error {
    if len(in.TargetLGAs) == 0 {
        return appErrors.NewValidation("target_lgas", "at least one LGA is required")
    }
    switch in.Channel {
    case model.ChannelSMS:
        if strings.TrimSpace(in.MessageTemplate) == "" {
            return appErrors.NewValidation("message_template", "required for sms campaigns")
        }
    case model.ChannelVoice:
        if in.AudioAssetID == nil {
            return appErrors.NewValidation("audio_asset_id", "required for voice campaigns")
        }
        asset, err := b.AudioRepo.GetByID(*in.AudioAssetID)
        if err != nil {
            return err
        }
        if asset == nil {
            return appErrors.NewAudioAssetNotFound(*in.AudioAssetID)
        }
    default:
        return appErrors.NewValidation("channel", "must be sms or voice")
    }
    return nil
}

// Voice batches are smaller than SMS batches: calls are slower and costlier.
func (b *CampaignBuilder) batchSize(channel model.Channel) int {
    if channel == model.ChannelVoice {
        if b.VoiceBatchSize > 0 {
            return b.VoiceBatchSize
        }
        return 100
    }
    if b.SMSBatchSize > 0 {
        return b.SMSBatchSize
    }
    return 500
}

func chunkVoters(voters []model.Voter, size int) [][]model.Voter {
    chunks := [][]model.Voter{}
    for start := 0; start < len(voters); start += size {
        end := start + size
        if end > len(voters) {
            end = len(voters)
        }
        chunks = append(chunks, voters[start:end])
    }
    return chunks
}
