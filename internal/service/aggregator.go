// internal/service/aggregator.go
package service

import (
    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/repository"
)

// StatusAggregator derives campaign status from aggregate counters. Re-run
// after every batch completion and every webhook-driven delta.
type StatusAggregator struct {
    CampaignRepo repository.CampaignRepositoryInterface
}

func (a *StatusAggregator) Recompute(campaignID int) error {
    c, err := a.CampaignRepo.GetByID(campaignID)
    if err != nil {
        return err
    }
    if c.Status.IsTerminal() {
        return nil
    }
    if c.TotalRecipients == 0 || c.ProcessedRecipients < c.TotalRecipients {
        return nil
    }

    outcome := model.CampaignCompleted
    if c.SuccessCount == 0 && c.FailureCount > 0 {
        outcome = model.CampaignFailed
    }
    // MarkOutcome guards against demoting a terminal status and stamps
    // completed_at only once.
    return a.CampaignRepo.MarkOutcome(campaignID, outcome)
}
