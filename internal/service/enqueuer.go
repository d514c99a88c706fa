// internal/service/enqueuer.go
package service

import (
    "log"

    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/queue"
    "github.com/votereach/broadcast-backend/internal/repository"
)

// BatchEnqueuer publishes one durable job per batch, keyed by the
// deterministic `{campaignID}:{batchID}` idempotency key, then flips the
// campaign to in_progress.
type BatchEnqueuer struct {
    CampaignRepo repository.CampaignRepositoryInterface
    BatchRepo    repository.BatchRepositoryInterface
    Queue        queue.Publisher
}

func (e *BatchEnqueuer) EnqueueCampaign(campaign *model.Campaign, batches []*model.Batch) error {
    queueName := queue.QueueSMS
    if campaign.Channel == model.ChannelVoice {
        queueName = queue.QueueVoice
    }

    for _, b := range batches {
        if b.JobID != "" {
            // Already enqueued; re-running must not create a duplicate job.
            continue
        }
        jobID := queue.JobID(campaign.ID, b.ID)
        job := queue.Job{ID: jobID, CampaignID: campaign.ID, BatchID: b.ID}
        if err := e.Queue.Publish(queueName, job); err != nil {
            return err
        }
        if err := e.BatchRepo.SetJobID(b.ID, jobID); err != nil {
            return err
        }
        b.JobID = jobID
        log.Printf("📤 Enqueued batch %d of campaign %d as job %s\n", b.ID, campaign.ID, jobID)
    }

    if campaign.Status != model.CampaignInProgress {
        if err := e.CampaignRepo.UpdateStatus(campaign.ID, model.CampaignInProgress); err != nil {
            return err
        }
        campaign.Status = model.CampaignInProgress
    }
    return nil
}
