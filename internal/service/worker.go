// internal/service/worker.go
package service

import (
    "context"
    "fmt"
    "log"

    "golang.org/x/time/rate"

    "github.com/votereach/broadcast-backend/internal/gateway"
    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/queue"
    "github.com/votereach/broadcast-backend/internal/repository"
)

// BatchWorker processes one batch job at a time: recipients sequentially,
// outbound calls throttled by the channel's shared limiter. Parallelism comes
// from the consumer pool running many batches, never from inside a batch.
type BatchWorker struct {
    CampaignRepo  repository.CampaignRepositoryInterface
    BatchRepo     repository.BatchRepositoryInterface
    RecipientRepo repository.RecipientRepositoryInterface
    AudioRepo     repository.AudioAssetRepositoryInterface
    SMS           gateway.SMSGateway
    Voice         gateway.VoiceGateway
    Limiter       *rate.Limiter
    Aggregator    *StatusAggregator
    FlushEvery    int // progress write cadence, in recipients
}

type sendFunc func(ctx context.Context, rec *model.Recipient) (gateway.SendResult, model.RecipientStatus, error)

// ProcessJob runs one batch. Recipient-level failures are recorded and the
// loop continues; an error returned from here fails the whole job and the
// queue retries it. Recipients already in a terminal state are skipped, so a
// retried job only re-attempts the ones still queued or sending.
func (w *BatchWorker) ProcessJob(job queue.Job) error {
    ctx := context.Background()

    batch, err := w.BatchRepo.GetByID(job.BatchID)
    if err != nil {
        return err
    }
    if batch == nil {
        log.Println("⚠️ Batch not found for job, dropping:", job.ID)
        return nil
    }

    campaign, err := w.CampaignRepo.GetByID(job.CampaignID)
    if err != nil {
        return err
    }
    if campaign.Status == model.CampaignCancelled {
        log.Printf("Campaign %d cancelled before batch %d started, skipping\n", campaign.ID, batch.ID)
        return nil
    }

    send, err := w.senderFor(campaign)
    if err != nil {
        return err
    }

    if err := w.BatchRepo.UpdateStatus(batch.ID, model.BatchProcessing); err != nil {
        return err
    }

    recipients, err := w.RecipientRepo.ListByBatch(batch.ID)
    if err != nil {
        return err
    }

    // Campaign throttle override throttles on top of the channel ceiling.
    var campaignLimiter *rate.Limiter
    if campaign.ThrottleRate > 0 {
        campaignLimiter = rate.NewLimiter(rate.Limit(campaign.ThrottleRate), 1)
    }

    flushEvery := w.FlushEvery
    if flushEvery <= 0 {
        flushEvery = 25
    }

    var processed, success, failure int // deltas not yet flushed
    sinceFlush := 0
    flush := func() error {
        if processed == 0 && success == 0 && failure == 0 {
            sinceFlush = 0
            return nil
        }
        if err := w.BatchRepo.AddCounters(batch.ID, processed, success, failure); err != nil {
            return err
        }
        if err := w.CampaignRepo.AddCounters(campaign.ID, processed, success, failure); err != nil {
            return err
        }
        processed, success, failure, sinceFlush = 0, 0, 0, 0
        return nil
    }

    for i, rec := range recipients {
        if rec.Status.IsTerminal() {
            continue
        }

        // Cancellation check before each send; aborts the rest of the batch.
        status, err := w.CampaignRepo.GetStatus(campaign.ID)
        if err != nil {
            flush()
            return err
        }
        if status == model.CampaignCancelled {
            log.Printf("Campaign %d cancelled, aborting batch %d at recipient %d/%d\n",
                campaign.ID, batch.ID, i, len(recipients))
            break
        }

        if w.Limiter != nil {
            if err := w.Limiter.Wait(ctx); err != nil {
                flush()
                return err
            }
        }
        if campaignLimiter != nil {
            if err := campaignLimiter.Wait(ctx); err != nil {
                flush()
                return err
            }
        }

        prev := rec.Status
        newStatus, providerRef, lastErr := w.attempt(ctx, send, rec)
        if err := w.RecipientRepo.MarkResult(rec.ID, newStatus, providerRef, lastErr); err != nil {
            flush()
            return err
        }

        // Counters move by the difference from the persisted state. A retried
        // job re-attempts recipients left in sending, and those were already
        // counted as processed (and as success) when their first attempt was
        // flushed; re-counting them would push processed_recipients past
        // total_recipients.
        if prev == model.RecipientQueued {
            processed++
        }
        success += boolInt(newStatus.CountsAsSuccess()) - boolInt(prev.CountsAsSuccess())
        failure += boolInt(newStatus == model.RecipientFailed) - boolInt(prev == model.RecipientFailed)

        sinceFlush++
        if sinceFlush >= flushEvery {
            if err := flush(); err != nil {
                return err
            }
        }
    }

    if err := flush(); err != nil {
        return err
    }

    fresh, err := w.BatchRepo.GetByID(batch.ID)
    if err != nil {
        return err
    }
    outcome := model.BatchCompleted
    if fresh.SuccessCount == 0 && fresh.FailureCount > 0 {
        outcome = model.BatchFailed
    }
    if err := w.BatchRepo.UpdateStatus(batch.ID, outcome); err != nil {
        return err
    }

    return w.Aggregator.Recompute(campaign.ID)
}

// attempt sends to one recipient. Gateway errors are caught here and recorded
// as that recipient's failure; they never abort the batch.
func (w *BatchWorker) attempt(ctx context.Context, send sendFunc, rec *model.Recipient) (model.RecipientStatus, string, string) {
    res, acceptStatus, err := send(ctx, rec)
    if err != nil {
        return model.RecipientFailed, res.ProviderRef, err.Error()
    }
    if !res.Accepted {
        return model.RecipientFailed, res.ProviderRef, res.Detail
    }
    return acceptStatus, res.ProviderRef, ""
}

// senderFor dispatches on the campaign channel once per job. SMS acceptance
// means the message is on its way (`sent`); a voice initiation stays
// `sending` until the call-status webhook settles it.
func (w *BatchWorker) senderFor(campaign *model.Campaign) (sendFunc, error) {
    switch campaign.Channel {
    case model.ChannelSMS:
        if w.SMS == nil {
            return nil, fmt.Errorf("sms gateway not configured")
        }
        template := campaign.MessageTemplate
        return func(ctx context.Context, rec *model.Recipient) (gateway.SendResult, model.RecipientStatus, error) {
            message := RenderTemplate(template, rec.Attributes())
            res, err := w.SMS.Send(ctx, rec.Phone, message)
            return res, model.RecipientSent, err
        }, nil

    case model.ChannelVoice:
        if w.Voice == nil {
            return nil, fmt.Errorf("voice gateway not configured")
        }
        if campaign.AudioAssetID == nil {
            return nil, fmt.Errorf("voice campaign %d has no audio asset", campaign.ID)
        }
        asset, err := w.AudioRepo.GetByID(*campaign.AudioAssetID)
        if err != nil {
            return nil, err
        }
        if asset == nil {
            return nil, fmt.Errorf("audio asset %d not found for campaign %d", *campaign.AudioAssetID, campaign.ID)
        }
        return func(ctx context.Context, rec *model.Recipient) (gateway.SendResult, model.RecipientStatus, error) {
            res, err := w.Voice.Initiate(ctx, rec.Phone, asset.URL)
            return res, model.RecipientSending, err
        }, nil

    default:
        return nil, fmt.Errorf("unknown campaign channel %q", campaign.Channel)
    }
}

// FailJob is the dead-job hook: after the retry ceiling the batch keeps its
// committed partial progress and is marked failed.
func (w *BatchWorker) FailJob(job queue.Job, cause error) {
    log.Printf("⚠️ Job %s exhausted retries: %v\n", job.ID, cause)
    if err := w.BatchRepo.UpdateStatus(job.BatchID, model.BatchFailed); err != nil {
        log.Println("⚠️ Failed to mark batch failed:", err)
        return
    }
    if err := w.Aggregator.Recompute(job.CampaignID); err != nil {
        log.Println("⚠️ Failed to recompute campaign status:", err)
    }
}
