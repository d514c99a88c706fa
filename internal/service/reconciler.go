// internal/service/reconciler.go
package service

import (
    "log"
    "strings"

    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/repository"
)

// WebhookReconciler folds asynchronous provider callbacks back into recipient
// and campaign state. Callbacks for unknown correlation ids and repeated
// status transitions are no-ops.
type WebhookReconciler struct {
    RecipientRepo repository.RecipientRepositoryInterface
    CampaignRepo  repository.CampaignRepositoryInterface
    Aggregator    *StatusAggregator
}

// MapProviderStatus folds the provider vocabulary onto the recipient enum.
func MapProviderStatus(providerStatus string) model.RecipientStatus {
    switch strings.ToLower(providerStatus) {
    case "delivered", "success", "delivrd":
        return model.RecipientDelivered
    case "failed", "rejected", "undeliverable", "undelivered", "expired":
        return model.RecipientFailed
    default:
        return model.RecipientSent
    }
}

// Reconcile applies one callback. The status transition and its counter delta
// go together: the transition is a conditional update that only fires when
// the stored status differs, so a duplicate callback never double-counts.
func (r *WebhookReconciler) Reconcile(providerRef, providerStatus string) error {
    if providerRef == "" {
        log.Println("Webhook callback without correlation id, dropping")
        return nil
    }

    rec, err := r.RecipientRepo.GetByProviderRef(providerRef)
    if err != nil {
        return err
    }
    if rec == nil {
        // Provider retries on non-2xx, so an unknown ref is acknowledged
        // upstream and only logged here.
        log.Println("Webhook callback for unknown correlation id, dropping:", providerRef)
        return nil
    }

    newStatus := MapProviderStatus(providerStatus)
    prev, applied, err := r.RecipientRepo.TransitionByProviderRef(providerRef, newStatus)
    if err != nil {
        return err
    }
    if !applied {
        return nil // status unchanged
    }

    successDelta := boolInt(newStatus.CountsAsSuccess()) - boolInt(prev.CountsAsSuccess())
    failureDelta := boolInt(newStatus == model.RecipientFailed) - boolInt(prev == model.RecipientFailed)
    if successDelta != 0 || failureDelta != 0 {
        if err := r.CampaignRepo.AddCounters(rec.CampaignID, 0, successDelta, failureDelta); err != nil {
            return err
        }
    }

    return r.Aggregator.Recompute(rec.CampaignID)
}

func boolInt(b bool) int {
    if b {
        return 1
    }
    return 0
}
