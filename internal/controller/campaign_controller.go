// internal/controller/campaign_controller.go
package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/votereach/broadcast-backend/internal/errors"
    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/repository"
    "github.com/votereach/broadcast-backend/internal/service"
)

type CampaignController struct {
    Builder       *service.CampaignBuilder
    Enqueuer      *service.BatchEnqueuer
    CampaignRepo  repository.CampaignRepositoryInterface
    BatchRepo     repository.BatchRepositoryInterface
    RecipientRepo repository.RecipientRepositoryInterface
}

// CreateCampaign builds the campaign graph and immediately enqueues its
// batches.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Title           string   `json:"title"`
        Channel         string   `json:"channel"`
        TargetLGAs      []string `json:"target_lgas"`
        MessageTemplate string   `json:"message_template"`
        AudioAssetID    *int     `json:"audio_asset_id"`
        ThrottleRate    int      `json:"throttle_rate"`
        CreatedBy       string   `json:"created_by"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    result, err := c.Builder.Build(service.BuildInput{
        Title:           body.Title,
        Channel:         model.Channel(body.Channel),
        TargetLGAs:      body.TargetLGAs,
        MessageTemplate: body.MessageTemplate,
        AudioAssetID:    body.AudioAssetID,
        ThrottleRate:    body.ThrottleRate,
        CreatedBy:       body.CreatedBy,
    })
    if err != nil {
        writeServiceError(w, err)
        return
    }

    if err := c.Enqueuer.EnqueueCampaign(result.Campaign, result.Batches); err != nil {
        http.Error(w, "failed to enqueue batches: "+err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    channel := r.URL.Query().Get("channel")
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    campaigns, total, err := c.CampaignRepo.ListCampaigns(offset, pageSize, channel, status)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    totalPages := (total + pageSize - 1) / pageSize
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data": campaigns,
        "pagination": map[string]int{
            "page":        page,
            "page_size":   pageSize,
            "total_count": total,
            "total_pages": totalPages,
        },
    })
}

// GetCampaignSummary returns the campaign row, its batches, and the recipient
// status histogram.
func (c *CampaignController) GetCampaignSummary(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    campaign, err := c.CampaignRepo.GetByID(id)
    if err != nil {
        writeServiceError(w, err)
        return
    }

    batches, err := c.BatchRepo.ListByCampaign(id)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    stats, err := c.RecipientRepo.StatusHistogram(id)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "campaign":   campaign,
        "batches":    batches,
        "recipients": stats,
    })
}

func (c *CampaignController) CancelCampaign(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid campaign id", http.StatusBadRequest)
        return
    }

    if err := c.CampaignRepo.Cancel(id); err != nil {
        writeServiceError(w, err)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{"status": string(model.CampaignCancelled)})
}

// writeServiceError maps domain error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
    var notFound *appErrors.ErrCampaignNotFound
    var noRecipients *appErrors.ErrNoEligibleRecipients
    var validation *appErrors.ErrValidation
    var assetMissing *appErrors.ErrAudioAssetNotFound
    var terminal *appErrors.ErrCampaignTerminal

    switch {
    case errors.As(err, &notFound):
        http.Error(w, err.Error(), http.StatusNotFound)
    case errors.As(err, &noRecipients), errors.As(err, &validation), errors.As(err, &assetMissing):
        http.Error(w, err.Error(), http.StatusBadRequest)
    case errors.As(err, &terminal):
        http.Error(w, err.Error(), http.StatusConflict)
    default:
        http.Error(w, err.Error(), http.StatusInternalServerError)
    }
}
