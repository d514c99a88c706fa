// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/votereach/broadcast-backend/internal/config"
	"github.com/votereach/broadcast-backend/internal/controller"
	"github.com/votereach/broadcast-backend/internal/db"
	"github.com/votereach/broadcast-backend/internal/handler"
	"github.com/votereach/broadcast-backend/internal/queue"
	"github.com/votereach/broadcast-backend/internal/repository"
	"github.com/votereach/broadcast-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	voterRepo := &repository.VoterRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	batchRepo := &repository.BatchRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}
	audioRepo := &repository.AudioAssetRepository{DB: conn}

	q, err := queue.NewRabbitQueue(cfg.AMQPURL, cfg.MaxJobAttempts)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	builder := &service.CampaignBuilder{
		CampaignRepo:   campaignRepo,
		VoterRepo:      voterRepo,
		AudioRepo:      audioRepo,
		SMSBatchSize:   cfg.SMSBatchSize,
		VoiceBatchSize: cfg.VoiceBatchSize,
	}
	enqueuer := &service.BatchEnqueuer{
		CampaignRepo: campaignRepo,
		BatchRepo:    batchRepo,
		Queue:        q,
	}
	aggregator := &service.StatusAggregator{CampaignRepo: campaignRepo}
	reconciler := &service.WebhookReconciler{
		RecipientRepo: recipientRepo,
		CampaignRepo:  campaignRepo,
		Aggregator:    aggregator,
	}

	campaignController := &controller.CampaignController{
		Builder:       builder,
		Enqueuer:      enqueuer,
		CampaignRepo:  campaignRepo,
		BatchRepo:     batchRepo,
		RecipientRepo: recipientRepo,
	}
	audioController := &controller.AudioAssetController{AudioRepo: audioRepo}
	webhooks := &handler.WebhookHandler{
		Reconciler:    reconciler,
		RecipientRepo: recipientRepo,
		CampaignRepo:  campaignRepo,
		AudioRepo:     audioRepo,
		Secret:        cfg.WebhookSecret,
	}
	if cfg.WebhookSecret == "" {
		log.Println("⚠️ WEBHOOK_SECRET not set, webhook token check disabled")
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignSummary)
	r.Post("/campaigns/{id}/cancel", campaignController.CancelCampaign)

	// Audio assets
	r.Post("/audio-assets", audioController.RegisterAsset)
	r.Get("/audio-assets", audioController.ListAssets)

	// Provider callbacks
	r.Post("/webhooks/sms/dlr", webhooks.SMSDeliveryReport)
	r.Post("/webhooks/voice/status", webhooks.VoiceStatus)

	log.Println("🚀 Server running on", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
