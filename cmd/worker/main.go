// cmd/worker/main.go
package main

import (
	"log"

	"golang.org/x/time/rate"

	"github.com/votereach/broadcast-backend/internal/config"
	"github.com/votereach/broadcast-backend/internal/db"
	"github.com/votereach/broadcast-backend/internal/gateway"
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

	campaignRepo := &repository.CampaignRepository{DB: conn}
	batchRepo := &repository.BatchRepository{DB: conn}
	recipientRepo := &repository.RecipientRepository{DB: conn}
	audioRepo := &repository.AudioAssetRepository{DB: conn}

	q, err := queue.NewRabbitQueue(cfg.AMQPURL, cfg.MaxJobAttempts)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer q.Close()

	aggregator := &service.StatusAggregator{CampaignRepo: campaignRepo}

	smsGateway, voiceGateway := buildGateways(cfg)

	started := 0
	if smsGateway != nil {
		worker := &service.BatchWorker{
			CampaignRepo:  campaignRepo,
			BatchRepo:     batchRepo,
			RecipientRepo: recipientRepo,
			AudioRepo:     audioRepo,
			SMS:           smsGateway,
			Limiter:       rate.NewLimiter(rate.Limit(cfg.SMSRatePerSec), burst(cfg.SMSRatePerSec)),
			Aggregator:    aggregator,
			FlushEvery:    cfg.ProgressFlushEvery,
		}
		if err := q.Consume(queue.QueueSMS, cfg.SMSWorkers, worker.ProcessJob, worker.FailJob); err != nil {
			log.Fatal("Failed to start SMS consumer:", err)
		}
		log.Printf("SMS pool running: %d workers, %.0f req/s\n", cfg.SMSWorkers, cfg.SMSRatePerSec)
		started++
	}

	if voiceGateway != nil {
		worker := &service.BatchWorker{
			CampaignRepo:  campaignRepo,
			BatchRepo:     batchRepo,
			RecipientRepo: recipientRepo,
			AudioRepo:     audioRepo,
			Voice:         voiceGateway,
			Limiter:       rate.NewLimiter(rate.Limit(cfg.VoiceRatePerSec), burst(cfg.VoiceRatePerSec)),
			Aggregator:    aggregator,
			FlushEvery:    cfg.ProgressFlushEvery,
		}
		if err := q.Consume(queue.QueueVoice, cfg.VoiceWorkers, worker.ProcessJob, worker.FailJob); err != nil {
			log.Fatal("Failed to start voice consumer:", err)
		}
		log.Printf("Voice pool running: %d workers, %.0f req/s\n", cfg.VoiceWorkers, cfg.VoiceRatePerSec)
		started++
	}

	if started == 0 {
		log.Fatal("No channel has usable gateway credentials, nothing to do")
	}

	log.Println("Worker running, waiting for batch jobs...")
	forever := make(chan bool)
	<-forever
}

// buildGateways returns nil for a channel whose credentials are missing; that
// channel's pool simply does not start and the rest of the process keeps
// working.
func buildGateways(cfg *config.Config) (gateway.SMSGateway, gateway.VoiceGateway) {
	if cfg.GatewayMode == "mock" {
		log.Println("⚠️ GATEWAY_MODE=mock, no real messages will be sent")
		return &gateway.MockSMSGateway{}, &gateway.MockVoiceGateway{}
	}

	var sms gateway.SMSGateway
	if cfg.SMSAPIKey != "" {
		sms = gateway.NewHTTPSMSGateway(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.SMSSenderID)
	} else {
		log.Println("⚠️ SMS_API_KEY not set, SMS channel disabled")
	}

	var voice gateway.VoiceGateway
	if cfg.VoiceAPIKey != "" {
		voice = gateway.NewHTTPVoiceGateway(cfg.VoiceGatewayURL, cfg.VoiceAPIKey, cfg.VoiceCallerID, cfg.VoiceStatusCallbackURL())
	} else {
		log.Println("⚠️ VOICE_API_KEY not set, voice channel disabled")
	}

	return sms, voice
}

func burst(perSec float64) int {
	if perSec < 1 {
		return 1
	}
	return int(perSec)
}
