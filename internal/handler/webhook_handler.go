// internal/handler/webhook_handler.go
package handler

import (
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "strings"

    "github.com/votereach/broadcast-backend/internal/repository"
    "github.com/votereach/broadcast-backend/internal/service"
)

// WebhookHandler receives provider callbacks. Internal errors are swallowed
// and the provider still gets a 200, otherwise its retry policy would hammer
// us; everything is logged for operators.
type WebhookHandler struct {
    Reconciler    *service.WebhookReconciler
    RecipientRepo repository.RecipientRepositoryInterface
    CampaignRepo  repository.CampaignRepositoryInterface
    AudioRepo     repository.AudioAssetRepositoryInterface

    // Secret authorizes callbacks; empty disables the check.
    Secret string
}

// authorized accepts the shared secret from header, query param, or body
// field. No configured secret means permissive (local/dev).
func (h *WebhookHandler) authorized(r *http.Request, bodyToken string) bool {
    if h.Secret == "" {
        return true
    }
    if r.Header.Get("X-Webhook-Token") == h.Secret {
        return true
    }
    if r.URL.Query().Get("token") == h.Secret {
        return true
    }
    return bodyToken == h.Secret
}

// SMSDeliveryReport handles the text channel's delivery callbacks.
func (h *WebhookHandler) SMSDeliveryReport(w http.ResponseWriter, r *http.Request) {
    var body struct {
        MessageID string `json:"message_id"`
        Status    string `json:"status"`
        Token     string `json:"token"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        log.Println("⚠️ Invalid SMS delivery payload:", err)
        writeOK(w)
        return
    }

    if !h.authorized(r, body.Token) {
        http.Error(w, "unauthorized", http.StatusUnauthorized)
        return
    }

    if err := h.Reconciler.Reconcile(body.MessageID, body.Status); err != nil {
        log.Println("⚠️ SMS delivery reconciliation failed:", err)
    }
    writeOK(w)
}

// VoiceStatus handles the voice channel's call-status callbacks. An active
// leg gets back the voice-control document pointing at the campaign's audio;
// an ended leg settles the recipient's delivery status.
func (h *WebhookHandler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
    var body struct {
        SessionID string `json:"session_id"`
        Status    string `json:"status"` // active | completed | failed | ...
        Duration  int    `json:"duration"`
        Token     string `json:"token"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        log.Println("⚠️ Invalid voice status payload:", err)
        writeOK(w)
        return
    }

    if !h.authorized(r, body.Token) {
        http.Error(w, "unauthorized", http.StatusUnauthorized)
        return
    }

    if strings.EqualFold(body.Status, "active") || strings.EqualFold(body.Status, "ringing") {
        h.writeVoiceControl(w, body.SessionID)
        return
    }

    if err := h.Reconciler.Reconcile(body.SessionID, voiceOutcome(body.Status, body.Duration)); err != nil {
        log.Println("⚠️ Voice status reconciliation failed:", err)
    }
    writeOK(w)
}

// voiceOutcome folds call termination into the provider status vocabulary the
// reconciler already understands. A completed call that actually played audio
// counts as delivered.
func voiceOutcome(status string, duration int) string {
    switch strings.ToLower(status) {
    case "completed", "success":
        if duration > 0 {
            return "delivered"
        }
        return "failed"
    default:
        return "failed"
    }
}

// writeVoiceControl answers an active call leg with the Play document for the
// campaign's audio asset. Unknown sessions get a Reject so the provider hangs
// up instead of retrying.
func (h *WebhookHandler) writeVoiceControl(w http.ResponseWriter, sessionID string) {
    w.Header().Set("Content-Type", "application/xml")

    rec, err := h.RecipientRepo.GetByProviderRef(sessionID)
    if err != nil || rec == nil {
        if err != nil {
            log.Println("⚠️ Voice control lookup failed:", err)
        }
        fmt.Fprint(w, `<Response><Reject/></Response>`)
        return
    }

    campaign, err := h.CampaignRepo.GetByID(rec.CampaignID)
    if err != nil || campaign.AudioAssetID == nil {
        log.Println("⚠️ Voice control: campaign lookup failed for session", sessionID)
        fmt.Fprint(w, `<Response><Reject/></Response>`)
        return
    }

    asset, err := h.AudioRepo.GetByID(*campaign.AudioAssetID)
    if err != nil || asset == nil {
        log.Println("⚠️ Voice control: audio asset missing for campaign", campaign.ID)
        fmt.Fprint(w, `<Response><Reject/></Response>`)
        return
    }

    fmt.Fprintf(w, `<Response><Play url="%s"/></Response>`, asset.URL)
}

func writeOK(w http.ResponseWriter) {
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
