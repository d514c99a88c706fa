// internal/controller/audio_asset_controller.go
package controller

import (
    "encoding/json"
    "net/http"
    "strings"

    "github.com/votereach/broadcast-backend/internal/model"
    "github.com/votereach/broadcast-backend/internal/repository"
)

type AudioAssetController struct {
    AudioRepo repository.AudioAssetRepositoryInterface
}

func (c *AudioAssetController) RegisterAsset(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Name         string `json:"name"`
        URL          string `json:"url"`
        DurationSecs int    `json:"duration_secs"`
        ContentType  string `json:"content_type"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if strings.TrimSpace(body.URL) == "" {
        http.Error(w, "url is required", http.StatusBadRequest)
        return
    }

    asset := &model.AudioAsset{
        Name:         body.Name,
        URL:          body.URL,
        DurationSecs: body.DurationSecs,
        ContentType:  body.ContentType,
    }
    if err := c.AudioRepo.Create(asset); err != nil {
        http.Error(w, "failed to register asset: "+err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(http.StatusCreated)
    json.NewEncoder(w).Encode(asset)
}

func (c *AudioAssetController) ListAssets(w http.ResponseWriter, r *http.Request) {
    assets, err := c.AudioRepo.ListAll()
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"data": assets})
}
