// internal/model/audio_asset.go
package model

import "time"

// AudioAsset is immutable once created; voice campaigns reference it by id.
type AudioAsset struct {
    ID           int       `db:"id" json:"id"`
    Name         string    `db:"name" json:"name"`
    URL          string    `db:"url" json:"url"`
    DurationSecs int       `db:"duration_secs" json:"duration_secs"`
    ContentType  string    `db:"content_type" json:"content_type"`
    CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
