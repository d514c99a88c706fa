package repository

import (
    "database/sql"
    "time"

    "github.com/votereach/broadcast-backend/internal/model"
)

type AudioAssetRepositoryInterface interface {
    Create(a *model.AudioAsset) error
    GetByID(id int) (*model.AudioAsset, error)
    ListAll() ([]model.AudioAsset, error)
}

type AudioAssetRepository struct {
    DB *sql.DB
}

func (r *AudioAssetRepository) Create(a *model.AudioAsset) error {
    a.CreatedAt = time.Now()
    query := `
        INSERT INTO audio_assets (name, url, duration_secs, content_type, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
    return r.DB.QueryRow(query, a.Name, a.URL, a.DurationSecs, a.ContentType, a.CreatedAt).Scan(&a.ID)
}

func (r *AudioAssetRepository) GetByID(id int) (*model.AudioAsset, error) {
    query := `SELECT id, name, url, duration_secs, content_type, created_at FROM audio_assets WHERE id=$1`
    var a model.AudioAsset
    err := r.DB.QueryRow(query, id).Scan(&a.ID, &a.Name, &a.URL, &a.DurationSecs, &a.ContentType, &a.CreatedAt)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, nil // not found
        }
        return nil, err
    }
    return &a, nil
}

func (r *AudioAssetRepository) ListAll() ([]model.AudioAsset, error) {
    query := `SELECT id, name, url, duration_secs, content_type, created_at FROM audio_assets ORDER BY id DESC`
    rows, err := r.DB.Query(query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    assets := []model.AudioAsset{}
    for rows.Next() {
        var a model.AudioAsset
        if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.DurationSecs, &a.ContentType, &a.CreatedAt); err != nil {
            return nil, err
        }
        assets = append(assets, a)
    }
    return assets, rows.Err()
}

var _ AudioAssetRepositoryInterface = (*AudioAssetRepository)(nil)
