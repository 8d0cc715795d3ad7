package repositories

import (
	"context"
	"encoding/json"

	"cold-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	configKeyAPI      = "api_config"
	configKeyNotifier = "notifier_config"
)

// ConfigRepository stores the APIConfig/NotifierConfig singletons as JSON-valued rows
// in a key/value table, generalizing the teacher's system_settings string-valued
// key/value pattern to structured singleton documents.
type ConfigRepository struct {
	DB *pgxpool.Pool
}

func NewConfigRepository(pool *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{DB: pool}
}

func (r *ConfigRepository) GetAPIConfig(ctx context.Context) (*models.APIConfig, error) {
	cfg := &models.APIConfig{}
	var raw []byte
	err := r.DB.QueryRow(ctx, `SELECT value FROM singletons WHERE key = $1`, configKeyAPI).Scan(&raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *ConfigRepository) PutAPIConfig(ctx context.Context, cfg *models.APIConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`INSERT INTO singletons (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		configKeyAPI, raw)
	return err
}

func (r *ConfigRepository) GetNotifierConfig(ctx context.Context) (*models.NotifierConfig, error) {
	cfg := &models.NotifierConfig{}
	var raw []byte
	err := r.DB.QueryRow(ctx, `SELECT value FROM singletons WHERE key = $1`, configKeyNotifier).Scan(&raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *ConfigRepository) PutNotifierConfig(ctx context.Context, cfg *models.NotifierConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx,
		`INSERT INTO singletons (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		configKeyNotifier, raw)
	return err
}
