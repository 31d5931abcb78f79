package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"taka-billing/internal/clients"
)

// ExportStorage is where finished export files land: local disk or an
// S3-compatible bucket, selected by config.
type ExportStorage interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	UserID   int64     `json:"user_id"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    *string   `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

func saveExportStatus(ctx context.Context, redis *clients.RedisClient, st *ExportStatus) error {
	if redis == nil {
		return nil
	}
	if err := redis.SetJSON(ctx, st.Key, st, exportTTL); err != nil {
		return err
	}
	return redis.SAdd(ctx, exportSetKey, st.Key)
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02 15:04:05")
}

// ExportService lists and resolves export jobs a user has started.
type ExportService struct {
	redis *clients.RedisClient
}

func NewExportService(redis *clients.RedisClient) *ExportService {
	return &ExportService{redis: redis}
}

func (s *ExportService) GetExports(ctx context.Context, userID int64) ([]interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		var status ExportStatus
		if err := s.redis.GetJSON(ctx, key, &status); err != nil {
			continue
		}

		if status.UserID == userID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	var exports []interface{}
	for _, status := range statuses {
		exports = append(exports, exportMap(status))
	}

	return exports, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, userID int64) (interface{}, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	var status ExportStatus
	if err := s.redis.GetJSON(ctx, exportID, &status); err != nil {
		return nil, errors.New("export not found")
	}

	if status.UserID != userID {
		return nil, errors.New("export not found")
	}

	return exportMap(status), nil
}

func exportMap(status ExportStatus) map[string]interface{} {
	return map[string]interface{}{
		"key":        status.Key,
		"type":       status.Type,
		"user_id":    status.UserID,
		"progress":   status.Progress,
		"file_url":   status.FileURL,
		"error":      status.Error,
		"filters":    status.Filters,
		"created_at": status.Created.Format(time.RFC3339),
	}
}
