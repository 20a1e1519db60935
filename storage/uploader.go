package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader кладёт объект в object storage и умеет строить публичный URL.
// Экспорты журнала аудита иммутабельны, поэтому удаления в интерфейсе нет.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}
