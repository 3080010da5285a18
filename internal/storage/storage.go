package storage

import (
	"context"
	defError "errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidKey = defError.New("invalid blob key")

// Blob is a stored object addressed by a slash separated key such as
// thumbnails/presentation/<id>.jpg.
type Blob struct {
	Key         string `gorm:"primaryKey;column:object_key;size:512"`
	ContentType string
	Data        []byte
	Size        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) (*Blob, error)
	Delete(ctx context.Context, key string) error
}

type GormStore struct {
	db      *gorm.DB
	baseURL string
}

func NewGormStore(db *gorm.DB, baseURL string) *GormStore {
	return &GormStore{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// CleanKey normalises key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func ThumbnailKey(docType, id string) string {
	return fmt.Sprintf("thumbnails/%s/%s.jpg", docType, id)
}

// Put stores data under key, replacing any previous object, and returns its
// public URL.
func (s *GormStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	blob := &Blob{
		Key:         key,
		ContentType: contentType,
		Data:        data,
		Size:        int64(len(data)),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "size", "updated_at"}),
	}).Create(blob).Error
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *GormStore) Get(ctx context.Context, key string) (*Blob, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	var blob Blob
	if err := s.db.WithContext(ctx).Where("object_key = ?", key).First(&blob).Error; err != nil {
		return nil, err
	}
	return &blob, nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("object_key = ?", key).Delete(&Blob{}).Error
}

func (s *GormStore) URL(key string) string {
	return s.baseURL + "/" + key
}
