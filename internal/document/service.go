package document

import (
	"brand-builder/internal/domain"
	"brand-builder/internal/errors"
	"brand-builder/redis"
	"context"
	defError "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, userID uint64, t domain.DocumentType, name string) (*domain.Document, error)
	Save(ctx context.Context, userID uint64, doc *domain.Document) error
	Get(ctx context.Context, userID uint64, t domain.DocumentType, id string) (*domain.Document, error)
	List(ctx context.Context, userID uint64, t domain.DocumentType, page, pageSize int) (*PaginatedDocuments, error)
	Delete(ctx context.Context, userID uint64, t domain.DocumentType, id string) error
	SetThumbnail(ctx context.Context, t domain.DocumentType, id, url string) error
}

// Thumbnailer renders a preview of a saved document in the background.
type Thumbnailer interface {
	Schedule(doc *domain.Document)
}

type DefaultService struct {
	repository  DocumentRepository
	cache       *redis.Cache
	thumbnailer Thumbnailer
	logger      *zap.Logger
}

func NewService(repository DocumentRepository, cache *redis.Cache, thumbnailer Thumbnailer, logger *zap.Logger) *DefaultService {
	return &DefaultService{
		repository:  repository,
		cache:       cache,
		thumbnailer: thumbnailer,
		logger:      logger,
	}
}

func versionKey(userID uint64, t domain.DocumentType) string {
	return fmt.Sprintf("user:%d:%s:version", userID, t)
}

func (s *DefaultService) table(t domain.DocumentType) (string, error) {
	table, err := TableFor(t)
	if err != nil {
		return "", errors.BadRequest("Unknown document type", err)
	}
	return table, nil
}

func invalidDocument(err error) *errors.APIError {
	return errors.UnprocessableEntity("Invalid document: "+err.Error(), nil)
}

func (s *DefaultService) Create(ctx context.Context, userID uint64, t domain.DocumentType, name string) (*domain.Document, error) {
	if !t.Valid() {
		return nil, errors.BadRequest("Unknown document type", nil)
	}
	doc := domain.NewDocument(t)
	if name != "" {
		doc.Name = name
	}
	if err := s.Save(ctx, userID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes the full document. A save that loses the ownership check is
// reported as not found.
func (s *DefaultService) Save(ctx context.Context, userID uint64, doc *domain.Document) error {
	table, err := s.table(doc.Type)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return invalidDocument(err)
	}

	record := recordFrom(userID, doc)
	if err := s.repository.Save(ctx, table, record); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Document not found", err)
		}
		return err
	}

	s.cache.IncrementVersion(ctx, versionKey(userID, doc.Type))
	if s.thumbnailer != nil {
		s.thumbnailer.Schedule(record.ToDocument(doc.Type))
	}
	return nil
}

func (s *DefaultService) Get(ctx context.Context, userID uint64, t domain.DocumentType, id string) (*domain.Document, error) {
	table, err := s.table(t)
	if err != nil {
		return nil, err
	}
	record, err := s.repository.FindByID(ctx, table, id, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Document not found", err)
		}
		return nil, err
	}
	return record.ToDocument(t), nil
}

func (s *DefaultService) List(ctx context.Context, userID uint64, t domain.DocumentType, page, pageSize int) (*PaginatedDocuments, error) {
	table, err := s.table(t)
	if err != nil {
		return nil, err
	}

	v := s.cache.GetVersion(ctx, versionKey(userID, t))
	cacheKey := fmt.Sprintf("docs:u:%d:t:%s:v:%d:p:%d:ps:%d", userID, t, v, page, pageSize)

	var result PaginatedDocuments
	if found, err := s.cache.Get(ctx, cacheKey, &result); err != nil {
		s.logger.Debug("document list cache read failed", zap.Error(err))
	} else if found {
		return &result, nil
	}

	records, meta, err := s.repository.GetByUserID(ctx, table, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedDocuments{Data: make([]Summary, 0, len(records)), Meta: meta}
	for _, r := range records {
		result.Data = append(result.Data, Summary{
			ID:           r.ID,
			Name:         r.Name,
			Type:         t,
			PageCount:    len(r.Pages),
			ThumbnailURL: r.ThumbnailURL,
			UpdatedAt:    r.UpdatedAt,
		})
	}

	if err := s.cache.Set(ctx, cacheKey, result, 24*time.Hour); err != nil {
		s.logger.Debug("document list cache write failed", zap.Error(err))
	}
	return &result, nil
}

func (s *DefaultService) Delete(ctx context.Context, userID uint64, t domain.DocumentType, id string) error {
	table, err := s.table(t)
	if err != nil {
		return err
	}
	if err := s.repository.Delete(ctx, table, id, userID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Document not found", err)
		}
		return err
	}
	s.cache.IncrementVersion(ctx, versionKey(userID, t))
	return nil
}

func (s *DefaultService) SetThumbnail(ctx context.Context, t domain.DocumentType, id, url string) error {
	table, err := s.table(t)
	if err != nil {
		return err
	}
	return s.repository.SetThumbnail(ctx, table, id, url)
}

// UseThumbnailer sets the thumbnail scheduler after construction, since the
// thumbnailer itself writes back through the service.
func (s *DefaultService) UseThumbnailer(t Thumbnailer) {
	s.thumbnailer = t
}
