package document

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository interface {
	Save(ctx context.Context, table string, record *Record) error
	FindByID(ctx context.Context, table, id string, userID uint64) (*Record, error)
	GetByUserID(ctx context.Context, table string, userID uint64, page, pageSize int) ([]Record, DocumentsMeta, error)
	Delete(ctx context.Context, table, id string, userID uint64) error
	SetThumbnail(ctx context.Context, table, id, url string) error
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

// Save inserts the record or overwrites the stored row with the same id.
// Rows owned by another user are never touched.
func (r *DocumentRepositoryImpl) Save(ctx context.Context, table string, record *Record) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	res := r.db.WithContext(ctx).Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "pages", "author", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: table, Name: "user_id"}, Value: record.UserID},
		}},
	}).Create(record)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, table, id string, userID uint64) (*Record, error) {
	var record Record
	err := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *DocumentRepositoryImpl) GetByUserID(ctx context.Context, table string, userID uint64, page, pageSize int) ([]Record, DocumentsMeta, error) {
	var records []Record
	var totalRecords int64

	if err := r.db.WithContext(ctx).Table(table).Where("user_id = ?", userID).Count(&totalRecords).Error; err != nil {
		return nil, DocumentsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Table(table).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, DocumentsMeta{}, err
	}

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))
	return records, DocumentsMeta{
		Total:       totalRecords,
		CurrentPage: page,
		PerPage:     pageSize,
		TotalPage:   totalPages,
	}, nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, table, id string, userID uint64) error {
	res := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DocumentRepositoryImpl) SetThumbnail(ctx context.Context, table, id, url string) error {
	return r.db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		UpdateColumn("thumbnail_url", url).Error
}
