package repositories

import (
	"context"
	"time"

	"github.com/rohits-web03/docvault/internal/models"
	"gorm.io/gorm"
)

// DocumentRepository scopes every lookup by owner. A document owned by
// someone else is reported as gorm.ErrRecordNotFound.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Document, error) {
	docs := make([]models.Document, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) FindOwned(ctx context.Context, ownerID, id uint) (*models.Document, error) {
	return findOwned(r.db.WithContext(ctx), ownerID, id)
}

func (r *DocumentRepository) UpdateAnalysis(ctx context.Context, ownerID, id uint, analysis string) (*models.Document, error) {
	var doc *models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Document{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Update("analysis", analysis)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var err error
		doc, err = findOwned(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Sign writes signature and signed_date in a single UPDATE, overwriting any
// previous signature.
func (r *DocumentRepository) Sign(ctx context.Context, ownerID, id uint, signature string, at time.Time) (*models.Document, error) {
	var doc *models.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOwned(tx, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.Model(current).Updates(map[string]any{
			"signature":   signature,
			"signed_date": at,
		}).Error; err != nil {
			return err
		}
		doc, err = findOwned(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) DeleteOwned(ctx context.Context, ownerID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func findOwned(db *gorm.DB, ownerID, id uint) (*models.Document, error) {
	var doc models.Document
	if err := db.Where("id = ? AND owner_id = ?", id, ownerID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}
