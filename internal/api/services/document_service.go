package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rohits-web03/docvault/internal/extractor"
	"github.com/rohits-web03/docvault/internal/models"
	"github.com/rohits-web03/docvault/internal/repositories"
	"github.com/rohits-web03/docvault/internal/storage"
	"github.com/rohits-web03/docvault/internal/summarizer"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService runs the document lifecycle: upload, analyze, sign, read
// and delete. Every operation is scoped to ownerID; documents of other users
// are reported as ErrNotFound.
type DocumentService struct {
	docs       *repositories.DocumentRepository
	store      storage.Store
	extractor  extractor.Extractor
	summarizer summarizer.Summarizer
	logger     *zap.Logger
	now        func() time.Time
}

func NewDocumentService(
	docs *repositories.DocumentRepository,
	store storage.Store,
	ext extractor.Extractor,
	sum summarizer.Summarizer,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docs:       docs,
		store:      store,
		extractor:  ext,
		summarizer: sum,
		logger:     logger.With(zap.String("service", "document_service")),
		now:        time.Now,
	}
}

// Upload stores data under a collision-free name derived from filename and
// records a new document.
func (s *DocumentService) Upload(ctx context.Context, ownerID uint, filename string, data []byte) (*models.Document, error) {
	if strings.TrimSpace(filename) == "" || len(data) == 0 {
		return nil, ErrNoFileProvided
	}

	now := s.now()
	stored, err := storage.CreateUnique(ctx, s.store, filename, data, now)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return nil, ErrNoFileProvided
		}
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.Document{
		OwnerID:    ownerID,
		Filename:   stored,
		UploadedAt: now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if rmErr := s.store.Remove(ctx, stored); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned upload", zap.String("filename", stored), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("database insert failed: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.Uint("user_id", ownerID),
		zap.Uint("document_id", doc.ID),
		zap.String("filename", stored),
		zap.Int("size", len(data)),
	)
	return doc, nil
}

// Analyze extracts the document text, asks the summarizer for a summary and
// stores it. On failure the previous analysis is left as it was.
func (s *DocumentService) Analyze(ctx context.Context, ownerID, id uint) (*models.Document, error) {
	doc, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	text, err := s.extractText(ctx, doc)
	if err != nil {
		s.logger.Warn("Text extraction failed", zap.Uint("document_id", id), zap.Error(err))
		return nil, err
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, summarizer.BuildPrompt(text))
	if err != nil {
		s.logger.Warn("Summarizer call failed",
			zap.Uint("document_id", id),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	updated, err := s.docs.UpdateAnalysis(ctx, ownerID, id, summary)
	if err != nil {
		return nil, mapRecordErr(err)
	}
	s.logger.Info("Document analyzed",
		zap.Uint("document_id", id),
		zap.Int("text_chars", len([]rune(text))),
		zap.Duration("duration", time.Since(start)),
	)
	return updated, nil
}

func (s *DocumentService) extractText(ctx context.Context, doc *models.Document) (string, error) {
	rc, err := s.store.Open(ctx, doc.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	defer rc.Close()

	text, err := s.extractor.Extract(ctx, rc, doc.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return text, nil
}

// Sign records signature with the current time, replacing any earlier
// signature.
func (s *DocumentService) Sign(ctx context.Context, ownerID, id uint, signature string) (*models.Document, error) {
	if _, err := s.find(ctx, ownerID, id); err != nil {
		return nil, err
	}
	if signature == "" {
		return nil, ErrSignatureRequired
	}

	doc, err := s.docs.Sign(ctx, ownerID, id, signature, s.now())
	if err != nil {
		return nil, mapRecordErr(err)
	}
	s.logger.Info("Document signed", zap.Uint("user_id", ownerID), zap.Uint("document_id", id))
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID uint) ([]models.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

func (s *DocumentService) Get(ctx context.Context, ownerID, id uint) (*models.Document, error) {
	return s.find(ctx, ownerID, id)
}

// Open returns the document and a reader over its stored bytes. The caller
// closes the reader.
func (s *DocumentService) Open(ctx context.Context, ownerID, id uint) (*models.Document, io.ReadCloser, error) {
	doc, err := s.find(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return doc, rc, nil
}

// Delete removes the stored file and then the row. A file that cannot be
// removed does not fail the call.
func (s *DocumentService) Delete(ctx context.Context, ownerID, id uint) error {
	doc, err := s.find(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, doc.Filename); err != nil {
		level := zap.WarnLevel
		if errors.Is(err, storage.ErrNotExist) {
			level = zap.DebugLevel
		}
		s.logger.Log(level, "Stored file not removed", zap.String("filename", doc.Filename), zap.Error(err))
	}

	if err := s.docs.DeleteOwned(ctx, ownerID, id); err != nil {
		return mapRecordErr(err)
	}
	s.logger.Info("Document deleted", zap.Uint("user_id", ownerID), zap.Uint("document_id", id))
	return nil
}

func (s *DocumentService) find(ctx context.Context, ownerID, id uint) (*models.Document, error) {
	doc, err := s.docs.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, mapRecordErr(err)
	}
	return doc, nil
}

func mapRecordErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
