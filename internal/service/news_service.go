package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greenfield-academy/admin-api/internal/models"
	appErrors "github.com/greenfield-academy/admin-api/pkg/errors"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

type newsRepository interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.NewsArticle, int, error)
	FindByID(ctx context.Context, id string) (*models.NewsArticle, error)
	Create(ctx context.Context, article *models.NewsArticle) error
	Update(ctx context.Context, article *models.NewsArticle) error
	Delete(ctx context.Context, id string) (bool, error)
}

// SaveNewsRequest holds payload for creating and updating articles.
type SaveNewsRequest struct {
	Title       string    `json:"title" validate:"required"`
	Excerpt     string    `json:"excerpt" validate:"required"`
	FullContent string    `json:"fullContent" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Author      string    `json:"author" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
}

// NewsService handles news article use-cases.
type NewsService struct {
	repo      newsRepository
	cache     *CacheService
	store     *storage.LocalStorage
	policy    UploadPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNewsService constructs the news service.
func NewNewsService(repo newsRepository, cache *CacheService, store *storage.LocalStorage, policy UploadPolicy, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsService{repo: repo, cache: cache, store: store, policy: policy, validator: validate, logger: logger}
}

type cachedNewsList struct {
	Articles []models.NewsArticle `json:"articles"`
	Total    int                  `json:"total"`
}

// List returns articles and pagination metadata.
func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsArticle, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}

	key := fmt.Sprintf("list:news:%s:%s:%d:%d:%s:%s",
		filter.Search, filter.Category, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
	var cached cachedNewsList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Articles, &models.Pagination{Page: page, PageSize: size, TotalCount: cached.Total}, nil
	}

	articles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list news")
	}
	_ = s.cache.Set(ctx, key, cachedNewsList{Articles: articles, Total: total}, 0)
	return articles, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one article.
func (s *NewsService) Get(ctx context.Context, id string) (*models.NewsArticle, error) {
	article, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "article not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load article")
	}
	return article, nil
}

// Create stores a new article with an optional banner image.
func (s *NewsService) Create(ctx context.Context, req SaveNewsRequest, image *FileUpload) (*models.NewsArticle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}
	article := &models.NewsArticle{
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		FullContent: req.FullContent,
		Category:    req.Category,
		Author:      req.Author,
		Date:        req.Date,
	}
	var staged []stagedUpload
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "news", image)
		if err != nil {
			return nil, err
		}
		article.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create article")
	}
	promoteUploads(s.store, s.logger, staged...)
	s.invalidate(ctx)
	return article, nil
}

// Update modifies an existing article.
func (s *NewsService) Update(ctx context.Context, id string, req SaveNewsRequest, image *FileUpload) (*models.NewsArticle, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid news payload")
	}
	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Title = req.Title
	article.Excerpt = req.Excerpt
	article.FullContent = req.FullContent
	article.Category = req.Category
	article.Author = req.Author
	article.Date = req.Date
	var staged []stagedUpload
	var replaced *string
	if image != nil {
		sf, err := stageUpload(s.store, s.policy, "news", image)
		if err != nil {
			return nil, err
		}
		replaced = article.ImagePath
		article.ImagePath = &sf.final
		staged = append(staged, sf)
	}
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update article")
	}
	promoteUploads(s.store, s.logger, staged...)
	if replaced != nil {
		if err := s.store.Delete(*replaced); err != nil {
			s.logger.Warn("failed to remove replaced news image", zap.String("path", *replaced), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	return article, nil
}

// Delete removes an article.
func (s *NewsService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete article")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "article not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *NewsService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "list:news:*"); err != nil {
		s.logger.Warn("failed to invalidate news cache", zap.Error(err))
	}
}
