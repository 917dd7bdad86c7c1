package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greenfield-academy/admin-api/internal/models"
)

// NewsRepository manages persistence for news articles.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository constructs a NewsRepository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

const newsColumns = "id, title, excerpt, full_content, category, author, date, image_path, created_at, updated_at"

// List returns articles matching filters along with total count.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsArticle, int, error) {
	base := "FROM news_articles WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(excerpt) LIKE $%d OR LOWER(author) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	allowedSorts := map[string]string{
		"title":      "title",
		"date":       "date",
		"category":   "category",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", newsColumns, base, column, order, size, offset)
	var articles []models.NewsArticle
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list news: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count news: %w", err)
	}

	return articles, total, nil
}

// FindByID fetches an article by ID.
func (r *NewsRepository) FindByID(ctx context.Context, id string) (*models.NewsArticle, error) {
	query := fmt.Sprintf("SELECT %s FROM news_articles WHERE id = $1", newsColumns)
	var article models.NewsArticle
	if err := r.db.GetContext(ctx, &article, query, id); err != nil {
		return nil, err
	}
	return &article, nil
}

// Create inserts a new article.
func (r *NewsRepository) Create(ctx context.Context, article *models.NewsArticle) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	const query = `INSERT INTO news_articles (id, title, excerpt, full_content, category, author, date, image_path, created_at, updated_at)
		VALUES (:id, :title, :excerpt, :full_content, :category, :author, :date, :image_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("create news: %w", err)
	}
	return nil
}

// Update modifies an existing article.
func (r *NewsRepository) Update(ctx context.Context, article *models.NewsArticle) error {
	article.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news_articles SET title = :title, excerpt = :excerpt, full_content = :full_content, category = :category, author = :author, date = :date, image_path = :image_path, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, article); err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	return nil
}

// Delete removes an article, reporting whether a row was deleted.
func (r *NewsRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM news_articles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete news: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete news rows: %w", err)
	}
	return affected > 0, nil
}
