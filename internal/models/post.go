package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Post is a delivered story summary.
type Post struct {
	ID          uuid.UUID `json:"id"`
	ObjectID    string    `json:"object_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	PostURL     string    `json:"post_url"`
	Author      string    `json:"author"`
	Summary     string    `json:"summary"`
	Keywords    []string  `json:"keywords,omitempty"`
	Source      string    `json:"source"`
	Truncated   bool      `json:"truncated"`
	Destination string    `json:"destination"`
	PostedAt    time.Time `json:"posted_at"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// PostStore archives delivered posts. It is never read back to decide
// whether a story should be delivered again.
type PostStore struct {
	pool *pgxpool.Pool
}

// NewPostStore creates a new PostStore.
func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

// Record inserts a delivered post. The same story delivered twice yields
// two rows.
func (s *PostStore) Record(ctx context.Context, p *Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("post record: marshal keywords: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO posts (id, object_id, title, url, post_url, author, summary,
		                   keywords, source, truncated, destination, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING delivered_at
	`, p.ID, p.ObjectID, p.Title, p.URL, p.PostURL, p.Author, p.Summary,
		keywords, p.Source, p.Truncated, p.Destination, p.PostedAt).Scan(&p.DeliveredAt)
	if err != nil {
		return fmt.Errorf("post record: %w", err)
	}
	return nil
}

// List returns the most recently delivered posts.
func (s *PostStore) List(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, object_id, title, url, post_url, author, summary, keywords,
		       source, truncated, destination, posted_at, delivered_at
		FROM posts
		ORDER BY delivered_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("post list: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var keywordsRaw []byte
		if err := rows.Scan(
			&p.ID, &p.ObjectID, &p.Title, &p.URL, &p.PostURL, &p.Author, &p.Summary,
			&keywordsRaw, &p.Source, &p.Truncated, &p.Destination, &p.PostedAt, &p.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("post scan: %w", err)
		}
		p.Keywords = scanKeywords(keywordsRaw)
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

// scanKeywords unmarshals a JSONB keywords column into a []string.
func scanKeywords(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var kw []string
	if err := json.Unmarshal(raw, &kw); err != nil {
		return nil
	}
	if len(kw) == 0 {
		return nil
	}
	return kw
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
