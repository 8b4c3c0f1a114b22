// Package search keeps the elasticsearch view of blog posts: a posts index
// updated on every mutation and queried by the public search endpoint.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/edvlasov/blog-backend/internal/models"
)

const Index = "posts"

type PostDoc struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Thumbnail   *string   `json:"thumbnail"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	AuthorID    uint      `json:"authorId"`
	AuthorName  string    `json:"authorName"`
}

func DocFromPost(p *models.Post, authorName string) PostDoc {
	return PostDoc{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Thumbnail:   p.Thumbnail,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		AuthorID:    p.AuthorID,
		AuthorName:  authorName,
	}
}

func IndexPost(ctx context.Context, es *elasticsearch.Client, doc PostDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index post: %w", err)
	}

	res, err := es.Index(
		Index,
		bytes.NewReader(data),
		es.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index post: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index post: %s: %s", res.Status(), body)
	}
	return nil
}

func DeletePost(ctx context.Context, es *elasticsearch.Client, id uint) error {
	res, err := es.Delete(
		Index,
		strconv.FormatUint(uint64(id), 10),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete post doc: %w", err)
	}
	defer res.Body.Close()
	// 404 here just means the doc never made it into the index
	if res.IsError() && res.StatusCode != 404 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete post doc: %s: %s", res.Status(), body)
	}
	return nil
}

// Search runs a fuzzy multi-match over title and content, title weighted up.
func Search(ctx context.Context, es *elasticsearch.Client, query string, size int) (int64, []PostDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "content"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(Index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), raw)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source PostDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]PostDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
