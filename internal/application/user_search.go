package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/incluiaqui/incluiaqui-server/internal/domain/entity"
)

// UserSearch maintains a best-effort Elasticsearch index of users and serves
// full-text lookups over it. Indexing failures are logged and never fail the
// request that triggered them; the database stays the source of truth.
type UserSearch struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewUserSearch(es *elasticsearch.Client, index string, logger *logrus.Logger) *UserSearch {
	return &UserSearch{es: es, index: index, logger: logger}
}

// Enabled reports whether an Elasticsearch backend is configured.
func (s *UserSearch) Enabled() bool {
	return s != nil && s.es != nil && s.index != ""
}

// Index writes the user's public projection into the search index.
func (s *UserSearch) Index(ctx context.Context, u *entity.User) {
	if !s.Enabled() {
		return
	}
	doc := map[string]any{
		"id":         u.ID.String(),
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"points":     u.Points,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.index, DocumentID: u.ID.String(), Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.es)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": u.ID}).Warn("es index response error")
	}
}

// Remove deletes the user's document from the search index.
func (s *UserSearch) Remove(ctx context.Context, id uuid.UUID) {
	if !s.Enabled() {
		return
	}
	req := esapi.DeleteRequest{Index: s.index, DocumentID: id.String()}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.es)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

// Search runs a multi_match query over username and email.
func (s *UserSearch) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if !s.Enabled() {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.es.Search(
		s.es.Search.WithContext(c),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
