// Package qdrant implements a vector store backed by a Qdrant server
// over its REST API. The course catalog is mirrored in memory so that
// name resolution and outlines do not hit the server.
package qdrant

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lectern/pkg/embedding"
	"lectern/pkg/vectorstore"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultSearchLimit = 5

// Config Qdrant 連線設定
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Store Qdrant 向量庫
type Store struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
	embedder   embedding.Embedder

	mu      sync.RWMutex
	courses map[string]vectorstore.CourseMeta
	order   []string
}

// NewStore 建立 Qdrant 向量庫並確保 collection 存在
func NewStore(cfg Config, embedder embedding.Embedder) (*Store, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
		embedder:   embedder,
		courses:    make(map[string]vectorstore.CourseMeta),
	}

	if err := s.ensureCollection(); err != nil {
		return nil, fmt.Errorf("qdrant: init collection: %w", err)
	}
	return s, nil
}

// ensureCollection 建立 collection；已存在且 schema 相同時 Qdrant 回 200
func (s *Store) ensureCollection() error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Store) AddCourse(ctx context.Context, meta vectorstore.CourseMeta) error {
	if meta.Title == "" {
		return fmt.Errorf("qdrant: course title is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.courses[meta.Title]; exists {
		return nil
	}
	s.courses[meta.Title] = meta
	s.order = append(s.order, meta.Title)
	return nil
}

func (s *Store) AddChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("qdrant: embed chunks: %w", err)
	}

	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		payload := map[string]any{
			"course_title": c.CourseTitle,
			"chunk_index":  c.ChunkIndex,
			"content":      c.Content,
		}
		if c.LessonNumber != nil {
			payload["lesson_number"] = *c.LessonNumber
		}
		points[i] = map[string]any{
			"id":      uuid.NewString(),
			"vector":  vectors[i],
			"payload": payload,
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Store) Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}

	req := map[string]any{
		"vector":       queryVec,
		"limit":        limit,
		"with_payload": true,
	}

	var must []map[string]any
	if courseTitle != "" {
		must = append(must, map[string]any{
			"key":   "course_title",
			"match": map[string]any{"value": courseTitle},
		})
	}
	if lessonNumber != nil {
		must = append(must, map[string]any{
			"key":   "lesson_number",
			"match": map[string]any{"value": *lessonNumber},
		})
	}
	if len(must) > 0 {
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}

	results := make([]vectorstore.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := vectorstore.SearchResult{Score: float32(r.Score)}
		if v, ok := r.Payload["content"].(string); ok {
			res.Content = v
		}
		if v, ok := r.Payload["course_title"].(string); ok {
			res.CourseTitle = v
		}
		if v, ok := r.Payload["lesson_number"].(float64); ok {
			n := int(v)
			res.LessonNumber = &n
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	titles := append([]string(nil), s.order...)
	s.mu.RUnlock()

	if title, ok := vectorstore.BestCourseMatch(name, titles); ok {
		return title, nil
	}
	return "", fmt.Errorf("%w: %q", vectorstore.ErrCourseNotFound, name)
}

func (s *Store) Outline(ctx context.Context, courseTitle string) (*vectorstore.CourseMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.courses[courseTitle]
	if !ok {
		return nil, fmt.Errorf("%w: %q", vectorstore.ErrCourseNotFound, courseTitle)
	}
	cp := meta
	cp.Lessons = append([]vectorstore.Lesson(nil), meta.Lessons...)
	return &cp, nil
}

func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}

func (s *Store) CourseCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.courses), nil
}

func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.courses[courseTitle]
	if !ok {
		return "", nil
	}
	for _, lesson := range meta.Lessons {
		if lesson.Number == lessonNumber {
			return lesson.Link, nil
		}
	}
	return "", nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.courses = make(map[string]vectorstore.CourseMeta)
	s.order = nil
	s.mu.Unlock()

	// Best-effort: drop collection
	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, s.collection), nil)
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	if resp, err := s.client.Do(req); err == nil {
		resp.Body.Close()
	}

	// 重建空 collection，否則後續 upsert 會打在不存在的 collection 上
	if err := s.ensureCollection(); err != nil {
		return fmt.Errorf("qdrant: recreate collection: %w", err)
	}
	return nil
}

func (s *Store) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
