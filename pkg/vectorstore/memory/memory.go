// Package memory implements an in-memory vector store using
// brute-force cosine similarity. Suitable for development and tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"lectern/pkg/embedding"
	"lectern/pkg/vectorstore"
)

const defaultSearchLimit = 5

type indexedChunk struct {
	chunk  vectorstore.Chunk
	vector []float32
}

// Store 暴力比對的記憶體向量庫
type Store struct {
	embedder embedding.Embedder

	mu      sync.RWMutex
	courses map[string]vectorstore.CourseMeta
	order   []string // 保留加入順序
	chunks  []indexedChunk
}

// NewStore 建立記憶體向量庫
func NewStore(embedder embedding.Embedder) *Store {
	return &Store{
		embedder: embedder,
		courses:  make(map[string]vectorstore.CourseMeta),
	}
}

func (s *Store) AddCourse(ctx context.Context, meta vectorstore.CourseMeta) error {
	if meta.Title == "" {
		return fmt.Errorf("memory: course title is empty")
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
		return fmt.Errorf("memory: embed chunks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		s.chunks = append(s.chunks, indexedChunk{chunk: c, vector: vectors[i]})
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, courseTitle string, lessonNumber *int, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []vectorstore.SearchResult
	for _, ic := range s.chunks {
		if courseTitle != "" && ic.chunk.CourseTitle != courseTitle {
			continue
		}
		if lessonNumber != nil {
			if ic.chunk.LessonNumber == nil || *ic.chunk.LessonNumber != *lessonNumber {
				continue
			}
		}

		score, err := cosineSimilarity(queryVec, ic.vector)
		if err != nil {
			continue
		}
		results = append(results, vectorstore.SearchResult{
			Content:      ic.chunk.Content,
			CourseTitle:  ic.chunk.CourseTitle,
			LessonNumber: ic.chunk.LessonNumber,
			Score:        float32(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
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
	defer s.mu.Unlock()
	s.courses = make(map[string]vectorstore.CourseMeta)
	s.order = nil
	s.chunks = nil
	return nil
}

// cosineSimilarity computes cosine similarity for two vectors.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine similarity: empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: vector dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine similarity: zero vector norm")
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, nil
}
