package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lectern/pkg/vectorstore"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// fakeQdrant 模擬 collection 生命週期：未建立時對 points 操作回 404
type fakeQdrant struct {
	mu          sync.Mutex
	exists      bool
	upserts     int
	createCalls int
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/course_content", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			f.exists = true
			f.createCalls++
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			f.exists = false
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/collections/course_content/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.upserts++
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/collections/course_content/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[]}`))
	})
	return mux
}

func newTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	store, err := NewStore(Config{
		URL:        server.URL,
		Collection: "course_content",
		Dimension:  3,
	}, fixedEmbedder{})
	require.NoError(t, err)
	return store, fake
}

func TestNewStoreCreatesCollection(t *testing.T) {
	_, fake := newTestStore(t)
	assert.Equal(t, 1, fake.createCalls)
	assert.True(t, fake.exists)
}

func TestClearRecreatesCollection(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddCourse(ctx, vectorstore.CourseMeta{Title: "Course A"}))
	require.NoError(t, store.AddChunks(ctx, []vectorstore.Chunk{
		{CourseTitle: "Course A", Content: "some content"},
	}))
	require.Equal(t, 1, fake.upserts)

	require.NoError(t, store.Clear(ctx))
	assert.True(t, fake.exists)

	// 目錄鏡像一併清空
	count, err := store.CourseCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 清空後重建索引要能直接寫入
	require.NoError(t, store.AddCourse(ctx, vectorstore.CourseMeta{Title: "Course A"}))
	require.NoError(t, store.AddChunks(ctx, []vectorstore.Chunk{
		{CourseTitle: "Course A", Content: "fresh content"},
	}))
	assert.Equal(t, 2, fake.upserts)
}

func TestSearchAgainstServer(t *testing.T) {
	store, _ := newTestStore(t)

	results, err := store.Search(context.Background(), "anything", "", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
