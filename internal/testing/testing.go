// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/shared"
)

// MockCatalog is an in-memory test double for [services.Catalog]
type MockCatalog struct {
	Movies map[int]models.CatalogItem
	Shows  map[int]models.CatalogItem
	Err    error
}

// NewMockCatalog creates a [MockCatalog] with the given movies and series.
func NewMockCatalog(movies, shows []models.CatalogItem) *MockCatalog {
	m := &MockCatalog{Movies: map[int]models.CatalogItem{}, Shows: map[int]models.CatalogItem{}}
	for _, item := range movies {
		m.Movies[item.ID] = item
	}
	for _, item := range shows {
		m.Shows[item.ID] = item
	}
	return m
}

func (m *MockCatalog) Movie(ctx context.Context, id int) (*models.CatalogItem, error) {
	return m.lookup(m.Movies, id)
}

func (m *MockCatalog) Series(ctx context.Context, id int) (*models.CatalogItem, error) {
	return m.lookup(m.Shows, id)
}

func (m *MockCatalog) Search(ctx context.Context, query string, mt models.MediaType) ([]models.CatalogItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	source := m.Movies
	if mt == models.Series {
		source = m.Shows
	}

	results := []models.CatalogItem{}
	for _, item := range source {
		if strings.Contains(strings.ToLower(item.DisplayTitle(mt)), strings.ToLower(query)) {
			results = append(results, item)
		}
	}
	return results, nil
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) lookup(items map[int]models.CatalogItem, id int) (*models.CatalogItem, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	item, ok := items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", shared.ErrTitleNotFound, id)
	}
	return &item, nil
}

// FailingSlotStore reads normally from Slots but rejects every write with Err.
type FailingSlotStore struct {
	Slots interface {
		Get(key string) (*models.Slot, error)
		Revision(key string) (int64, string, error)
	}
	Err error

	mu   sync.Mutex
	puts int
}

func (f *FailingSlotStore) Get(key string) (*models.Slot, error) {
	if f.Slots == nil {
		return nil, shared.ErrSlotNotFound
	}
	return f.Slots.Get(key)
}

func (f *FailingSlotStore) Put(key string, value []byte, origin string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++

	if f.Err != nil {
		return 0, f.Err
	}
	return 0, shared.ErrQuotaExceeded
}

func (f *FailingSlotStore) Revision(key string) (int64, string, error) {
	if f.Slots == nil {
		return 0, "", nil
	}
	return f.Slots.Revision(key)
}

// Puts counts attempted writes.
func (f *FailingSlotStore) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// FlakySlotStore passes every call through to Slots, except that reads fail with Err
// while failures armed by FailReads remain.
type FlakySlotStore struct {
	Slots interface {
		Get(key string) (*models.Slot, error)
		Put(key string, value []byte, origin string) (int64, error)
		Revision(key string) (int64, string, error)
	}
	Err error

	mu       sync.Mutex
	failures int
}

// FailReads makes the next n Get calls fail.
func (f *FlakySlotStore) FailReads(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *FlakySlotStore) Get(key string) (*models.Slot, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, f.Err
	}
	f.mu.Unlock()
	return f.Slots.Get(key)
}

func (f *FlakySlotStore) Put(key string, value []byte, origin string) (int64, error) {
	return f.Slots.Put(key, value, origin)
}

func (f *FlakySlotStore) Revision(key string) (int64, string, error) {
	return f.Slots.Revision(key)
}

// SnapshotRecorder is a subscription spy collecting every delivered snapshot.
type SnapshotRecorder struct {
	mu        sync.Mutex
	snapshots []models.Snapshot
}

// Record is the listener to subscribe.
func (r *SnapshotRecorder) Record(s models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

// Calls returns the number of deliveries so far.
func (r *SnapshotRecorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// Last returns the most recent snapshot.
func (r *SnapshotRecorder) Last() (models.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return models.Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
