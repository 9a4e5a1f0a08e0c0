package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

var errBoom = errors.New("boom")

// fakeSource serves canned review batches and tracks concurrency.
type fakeSource struct {
	mu      sync.Mutex
	batches map[string][]domain.ReviewComment
	fail    map[string]bool
	calls   map[string]int

	inFlight    int64
	maxInFlight int64
	block       chan struct{} // non-nil: fetches wait here
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		batches: make(map[string][]domain.ReviewComment),
		fail:    make(map[string]bool),
		calls:   make(map[string]int),
	}
}

func (f *fakeSource) FetchReviews(ctx context.Context, p domain.PropertyRecord) ([]domain.ReviewComment, error) {
	cur := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		max := atomic.LoadInt64(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt64(&f.maxInFlight, max, cur) {
			break
		}
	}

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls[p.ID]++
	failing := f.fail[p.ID]
	batch := f.batches[p.ID]
	f.mu.Unlock()

	if failing {
		return nil, errBoom
	}
	return batch, nil
}

func (f *fakeSource) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

// fakeCache is an in-memory domain.Cache.
type fakeCache struct {
	mu    sync.Mutex
	items map[string][]domain.ReviewComment
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string][]domain.ReviewComment)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.items[key]
	if !ok {
		return false, nil
	}
	if d, ok := dest.(*[]domain.ReviewComment); ok {
		*d = v
		return true, nil
	}
	return false, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, v any, ttlSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if batch, ok := v.([]domain.ReviewComment); ok {
		f.items[key] = batch
	}
	f.sets++
	return nil
}

func (f *fakeCache) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return nil
}

// fakeClassifier returns a canned result per property, or an error.
type fakeClassifier struct {
	mu      sync.Mutex
	results map[string]*domain.ClassifierResult
	errs    map[string]error
	calls   int
}

func newFakeClassifier() *fakeClassifier {
	return &fakeClassifier{
		results: make(map[string]*domain.ClassifierResult),
		errs:    make(map[string]error),
	}
}

func (f *fakeClassifier) Classify(ctx context.Context, p domain.PropertyRecord, positive, negative []string) (*domain.ClassifierResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[p.ID]; err != nil {
		return nil, err
	}
	if r, ok := f.results[p.ID]; ok {
		return r, nil
	}
	return nil, errBoom
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeTransport records sends and can fail or panic per recipient.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []string // recipients in send order
	fail    map[string]bool
	panicOn map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		fail:    make(map[string]bool),
		panicOn: make(map[string]bool),
	}
}

func (f *fakeTransport) Send(ctx context.Context, subject, body, recipient string) error {
	f.mu.Lock()
	shouldFail := f.fail[recipient]
	shouldPanic := f.panicOn[recipient]
	f.mu.Unlock()

	if shouldPanic {
		panic("transport wedged")
	}
	if shouldFail {
		return errBoom
	}

	f.mu.Lock()
	f.sent = append(f.sent, recipient)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
