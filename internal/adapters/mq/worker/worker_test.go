package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/gigmatch/internal/adapters/mq/queue"
	worker "github.com/okian/gigmatch/internal/adapters/mq/worker"
	model "github.com/okian/gigmatch/internal/domain/model"
	logging "github.com/okian/gigmatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockStore struct {
	mu       sync.Mutex
	postings map[string]model.Posting
	failFor  map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{postings: make(map[string]model.Posting), failFor: make(map[string]error)}
}

func (s *mockStore) UpsertPosting(_ context.Context, p model.Posting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[p.ID]; err != nil {
		return false, err
	}
	_, existed := s.postings[p.ID]
	s.postings[p.ID] = p
	return !existed, nil
}

func (s *mockStore) get(id string) (model.Posting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.postings[id]
	return p, ok
}

type mockForgetter struct {
	mu   sync.Mutex
	keys []string
}

func (f *mockForgetter) Unrecord(_ context.Context, key string) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
}

func (f *mockForgetter) released() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func job(id, title string) queue.Job {
	return queue.Job{
		Key:        "key-" + id,
		Posting:    model.Posting{ID: id, Title: title},
		Source:     queue.SourceAPI,
		ReceivedAt: time.Now(),
	}
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool over an in-memory queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		store := newMockStore()
		forget := &mockForgetter{}
		pool := worker.NewPool(3, q, store, worker.WithForgetter(forget))
		ctx := context.Background()

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When valid jobs are processed and the pool drains", func() {
			pool.Start(ctx)
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, job(fmt.Sprintf("p%d", i), "Design")), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every posting is stored", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, int64(20))
				_, ok := store.get("p7")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(forget.released(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When a job fails validation", func() {
			pool.Start(ctx)
			q.Enqueue(ctx, job("bad", ""))
			q.Enqueue(ctx, job("good", "Copywriting"))
			_ = pool.Shutdown(ctx)

			convey.Convey("Then it is dropped and its key released", func() {
				_, ok := store.get("bad")
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = store.get("good")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(forget.released(), convey.ShouldResemble, []string{"key-bad"})
			})
		})

		convey.Convey("When the store rejects a posting", func() {
			store.failFor["p1"] = errors.New("disk full")
			pool.Start(ctx)
			q.Enqueue(ctx, job("p1", "Logo"))
			_ = pool.Shutdown(ctx)

			convey.Convey("Then the key is released for a retry", func() {
				convey.So(pool.Processed(), convey.ShouldEqual, int64(0))
				convey.So(forget.released(), convey.ShouldResemble, []string{"key-p1"})
			})
		})

		convey.Convey("When the same posting arrives twice", func() {
			pool.Start(ctx)
			q.Enqueue(ctx, job("p1", "v1"))
			q.Enqueue(ctx, job("p1", "v2"))
			_ = pool.Shutdown(ctx)

			convey.Convey("Then both are stored as upserts", func() {
				convey.So(pool.Processed(), convey.ShouldEqual, int64(2))
				_, ok := store.get("p1")
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a single worker", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		store := newMockStore()
		w := worker.NewInMemoryWorker(q, store, worker.WithName("test-worker"))

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})

		convey.Convey("When Shutdown is called on a running worker", func() {
			go w.Run(context.Background())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it stops cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When Shutdown is called on a worker that never ran", func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it reports a timeout", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})
}
