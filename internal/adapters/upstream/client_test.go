package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/upstream"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func newBackend(t *testing.T, postsBody string, postsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			http.Error(w, "no such profile", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"skills":"Go, SQL","degree":"Computer Science","hourlyRate":"30","profileCompleteness":90}`))
	})
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(postsStatus)
		_, _ = w.Write([]byte(postsBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	convey.Convey("Given an upstream backend", t, func() {
		ctx := context.Background()

		convey.Convey("When the base url is invalid", func() {
			_, err := upstream.NewClient("not a url")
			convey.So(errors.Is(err, upstream.ErrUpstream), convey.ShouldBeTrue)
		})

		convey.Convey("When fetching a profile", func() {
			srv := newBackend(t, `[]`, http.StatusOK)
			c, err := upstream.NewClient(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)

			p, err := c.FetchProfile(ctx, "u1")

			convey.Convey("Then aliases are normalized and the id is filled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.ID, convey.ShouldEqual, "u1")
				convey.So(p.Skills, convey.ShouldResemble, []string{"Go", "SQL"})
				convey.So(p.DegreeField, convey.ShouldEqual, "Computer Science")
				convey.So(*p.TargetHourlyRate, convey.ShouldEqual, 30.0)
				convey.So(p.CompletenessPercent, convey.ShouldEqual, 90)
			})
		})

		convey.Convey("When the profile does not exist", func() {
			srv := newBackend(t, `[]`, http.StatusOK)
			c, _ := upstream.NewClient(srv.URL)

			_, err := c.FetchProfile(ctx, "missing")

			convey.Convey("Then a StatusError is returned", func() {
				var se *upstream.StatusError
				convey.So(errors.As(err, &se), convey.ShouldBeTrue)
				convey.So(se.StatusCode, convey.ShouldEqual, http.StatusNotFound)
				convey.So(se.Body, convey.ShouldContainSubstring, "no such profile")
				convey.So(errors.Is(err, upstream.ErrUpstream), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When postings arrive as a bare array", func() {
			srv := newBackend(t, `[{"_id":"p1","title":"Logo","skills":"Figma"},{"id":"p2","title":"API","budget":"900"}]`, http.StatusOK)
			c, _ := upstream.NewClient(srv.URL)

			got, err := c.FetchPostings(ctx)

			convey.Convey("Then they are normalized in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 2)
				convey.So(got[0].ID, convey.ShouldEqual, "p1")
				convey.So(got[0].RequiredSkills, convey.ShouldResemble, []string{"Figma"})
				convey.So(got[1].Budget(), convey.ShouldEqual, 900.0)
			})
		})

		convey.Convey("When postings arrive wrapped in an object", func() {
			srv := newBackend(t, `{"data":[{"id":"p1","title":"Logo"}]}`, http.StatusOK)
			c, _ := upstream.NewClient(srv.URL)

			got, err := c.FetchPostings(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldHaveLength, 1)
		})

		convey.Convey("When fetching a snapshot", func() {
			srv := newBackend(t, `[{"id":"p1","title":"Logo"}]`, http.StatusOK)
			c, _ := upstream.NewClient(srv.URL, upstream.WithTimeout(time.Second))

			snap, err := c.FetchSnapshot(ctx, "u1")

			convey.Convey("Then both halves are populated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Profile.ID, convey.ShouldEqual, "u1")
				convey.So(snap.Postings, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When one half of the snapshot fails", func() {
			srv := newBackend(t, `boom`, http.StatusBadGateway)
			c, _ := upstream.NewClient(srv.URL)

			_, err := c.FetchSnapshot(ctx, "u1")

			convey.Convey("Then the snapshot fails", func() {
				var se *upstream.StatusError
				convey.So(errors.As(err, &se), convey.ShouldBeTrue)
				convey.So(se.StatusCode, convey.ShouldEqual, http.StatusBadGateway)
			})
		})
	})
}

type recordingSink struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (s *recordingSink) Ingest(_ context.Context, p model.Posting, _ string, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Title == "" {
		return false, errors.New("title required")
	}
	if s.seen[p.ID] {
		return false, nil
	}
	s.seen[p.ID] = true
	return true, nil
}

func TestSyncer(t *testing.T) {
	convey.Convey("Given a syncer over a backend", t, func() {
		_ = logger.Init()
		ctx := context.Background()

		srv := newBackend(t, `[{"id":"p1","title":"Logo"},{"id":"p2","title":""},{"id":"p3","title":"Copy"}]`, http.StatusOK)
		c, _ := upstream.NewClient(srv.URL)
		sink := &recordingSink{seen: map[string]bool{}}
		s := upstream.NewSyncer(c, sink, upstream.WithInterval(time.Hour))

		convey.Convey("When it syncs twice", func() {
			first, err1 := s.SyncOnce(ctx, "upstream")
			second, err2 := s.SyncOnce(ctx, "upstream")

			convey.Convey("Then new, duplicate and rejected postings are counted", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(first, convey.ShouldResemble, upstream.SyncResult{Fetched: 3, Accepted: 2, Rejected: 1})
				convey.So(second, convey.ShouldResemble, upstream.SyncResult{Fetched: 3, Duplicates: 2, Rejected: 1})
			})
		})

		convey.Convey("When started and stopped", func() {
			s.Start(ctx, "upstream")
			s.Stop()

			convey.Convey("Then the immediate pull has run", func() {
				sink.mu.Lock()
				defer sink.mu.Unlock()
				convey.So(sink.seen["p1"], convey.ShouldBeTrue)
			})
		})
	})
}
