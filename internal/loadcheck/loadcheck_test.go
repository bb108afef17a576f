package loadcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/adapters/http/api"
	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/pkg/logger"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := logger.Init(logger.WithOutput(&strings.Builder{})); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(1000))
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	srv := httptest.NewServer(api.RequestIDMiddleware(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		a := newGenerator(7)
		b := newGenerator(7)

		Convey("profiles are reproducible and valid", func() {
			pa, pb := a.profiles(20), b.profiles(20)
			So(pa, ShouldResemble, pb)
			for i := range pa {
				So(pa[i].ID, ShouldStartWith, "loadcheck-")
				So(len(pa[i].Skills), ShouldBeGreaterThan, 0)
				So(pa[i].CompletenessPercent, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("postings get unique ids and titles", func() {
			ps := a.postings(100)
			seen := make(map[string]bool)
			for i := range ps {
				So(seen[ps[i].ID], ShouldBeFalse)
				seen[ps[i].ID] = true
				So(ps[i].Title, ShouldNotBeEmpty)
				So(len(ps[i].RequiredSkills), ShouldBeBetweenOrEqual, 1, 4)
			}
		})
	})
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given a live in-process server", t, func() {
		srv := startServer(t)
		out := filepath.Join(t.TempDir(), "data", "dataset.json")

		cfg := &Config{
			BaseURL:     srv.URL,
			NumPostings: 60,
			NumProfiles: 8,
			DupEvery:    10,
			Workers:     8,
			Timeout:     5 * time.Second,
			Settle:      10 * time.Second,
			Seed:        42,
			OutputFile:  out,
		}

		stats, err := Run(context.Background(), cfg)

		So(err, ShouldBeNil)
		So(stats.Submitted, ShouldEqual, 66)
		So(stats.Accepted, ShouldEqual, 60)
		So(stats.Duplicates, ShouldEqual, 6)
		So(stats.Failed, ShouldEqual, 0)
		So(stats.ProfilesStored, ShouldEqual, 8)
		So(stats.Mismatches, ShouldEqual, 0)

		_, statErr := os.Stat(out)
		So(statErr, ShouldBeNil)
	})

	Convey("Given no server", t, func() {
		if err := logger.Init(logger.WithOutput(&strings.Builder{})); err != nil {
			t.Fatal(err)
		}
		_, err := Run(context.Background(), &Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}
