package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/adapters/upstream"
	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/domain/recommend"
	. "github.com/smartystreets/goconvey/convey"
)

func marketplace(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"_id":"m1","title":"Landing page","skills":"React, CSS","workType":"Remote","location":"Remote","budget":"400"},
			{"_id":"m2","title":"Data cleanup","skills":["Python"],"budget":1200},
			{"_id":"m3","title":""}
		]`))
	})
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "stu-1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"skills":["react"],"workType":"Remote","location":"Remote","hourlyRate":10,"profileCompleteness":100}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServiceUpstreamIntegration(t *testing.T) {
	Convey("Given a service synced from a marketplace backend", t, func() {
		ctx := context.Background()
		client, err := upstream.NewClient(marketplace(t).URL, upstream.WithTimeout(time.Second))
		So(err, ShouldBeNil)

		svc := service.New(
			service.WithWorkerCount(2),
			service.WithUpstream(client),
			service.WithSyncInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the first pull completes", func() {
			So(eventually(func() bool {
				list, _ := svc.ListPostings(ctx)
				return len(list) == 2
			}), ShouldBeTrue)

			Convey("Then invalid postings were dropped", func() {
				_, err := svc.GetPosting(ctx, "m3")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a profile known only upstream can be recommended", func() {
				got, err := svc.Recommend(ctx, "stu-1", svc.Preset(recommend.ViewRecommendations))
				So(err, ShouldBeNil)
				So(ids(got), ShouldResemble, []string{"m1"})
				So(got[0].MatchedSkills, ShouldResemble, []string{"React"})

				cached, err := svc.GetProfile(ctx, "stu-1")
				So(err, ShouldBeNil)
				So(cached.ID, ShouldEqual, "stu-1")
			})

			Convey("Then an unknown upstream profile maps to not found", func() {
				_, err := svc.Recommend(ctx, "ghost", svc.Preset(recommend.ViewRecommendations))
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
