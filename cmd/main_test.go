package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/pkg/logger"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		setEnv(t, map[string]string{
			"GIGMATCH_ADDR":         ":8080",
			"GIGMATCH_QUEUE_SIZE":   "1000",
			"GIGMATCH_WORKER_COUNT": "4",
		})

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
	})

	convey.Convey("Given an invalid configuration", t, func() {
		setEnv(t, map[string]string{"GIGMATCH_STORE_DRIVER": "mongo"})

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a memory-backed configuration", t, func() {
		convey.So(logger.Init(logger.WithOutput(&strings.Builder{})), convey.ShouldBeNil)
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		cfg.DashboardTopN = 3

		convey.Convey("Then the service starts and serves every route", func() {
			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			h := newHandler(ctx, cfg, svc)
			for _, target := range []string{"/stats", "/healthz", "/openapi.yaml", "/api-docs", "/postings"} {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			}

			stats := svc.GetStats()
			convey.So(stats["workerCount"], convey.ShouldEqual, 2)
			convey.So(stats["dashboardTopN"], convey.ShouldEqual, 3)
			convey.So(stats["upstreamEnabled"], convey.ShouldBeFalse)
		})

		convey.Convey("Then an upstream URL enables syncing", func() {
			cfg.UpstreamURL = "http://127.0.0.1:1"
			svc, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["upstreamEnabled"], convey.ShouldBeTrue)
		})

		convey.Convey("Then a malformed upstream URL is rejected", func() {
			cfg.UpstreamURL = "not a url"
			_, err := newService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then an unreachable postgres fails fast", func() {
			cfg.StoreDriver = config.DriverPostgres
			cfg.PostgresDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"
			tctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			_, err := newService(tctx, cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		convey.So(logger.Init(logger.WithOutput(&strings.Builder{})), convey.ShouldBeNil)
		cfg := config.New()
		svc, err := newService(context.Background(), cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("They return when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("A single refresh works before Start", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
