package swagger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		convey.Convey("When registering the swagger handler", func() {
			Register(ctx, mux)

			convey.Convey("Then it should handle /openapi.yaml route", func() {
				req := httptest.NewRequest("GET", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
				convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("And it should list every operation at /api-docs", func() {
				req := httptest.NewRequest("GET", "/api-docs", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "gigmatch API 1.0.0")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/recommendations")
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/postings/{id}")
			})

			convey.Convey("And it should reject other methods", func() {
				req := httptest.NewRequest("POST", "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOperations(t *testing.T) {
	convey.Convey("Given the embedded document", t, func() {
		title, ops, err := Operations(OpenAPI)

		convey.So(err, convey.ShouldBeNil)
		convey.So(title, convey.ShouldEqual, "gigmatch API 1.0.0")
		convey.So(ops, convey.ShouldContain, Operation{Method: "GET", Path: "/recommendations", Summary: "Score the catalog against a stored profile"})
		convey.So(ops, convey.ShouldContain, Operation{Method: "DELETE", Path: "/postings/{id}", Summary: "Remove a posting"})

		convey.Convey("Path-level parameters are not operations", func() {
			for _, op := range ops {
				convey.So(op.Method, convey.ShouldNotEqual, "PARAMETERS")
			}
			convey.So(len(ops), convey.ShouldEqual, 10)
		})
	})

	convey.Convey("Given broken documents", t, func() {
		_, _, err := Operations([]byte("paths: ["))
		convey.So(errors.Is(err, ErrParse), convey.ShouldBeTrue)

		_, _, err = Operations([]byte("info: {title: x}"))
		convey.So(errors.Is(err, ErrParse), convey.ShouldBeTrue)
	})
}

func TestSwaggerErrors(t *testing.T) {
	convey.Convey("Given swagger error constants", t, func() {
		convey.So(ErrServe.Error(), convey.ShouldEqual, "swagger serve failed")
	})
}

func TestSwaggerHandlerWithNilMux(t *testing.T) {
	convey.Convey("Given a nil mux", t, func() {
		convey.So(func() {
			Register(context.Background(), nil)
		}, convey.ShouldPanic)
	})
}
