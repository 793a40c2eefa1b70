package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	service "github.com/okian/claimmix/internal/app"
	"github.com/okian/claimmix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

const twoBucketBody = `{
	"baseline":   [{"category":"A","volume":10,"severity":100},{"category":"B","volume":10,"severity":200}],
	"comparison": [{"category":"B","volume":30,"severity":200},{"category":"A","volume":10,"severity":110}]
}`

func newTestMux(opts ...ServerOption) (*http.ServeMux, *service.Service) {
	svc := service.New(service.WithWorkerCount(2), service.WithMaxBatchSize(3), service.WithMaxCategories(4))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	NewServer(svc, svc, opts...).Register(context.Background(), mux)
	return mux, svc
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeMap(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		panic(err)
	}
	return out
}

func TestDecomposeEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, svc := newTestMux()
		defer svc.Stop()

		Convey("A valid request returns the decomposition", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", twoBucketBody)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			out := decodeMap(rec)
			So(out["id"], ShouldNotBeEmpty)
			So(out["baseline_avg_severity"], ShouldAlmostEqual, 150.0, 1e-9)
			So(out["comparison_avg_severity"], ShouldAlmostEqual, 177.5, 1e-9)
			So(out["total_change"], ShouldAlmostEqual, 27.5, 1e-9)
			sum := out["severity_effect"].(float64) + out["mix_effect"].(float64)
			So(sum, ShouldAlmostEqual, 27.5, 1e-9)
			So(out, ShouldNotContainKey, "paths")
		})

		Convey("detail=true adds both substitution paths", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose?detail=true", twoBucketBody)
			So(rec.Code, ShouldEqual, http.StatusOK)
			out := decodeMap(rec)
			So(out, ShouldContainKey, "paths")
			paths := out["paths"].(map[string]any)
			So(paths, ShouldContainKey, "severity_first")
			So(paths, ShouldContainKey, "mix_first")
		})

		Convey("An invalid detail flag is a bad request", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose?detail=maybe", twoBucketBody)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Malformed JSON is a bad request", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", `{"baseline":`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeMap(rec)["code"], ShouldEqual, "bad_request")
		})

		Convey("Unknown fields are rejected", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", `{"baseline":[],"comparison":[],"extra":1}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A missing period is a bad request", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", `{"baseline":[{"category":"A","volume":1,"severity":1}]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeMap(rec)["message"], ShouldContainSubstring, "missing comparison")
		})

		Convey("An empty period is unprocessable", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", `{"baseline":[],"comparison":[{"category":"A","volume":1,"severity":1}]}`)
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeMap(rec)["code"], ShouldEqual, "empty_period")
		})

		Convey("Mismatched categories are unprocessable", func() {
			body := `{"baseline":[{"category":"A","volume":1,"severity":1}],"comparison":[{"category":"B","volume":1,"severity":1}]}`
			rec := do(mux, http.MethodPost, "/v1/decompose", body)
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			out := decodeMap(rec)
			So(out["code"], ShouldEqual, "category_mismatch")
			So(out["message"], ShouldContainSubstring, "B")
		})

		Convey("A negative volume is unprocessable", func() {
			body := `{"baseline":[{"category":"A","volume":-1,"severity":1}],"comparison":[{"category":"A","volume":1,"severity":1}]}`
			rec := do(mux, http.MethodPost, "/v1/decompose", body)
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(decodeMap(rec)["code"], ShouldEqual, "invalid_bucket")
		})

		Convey("Buckets whose totals overflow are unprocessable", func() {
			body := `{"baseline":[{"category":"A","volume":1e200,"severity":1e200},{"category":"B","volume":1,"severity":1}],` +
				`"comparison":[{"category":"A","volume":1e200,"severity":2e200},{"category":"B","volume":1,"severity":1}]}`
			rec := do(mux, http.MethodPost, "/v1/decompose", body)
			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			out := decodeMap(rec)
			So(out["code"], ShouldEqual, "invalid_bucket")
			So(out["message"], ShouldContainSubstring, "overflow")
		})

		Convey("Too many categories exceeds the limit", func() {
			var b strings.Builder
			b.WriteString(`{"baseline":[`)
			for i, c := range []string{"a", "b", "c", "d", "e"} {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(`{"category":"` + c + `","volume":1,"severity":1}`)
			}
			b.WriteString(`],"comparison":[{"category":"a","volume":1,"severity":1}]}`)
			rec := do(mux, http.MethodPost, "/v1/decompose", b.String())
			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(decodeMap(rec)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("GET is not routed", func() {
			rec := do(mux, http.MethodGet, "/v1/decompose", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBodyLimit(t *testing.T) {
	Convey("Given a server with a tiny body limit", t, func() {
		mux, svc := newTestMux(WithMaxBodyBytes(16))
		defer svc.Stop()

		Convey("An oversized body is rejected with 413", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose", twoBucketBody)
			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			So(decodeMap(rec)["code"], ShouldEqual, "payload_too_large")
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, svc := newTestMux()
		defer svc.Stop()

		Convey("Each pair is reported independently", func() {
			body := `{"pairs":[` + twoBucketBody + `,{"baseline":[],"comparison":[]}]}`
			rec := do(mux, http.MethodPost, "/v1/decompose/batch", body)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var resp batchResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Succeeded, ShouldEqual, 1)
			So(resp.Failed, ShouldEqual, 1)
			So(resp.Items, ShouldHaveLength, 2)
			So(resp.Items[0].Decomposition, ShouldNotBeNil)
			So(resp.Items[0].Decomposition.TotalChange, ShouldAlmostEqual, 27.5, 1e-9)
			So(resp.Items[1].Error, ShouldNotBeNil)
			So(resp.Items[1].Error.Code, ShouldEqual, "empty_period")
		})

		Convey("An empty batch is a bad request", func() {
			rec := do(mux, http.MethodPost, "/v1/decompose/batch", `{"pairs":[]}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A batch over the limit is rejected", func() {
			pair := `{"baseline":[],"comparison":[]}`
			body := `{"pairs":[` + strings.Repeat(pair+",", 3) + pair + `]}`
			rec := do(mux, http.MethodPost, "/v1/decompose/batch", body)
			So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})
}

func TestAverageEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, svc := newTestMux()
		defer svc.Stop()

		Convey("The volume-weighted average is returned", func() {
			body := `{"period":[{"category":"A","volume":10,"severity":100},{"category":"B","volume":30,"severity":200}]}`
			rec := do(mux, http.MethodPost, "/v1/average-severity", body)
			So(rec.Code, ShouldEqual, http.StatusOK)
			out := decodeMap(rec)
			So(out["average_severity"], ShouldAlmostEqual, 175.0, 1e-9)
			So(out["total_volume"], ShouldAlmostEqual, 40.0, 1e-9)
			So(out["total_cost"], ShouldAlmostEqual, 7000.0, 1e-9)
		})

		Convey("A missing period is a bad request", func() {
			rec := do(mux, http.MethodPost, "/v1/average-severity", `{}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, svc := newTestMux()
		defer svc.Stop()

		Convey("healthz serves metrics", func() {
			rec := do(mux, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("stats reports service state", func() {
			rec := do(mux, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			out := decodeMap(rec)
			So(out["started"], ShouldEqual, true)
			So(out["maxBatchSize"], ShouldEqual, 3.0)
		})

		Convey("POST to stats is not routed", func() {
			rec := do(mux, http.MethodPost, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Register panics on a nil mux", t, func() {
		s := NewServer(service.New(), service.New())
		So(func() { s.Register(context.Background(), nil) }, ShouldPanic)
	})
}

func TestWriteJSON(t *testing.T) {
	Convey("Given a value that cannot be encoded", t, func() {
		rec := httptest.NewRecorder()
		writeJSON(rec, http.StatusOK, map[string]float64{"total_change": math.NaN()})

		Convey("Then a 500 with a body is sent instead of an empty 200", func() {
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldContainSubstring, "internal_error")
		})
	})

	Convey("Given an encodable value", t, func() {
		rec := httptest.NewRecorder()
		writeJSON(rec, http.StatusCreated, map[string]int{"n": 1})

		Convey("Then the status and body are written", func() {
			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(decodeMap(rec)["n"], ShouldEqual, 1.0)
		})
	})
}

func TestMiddlewareClassification(t *testing.T) {
	Convey("Error types follow the status code", t, func() {
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(413), ShouldEqual, "too_large")
		So(getErrorType(422), ShouldEqual, "invalid_input")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorType(200), ShouldEqual, "unknown")
	})

	Convey("Severities rank server faults highest", t, func() {
		So(getErrorSeverity(503), ShouldEqual, "high")
		So(getErrorSeverity(422), ShouldEqual, "low")
		So(getErrorSeverity(400), ShouldEqual, "medium")
	})
}
