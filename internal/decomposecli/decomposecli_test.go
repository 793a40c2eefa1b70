package decomposecli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/claimmix/internal/adapters/http/api"
	service "github.com/okian/claimmix/internal/app"
	"github.com/okian/claimmix/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := SetupLogging(io.Discard, false); err != nil {
		panic(err)
	}
}

const yamlScenario = `
baseline:
  - {category: A, volume: 10, severity: 100}
  - {category: B, volume: 10, severity: 200}
comparison:
  - {category: B, volume: 30, severity: 200}
  - {category: A, volume: 10, severity: 110}
`

const jsonScenario = `{
	"baseline":   [{"category":"A","volume":10,"severity":100},{"category":"B","volume":10,"severity":200}],
	"comparison": [{"category":"A","volume":10,"severity":110},{"category":"B","volume":30,"severity":200}]
}`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}
	return path
}

func runToResult(cfg *Config, stdin io.Reader) (types.Decomposition, error) {
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, stdin, &out); err != nil {
		return types.Decomposition{}, err
	}
	var res types.Decomposition
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		return types.Decomposition{}, err
	}
	return res, nil
}

func TestLoadScenario(t *testing.T) {
	Convey("Given scenario files on disk", t, func() {
		dir := t.TempDir()

		Convey("YAML files are decoded by extension", func() {
			for _, name := range []string{"s.yaml", "s.yml", "S.YAML"} {
				pair, err := LoadScenario(writeFile(dir, name, yamlScenario), nil)
				So(err, ShouldBeNil)
				So(pair.Baseline, ShouldHaveLength, 2)
				So(pair.Comparison[0].Category, ShouldEqual, "B")
			}
		})

		Convey("JSON files are decoded by extension", func() {
			pair, err := LoadScenario(writeFile(dir, "s.json", jsonScenario), nil)
			So(err, ShouldBeNil)
			So(pair.Comparison[0].Severity, ShouldEqual, 110.0)
		})

		Convey("Stdin is read as JSON", func() {
			pair, err := LoadScenario("-", strings.NewReader(jsonScenario))
			So(err, ShouldBeNil)
			So(pair.Baseline, ShouldHaveLength, 2)
		})

		Convey("An unknown extension is rejected", func() {
			_, err := LoadScenario(writeFile(dir, "s.txt", jsonScenario), nil)
			So(errors.Is(err, ErrUnknownInput), ShouldBeTrue)
		})

		Convey("A missing file is reported", func() {
			_, err := LoadScenario(filepath.Join(dir, "nope.json"), nil)
			So(err, ShouldNotBeNil)
		})

		Convey("An empty path means no input", func() {
			_, err := LoadScenario("", nil)
			So(errors.Is(err, ErrNoInput), ShouldBeTrue)
		})
	})
}

func TestDecodeScenario(t *testing.T) {
	Convey("Given scenario payloads", t, func() {
		Convey("A missing comparison is rejected", func() {
			_, err := DecodeScenario([]byte(`{"baseline":[]}`), FormatJSON)
			So(errors.Is(err, ErrScenario), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "missing comparison")
		})

		Convey("Unknown YAML keys are rejected", func() {
			_, err := DecodeScenario([]byte("baseline: []\ncomparison: []\nextra: 1\n"), FormatYAML)
			So(errors.Is(err, ErrScenario), ShouldBeTrue)
		})

		Convey("Malformed JSON is rejected", func() {
			_, err := DecodeScenario([]byte(`{`), FormatJSON)
			So(errors.Is(err, ErrScenario), ShouldBeTrue)
		})

		Convey("An unknown format is rejected", func() {
			_, err := DecodeScenario([]byte(`{}`), "toml")
			So(errors.Is(err, ErrUnknownInput), ShouldBeTrue)
		})
	})
}

func TestRunLocal(t *testing.T) {
	Convey("Given an in-process run", t, func() {
		Convey("The sample scenario decomposes additively", func() {
			res, err := runToResult(&Config{Sample: true}, nil)
			So(err, ShouldBeNil)
			So(res.ID, ShouldNotBeEmpty)
			So(res.SeverityEffect, ShouldAlmostEqual, 54.137134052388376, 1e-6)
			So(res.MixEffect, ShouldAlmostEqual, 6.155624036979987, 1e-6)
			So(res.SeverityEffect+res.MixEffect, ShouldAlmostEqual, res.TotalChange, 1e-9)
			So(res.Paths, ShouldBeNil)
		})

		Convey("Detail adds both paths", func() {
			res, err := runToResult(&Config{Sample: true, Detail: true}, nil)
			So(err, ShouldBeNil)
			So(res.Paths, ShouldNotBeNil)
		})

		Convey("A YAML file is decomposed", func() {
			path := writeFile(t.TempDir(), "q.yaml", yamlScenario)
			res, err := runToResult(&Config{Input: path}, nil)
			So(err, ShouldBeNil)
			So(res.TotalChange, ShouldAlmostEqual, 27.5, 1e-9)
		})

		Convey("Engine errors are returned", func() {
			in := `{"baseline":[{"category":"A","volume":1,"severity":1}],"comparison":[{"category":"B","volume":1,"severity":1}]}`
			_, err := runToResult(&Config{Input: "-"}, strings.NewReader(in))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing in")
		})
	})
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running API server", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("The scenario is posted and the result decoded", func() {
			res, err := runToResult(&Config{Sample: true, BaseURL: srv.URL + "/", Detail: true, Timeout: 5 * time.Second}, nil)
			So(err, ShouldBeNil)
			So(res.SeverityEffect, ShouldAlmostEqual, 54.137134052388376, 1e-6)
			So(res.Paths, ShouldNotBeNil)
		})

		Convey("Server rejections surface as remote errors", func() {
			in := `{"baseline":[],"comparison":[{"category":"A","volume":1,"severity":1}]}`
			_, err := runToResult(&Config{Input: "-", BaseURL: srv.URL, Timeout: 5 * time.Second}, strings.NewReader(in))
			So(errors.Is(err, ErrRemote), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "empty_period")
		})
	})
}
