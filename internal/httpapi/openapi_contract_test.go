package httpapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type apiParameter struct {
	Ref  string `yaml:"$ref"`
	Name string `yaml:"name"`
	In   string `yaml:"in"`
}

type apiOperation struct {
	Parameters []apiParameter `yaml:"parameters"`
	Responses  map[string]any `yaml:"responses"`
}

type apiDocument struct {
	Servers []struct {
		URL string `yaml:"url"`
	} `yaml:"servers"`
	Paths      map[string]map[string]apiOperation `yaml:"paths"`
	Components struct {
		Parameters map[string]apiParameter `yaml:"parameters"`
	} `yaml:"components"`
}

var documentedMethods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"patch":  http.MethodPatch,
	"delete": http.MethodDelete,
}

var pathParamRe = regexp.MustCompile(`\{([^}/]+)\}`)

func loadAPIDocument(t *testing.T) apiDocument {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "api", "openapi.yaml")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var doc apiDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	if len(doc.Servers) == 0 {
		t.Fatalf("%s declares no servers", path)
	}
	return doc
}

// documentedRoutes keys routes as "METHOD /api/v1/...", with the server url
// as prefix.
func documentedRoutes(doc apiDocument) map[string]struct{} {
	base := strings.TrimSuffix(doc.Servers[0].URL, "/")
	out := make(map[string]struct{})
	for p, ops := range doc.Paths {
		for m := range ops {
			method, ok := documentedMethods[strings.ToLower(m)]
			if !ok {
				continue
			}
			out[method+" "+trimRoute(base+p)] = struct{}{}
		}
	}
	return out
}

func registeredRoutes(t *testing.T) map[string]struct{} {
	t.Helper()

	mux, ok := NewHandler(zerolog.New(io.Discard), nil, Options{}).Router().(*chi.Mux)
	if !ok {
		t.Fatal("expected Router to return *chi.Mux")
	}

	out := make(map[string]struct{})
	err := chi.Walk(mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		route = trimRoute(route)
		if strings.HasPrefix(route, "/api/") {
			out[method+" "+route] = struct{}{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk router: %v", err)
	}
	return out
}

func trimRoute(route string) string {
	if len(route) > 1 {
		return strings.TrimSuffix(route, "/")
	}
	return route
}

func missingFrom(have, want map[string]struct{}) []string {
	var out []string
	for k := range want {
		if _, ok := have[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func TestOpenAPI_MatchesRouter(t *testing.T) {
	doc := loadAPIDocument(t)
	documented := documentedRoutes(doc)
	registered := registeredRoutes(t)

	undocumented := missingFrom(documented, registered)
	unrouted := missingFrom(registered, documented)
	if len(undocumented) > 0 || len(unrouted) > 0 {
		t.Fatalf("api/openapi.yaml and the router disagree\nnot documented: %v\nnot routed: %v", undocumented, unrouted)
	}
}

func TestOpenAPI_OperationsAreComplete(t *testing.T) {
	doc := loadAPIDocument(t)

	for p, ops := range doc.Paths {
		wantParams := pathParamRe.FindAllStringSubmatch(p, -1)
		for m, op := range ops {
			if _, ok := documentedMethods[strings.ToLower(m)]; !ok {
				continue
			}
			name := strings.ToUpper(m) + " " + p

			var success bool
			for code := range op.Responses {
				if strings.HasPrefix(code, "2") {
					success = true
				}
			}
			if !success {
				t.Errorf("%s documents no 2xx response", name)
			}

			declared := make(map[string]bool)
			for _, param := range op.Parameters {
				if param.Ref != "" {
					param = doc.Components.Parameters[strings.TrimPrefix(param.Ref, "#/components/parameters/")]
				}
				if param.In == "path" {
					declared[param.Name] = true
				}
			}
			for _, want := range wantParams {
				if !declared[want[1]] {
					t.Errorf("%s does not declare path parameter %q", name, want[1])
				}
			}
		}
	}
}
