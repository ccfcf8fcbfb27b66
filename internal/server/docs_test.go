package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

var routeParam = regexp.MustCompile(`:(\w+)`)

// swaggerPath converts a fiber route path to its swagger form.
func swaggerPath(path string) string {
	path = routeParam.ReplaceAllString(path, "{$1}")
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func TestSwaggerPath(t *testing.T) {
	assert.Equal(t, "/library/{bookId}/rating", swaggerPath("/library/:bookId/rating"))
	assert.Equal(t, "/library/admin", swaggerPath("/library/admin/"))
	assert.Equal(t, "/", swaggerPath("/"))
}

// Every API route must be documented and every documented operation must be routed.
func TestSwaggerDocMatchesRoutes(t *testing.T) {
	env := newTestEnv(t)

	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	documented := map[string]bool{}
	for path, ops := range doc.Paths {
		for method := range ops {
			documented[strings.ToUpper(method)+" "+path] = true
		}
	}

	methods := map[string]bool{
		http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
		http.MethodPatch: true, http.MethodDelete: true,
	}
	routed := map[string]bool{}
	for _, route := range env.app.GetRoutes(true) {
		if !methods[route.Method] ||
			strings.HasPrefix(route.Path, "/swagger") || strings.HasPrefix(route.Path, "/metrics") {
			continue
		}
		routed[route.Method+" "+swaggerPath(route.Path)] = true
	}

	for op := range routed {
		assert.True(t, documented[op], "route %s is missing from docs", op)
	}
	for op := range documented {
		assert.True(t, routed[op], "documented operation %s has no route", op)
	}
}
