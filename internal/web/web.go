package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Route is a client-side page. Segments starting with ":" match any single
// segment; a trailing "?" makes that segment optional.
type Route struct {
	Name    string
	Pattern string
}

// Routes lists the pages the single-page app renders. Static patterns come
// before parameterized ones so that "print" is never taken for an id.
var Routes = []Route{
	{Name: "home", Pattern: "/"},
	{Name: "tools", Pattern: "/tools"},
	{Name: "auth", Pattern: "/auth"},
	{Name: "library", Pattern: "/library"},
	{Name: "library-case-studies", Pattern: "/library/case-studies"},
	{Name: "library-presentations", Pattern: "/library/presentations"},
	{Name: "case-studies", Pattern: "/case-studies"},
	{Name: "case-study-builder-print", Pattern: "/case-studies/builder/print"},
	{Name: "presentation-builder-print", Pattern: "/presentations/builder/print"},
	{Name: "presenter", Pattern: "/presentations/builder/presenter"},
	{Name: "case-study-print", Pattern: "/case-studies/:id/print"},
	{Name: "case-study-builder", Pattern: "/case-studies/builder/:id?"},
	{Name: "presentation-builder", Pattern: "/presentations/builder/:id?"},
}

// Match returns the first route matching p and its parameters.
func Match(p string) (Route, map[string]string, bool) {
	segs := split(p)
	for _, r := range Routes {
		if params, ok := match(split(r.Pattern), segs); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func split(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func match(pattern, segs []string) (map[string]string, bool) {
	params := map[string]string{}
	i := 0
	for _, ps := range pattern {
		optional := strings.HasSuffix(ps, "?")
		if i >= len(segs) {
			if optional {
				continue
			}
			return nil, false
		}
		if strings.HasPrefix(ps, ":") {
			params[strings.TrimSuffix(ps[1:], "?")] = segs[i]
		} else if ps != segs[i] {
			return nil, false
		}
		i++
	}
	return params, i == len(segs)
}

// SPA serves built assets from dir, index.html for every client route and
// a 404 page for anything else. It is meant for gin's NoRoute.
func SPA(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		if asset, ok := assetPath(dir, c.Request.URL.Path); ok {
			c.File(asset)
			return
		}
		if _, _, ok := Match(c.Request.URL.Path); ok {
			c.File(index)
			return
		}
		// the app renders its own not-found page
		page, err := os.ReadFile(index)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", page)
	}
}

func assetPath(dir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" || !strings.Contains(path.Base(clean), ".") {
		return "", false
	}
	full := filepath.Join(dir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
