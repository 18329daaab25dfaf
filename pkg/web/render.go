package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"farmportal/entities"
	"farmportal/pkg/dates"
	"farmportal/pkg/flash"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"date":  dates.Format,
	"long":  dates.Long,
	"num":   func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"fixed": func(v float64, places int) string { return strconv.FormatFloat(v, 'f', places, 64) },
	"title": func(s string) string {
		s = strings.ReplaceAll(s, "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"add":   func(a, b int) int { return a + b },
	"now":   time.Now,
	"roles": func() []string { return entities.Roles },
	// withQuery links to path carrying the current filters.
	"withQuery": func(path string, q url.Values) template.URL {
		if len(q) == 0 {
			return template.URL(path)
		}
		return template.URL(path + "?" + q.Encode())
	},
	"dict": func(kv ...any) (map[string]any, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict needs key/value pairs")
		}
		m := make(map[string]any, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict key %v is not a string", kv[i])
			}
			m[k] = kv[i+1]
		}
		return m, nil
	},
}

// Renderer renders full pages: each page file is parsed together with the
// shared layout and partials.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	shared := []string{"templates/layout.html", "templates/partials.html"}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		if f == shared[0] || f == shared[1] {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(f, "templates/"), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, append(shared, f)...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// View is the data every page template receives.
type View struct {
	Title string
	User  *session.Principal
	Nav   []NavItem
	Flash *flash.Message
	Query url.Values
	Data  any
}

type PageLink struct {
	N       int
	URL     string
	Current bool
}

// Pager is the pagination footer of a table.
type Pager struct {
	Page       int
	TotalPages int
	Total      int
	PrevURL    string
	NextURL    string
	Links      []PageLink
}

func pageURL(path string, q url.Values, n int) string {
	v := url.Values{}
	for k, vs := range q {
		v[k] = vs
	}
	v.Set("page", strconv.Itoa(n))
	return path + "?" + v.Encode()
}

// NewPager builds the footer links for pg, keeping the other query
// parameters of the current request.
func NewPager[T any](pg paging.Page[T], path string, q url.Values) Pager {
	p := Pager{Page: pg.Page, TotalPages: pg.TotalPages, Total: pg.Total}
	if pg.HasPrev {
		p.PrevURL = pageURL(path, q, pg.Page-1)
	}
	if pg.HasNext {
		p.NextURL = pageURL(path, q, pg.Page+1)
	}
	for _, n := range pg.Numbers(2) {
		p.Links = append(p.Links, PageLink{N: n, URL: pageURL(path, q, n), Current: n == pg.Page})
	}
	return p
}

// Table pairs one page of rows with its pager.
type Table[T any] struct {
	Rows  []T
	Pager Pager
}

func NewTable[T any](pg paging.Page[T], c echo.Context) Table[T] {
	return Table[T]{Rows: pg.Items, Pager: NewPager(pg, c.Request().URL.Path, c.QueryParams())}
}
