package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"farmportal/entities"
	"farmportal/pkg/flash"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                     "/dashboard",
		"/projects?status=x":   "/projects?status=x",
		"//evil.example/":      "/dashboard",
		"/\\evil.example":      "/dashboard",
		"https://evil.example": "/dashboard",
	}
	for in, want := range cases {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNavForRole(t *testing.T) {
	nav := navFor(entities.RoleHeadFarmer, "/teams")
	var hrefs []string
	for _, n := range nav {
		hrefs = append(hrefs, n.Href)
		if n.Active != (n.Href == "/teams") {
			t.Errorf("%s active = %v", n.Href, n.Active)
		}
	}
	if len(hrefs) != 3 || hrefs[0] != "/head-farmer" {
		t.Errorf("head farmer nav = %v", hrefs)
	}
}

func TestPagerKeepsFilters(t *testing.T) {
	pg := paging.New(make([]int, 10), paging.Params{Page: 2, Size: 10}, 35)
	p := NewPager(pg, "/harvests", url.Values{"barangay": {"Maligaya"}, "page": {"2"}})
	if p.PrevURL != "/harvests?barangay=Maligaya&page=1" || p.NextURL != "/harvests?barangay=Maligaya&page=3" {
		t.Errorf("prev %q next %q", p.PrevURL, p.NextURL)
	}
	if len(p.Links) != 4 || !p.Links[1].Current {
		t.Errorf("links = %+v", p.Links)
	}
}

func TestRendererPagesShareLayout(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/teams", nil), httptest.NewRecorder())
	me := session.Principal{UserID: 2, Name: "Fe Pres", Role: entities.RoleFarmPresident}
	teams := paging.New([]entities.Team{{TeamID: 1, Name: "Alpha", LeaderName: "Rey",
		Members: []entities.TeamMember{{FarmerID: 5, Name: "Ana"}, {FarmerID: 6, Name: "Ben"}}}}, paging.Params{Page: 1, Size: 10}, 1)
	v := View{
		Title: "Teams",
		User:  &me,
		Nav:   navFor(me.Role, "/teams"),
		Flash: &flash.Message{Kind: flash.Success, Text: "Saved."},
		Query: url.Values{},
		Data:  NewTable(teams, c),
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, "teams", v, c); err != nil {
		t.Fatalf("Render: %v", err)
	}
	d, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Find("title").Text(); got != "Teams | Farm Portal" {
		t.Errorf("title = %q", got)
	}
	if got := d.Find("table.teams tbody td").Eq(4).Text(); got != "Ana, Ben" {
		t.Errorf("members = %q", got)
	}
	if got := d.Find(".toast-success").Text(); got != "Saved." {
		t.Errorf("toast = %q", got)
	}
	if got := d.Find("nav a.active").Text(); got != "Teams" {
		t.Errorf("active nav = %q", got)
	}
	if err := r.Render(&buf, "missing", v, c); err == nil {
		t.Error("unknown page rendered")
	}
}
