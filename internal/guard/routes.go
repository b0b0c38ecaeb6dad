package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"rederly/client/internal/policy/engine"
)

// BasePath prefixes every guarded route.
const BasePath = "/common"

// Route is a navigable page of the client.
type Route struct {
	Name       string
	Template   string // mux path template, e.g. /common/courses/{courseId}
	NonStudent bool   // hidden from STUDENT
}

// Facts returns what the route policy sees for r.
func (r Route) Facts() engine.RouteFacts {
	return engine.RouteFacts{Name: r.Name, Path: r.Template, NonStudent: r.NonStudent}
}

// Route names.
const (
	RouteAccount        = "account"
	RouteEditor         = "editor"
	RouteAdviser        = "adviser"
	RouteCourses        = "courses"
	RouteCourseNew      = "course-new"
	RouteCourseSettings = "course-settings"
	RouteCourseEnroll   = "course-enroll"
	RouteTopicSettings  = "topic-settings"
	RouteGradingPrint   = "topic-grading-print"
	RouteGrading        = "topic-grading"
	RouteTopic          = "topic"
	RouteCourseDetails  = "course-details"
)

// RouteCourseSettingsLegacy is the older /courses/settings/{courseId} form of course settings.
const RouteCourseSettingsLegacy = "course-settings-legacy"

// DefaultRoutes is the client route table, in match order: literal segments are listed
// before the templates that would otherwise capture them.
var DefaultRoutes = []Route{
	{Name: RouteAccount, Template: BasePath + "/account"},
	{Name: RouteEditor, Template: BasePath + "/editor", NonStudent: true},
	{Name: RouteAdviser, Template: BasePath + "/adviser"},
	{Name: RouteCourses, Template: BasePath + "/courses"},
	{Name: RouteCourseNew, Template: BasePath + "/courses/new"},
	{Name: RouteCourseSettingsLegacy, Template: BasePath + "/courses/settings/{courseId}"},
	{Name: RouteCourseEnroll, Template: BasePath + "/courses/enroll/{enrollCode}"},
	{Name: RouteTopicSettings, Template: BasePath + "/courses/{courseId}/topic/{topicId}/settings", NonStudent: true},
	{Name: RouteGradingPrint, Template: BasePath + "/courses/{courseId}/topic/{topicId}/grading/print/{userId}", NonStudent: true},
	{Name: RouteGrading, Template: BasePath + "/courses/{courseId}/topic/{topicId}/grading", NonStudent: true},
	{Name: RouteTopic, Template: BasePath + "/courses/{courseId}/topic/{topicId}"},
	{Name: RouteCourseSettings, Template: BasePath + "/courses/{courseId}/settings"},
	{Name: RouteCourseDetails, Template: BasePath + "/courses/{courseId}"},
}

// Match is a route matched against a concrete path.
type Match struct {
	Route Route
	Vars  map[string]string
}

// Table matches paths against a fixed route list.
type Table struct {
	routes []Route
	byName map[string]Route
	router *mux.Router
}

// NewTable builds a Table over routes. Route names must be unique.
func NewTable(routes []Route) *Table {
	t := &Table{
		routes: append([]Route(nil), routes...),
		byName: make(map[string]Route, len(routes)),
		router: mux.NewRouter(),
	}
	for _, r := range routes {
		t.byName[r.Name] = r
		t.router.NewRoute().Name(r.Name).Path(r.Template)
	}
	return t
}

// Routes returns a copy of the table in match order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Lookup returns the route named name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Match finds the first route whose template matches the path of rawPath. Query strings and a
// trailing slash are ignored.
func (t *Table) Match(rawPath string) (*Match, bool) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return nil, false
	}
	p := u.Path
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: p}}
	var rm mux.RouteMatch
	if !t.router.Match(req, &rm) || rm.Route == nil {
		return nil, false
	}
	r, ok := t.byName[rm.Route.GetName()]
	if !ok {
		return nil, false
	}
	return &Match{Route: r, Vars: rm.Vars}, true
}

// URL builds the concrete path for the named route from alternating key/value pairs.
func (t *Table) URL(name string, pairs ...string) (string, error) {
	r := t.router.Get(name)
	if r == nil {
		return "", ErrUnknownRoute
	}
	u, err := r.URLPath(pairs...)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}
