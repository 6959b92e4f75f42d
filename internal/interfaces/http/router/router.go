package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar attaches its routes to the versioned API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	version    string
	common     []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware run before every API route. Routes registered on the
// engine directly, such as /metrics, do not get it.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.common = append(r.common, middleware...)
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// BasePath is the API prefix, "/api/v1" by default
func (r *Router) BasePath() string {
	return "/api/" + r.version
}

// Setup attaches the registered routes to the engine. Call it once.
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath(), r.common...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one area of the API so that guards
// are declared once per area
type DomainGroup struct {
	name      string
	prefix    string
	guards    []gin.HandlerFunc
	routes    []route
	subgroups []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds guards to the group. Nil guards, i.e. features switched off in
// configuration, are ignored.
func (g *DomainGroup) Use(guards ...gin.HandlerFunc) *DomainGroup {
	for _, guard := range guards {
		if guard != nil {
			g.guards = append(g.guards, guard)
		}
	}
	return g
}

func (g *DomainGroup) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: relativePath, handlers: handlers})
	return g
}

func (g *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, p, handlers...)
}

func (g *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, p, handlers...)
}

func (g *DomainGroup) PUT(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPut, p, handlers...)
}

func (g *DomainGroup) DELETE(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodDelete, p, handlers...)
}

// Group nests a group below g; it runs g's guards first
func (g *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(g.name+"."+name, prefix)
	g.subgroups = append(g.subgroups, sub)
	return sub
}

func (g *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix, g.guards...)
	for _, rt := range g.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, sub := range g.subgroups {
		sub.RegisterRoutes(group)
	}
}

// Routes lists "METHOD /path" for the group and its subgroups, relative to
// the API base path
func (g *DomainGroup) Routes() []string {
	return g.collect("/", nil)
}

func (g *DomainGroup) collect(parent string, out []string) []string {
	base := path.Join(parent, g.prefix)
	for _, rt := range g.routes {
		out = append(out, rt.method+" "+path.Join(base, rt.path))
	}
	for _, sub := range g.subgroups {
		out = sub.collect(base, out)
	}
	return out
}

// Name identifies the group, dotted for subgroups ("admin.delivery")
func (g *DomainGroup) Name() string { return g.name }
