package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/muurk/wifid/internal/cgi"
	"github.com/muurk/wifid/internal/wifi"
)

// Dispatcher maps inbound requests onto cooperative handlers.
type Dispatcher struct {
	router   *mux.Router
	handlers map[string]cgi.Handler
}

// NewDispatcher builds the dispatch table for routes.
func NewDispatcher(routes []wifi.Route) *Dispatcher {
	d := &Dispatcher{
		router:   mux.NewRouter(),
		handlers: make(map[string]cgi.Handler, len(routes)),
	}
	for _, r := range routes {
		d.router.NewRoute().Name(r.Name).Methods(r.Method).Path(r.Path)
		d.handlers[r.Name] = r.Handler
	}
	return d
}

// Lookup returns the route name and handler for hr. Requests that match
// no route, including a known path with the wrong method, get notFound.
func (d *Dispatcher) Lookup(hr *http.Request) (string, cgi.Handler) {
	var match mux.RouteMatch
	if !d.router.Match(hr, &match) || match.MatchErr != nil || match.Route == nil {
		return "not_found", notFound
	}
	name := match.Route.GetName()
	h, ok := d.handlers[name]
	if !ok {
		return "not_found", notFound
	}
	return name, h
}

func notFound(req *cgi.Request) cgi.Result {
	req.SetHeader("Content-Type", "text/plain")
	if err := req.WriteStatus(http.StatusNotFound); err == nil {
		_, _ = req.Write([]byte("404 page not found\n"))
	}
	return cgi.Done()
}
