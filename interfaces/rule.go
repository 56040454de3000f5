package interfaces

import "net/http"

// Rule maps one or more HTTP method/path pairs to a single RPC selector.
type Rule struct {
	// Selector has the form [namespace.]Service.Method.
	Selector string `yaml:"selector"`

	Get     string `yaml:"get,omitempty"`
	Head    string `yaml:"head,omitempty"`
	Post    string `yaml:"post,omitempty"`
	Put     string `yaml:"put,omitempty"`
	Delete  string `yaml:"delete,omitempty"`
	Connect string `yaml:"connect,omitempty"`
	Options string `yaml:"options,omitempty"`
	Trace   string `yaml:"trace,omitempty"`
	Patch   string `yaml:"patch,omitempty"`
}

// Route is one declared HTTP method and path template.
type Route struct {
	Method string
	Path   string
}

// RouteMethods lists the HTTP methods a rule may declare, in registration order.
var RouteMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodConnect,
	http.MethodOptions,
	http.MethodTrace,
	http.MethodPatch,
}

func (r *Rule) field(method string) *string {
	switch method {
	case http.MethodGet:
		return &r.Get
	case http.MethodHead:
		return &r.Head
	case http.MethodPost:
		return &r.Post
	case http.MethodPut:
		return &r.Put
	case http.MethodDelete:
		return &r.Delete
	case http.MethodConnect:
		return &r.Connect
	case http.MethodOptions:
		return &r.Options
	case http.MethodTrace:
		return &r.Trace
	case http.MethodPatch:
		return &r.Patch
	}
	return nil
}

// Routes returns the declared routes of the rule in RouteMethods order.
func (r *Rule) Routes() []Route {
	var routes []Route
	for _, method := range RouteMethods {
		if path := *r.field(method); path != "" {
			routes = append(routes, Route{Method: method, Path: path})
		}
	}
	return routes
}

// SetPath replaces the path template declared for method. Unknown methods are ignored.
func (r *Rule) SetPath(method, path string) {
	if f := r.field(method); f != nil {
		*f = path
	}
}
