package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/larkin/core/formatter"
	"github.com/artpar/larkin/core/schema"
	"github.com/artpar/larkin/core/validation"
)

// FormatParam is the parameter that selects the output format.
const FormatParam = "format"

// RootBody is the API root listing.
type RootBody struct {
	V           int               `json:"v"`
	License     string            `json:"license"`
	Description string            `json:"description"`
	Routes      map[string]string `json:"routes"`
}

// DescribeBody is returned for a request to a known route with no
// parameters.
type DescribeBody struct {
	V       int    `json:"v"`
	License string `json:"license"`
	schema.Description
}

// routeHandler returns the validating wrapper around route's handler.
func (c *Channel) routeHandler(route *schema.Route, pathParams []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := QueryParams(r.URL.RawQuery)
		// chi matches on RawPath when it is set, so only then are the
		// captured segments still escaped.
		escaped := r.URL.RawPath != ""
		for _, name := range pathParams {
			if v := chi.URLParam(r, name); v != "" {
				if escaped {
					if unescaped, err := url.PathUnescape(v); err == nil {
						v = unescaped
					}
				}
				params = append(params, validation.Param{Name: name, Raw: v})
			}
		}

		outcome, err := validation.Validate(route, params)
		if err != nil {
			c.reject(w, r, route, err)
			return
		}

		if outcome.Describe {
			info := c.dispatcher.Info()
			c.dispatcher.JSON(w, http.StatusOK, DescribeBody{
				V:           info.Version,
				License:     info.License,
				Description: route.Describe(),
			})
			return
		}

		format, _ := outcome.Params.String(FormatParam)
		resp := &responder{
			ResponseWriter: w,
			req:            r,
			format:         format,
			dispatcher:     c.dispatcher,
		}
		req := &schema.Request{Request: r, Route: route, Params: outcome.Params}

		route.Handler(resp, req, c.next(resp, r, route), c.plugins)
	}
}

func (c *Channel) reject(w http.ResponseWriter, r *http.Request, route *schema.Route, err error) {
	var re *validation.RequestError
	if !errors.As(err, &re) {
		re = validation.Internal()
	}

	if c.recorder != nil {
		c.recorder.ObserveValidationFailure(route.Path, validation.Reason(err))
	}
	c.logger.Debug().
		Str("route", route.Path).
		Str("reason", validation.Reason(err)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg(re.Message)

	c.dispatcher.Error(w, re.Message, re.Status)
}

// next builds the continuation handed to a handler. Only the first call
// has an effect, and only if nothing has been written yet.
func (c *Channel) next(resp *responder, r *http.Request, route *schema.Route) schema.Next {
	var once sync.Once
	return func(err error) {
		once.Do(func() {
			if resp.written {
				return
			}
			if err == nil {
				c.handleNotFound(resp, r)
				return
			}
			c.logger.Error().
				Err(err).
				Str("route", route.Path).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("route handler failed")
			ie := validation.Internal()
			c.dispatcher.Error(resp, ie.Message, ie.Status)
		})
	}
}

func (c *Channel) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := c.dispatcher.Info()
	c.dispatcher.JSON(w, http.StatusOK, RootBody{
		V:           info.Version,
		License:     info.License,
		Description: info.Description,
		Routes:      c.routes.Routes(),
	})
}

func (c *Channel) handleNotFound(w http.ResponseWriter, r *http.Request) {
	nf := validation.NotFound()
	c.dispatcher.Error(w, nf.Message, nf.Status)
}

func (c *Channel) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	c.dispatcher.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// QueryParams parses a raw query string into parameters in the order their
// names first appear. Repeated names are joined with ",", so "a=1&a=2"
// yields a single "1,2". Pairs with an empty name are dropped.
func QueryParams(rawQuery string) []validation.Param {
	var (
		params []validation.Param
		index  = make(map[string]int)
	)

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if key == "" {
			continue
		}

		if i, ok := index[key]; ok {
			params[i].Raw += "," + value
			continue
		}
		index[key] = len(params)
		params = append(params, validation.Param{Name: key, Raw: value})
	}

	return params
}

// responder is the Responder handed to route handlers.
type responder struct {
	http.ResponseWriter
	req        *http.Request
	format     string
	dispatcher *formatter.Dispatcher
	written    bool
}

func (r *responder) WriteHeader(code int) {
	r.written = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

// Reply renders data in the format the caller asked for.
func (r *responder) Reply(data []map[string]any) {
	r.dispatcher.Send(r, r.req, r.format, data)
}

// Error writes the error envelope.
func (r *responder) Error(message string, code int) {
	r.dispatcher.Error(r, message, code)
}
