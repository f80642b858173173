package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/artpar/larkin/core/openapi"
)

func (c *Channel) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	info := c.dispatcher.Info()

	gen := openapi.NewGenerator(c.routes.List())
	gen.SetInfo(openapi.Info{
		Title:       "larkin API",
		Description: info.Description,
		Version:     strconv.Itoa(info.Version),
		License:     &openapi.License{Name: info.License},
	})

	// Add server from request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	gen.AddServer(fmt.Sprintf("%s://%s%s", scheme, r.Host, c.cfg.BasePath), "Current server")

	data, err := gen.Generate().ToJSON()
	if err != nil {
		c.logger.Error().Err(err).Msg("encode openapi document")
		c.dispatcher.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}
