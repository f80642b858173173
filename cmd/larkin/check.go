package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/larkin/app"
	larkinhttp "github.com/artpar/larkin/core/channel/http"
	"github.com/artpar/larkin/core/registry"
	"github.com/artpar/larkin/core/schema"
	"github.com/artpar/larkin/core/validation"
)

var (
	checkRoutesDir string
	checkBasePath  string
)

var checkCmd = &cobra.Command{
	Use:   "check <url>",
	Short: "Validate a request against the declared routes without serving it",
	Long: `Resolve a request URL against the route declarations and run the
request validation the server would run. Handlers are not called.

The outcome is printed as JSON. A rejected request exits non-zero.

Examples:
  larkin check '/units?name=Dakota'
  larkin check 'http://localhost:8080/api/units?name=Dakota' --base-path /api`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkRoutesDir, "routes", "", "route declarations directory (default: routes.dir from the config)")
	checkCmd.Flags().StringVar(&checkBasePath, "base-path", "", "prefix to strip from the request path (default: api.base_path from the config)")
}

// CheckResult is the printed outcome of a check.
type CheckResult struct {
	Status   int               `json:"status"`
	Route    string            `json:"route,omitempty"`
	Describe bool              `json:"describe,omitempty"`
	Params   map[string]any    `json:"params,omitempty"`
	Error    string            `json:"error,omitempty"`

	// Routes is the listing the server answers the root path with.
	Routes map[string]string `json:"routes,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.Routes.Dir
	if checkRoutesDir != "" {
		dir = checkRoutesDir
	}
	base := cfg.API.BasePath
	if cmd.Flags().Changed("base-path") {
		base = checkBasePath
	}

	reg, err := loadRegistry(dir)
	if err != nil {
		return err
	}

	result, err := checkRequest(reg, base, args[0])
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if result.Status != 200 {
		return errors.New("request rejected")
	}
	return nil
}

// loadRegistry registers every declaration under dir. Plugins are not
// opened, so plugin expectations are not checked.
func loadRegistry(dir string) (*registry.Registry, error) {
	routes, err := schema.ParseDir(dir)
	if err != nil {
		return nil, err
	}
	if err := app.NewCatalog().BindAll(routes); err != nil {
		return nil, err
	}

	reg := registry.New()
	for i := range routes {
		if err := reg.Register(&routes[i]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// checkRequest validates rawURL against reg the way the HTTP channel does.
func checkRequest(reg *registry.Registry, basePath, rawURL string) (CheckResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CheckResult{}, fmt.Errorf("parse url: %w", err)
	}

	path := u.Path
	if basePath = strings.TrimSuffix(basePath, "/"); basePath != "" {
		if path != basePath && !strings.HasPrefix(path, basePath+"/") {
			return reject(validation.NotFound()), nil
		}
		path = strings.TrimPrefix(path, basePath)
	}
	if path == "" || path == "/" {
		return CheckResult{Status: 200, Route: "/", Routes: reg.Routes()}, nil
	}
	path = strings.TrimSuffix(path, "/")

	route, pathParams, ok := reg.Resolve(path)
	if !ok {
		return reject(validation.NotFound()), nil
	}

	params := larkinhttp.QueryParams(u.RawQuery)
	if pattern, err := schema.ParsePattern(route.Path); err == nil {
		for _, name := range pattern.Params() {
			if v := pathParams[name]; v != "" {
				params = append(params, validation.Param{Name: name, Raw: v})
			}
		}
	}

	outcome, err := validation.Validate(route, params)
	if err != nil {
		var re *validation.RequestError
		if !errors.As(err, &re) {
			re = validation.Internal()
		}
		r := reject(re)
		r.Route = route.Path
		return r, nil
	}

	return CheckResult{
		Status:   200,
		Route:    route.Path,
		Describe: outcome.Describe,
		Params:   outcome.Params,
	}, nil
}

func reject(re *validation.RequestError) CheckResult {
	return CheckResult{Status: re.Status, Error: re.Message}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
