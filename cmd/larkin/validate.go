package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/artpar/larkin/app"
	"github.com/artpar/larkin/core/registry"
	"github.com/artpar/larkin/core/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate route declarations before deployment",
	Long: `Validate every route declaration under a directory.

Checks:
  - The file parses as YAML, TOML or JSON
  - The declaration names a known handler with valid config
  - The declaration passes the same checks the server runs at startup
  - No two declarations share a path

The directory defaults to routes.dir from the config.

Examples:
  larkin validate
  larkin validate ./routes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

// declaration is one parsed file.
type declaration struct {
	File  string
	Route schema.Route
}

// readDeclarations parses every declaration file under dir in walk order.
// Parse failures are returned per file rather than stopping the walk.
func readDeclarations(dir string) ([]declaration, map[string]error, error) {
	var decls []declaration
	failed := make(map[string]error)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := schema.FormatForPath(path); !ok {
			return nil
		}

		route, err := schema.ParseFile(path)
		if err != nil {
			failed[path] = err
			decls = append(decls, declaration{File: path})
			return nil
		}
		decls = append(decls, declaration{File: path, Route: route})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", dir, err)
	}
	return decls, failed, nil
}

// validateDir checks every declaration under dir and reports each file to
// out. It returns the number of invalid files.
func validateDir(out io.Writer, dir string) (int, error) {
	decls, failed, err := readDeclarations(dir)
	if err != nil {
		return 0, err
	}

	catalog := app.NewCatalog()
	reg := registry.New()
	invalid := 0

	for _, d := range decls {
		err := failed[d.File]
		if err == nil {
			err = catalog.Bind(&d.Route)
		}
		if err == nil {
			err = reg.Register(&d.Route)
		}

		if err != nil {
			invalid++
			fmt.Fprintf(out, "  %s %s\n      %v\n", crossMark, d.File, err)
			continue
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", checkMark, d.File, d.Route.Path)
	}

	fmt.Fprintf(out, "\n%d declaration(s), %d invalid\n", len(decls), invalid)
	return invalid, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, err := routesDir(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", dir)

	invalid, err := validateDir(out, dir)
	if err != nil {
		return err
	}
	if invalid > 0 {
		return errors.New("validation failed")
	}
	return nil
}
