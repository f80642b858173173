package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Scaffold a new route declaration",
	Long: `Create a YAML declaration for the route /<name>.

The file is written to ./routes/<name>.yaml when a routes directory
exists in the working directory, and to ./<name>.yaml otherwise. An
existing file is never overwritten.

Examples:
  larkin create units`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("please provide a name for the new route. It may not contain spaces")
		}
		if len(args) > 1 {
			return errors.New("please provide only one name for the new route. It may not contain spaces")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		path, err := createRoute(wd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created new route /%s as %s\n", args[0], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}

// ErrRouteExists is returned when the scaffold target already exists.
var ErrRouteExists = errors.New("route already exists")

const routeTemplate = `# The uri this route is mapped to
path: /{{name}}

displayPath: /{{name}}

# Describe what the route does here
description: Description goes here

# List any required parameters here (ex: [foo])
requiredParameters: []

# Often times at least one parameter is required. List those here
requiresOneOf: [example]

# All the parameters that can be used to query this route.
# Parameters can be of type text, text[], integer, integer[], or boolean
parameters:
  example:
    type: text[]
    description: An example of a parameter
  format:
    type: text
    description: Desired output format
    values: [json, csv]

# The fields contained by each object in the output. Each needs a type and description
fields:
  message:
    type: text
    description: Returns success

# Add additional examples here
examples:
  - /{{name}}?example=bar,baz

# The built-in handler that answers the route: static, sql or echo
handler: static
config:
  data:
    - message: success
`

// createRoute writes the scaffold for name under dir and returns its path.
func createRoute(dir, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, " \t/\\") {
		return "", fmt.Errorf("invalid route name %q: it may not contain spaces or slashes", name)
	}

	target := dir
	if info, err := os.Stat(filepath.Join(dir, "routes")); err == nil && info.IsDir() {
		target = filepath.Join(dir, "routes")
	}
	path := filepath.Join(target, name+".yaml")

	content := strings.ReplaceAll(routeTemplate, "{{name}}", name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("the route %s was not created: %w", name, ErrRouteExists)
		}
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return "", err
	}
	return path, nil
}
