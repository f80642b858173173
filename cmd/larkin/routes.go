package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes [dir]",
	Short: "List declared routes",
	Long: `List the route declarations under a directory without starting
the server. Files that fail to parse are listed with their error.

Examples:
  larkin routes
  larkin routes ./routes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	dir, err := routesDir(args)
	if err != nil {
		return err
	}
	return listRoutes(cmd.OutOrStdout(), dir)
}

func listRoutes(out io.Writer, dir string) error {
	decls, failed, err := readDeclarations(dir)
	if err != nil {
		return err
	}
	if len(decls) == 0 {
		fmt.Fprintf(out, "No route declarations found in %s.\n", dir)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tMETHODS\tHANDLER\tPARAMETERS\tDESCRIPTION")
	for _, d := range decls {
		if err := failed[d.File]; err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", d.File, err)
			continue
		}
		r := d.Route
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Path,
			strings.Join(r.MethodList(), ","),
			orDash(r.HandlerName),
			orDash(strings.Join(r.ParameterNames(), ",")),
			truncate(r.Description, 50),
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
