package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/larkin/core/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of route declaration files",
	Long: `Print the JSON Schema that route declaration files follow.

Editors that understand JSON Schema can use it to complete and check
declarations:
  larkin schema > larkin-route.schema.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
