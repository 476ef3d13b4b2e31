// Command conntab inspects and checks patch connectivity tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aeroshape/parageo/topology"
)

func main() {
	root := &cobra.Command{
		Use:           "conntab",
		Short:         "Inspect patch connectivity tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(printCmd(), verifyCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "conntab:", err)
		os.Exit(1)
	}
}

func readTable(path string) (*topology.Connectivity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return topology.ReadTable(f)
}

func printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <table>",
		Short: "Parse a table and print it back in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := readTable(args[0])
			if err != nil {
				return err
			}
			return conn.WriteTable(cmd.OutOrStdout())
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <table>",
		Short: "Check the structural invariants of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := readTable(args[0])
			if err != nil {
				return err
			}
			if err := conn.Verify(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records, %d driving groups: ok\n",
				len(conn.Records), conn.NumGroups())
			return nil
		},
	}
}
