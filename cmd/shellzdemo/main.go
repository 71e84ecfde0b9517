package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoobzio/shellz"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var count int64

	root := &cobra.Command{
		Use:   "shellzdemo",
		Short: "Demonstrates the shellz pipeline core",
		Long: "shellzdemo wires a two-stage job (range, then double) through the\n" +
			"shellz Job executor and prints the materialized result table.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, count)
		},
	}
	root.Flags().Int64Var(&count, "count", 5, "how many rows the range stage emits")

	root.AddCommand(newScopeRoundtripCmd())
	return root
}

func runDemo(cmd *cobra.Command, count int64) error {
	printer := shellz.NewWriterPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	root := shellz.NewGlobalScope()

	job := shellz.JobDefinition{
		Name: "demo",
		Mode: shellz.Sync,
		Stages: []shellz.StageDefinition{
			{
				Command:      rangeCommand{},
				Arguments:    []shellz.Definition{shellz.IntegerDefinition{Value: big.NewInt(count)}},
				OutputSchema: rangeColumns,
			},
			{
				Command:      doubleCommand{},
				OutputSchema: doubledColumns,
			},
		},
	}
	materialized := shellz.MaterializedJobDefinition{Job: job}

	deps := shellz.NewDependencyList()
	result, err := materialized.Compile(deps, root, printer)
	if err != nil {
		printer.HandleError(err)
		return err
	}
	if err := deps.DrainAll(); err != nil {
		printer.HandleError(err)
		return err
	}

	table, err := result.TableValue()
	if err != nil {
		return err
	}
	for _, row := range table.Rows() {
		printer.Line(formatRow(row))
	}
	return nil
}

func newScopeRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scope-roundtrip",
		Short: "Declares a few variables in a scope and serializes/deserializes it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := shellz.NewWriterPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runScopeRoundtrip(printer)
		},
	}
}

func runScopeRoundtrip(printer shellz.Printer) error {
	root := shellz.NewGlobalScope()
	if err := root.Declare("greeting", shellz.NewText("hello")); err != nil {
		return err
	}
	child := shellz.NewScope("", false, false, false)
	child.SetParent(root)
	if err := child.Declare("count", shellz.NewIntegerFromInt64(3)); err != nil {
		return err
	}

	data, err := shellz.MarshalScope(child)
	if err != nil {
		return err
	}
	printer.Line(fmt.Sprintf("serialized scope graph: %d bytes", len(data)))

	restored, err := shellz.UnmarshalScope(data, root)
	if err != nil {
		return err
	}
	count, ok := restored.GetStr("count")
	if !ok {
		return shellz.LookupError("restored scope is missing count")
	}
	printer.Line(fmt.Sprintf("restored count = %s", count.String()))
	return nil
}
