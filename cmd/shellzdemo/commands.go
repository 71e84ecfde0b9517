// Package main hosts a small cobra CLI demonstrating the shellz core: a
// two-stage Job wired with built-in Command implementations, run against a
// root Scope and printed through a WriterPrinter.
package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/zoobzio/shellz"
)

// rangeColumns is the output schema of rangeCommand: a single integer
// column named "n".
var rangeColumns = []shellz.ColumnType{{Name: "n", Type: shellz.TypeInteger}}

// doubledColumns is the output schema of doubleCommand.
var doubledColumns = []shellz.ColumnType{{Name: "doubled", Type: shellz.TypeInteger}}

// rangeCommand is a source stage: it ignores Input and writes Arguments[0]
// rows carrying 1..n to Output.
type rangeCommand struct{}

func (rangeCommand) CommandName() string { return "range" }
func (rangeCommand) Help() string        { return "emit rows 1..n in column \"n\"" }
func (rangeCommand) OutputKind() shellz.OutputType {
	return shellz.Known(shellz.TypeInteger)
}

func (rangeCommand) Invoke(ctx context.Context, ec *shellz.ExecutionContext) error {
	if len(ec.Arguments) != 1 {
		return shellz.ArgumentError("range expects exactly one argument")
	}
	limit, err := ec.Arguments[0].Integer()
	if err != nil {
		return err
	}
	one := big.NewInt(1)
	for i := big.NewInt(1); i.Cmp(limit) <= 0; i.Add(i, one) {
		v, err := shellz.NewInteger(new(big.Int).Set(i))
		if err != nil {
			return err
		}
		row, err := shellz.NewRow(rangeColumns, []shellz.Value{v})
		if err != nil {
			return err
		}
		if err := ec.Output.Send(row); err != nil {
			return err
		}
	}
	return nil
}

// doubleCommand is a transform stage: it reads "n" rows from Input and
// writes "doubled" rows carrying 2*n to Output.
type doubleCommand struct{}

func (doubleCommand) CommandName() string { return "double" }
func (doubleCommand) Help() string        { return "double each incoming \"n\" cell" }
func (doubleCommand) OutputKind() shellz.OutputType {
	return shellz.Known(shellz.TypeInteger)
}

func (doubleCommand) Invoke(ctx context.Context, ec *shellz.ExecutionContext) error {
	for {
		row, err := ec.Input.Recv()
		if err != nil {
			if shellz.IsKind(err, shellz.KindRecv) {
				return nil
			}
			return err
		}
		cell, err := row.Get("n")
		if err != nil {
			return err
		}
		n, err := cell.Integer()
		if err != nil {
			return err
		}
		doubled, err := shellz.NewInteger(new(big.Int).Lsh(n, 1))
		if err != nil {
			return err
		}
		out, err := shellz.NewRow(doubledColumns, []shellz.Value{doubled})
		if err != nil {
			return err
		}
		if err := ec.Output.Send(out); err != nil {
			return err
		}
	}
}

// formatRow renders a Row as "col=value, ..." for demo output.
func formatRow(row shellz.Row) string {
	out := ""
	for i, col := range row.Columns {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", col.Name, row.Cells[i].String())
	}
	return out
}
