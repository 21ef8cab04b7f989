package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/arloliu/phdpack/config"
	"github.com/arloliu/phdpack/measure"
)

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:      "layout",
		Usage:     "print the compiled field index of a shape",
		ArgsUsage: "<shape.yaml>",
		Action: func(c *cli.Context) error {
			shape, tpl, err := compileShape(c)
			if err != nil {
				return err
			}

			return printLayout(c.App.Writer, shape, tpl)
		},
	}
}

func compileShape(c *cli.Context) (*config.Shape, *measure.Template, error) {
	if c.NArg() != 1 {
		return nil, nil, fmt.Errorf("expected one shape file, got %d arguments", c.NArg())
	}

	shape, err := config.Load(c.Args().First())
	if err != nil {
		return nil, nil, err
	}

	ctx, err := measure.NewContext()
	if err != nil {
		return nil, nil, err
	}

	tpl, err := shape.Compile(ctx)
	if err != nil {
		return nil, nil, err
	}

	return shape, tpl, nil
}

func printLayout(w io.Writer, shape *config.Shape, tpl *measure.Template) error {
	fmt.Fprintf(w, "shape %q: %d bytes, group id 0x%04X, flags 0x%04X\n",
		shape.Name, tpl.Len(), tpl.GroupID(), uint16(tpl.Flag()))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Owner", "Field", "Width", "Offset", "Length", "Count", "Stride", "Bits"})
	for i, e := range tpl.Entries() {
		owner := "header"
		if !e.IsHeader() {
			owner = fmt.Sprintf("%d", e.Measurement)
			if name := shape.Measurements[e.Measurement].Name; name != "" {
				owner = name
			}
		}

		width := ""
		if e.Width != 0 {
			width = e.Width.String()
		}

		t.AppendRow(table.Row{i, owner, e.Kind, width, e.Offset, e.Length, e.Count, e.Stride, e.Bits})
	}
	t.Render()

	return nil
}
