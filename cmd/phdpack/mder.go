package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
)

func mderCommand() *cli.Command {
	widthFlag := &cli.StringFlag{
		Name:  flagWidth,
		Value: "sfloat16",
		Usage: "`WIDTH` of the value (sfloat16 or float32)",
	}

	return &cli.Command{
		Name:  "mder",
		Usage: "convert between Mder float words and decimal strings",
		Subcommands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "render a raw word as a decimal string",
				ArgsUsage: "<raw>",
				Flags:     []cli.Flag{widthFlag},
				Action: func(c *cli.Context) error {
					width, err := parseWidth(c.String(flagWidth))
					if err != nil {
						return err
					}
					out, err := formatWord(c.Args().First(), width)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, out)

					return nil
				},
			},
			{
				Name:      "parse",
				Usage:     "encode a decimal string as a raw word",
				ArgsUsage: "<decimal>",
				Flags:     []cli.Flag{widthFlag},
				Action: func(c *cli.Context) error {
					width, err := parseWidth(c.String(flagWidth))
					if err != nil {
						return err
					}
					out, err := parseDecimal(c.Args().First(), width)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, out)

					return nil
				},
			},
		},
	}
}

func parseWidth(s string) (format.FloatWidth, error) {
	switch strings.ToLower(s) {
	case "sfloat16", "sfloat":
		return format.SFloat16, nil
	case "float32", "float":
		return format.Float32, nil
	default:
		return 0, fmt.Errorf("unknown width %q", s)
	}
}

func formatWord(raw string, width format.FloatWidth) (string, error) {
	word, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return "", err
	}

	v, err := mder.Decode(uint32(word), width)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

func parseDecimal(text string, width format.FloatWidth) (string, error) {
	v, err := mder.Parse(text, width)
	if err != nil {
		return "", err
	}

	word, err := v.Encode()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("0x%0*X", 2*width.Size(), word), nil
}
