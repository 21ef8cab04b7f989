// Command phdpack inspects measurement shapes and records.
//
//	phdpack layout shape.yaml
//	phdpack encode shape.yaml --value spo2=97 --value pulse=72
//	phdpack decode 01001e00...
//	phdpack mder format 0xF16E
//	phdpack mder parse 36.6
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/arloliu/phdpack/archive"
	"github.com/arloliu/phdpack/group"
	"github.com/arloliu/phdpack/measure"
)

const (
	flagVerbose = "verbose"
	flagValue   = "value"
	flagWidth   = "width"
	flagArchive = "archive"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "phdpack:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger *zap.Logger

	return &cli.App{
		Name:  "phdpack",
		Usage: "compile measurement shapes and inspect personal health device records",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if c.Bool(flagVerbose) {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return err
			}

			measure.SetLogger(logger)
			group.SetLogger(logger)
			archive.SetLogger(logger)

			return nil
		},
		After: func(_ *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}

			return nil
		},
		Commands: []*cli.Command{
			layoutCommand(),
			encodeCommand(),
			decodeCommand(),
			mderCommand(),
		},
	}
}
