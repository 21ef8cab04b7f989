package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/arloliu/phdpack/archive"
	"github.com/arloliu/phdpack/config"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/group"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
)

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "patch values into a shape and print the assembled record in hex",
		ArgsUsage: "<shape.yaml>",
		Flags: []cli.Flag{
			&cli.GenericFlag{
				Name:  flagValue,
				Value: &assignments{},
				Usage: "`NAME=VALUE` for a measurement given by name or index; compounds and samples take comma-separated lists",
			},
			&cli.StringFlag{
				Name:  flagArchive,
				Usage: "wrap the record in an archive compressed with `CODEC` (none, zstd, s2, lz4)",
			},
		},
		Action: func(c *cli.Context) error {
			shape, tpl, err := compileShape(c)
			if err != nil {
				return err
			}

			var values []string
			if a, ok := c.Generic(flagValue).(*assignments); ok {
				values = a.list
			}
			for _, kv := range values {
				if err := applyValue(shape, tpl, kv); err != nil {
					return err
				}
			}

			record, err := group.Assemble(group.Header{}, tpl)
			if err != nil {
				return err
			}

			if codec := c.String(flagArchive); codec != "" {
				record, err = wrapArchive(codec, record)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(c.App.Writer, hex.EncodeToString(record))

			return nil
		},
	}
}

// assignments collects repeated --value flags. Unlike a string slice flag it keeps
// commas inside a value.
type assignments struct {
	list []string
}

func (a *assignments) Set(v string) error {
	a.list = append(a.list, v)
	return nil
}

func (a *assignments) String() string {
	if a == nil {
		return ""
	}

	return strings.Join(a.list, " ")
}

func wrapArchive(codec string, record []byte) ([]byte, error) {
	ct, err := parseCompression(codec)
	if err != nil {
		return nil, err
	}

	w, err := archive.NewWriter(ct)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	if err := w.Append(record); err != nil {
		return nil, err
	}

	return w.Finish()
}

func parseCompression(s string) (format.CompressionType, error) {
	switch strings.ToLower(s) {
	case "none":
		return format.CompressionNone, nil
	case "zstd":
		return format.CompressionZstd, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// applyValue sets one NAME=VALUE assignment.
func applyValue(shape *config.Shape, tpl *measure.Template, kv string) error {
	name, text, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("value %q is not NAME=VALUE", kv)
	}

	i, found := shape.Index(name)
	if !found {
		n, err := strconv.Atoi(name)
		if err != nil || n < 0 || n >= tpl.MeasurementCount() {
			return fmt.Errorf("unknown measurement %q", name)
		}
		i = n
	}

	if err := setValue(tpl, i, text); err != nil {
		return fmt.Errorf("measurement %q: %w", name, err)
	}

	return nil
}

func setValue(tpl *measure.Template, i int, text string) error {
	m := tpl.Measurement(i)
	e, err := tpl.Entry(m.Value)
	if err != nil {
		return err
	}

	switch m.Kind {
	case format.KindNumeric:
		v, err := mder.Parse(text, e.Width)
		if err != nil {
			return err
		}

		return tpl.SetNumeric(m.Value, v)

	case format.KindCompound, format.KindComplexCompound:
		parts := strings.Split(text, ",")
		values := make([]mder.Value, len(parts))
		for j, p := range parts {
			if values[j], err = mder.Parse(strings.TrimSpace(p), e.Width); err != nil {
				return err
			}
		}

		return tpl.SetCompound(m.Value, values...)

	case format.KindCodedEnum:
		code, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return err
		}

		return tpl.SetCodedEnum(m.Value, uint32(code))

	case format.KindBitEnum:
		state, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return err
		}

		return tpl.SetBitEnum(m.Value, uint32(state))

	case format.KindStringEnum:
		return tpl.SetString(m.Value, text)

	case format.KindRTSA:
		var samples []uint32
		if text != "" {
			for _, p := range strings.Split(text, ",") {
				s, err := strconv.ParseUint(strings.TrimSpace(p), 0, 32)
				if err != nil {
					return err
				}
				samples = append(samples, uint32(s))
			}
		}

		return tpl.SetSamples(m.Value, samples)
	}

	return fmt.Errorf("measurement kind %s cannot be set", m.Kind)
}
