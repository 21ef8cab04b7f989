package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/arloliu/phdpack/archive"
	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/group"
	"github.com/arloliu/phdpack/mder"
)

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "decode a hex record, or every record of a hex archive",
		ArgsUsage: "<hex>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  flagArchive,
				Usage: "the input is an archive",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected one hex argument, got %d", c.NArg())
			}

			data, err := hex.DecodeString(strings.TrimPrefix(c.Args().First(), "0x"))
			if err != nil {
				return err
			}

			records := [][]byte{data}
			if c.Bool(flagArchive) {
				if records, err = archive.Read(data); err != nil {
					return err
				}
			}

			for _, r := range records {
				rec, err := group.Parse(r)
				if err != nil {
					return err
				}
				printRecord(c.App.Writer, rec)
			}

			return nil
		},
	}
}

func printRecord(w io.Writer, rec *group.Record) {
	h := rec.Header
	fmt.Fprintf(w, "%s record: group id 0x%04X, %d measurements, %d bytes\n",
		rec.State(), h.GroupID, h.Count, h.Length)

	if rec.State() == format.StateOptimizedFollows {
		fmt.Fprintf(w, "change sets: %s\n", hex.EncodeToString(rec.Body))
		return
	}
	if h.Flag.HasTimestamp() {
		fmt.Fprintf(w, "timestamp: %s\n", rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	}
	if h.Flag.HasPersonID() {
		fmt.Fprintf(w, "person id: %d\n", rec.PersonID)
	}
	if h.Flag.HasCommonDuration() {
		fmt.Fprintf(w, "duration: %s\n", rec.Duration)
	}
	if len(rec.Measurements) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Kind", "Type", "Unit", "ID", "Value"})
	for i := range rec.Measurements {
		m := &rec.Measurements[i]
		t.AppendRow(table.Row{
			i,
			m.Kind(),
			fmt.Sprintf("0x%04X", m.Type),
			fmt.Sprintf("0x%04X", m.Unit),
			m.ID,
			renderValue(m),
		})
	}
	t.Render()
}

func renderValue(m *group.Measurement) string {
	switch m.Kind() {
	case format.KindNumeric, format.KindCompound, format.KindComplexCompound:
		return joinValues(m.Values)
	case format.KindCodedEnum:
		return fmt.Sprintf("0x%04X", m.Code)
	case format.KindBitEnum:
		return fmt.Sprintf("0x%0*X of 0x%0*X", 2*m.ByteCount, m.State, 2*m.ByteCount, m.Supported)
	case format.KindStringEnum:
		return fmt.Sprintf("%q", m.Text)
	case format.KindRTSA:
		return fmt.Sprintf("%d/%d samples, scale %s, offset %s, period %s",
			len(m.Samples), m.MaxSamples, m.Scale, m.Offset, m.Period)
	default:
		return ""
	}
}

func joinValues(values []mder.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}

	return strings.Join(parts, ", ")
}
