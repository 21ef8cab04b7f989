package group

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/phdpack/format"
	"github.com/arloliu/phdpack/mder"
	"github.com/arloliu/phdpack/measure"
)

var vitals = []measure.Descriptor{
	measure.Numeric{Common: measure.Common{Type: 0x4BB8, Unit: 0x02A0}},
	measure.Numeric{Common: measure.Common{Type: 0x4822, Unit: 0x0AA0}, Width: format.Float32},
}

func newContext(t *testing.T) *measure.Context {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ctx, err := measure.NewContext(measure.WithClock(mock))
	require.NoError(t, err)

	return ctx
}

func compile(t *testing.T, ctx *measure.Context, descs []measure.Descriptor, opts ...measure.Option) *measure.Template {
	t.Helper()

	tpl, err := measure.Compile(ctx, descs, opts...)
	require.NoError(t, err)

	return tpl
}

func setNumeric(t *testing.T, tpl *measure.Template, i int, v mder.Value) {
	t.Helper()
	require.NoError(t, tpl.SetNumeric(tpl.Measurement(i).Value, v))
}

func numeric(t *testing.T, tpl *measure.Template, i int) mder.Value {
	t.Helper()

	v, err := tpl.Numeric(tpl.Measurement(i).Value)
	require.NoError(t, err)

	return v
}
