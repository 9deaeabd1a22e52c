package sources

import (
	"net/netip"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	var price pgtype.Numeric
	require.NoError(t, price.Scan("19.90"))

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "string", value: "boots", want: "boots"},
		{name: "bytes", value: []byte("raw"), want: "raw"},
		{name: "bool", value: true, want: "true"},
		{name: "int64", value: int64(42), want: "42"},
		{name: "int32", value: int32(-7), want: "-7"},
		{name: "float64", value: 2.5, want: "2.5"},
		{name: "time", value: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), want: "2026-01-02T03:04:05Z"},
		{name: "uuid_bytes", value: [16]byte(id), want: id.String()},
		{name: "uuid", value: id, want: id.String()},
		{name: "inet", value: netip.MustParsePrefix("10.0.0.0/8"), want: "10.0.0.0/8"},
		{name: "array", value: []any{"m1", nil, int64(3)}, want: "m1||3"},
		{name: "json_object", value: map[string]any{"a": 1.0}, want: `{"a":1}`},
		{name: "numeric", value: price, want: "19.90"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatValue(tt.value))
		})
	}
}
