package postgres

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

func TestCursorRoundTrip(t *testing.T) {
	in := cursor{Value: json.RawMessage(`12`), Key: "o-12"}

	s, err := encodeCursor(in)
	require.NoError(t, err)

	out, err := decodeCursor(s)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeCursor("%%%")
	assert.Error(t, err)
}

func TestPageQuery(t *testing.T) {
	type testCase struct {
		name     string
		field    string
		cursor   *cursor
		contains []string
		args     []any
	}

	tests := []testCase{
		{
			name:     "ByField",
			field:    "osNumber",
			contains: []string{"data #> string_to_array($2, '.')", "LIMIT $3"},
			args:     []any{mirror.WorkOrders, "osNumber", 11},
		},
		{
			name:     "ByFieldAfterCursor",
			field:    "osNumber",
			cursor:   &cursor{Value: json.RawMessage(`7`), Key: "o7"},
			contains: []string{"> ($3::jsonb, $4)", "LIMIT $5"},
			args:     []any{mirror.WorkOrders, "osNumber", "7", "o7", 11},
		},
		{
			name:     "ByKeyAfterCursor",
			cursor:   &cursor{Value: json.RawMessage(`"o7"`), Key: "o7"},
			contains: []string{"to_jsonb(key)", "> ($2::jsonb, $3)", "LIMIT $4"},
			args:     []any{mirror.WorkOrders, `"o7"`, "o7", 11},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := pageQuery(mirror.WorkOrders, tt.field, tt.cursor, 11)

			for _, s := range tt.contains {
				assert.Contains(t, q, s)
			}

			assert.Equal(t, tt.args, args)
		})
	}
}
