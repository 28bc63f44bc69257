package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrderAndFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/010_later.sql":  {Data: []byte("SELECT 10;")},
		"pg/002_second.sql": {Data: []byte("SELECT 2;")},
		"pg/001_first.sql":  {Data: []byte("SELECT 1;")},
		"pg/003_blank.sql":  {Data: []byte("  \n")},
		"pg/README.md":      {Data: []byte("notes")},
	}

	got, err := Load(fsys, "pg")
	require.NoError(t, err)

	var names []string
	for _, m := range got {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"001_first.sql", "002_second.sql", "010_later.sql"}, names)
	assert.Equal(t, "SELECT 1;", got[0].SQL)
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "clickhouse")
	assert.Error(t, err)
}

func TestLoad_EmbeddedSchemas(t *testing.T) {
	pg, err := Load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_circuits.sql", pg[0].Name)

	ch, err := Load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)
	stmts := splitStatements(ch[0].SQL)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS sizing_result_history")
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "two statements",
			in:   "CREATE TABLE a (x UInt8);\nCREATE TABLE b (y UInt8);\n",
			want: []string{"CREATE TABLE a (x UInt8)", "CREATE TABLE b (y UInt8)"},
		},
		{
			name: "line comments dropped",
			in:   "-- header; with semicolon\nSELECT 1; -- trailing\n",
			want: []string{"SELECT 1"},
		},
		{
			name: "block comment",
			in:   "SELECT /* a; b */ 1;",
			want: []string{"SELECT   1"},
		},
		{
			name: "semicolon in string",
			in:   "SELECT 'a;b'; SELECT 2",
			want: []string{"SELECT 'a;b'", "SELECT 2"},
		},
		{
			name: "doubled and escaped quotes",
			in:   `SELECT 'it''s;', 'x\';y';`,
			want: []string{`SELECT 'it''s;', 'x\';y'`},
		},
		{
			name: "backquoted identifier",
			in:   "SELECT `odd;name` FROM t;",
			want: []string{"SELECT `odd;name` FROM t"},
		},
		{
			name: "only comments",
			in:   "-- nothing here\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.in))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`sizer`", quoteIdent("sizer"))
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}
