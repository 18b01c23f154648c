package main

import (
	"bufio"
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/lshsig"
)

// execute runs the CLI with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	// An empty config file keeps the developer's own lshsig.yaml out of tests.
	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	cmd.SetArgs(append([]string{"--config", empty, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

// decodeLines decodes each output line into a new T.
func decodeLines[T any](t *testing.T, out string) []T {
	t.Helper()
	var rows []T
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v), sc.Text())
		rows = append(rows, v)
	}
	require.NoError(t, sc.Err())
	return rows
}

func TestMinCommand(t *testing.T) {
	in := `{"text": "Michael Wilson"}
{"text": null}
{"text": ""}
{}
`
	out, err := execute(t, in, "min", "--ngram-width=2", "--band-count=3", "--band-size=2", "--seed=123", "--batch-size=2")
	require.NoError(t, err)

	rows := decodeLines[signatureRow[uint64]](t, out)
	require.Len(t, rows, 4)
	assert.Nil(t, rows[1].Signature)
	assert.Nil(t, rows[3].Signature)

	want, err := lshsig.MinHash(texts("Michael Wilson", ""), lshsig.MinHashParams{
		NgramWidth: 2,
		BandParams: lshsig.BandParams{BandCount: 3, BandSize: 2, Seed: 123},
	})
	require.NoError(t, err)
	assert.Equal(t, want[0], rows[0].Signature)
	assert.Equal(t, want[1], rows[2].Signature)
}

func TestMinCommand_Tokens32(t *testing.T) {
	in := `{"tokens": ["a", "b"]}
{"tokens": []}
{"tokens": null}
`
	out, err := execute(t, in, "min", "--tokens", "--bits=32", "--band-count=4", "--band-size=2")
	require.NoError(t, err)

	rows := decodeLines[signatureRow[uint32]](t, out)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0].Signature, 4)
	assert.Len(t, rows[1].Signature, 4)
	assert.Nil(t, rows[2].Signature)
}

func TestMinCommand_InvalidParameter(t *testing.T) {
	_, err := execute(t, "", "min", "--band-count=0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "band_count")
}

func TestMinCommand_TableAndInspect(t *testing.T) {
	table := filepath.Join(t.TempDir(), "sigs.lsh")
	in := `{"text": "alpha"}
{"text": null}
{"text": "beta"}
`
	out, err := execute(t, in, "min", "--table", table, "--band-count=5", "--seed=1")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = execute(t, "", "inspect", "--verify", table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var info tableInfo
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "minhash", info.Kind)
	assert.Equal(t, 64, info.Bits)
	assert.Equal(t, 5, info.BandCount)
	assert.Equal(t, uint64(1), info.Seed)
	assert.Equal(t, DefaultNgramWidth, info.NgramWidth)
	assert.Equal(t, 3, info.Rows)

	rows := decodeLines[tableRow[uint64]](t, strings.Join(lines[1:], "\n"))
	assert.Len(t, rows[0].Signature, 5)
	assert.Nil(t, rows[1].Signature)
	assert.Equal(t, 2, rows[2].Row)

	out, err = execute(t, "", "inspect", "--header-only", table)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestEuclideanCommand(t *testing.T) {
	in := `{"vector": null}
{"vector": [1.0, 2.0, 3.0]}
{"vector": [1.0, 2.0, 3.0]}
`
	out, err := execute(t, in, "euclidean", "--bucket-width=0.5", "--band-count=2", "--band-size=3", "--seed=123")
	require.NoError(t, err)

	rows := decodeLines[signatureRow[uint64]](t, out)
	require.Len(t, rows, 3)
	assert.Nil(t, rows[0].Signature)
	assert.Len(t, rows[1].Signature, 2)
	assert.Equal(t, rows[1].Signature, rows[2].Signature)
}

func TestEuclideanCommand_TableWithLeadingNulls(t *testing.T) {
	table := filepath.Join(t.TempDir(), "euc.lsh")
	in := `{"vector": null}
{"vector": null}
{"vector": [0.5, -0.5]}
`
	_, err := execute(t, in, "euclidean", "--table", table, "--bits=32", "--batch-size=1")
	require.NoError(t, err)

	tbl, err := lshsig.OpenTable(table)
	require.NoError(t, err)
	defer tbl.Close()
	require.NoError(t, tbl.Verify())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 2, tbl.Spec().Dims)

	_, valid, err := tbl.Row32(0)
	require.NoError(t, err)
	assert.False(t, valid)
	sig, valid, err := tbl.Row32(2)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Len(t, sig, DefaultBandCount)
}

func TestEuclideanCommand_DimensionMismatchAcrossBatches(t *testing.T) {
	in := `{"vector": [1.0, 2.0]}
{"vector": [1.0, 2.0, 3.0]}
`
	_, err := execute(t, in, "euclidean", "--batch-size=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent dimensions")
}

func TestJaccardCommand(t *testing.T) {
	in := `{"a": "Michael Wilson", "b": "Mike Wilson"}
{"a": null, "b": "Mike Wilson"}
{"a": "", "b": ""}
`
	out, err := execute(t, in, "jaccard", "--ngram-width=2")
	require.NoError(t, err)

	rows := decodeLines[similarityRow](t, out)
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].Similarity)
	assert.InDelta(t, 0.4375, *rows[0].Similarity, 1e-12)
	assert.Nil(t, rows[1].Similarity)
	assert.Nil(t, rows[2].Similarity)
}

func TestJaccardCommand_Tokens(t *testing.T) {
	in := `{"a_tokens": ["x", "y"], "b_tokens": ["y", "z"]}` + "\n"
	out, err := execute(t, in, "jaccard", "--tokens")
	require.NoError(t, err)

	rows := decodeLines[similarityRow](t, out)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0/3.0, *rows[0].Similarity, 1e-12)
}

func TestMetricsFile(t *testing.T) {
	metrics := filepath.Join(t.TempDir(), "lshsig.prom")
	_, err := execute(t, `{"text": "abc"}`+"\n", "min", "--metrics-file", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), `lshsig_rows_total{operation="minhash",result="hashed"} 1`)
	assert.Contains(t, string(data), "lshsig_family_cache_derivations_total 1")
}

func TestMalformedInput(t *testing.T) {
	_, err := execute(t, "{\"text\": \"ok\"}\n{not json\n", "min")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode row 1")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "lshsig "+version))
}

func texts(ss ...string) []sql.NullString {
	out := make([]sql.NullString, len(ss))
	for i, s := range ss {
		out[i] = sql.NullString{String: s, Valid: true}
	}
	return out
}
