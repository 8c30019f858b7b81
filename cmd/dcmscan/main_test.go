package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/b71729/dcmscan"
	"github.com/b71729/dcmscan/internal/dcmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// useTestConfig installs plain output and an observed logger for the
// duration of the test
func useTestConfig(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prevCfg, prevLogger := cfg, logger
	cfg = dcmscan.DefaultConfig()
	cfg.Color = false
	logger = zap.New(core).Sugar()
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
	return logs
}

func writeDicom(t *testing.T, path string, buf []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func validBuffer() []byte {
	return dcmtest.New().
		Element(0x0008, 0x0060, "CS", []byte("MR")).
		Element(0x0010, 0x0010, "PN", []byte("DOE^JANE")).
		Build()
}

func truncatedBuffer() []byte {
	return dcmtest.New().
		Element(0x0008, 0x0060, "CS", []byte("CT")).
		Header(0x7FE0, 0x0010, "OW", 64).Raw(0, 0, 0, 0).
		Build()
}

func TestRunView(t *testing.T) {
	logs := useTestConfig(t)
	path := writeDicom(t, filepath.Join(t.TempDir(), "a.dcm"), validBuffer())

	var out bytes.Buffer
	require.NoError(t, runView(&out, []string{path}))
	assert.Equal(t, ""+
		"Tag: (0008,0060), VR: CS, Length: 2, Offset: 140, Value: [77, 82]\n"+
		"Tag: (0010,0010), VR: PN, Length: 8, Offset: 150, Value: [68, 79, 69, 94, 74, 65, 78, 69]\n",
		out.String())
	assert.Equal(t, 1, logs.FilterMessage("decoded").Len())
}

func TestRunViewPartial(t *testing.T) {
	logs := useTestConfig(t)
	dir := t.TempDir()
	bad := writeDicom(t, filepath.Join(dir, "bad.dcm"), truncatedBuffer())
	good := writeDicom(t, filepath.Join(dir, "good.dcm"), validBuffer())

	var out bytes.Buffer
	err := runView(&out, []string{bad, good})
	require.EqualError(t, err, "1 of 2 files failed to decode")

	text := out.String()
	assert.Contains(t, text, "==> "+bad+" <==\nTag: (0008,0060), VR: CS, Length: 2, Offset: 140, Value: [67, 84]\n==> "+good+" <==\n")
	assert.Equal(t, 3, strings.Count(text, "Tag: "))

	failures := logs.FilterMessage("decode failed").AllUntimed()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, bad, fields["file"])
	assert.Equal(t, int64(1), fields["elements"])
	assert.Equal(t, true, fields["partial"])
}

func TestRunCheck(t *testing.T) {
	useTestConfig(t)
	cfg.OpenFileLimit = 2
	dir := t.TempDir()
	for _, name := range []string{"1.dcm", "2.dcm", "series/3.dcm", "series/deep/4.dcm"} {
		writeDicom(t, filepath.Join(dir, name), validBuffer())
	}

	var out bytes.Buffer
	res, err := runCheck(context.Background(), &out, []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 4, res.total)
	assert.Equal(t, 8, res.elements)
	assert.Empty(t, res.failed)
	assert.Equal(t, "parsed 4 files (8 elements) without errors\n", out.String())
}

func TestRunCheckFailures(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	writeDicom(t, filepath.Join(dir, "ok.dcm"), validBuffer())
	bad := writeDicom(t, filepath.Join(dir, "nested", "bad.dcm"), truncatedBuffer())
	notDicom := writeDicom(t, filepath.Join(dir, "nested", "notes.dcm"), []byte("plain text"))

	var out bytes.Buffer
	res, err := runCheck(context.Background(), &out, []string{filepath.Join(dir, "**", "*.dcm")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.total)
	require.Len(t, res.failed, 2)
	assert.True(t, dcmscan.IsRecoverable(res.failed[bad]))
	assert.False(t, dcmscan.IsRecoverable(res.failed[notDicom]))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FAIL "+bad+": "))
	assert.True(t, strings.HasPrefix(lines[1], "FAIL "+notDicom+": "))
	assert.Equal(t, "parsed 1 files without errors, and failed to parse 2 files", lines[2])
}

func TestRunCheckNoMatch(t *testing.T) {
	useTestConfig(t)
	_, err := runCheck(context.Background(), &bytes.Buffer{}, []string{filepath.Join(t.TempDir(), "*.dcm")})
	assert.Error(t, err)
}

func TestRunExtract(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	path := writeDicom(t, filepath.Join(dir, "a.dcm"), validBuffer())

	var out bytes.Buffer
	require.NoError(t, runExtract(&out, dcmscan.Tag{Group: 0x0008, Element: 0x0060}, path))
	assert.Equal(t, "[]byte{0x4D, 0x52}\n", out.String())

	err := runExtract(&out, dcmscan.Tag{Group: 0x0020, Element: 0x000D}, path)
	assert.EqualError(t, err, "tag (0020,000D) could not be found in file "+path)

	// the element is found before the stream breaks
	bad := writeDicom(t, filepath.Join(dir, "bad.dcm"), truncatedBuffer())
	out.Reset()
	require.NoError(t, runExtract(&out, dcmscan.Tag{Group: 0x0008, Element: 0x0060}, bad))
	assert.Equal(t, "[]byte{0x43, 0x54}\n", out.String())

	err = runExtract(&out, dcmscan.Tag{Group: 0x7FE0, Element: 0x0010}, bad)
	assert.True(t, dcmscan.IsRecoverable(err))
}

func TestRunExtractUndefinedLength(t *testing.T) {
	useTestConfig(t)
	path := writeDicom(t, filepath.Join(t.TempDir(), "seq.dcm"), dcmtest.New().
		Header(0x0008, 0x1140, "SQ", dcmscan.UndefinedLength).
		Item(0xFFFE, 0xE0DD, 0).
		Build())
	err := runExtract(&bytes.Buffer{}, dcmscan.Tag{Group: 0x0008, Element: 0x1140}, path)
	assert.ErrorContains(t, err, "undefined length")
}
