package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with an isolated config directory.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const relativeLog = `TrialStart, 0.000000
TargetStart, 0.377000, 120, 80
MouseDown, 0.877000, 130, 90, MISS
TargetHit, 5.500000, 3
IterationEnd, 5.500000
`

func TestCLIVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "logstamp "+version+"\n", out)
}

func TestCLIConvertRelative(t *testing.T) {
	path := writeLog(t, trialLog)

	out, err := execute(t, "", "convert", "--relative", path)
	require.NoError(t, err)
	assert.Equal(t, relativeLog, out)
}

func TestCLIRootConvertsFile(t *testing.T) {
	path := writeLog(t, trialLog)

	out, err := execute(t, "", "-r", "--precision", "1", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TrialStart, 0.0\nTargetStart, 0.4, 120, 80\n"), out)
}

func TestCLIConvertStdin(t *testing.T) {
	out, err := execute(t, trialLog, "convert", "-r", "-")
	require.NoError(t, err)
	assert.Equal(t, relativeLog, out)
}

func TestCLIConvertFormatMillis(t *testing.T) {
	out, err := execute(t, "at 1489489353123\n", "convert", "--format", "%Q", "-")
	require.NoError(t, err)
	assert.Equal(t, "at 1489489353123\n", out)
}

func TestCLIConvertTemplate(t *testing.T) {
	out, err := execute(t, trialLog, "convert", "--format", "%s", "--template", "{{raw}}={{date}}", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TrialStart, 1489489353123=1489489353\n"), out)
}

func TestCLIConvertMissingMarker(t *testing.T) {
	_, err := execute(t, "TargetHit, 1489489358623\n", "convert", "--relative", "-")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestCLIConvertInPlace(t *testing.T) {
	path := writeLog(t, trialLog)

	out, err := execute(t, "", "convert", "-r", "-i", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, relativeLog, string(data))
}

func TestCLIConvertOutputFile(t *testing.T) {
	path := writeLog(t, trialLog)
	dst := filepath.Join(t.TempDir(), "out.txt")

	_, err := execute(t, "", "convert", "-r", "-o", dst, path)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, relativeLog, string(data))

	orig, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, trialLog, string(orig))
}

func TestCLIConvertFlagConflicts(t *testing.T) {
	path := writeLog(t, trialLog)

	_, err := execute(t, "", "convert", "-i", "-")
	assert.ErrorContains(t, err, "--in-place needs a file")

	_, err = execute(t, "", "convert", "-i", "-o", "x.txt", path)
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = execute(t, "", "convert", "-w", "-")
	assert.ErrorContains(t, err, "--watch needs a file")

	_, err = execute(t, "", "convert", "-w", "-i", path)
	assert.ErrorContains(t, err, "cannot write back")

	_, err = execute(t, "", "convert", "-w", "-o", filepath.Dir(path)+"/./"+filepath.Base(path), path)
	assert.ErrorContains(t, err, "cannot write back")

	_, err = execute(t, "", "convert", "--precision", "-1", path)
	assert.ErrorContains(t, err, "--precision")
}

func TestCLIWatchRejectsOutputAliasOfInput(t *testing.T) {
	path := writeLog(t, trialLog)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Dir(path)))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = execute(t, "", "convert", "-w", "-o", "./"+filepath.Base(path), filepath.Base(path))
	assert.ErrorContains(t, err, "cannot write back")
}

func TestCLIConvertUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config_version: 1\nprecision: 2\nmarker: TargetHit\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(trialLog))
	cmd.SetArgs([]string{"--config", dir, "convert", "-r", "-"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "TrialStart, -5.50\n"), out.String())

	// Flags win over the config file.
	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(trialLog))
	cmd.SetArgs([]string{"--config", dir, "convert", "-r", "--marker", "TrialStart", "--precision", "0", "-"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "TrialStart, 0\n"), out.String())
}

func TestCLIList(t *testing.T) {
	path := writeLog(t, trialLog)

	out, err := execute(t, "", "list", "--format", "%Q", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "1:13\t1489489353123\t1489489353123\t+0.000000", lines[0])
	assert.Equal(t, "4:12\t1489489358623\t1489489358623\t+5.500000", lines[3])
}

func TestCLIListJSON(t *testing.T) {
	out, err := execute(t, "x 1489489358623\n", "list", "--json", "--format", "%Q", "-")
	require.NoError(t, err)

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, Entry{Line: 1, Col: 3, Raw: "1489489358623", Date: "1489489358623"}, e)
	assert.NotContains(t, out, "elapsed")
}

func TestCLIListSince(t *testing.T) {
	out, err := execute(t, "x 1489489358623\n", "list", "--since", "1489489353123", "--format", "%Q", "-")
	require.NoError(t, err)
	assert.Equal(t, "1:3\t1489489358623\t1489489358623\t+5.500000\n", out)
}

func TestCLIMarker(t *testing.T) {
	path := writeLog(t, trialLog)

	out, err := execute(t, "", "marker", "--format", "%Q", path)
	require.NoError(t, err)
	assert.Equal(t, "1489489353123\n", out)

	out, err = execute(t, "", "marker", "-m", "TargetHit", "-f", "%Q", path)
	require.NoError(t, err)
	assert.Equal(t, "1489489358623\n", out)
}

func TestCLIMarkerMissing(t *testing.T) {
	_, err := execute(t, "no marker here\n", "marker", "-")
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestCLIMissingFile(t *testing.T) {
	_, err := execute(t, "", "convert", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestCLIInitAndMigrate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", dir, "init"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "created config.yml")
	assert.Contains(t, out.String(), "config initialized")
	assert.FileExists(t, filepath.Join(dir, "config.yml"))

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", dir, "init"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "skip config.yml (already exists, use --force to replace)")

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", dir, "init", "--force"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "replaced config.yml (old file saved as config.yml.bak)")
	assert.FileExists(t, filepath.Join(dir, "config.yml.bak"))

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", dir, "migrate"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "logstamp: config already up to date\n", out.String())
}
