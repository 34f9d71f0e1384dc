package cli_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lumen/internal/cli"
)

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/ok.lum"
	require.NoError(t, writeFile(path, `print 1 + 2;`))

	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	code := c.Main([]string{"lumen", path}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.Equal(t, "3\n", out.String())
}

func TestRunFileCompileError(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.lum"
	require.NoError(t, writeFile(path, `{ var a = a; }`))

	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	code := c.Main([]string{"lumen", path}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.EqualValues(t, 65, code)
}

func TestRunFileRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/rt.lum"
	require.NoError(t, writeFile(path, `print a;`))

	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	code := c.Main([]string{"lumen", path}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.EqualValues(t, 70, code)
}

func TestRunFileMissing(t *testing.T) {
	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	code := c.Main([]string{"lumen", "/no/such/file.lum"}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.EqualValues(t, 74, code)
	assert.Contains(t, errOut.String(), "Could not open file")
}

func TestTooManyArgsIsUsageError(t *testing.T) {
	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	code := c.Main([]string{"lumen", "a.lum", "b.lum"}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.EqualValues(t, 64, code)
	assert.Contains(t, errOut.String(), "Usage: lumen [path]")
}

func TestReplEvaluatesEachLineAgainstOneVM(t *testing.T) {
	var out, errOut bytes.Buffer
	c := cli.Cmd{}
	in := strings.NewReader("var x = 40;\nprint x + 2;\n")
	code := c.Main([]string{"lumen"}, mainer.Stdio{Stdin: in, Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "42\n")
}

func TestDisassembleDoesNotRun(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/dis.lum"
	require.NoError(t, writeFile(path, `print 1;`))

	var out, errOut bytes.Buffer
	c := cli.Cmd{Disassemble: true}
	code := c.Main([]string{"lumen", path}, mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut})
	assert.Equal(t, mainer.Success, code)
	assert.NotContains(t, out.String(), "1\n")
	assert.Contains(t, out.String(), "OP_")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
