package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileops/notifyd/internal/signature"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSignCmd_Stdin(t *testing.T) {
	body := `{"id":"p-1"}`
	out, err := run(t, body, "sign", "--secret", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, signature.Sign([]byte(body), "s3cret")+"\n", out)
}

func TestSignCmd_RequiresSecret(t *testing.T) {
	_, err := run(t, "x", "sign")
	assert.Error(t, err)
}

func TestVerifyCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	body := []byte("{\"id\":\"p-1\"}\n")
	require.NoError(t, os.WriteFile(path, body, 0600))
	sig := signature.Sign(body, "k")

	out, err := run(t, "", "verify", "--secret", "k", "--signature", sig, "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "signature valid")

	_, err = run(t, "", "verify", "--secret", "other", "--signature", sig, "-f", path)
	assert.ErrorIs(t, err, errSignatureMismatch)

	_, err = run(t, "", "verify", "--secret", "k", "--signature", sig, "-f", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestTemplatesList(t *testing.T) {
	out, err := run(t, "", "templates", "list", "--file", filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	for _, id := range []string{"file_uploaded", "file_processed", "file_shared", "system_alert"} {
		assert.Contains(t, out, id)
	}
}

func TestTemplatesList_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`templates:
  - id: weekly_digest
    type: custom
    subject: "Your week"
    body: "{{count}} new files"
    variables: [count]
`), 0600))

	out, err := run(t, "", "templates", "list", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "weekly_digest")
}

func TestTemplatesRender(t *testing.T) {
	none := filepath.Join(t.TempDir(), "none.yaml")

	out, err := run(t, "", "templates", "render", "file_uploaded", "--file", none,
		"--var", "userName=<b>Ada</b>", "--vars-json", `{"fileName":"a.txt","fileSize":12}`)
	require.NoError(t, err)
	assert.Contains(t, out, "File uploaded: a.txt")
	assert.Contains(t, out, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.Contains(t, out, "(12)")
	assert.NotContains(t, out, "missing variables")

	out, err = run(t, "", "templates", "render", "file_uploaded", "--file", none)
	require.NoError(t, err)
	assert.Contains(t, out, "missing variables: userName, fileName, fileSize")

	_, err = run(t, "", "templates", "render", "nope", "--file", none)
	assert.Error(t, err)

	_, err = run(t, "", "templates", "render", "file_uploaded", "--file", none, "--var", "novalue")
	assert.Error(t, err)
}

func TestParseVars_PairsOverrideJSON(t *testing.T) {
	vars, err := parseVars([]string{"a=pair"}, `{"a":1,"b":true}`)
	require.NoError(t, err)
	assert.Equal(t, "pair", vars["a"].String())
	assert.Equal(t, "true", vars["b"].String())

	_, err = parseVars(nil, `{"a":{"nested":1}}`)
	assert.Error(t, err)
}
