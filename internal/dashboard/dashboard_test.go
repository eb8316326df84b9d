package dashboard

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/nativectl/internal/catalog"
	"github.com/danmuck/nativectl/internal/testutil/testlog"
)

func sampleData() Data {
	endpoints, _ := catalog.DeriveEndpoints([]catalog.Entity{
		{Kind: catalog.KindSwitch, ObjectID: "relay1", Key: 1, Name: "Relay 1"},
		{Kind: catalog.KindSensor, ObjectID: "temp", Key: 2, Name: "Temperature"},
		{Kind: catalog.KindSelect, ObjectID: "mode", Key: 3, Name: "Mode", Options: []string{"eco", "boost"}},
		{Kind: catalog.KindNumber, ObjectID: "level", Key: 4, Name: "Level"},
	})
	return Data{Host: "10.0.0.5", DeviceName: "Kitchen <Plug>", Endpoints: endpoints}
}

func TestGenerateWritesJavaScript(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "dash")
	written, err := Generate(dir, "JS", sampleData())
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "index.html"),
		filepath.Join(dir, "style.css"),
		filepath.Join(dir, "app.js"),
	}, written)

	page, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(page), `<script src="app.js"></script>`)
	assert.Contains(t, string(page), "Kitchen &lt;Plug&gt;")
	assert.Contains(t, string(page), "4 endpoints")

	script, err := os.ReadFile(written[2])
	require.NoError(t, err)
	assert.Contains(t, string(script), `const HOST = "10.0.0.5";`)
	assert.NotContains(t, string(script), "interface Endpoint")
}

func TestGenerateWritesTypeScript(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	written, err := Generate(dir, LangTS, sampleData())
	require.NoError(t, err)
	require.Len(t, written, 3)
	assert.Equal(t, filepath.Join(dir, "app.ts"), written[2])

	script, err := os.ReadFile(written[2])
	require.NoError(t, err)
	assert.Contains(t, string(script), "interface Endpoint")
	assert.Contains(t, string(script), "const ENDPOINTS: Endpoint[] = ")

	page, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(page), `<script src="app.js"></script>`)
}

func TestGenerateRejectsUnknownLanguage(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "never")
	_, err := Generate(dir, "py", sampleData())
	require.Error(t, err)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderScriptEmbedsEndpoints(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	require.NoError(t, RenderScript(&buf, sampleData(), false))

	out := buf.String()
	start := strings.Index(out, "const ENDPOINTS = ")
	require.GreaterOrEqual(t, start, 0)
	rest := out[start+len("const ENDPOINTS = "):]
	end := strings.Index(rest, "];")
	require.GreaterOrEqual(t, end, 0)

	var got []endpointView
	require.NoError(t, json.Unmarshal([]byte(rest[:end+1]), &got))
	require.Len(t, got, 4)

	assert.Equal(t, "/switch/relay1", got[0].Path)
	assert.Equal(t, "buttons", got[0].Control)
	assert.Equal(t, []string{"turn_on", "turn_off", "toggle"}, got[0].Actions)
	assert.True(t, got[0].Readable)

	assert.Equal(t, "none", got[1].Control)
	assert.Equal(t, []string{}, got[1].Actions)

	assert.Equal(t, "select", got[2].Control)
	assert.Equal(t, []string{"eco", "boost"}, got[2].Options)

	assert.Equal(t, "number", got[3].Control)
}

func TestRenderScriptQuotesStrings(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	data := Data{Host: `evil"host`, DeviceName: "bad\xffname"}
	require.NoError(t, RenderScript(&buf, data, false))
	assert.Contains(t, buf.String(), `const HOST = "evil\"host";`)
	assert.Contains(t, buf.String(), "const DEVICE_NAME = \"bad\uFFFDname\";")
	assert.Contains(t, buf.String(), "const ENDPOINTS = [];")
}

func TestRenderStyle(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	require.NoError(t, RenderStyle(&buf))
	assert.Contains(t, buf.String(), ".card")
}
