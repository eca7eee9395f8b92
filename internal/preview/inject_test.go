package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertBeforeBodyEnd(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"simple", "<html><body><p>x</p></body></html>", "<html><body><p>x</p>S</body></html>"},
		{"upper case", "<HTML><BODY>x</BODY></HTML>", "<HTML><BODY>xS</BODY></HTML>"},
		{"body in script", "<body><script>var s = '</body>';</script></body>", "<body><script>var s = '</body>';</script>S</body>"},
		{"no body", "<p>fragment</p>", "<p>fragment</p>S"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(insertBeforeBodyEnd([]byte(tt.page), "S")))
		})
	}
}

func serveInjected(t *testing.T, root, script, path string) (*http.Response, string) {
	t.Helper()
	srv := httptest.NewServer(injectScript(http.FileServer(http.Dir(root)), script))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestInjectScript_HTMLPages(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":      "<html><body>home</body></html>",
		"user/guide.html": "<html><body>guide</body></html>",
		"_static/app.js":  "console.log('</body>')",
	})

	resp, body := serveInjected(t, root, poolScript, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(body, poolScript+"</body></html>"))

	_, body = serveInjected(t, root, poolScript, "/user/guide.html")
	assert.Contains(t, body, "guide"+poolScript)

	_, body = serveInjected(t, root, poolScript, "/_static/app.js")
	assert.Equal(t, "console.log('</body>')", body)
}

func TestInjectScript_PassesThroughErrorsAndEmptyScript(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"index.html": "<html><body>home</body></html>"})

	resp, body := serveInjected(t, root, sseScript, "/missing.html")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, body, "EventSource")

	_, body = serveInjected(t, root, "", "/")
	assert.Equal(t, "<html><body>home</body></html>", body)
}

func TestInjectScript_LargePagesPassThrough(t *testing.T) {
	root := t.TempDir()
	page := "<html><body>" + strings.Repeat("x", maxInjectSize) + "</body></html>"
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(page), 0o644))

	_, body := serveInjected(t, root, poolScript, "/")
	assert.Equal(t, page, body)
}
