package preview

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxInjectSize = 512 * 1024

// poolScript reloads the page when the dev-pool timestamp changes.
const poolScript = `<script>(() => {
  if (window.__DOCTOOLS_POOL__) return;
  window.__DOCTOOLS_POOL__ = true;
  let current = null;
  async function check() {
    try {
      const r = await fetch('/.dev-pool', {cache: 'no-store'});
      if (r.ok) {
        const t = (await r.text()).trim();
        if (current !== null && t !== current) { location.reload(); return; }
        current = t;
      }
    } catch (_) {}
    setTimeout(check, 1000);
  }
  check();
})();</script>`

// sseScript reloads the page when a new build id is pushed.
const sseScript = `<script>(() => {
  if (window.__DOCTOOLS_LR__) return;
  window.__DOCTOOLS_LR__ = true;
  function connect() {
    const es = new EventSource('` + LiveReloadPath + `');
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.build; return; }
        if (p.build && p.build !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();</script>`

// injectScript is a middleware that adds script to HTML pages before the
// closing body tag. An empty script disables injection.
func injectScript(next http.Handler, script string) http.Handler {
	if script == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path != "" && !strings.HasSuffix(path, "/") && !strings.HasSuffix(path, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		// Byte ranges and conditional requests would be corrupted by a
		// rewritten body.
		r.Header.Del("Range")
		r.Header.Del("If-Modified-Since")
		r.Header.Del("If-None-Match")

		inj := &scriptInjector{ResponseWriter: w, statusCode: http.StatusOK, script: script}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// scriptInjector buffers an HTML response up to maxInjectSize; larger or
// non-HTML responses pass through untouched.
type scriptInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	script        string
}

func (s *scriptInjector) WriteHeader(code int) {
	s.statusCode = code
	if s.passthrough {
		s.ResponseWriter.WriteHeader(code)
		s.headerWritten = true
	}
}

func (s *scriptInjector) Write(data []byte) (int, error) {
	if !s.headerWritten && !s.passthrough && s.buffer == nil {
		ct := s.Header().Get("Content-Type")
		if s.statusCode != http.StatusOK || (ct != "" && !strings.Contains(ct, "text/html")) {
			s.startPassthrough()
			return s.ResponseWriter.Write(data)
		}
		s.buffer = make([]byte, 0, 64*1024)
	}
	if s.passthrough {
		return s.ResponseWriter.Write(data)
	}
	if len(s.buffer)+len(data) > maxInjectSize {
		s.startPassthrough()
		if len(s.buffer) > 0 {
			if _, err := s.ResponseWriter.Write(s.buffer); err != nil {
				return 0, err
			}
		}
		return s.ResponseWriter.Write(data)
	}
	s.buffer = append(s.buffer, data...)
	return len(data), nil
}

func (s *scriptInjector) startPassthrough() {
	s.passthrough = true
	s.ResponseWriter.WriteHeader(s.statusCode)
	s.headerWritten = true
}

func (s *scriptInjector) finalize() {
	if s.passthrough || len(s.buffer) == 0 {
		if !s.headerWritten {
			s.ResponseWriter.WriteHeader(s.statusCode)
		}
		return
	}
	out := insertBeforeBodyEnd(s.buffer, s.script)
	s.Header().Del("Content-Length")
	s.ResponseWriter.WriteHeader(s.statusCode)
	_, _ = s.ResponseWriter.Write(out)
}

// insertBeforeBodyEnd places snippet before the last </body> tag of page,
// or appends it when the page has none.
func insertBeforeBodyEnd(page []byte, snippet string) []byte {
	z := html.NewTokenizer(bytes.NewReader(page))
	offset, at := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				at = -1
			}
			break
		}
		raw := len(z.Raw())
		if tt == html.EndTagToken {
			if name, _ := z.TagName(); atom.Lookup(name) == atom.Body {
				at = offset
			}
		}
		offset += raw
	}
	out := make([]byte, 0, len(page)+len(snippet))
	if at < 0 {
		out = append(out, page...)
		return append(out, snippet...)
	}
	out = append(out, page[:at]...)
	out = append(out, snippet...)
	return append(out, page[at:]...)
}
