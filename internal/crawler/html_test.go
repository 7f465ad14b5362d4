package crawler

import (
	"net/url"
	"strings"
	"testing"
)

func TestExtractLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/docs/")
	body := []byte(`<html><body>
		<a href="intro">relative</a>
		<a href="/guide?page=2#x">absolute path</a>
		<a href="https://example.com/guide">duplicate after normalization</a>
		<a href="https://cdn.example.com/x">other host</a>
		<a href="#local">fragment only</a>
		<a>no href</a>
	</body></html>`)

	got := ExtractLinks(base, body)
	want := []string{"https://example.com/docs/intro", "https://example.com/guide"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ExtractLinks() = %v, want %v", got, want)
	}
}

func TestHTMLToText(t *testing.T) {
	body := []byte(`<html>
		<head><title>Ignored</title><style>.x{}</style></head>
		<body>
			<nav><a href="/">Home</a></nav>
			<h1>Install</h1>
			<p>Run   the
			installer.</p>
			<script>alert(1)</script>
			<h2>Configure</h2>
			<ul><li>one</li><li>two</li></ul>
		</body>
	</html>`)

	got := HTMLToText(body)
	want := "# Install\n\nRun the installer.\n\n## Configure\n\none\n\ntwo"
	if got != want {
		t.Errorf("HTMLToText() = %q, want %q", got, want)
	}
}

func TestTitle(t *testing.T) {
	if got := Title([]byte(`<html><head><title>Docs</title></head></html>`)); got != "Docs" {
		t.Errorf("Title() = %q, want Docs", got)
	}
	if got := Title([]byte(`<p>no title</p>`)); got != "" {
		t.Errorf("Title() = %q, want empty", got)
	}
}
