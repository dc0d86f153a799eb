package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedStaticFilesExist(t *testing.T) {
	staticFS := GetStaticFS()

	for _, file := range []string{"index.html"} {
		if _, err := fs.Stat(staticFS, file); err != nil {
			t.Errorf("required static file %q not found: %v", file, err)
		}
	}
}

func TestIndexTalksToAPI(t *testing.T) {
	content, err := fs.ReadFile(GetStaticFS(), "index.html")
	if err != nil {
		t.Fatalf("failed to read index.html: %v", err)
	}

	for _, want := range []string{"/api/games", "/ws/", "session_token"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("index.html should reference %q", want)
		}
	}
}
