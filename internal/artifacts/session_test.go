package artifacts_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glacia/internal/artifacts"
	"glacia/internal/testsupport"
)

func TestSessionRefsLiveUnderStagingAndCleanUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session, err := artifacts.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	ref := session.NewRef("mp4")
	if !strings.HasPrefix(ref.Path, cfg.Paths.StagingDir) {
		t.Fatalf("ref path %q not under staging dir", ref.Path)
	}
	if !strings.HasSuffix(ref.Path, ".mp4") {
		t.Fatalf("ref path %q missing extension", ref.Path)
	}
	if other := session.NewRef("mp4"); other.Path == ref.Path {
		t.Fatal("refs must be unique")
	}

	if err := os.WriteFile(ref.Path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(session.Dir()); !os.IsNotExist(err) {
		t.Fatalf("session dir must be removed, stat: %v", err)
	}
}

func TestExportCopiesIntoLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session, err := artifacts.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer session.Close()

	ref := session.NewRef("mp4")
	if err := os.WriteFile(ref.Path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	name := artifacts.DownloadName("ada@x.com-100", "mp4")
	target, err := session.Export(ref, cfg.Paths.LibraryDir, name)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if target != filepath.Join(cfg.Paths.LibraryDir, "glacia-creation-ada@x.com-100.mp4") {
		t.Fatalf("unexpected export path %q", target)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "video" {
		t.Fatalf("export contents wrong: %q, %v", data, err)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("export must survive session cleanup: %v", err)
	}
}

func TestTitleFromPrompt(t *testing.T) {
	cases := []struct{ prompt, want string }{
		{"make the cat surf, please", "Make The Cat Surf Please"},
		{"a very long prompt with far too many words to show", "A Very Long Prompt With Far"},
		{"___", "Untitled Creation"},
		{"", "Untitled Creation"},
	}
	for _, tc := range cases {
		if got := artifacts.Title(tc.prompt); got != tc.want {
			t.Fatalf("Title(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}
