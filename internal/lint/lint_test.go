package lint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyTrailingWhitespace(t *testing.T) {
	t.Parallel()

	issues, fixed := Apply("# Title  \n\ntext\t\n", "a.md")

	if fixed != "# Title\n\ntext\n" {
		t.Errorf("fixed = %q", fixed)
	}
	if countRule(issues, RuleTrailingWhitespace) != 2 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestApplyBlankLines(t *testing.T) {
	t.Parallel()

	issues, fixed := Apply("# Title\n\n\n\ntext\n", "a.md")

	if fixed != "# Title\n\ntext\n" {
		t.Errorf("fixed = %q", fixed)
	}
	if countRule(issues, RuleBlankLines) != 1 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestApplyFinalNewline(t *testing.T) {
	t.Parallel()

	issues, fixed := Apply("# Title\n\ntext", "a.md")

	if fixed != "# Title\n\ntext\n" {
		t.Errorf("fixed = %q", fixed)
	}
	if countRule(issues, RuleFinalNewline) != 1 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestApplyHeadingJump(t *testing.T) {
	t.Parallel()

	issues, fixed := Apply("# Title\n\n#### Deep\n\ntext\n", "a.md")

	if fixed != "# Title\n\n## Deep\n\ntext\n" {
		t.Errorf("fixed = %q", fixed)
	}
	if countRule(issues, RuleHeadingJump) != 1 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestApplySkipsCodeBlocks(t *testing.T) {
	t.Parallel()

	content := "# Title\n\n```\n#### not a heading\n```\n"
	issues, fixed := Apply(content, "a.md")

	if fixed != content {
		t.Errorf("code block was modified: %q", fixed)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestApplyIdempotent(t *testing.T) {
	t.Parallel()

	dirty := "# Title   \n\n\n\n#### Jump\n\ntext  \nmore"
	_, once := Apply(dirty, "a.md")
	issues, twice := Apply(once, "a.md")

	if len(issues) != 0 {
		t.Errorf("second pass found issues: %+v", issues)
	}
	if once != twice {
		t.Errorf("second pass changed output:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestRunFixesTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0750); err != nil {
		t.Fatal(err)
	}
	dirty := filepath.Join(root, "docs", "page.md")
	if err := os.WriteFile(dirty, []byte("# T  \n\n\n\ntext"), 0644); err != nil {
		t.Fatal(err)
	}
	clean := filepath.Join(root, "clean.md")
	if err := os.WriteFile(clean, []byte("# T\n\ntext\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ignored := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(ignored, []byte("not markdown   "), 0644); err != nil {
		t.Fatal(err)
	}

	l := &Linter{Fix: true}
	result, err := l.Run(root)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if result.FilesChecked != 2 {
		t.Errorf("FilesChecked = %d, want 2", result.FilesChecked)
	}
	if result.FilesFixed != 1 {
		t.Errorf("FilesFixed = %d, want 1", result.FilesFixed)
	}
	if len(result.Issues) == 0 {
		t.Error("issues should be reported for the dirty file")
	}

	data, err := os.ReadFile(dirty)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# T\n\ntext\n" {
		t.Errorf("fixed file = %q", data)
	}
}

func TestRunReportOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "page.md")
	original := "# T  \n"
	if err := os.WriteFile(path, []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	l := &Linter{Fix: false}
	result, err := l.Run(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Issues) == 0 {
		t.Error("issues should be reported")
	}
	if result.FilesFixed != 0 {
		t.Errorf("FilesFixed = %d, want 0 in report mode", result.FilesFixed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != original {
		t.Error("file modified in report mode")
	}
}

func countRule(issues []Issue, rule string) int {
	n := 0
	for _, issue := range issues {
		if issue.Rule == rule {
			n++
		}
	}
	return n
}
