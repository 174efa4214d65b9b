package lint

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Rule names reported in issues.
const (
	RuleTrailingWhitespace = "trailing-whitespace"
	RuleBlankLines         = "consecutive-blank-lines"
	RuleFinalNewline       = "final-newline"
	RuleHeadingJump        = "heading-jump"
)

// Issue is one problem found in a file.
type Issue struct {
	File    string
	Line    int
	Rule    string
	Message string
}

// Result summarizes a lint run.
type Result struct {
	FilesChecked int
	FilesFixed   int
	Issues       []Issue
}

// Linter checks and optionally rewrites markdown files.
type Linter struct {
	// Fix rewrites files in place. When false the linter only reports.
	Fix bool
}

// Run lints every .md file under root and returns the combined result.
func (l *Linter) Run(root string) (*Result, error) {
	result := &Result{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		issues, fixed, lintErr := l.lintFile(path, filepath.ToSlash(rel))
		if lintErr != nil {
			return lintErr
		}

		result.FilesChecked++
		if fixed {
			result.FilesFixed++
		}
		result.Issues = append(result.Issues, issues...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lint walk failed: %w", err)
	}
	return result, nil
}

// lintFile checks one file and rewrites it when fixing is enabled and
// something changed.
func (l *Linter) lintFile(path, rel string) ([]Issue, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	content := string(data)
	issues, fixed := Apply(content, rel)

	if l.Fix && fixed != content {
		if err := os.WriteFile(path, []byte(fixed), 0644); err != nil {
			return nil, false, fmt.Errorf("failed to rewrite %s: %w", rel, err)
		}
		return issues, true, nil
	}
	return issues, false, nil
}

// Apply runs all rules over content and returns the issues found and the
// fixed text. Applying the rules to their own output yields no issues.
func Apply(content, file string) ([]Issue, string) {
	var issues []Issue

	lines := strings.Split(content, "\n")

	// Trailing whitespace.
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed != line {
			issues = append(issues, Issue{
				File: file, Line: i + 1,
				Rule:    RuleTrailingWhitespace,
				Message: "line has trailing whitespace",
			})
			lines[i] = trimmed
		}
	}

	// Consecutive blank lines collapse to one.
	var out []string
	blanks := 0
	for i, line := range lines {
		if line == "" {
			blanks++
			if blanks > 1 {
				if blanks == 2 {
					issues = append(issues, Issue{
						File: file, Line: i + 1,
						Rule:    RuleBlankLines,
						Message: "multiple consecutive blank lines",
					})
				}
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	lines = out

	// Heading levels must not jump by more than one.
	prevLevel := 0
	inCode := false
	for i, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		level := headingLevel(line)
		if level == 0 {
			continue
		}
		if prevLevel > 0 && level > prevLevel+1 {
			issues = append(issues, Issue{
				File: file, Line: i + 1,
				Rule:    RuleHeadingJump,
				Message: fmt.Sprintf("heading jumps from H%d to H%d", prevLevel, level),
			})
			level = prevLevel + 1
			lines[i] = strings.Repeat("#", level) + strings.TrimLeft(line, "#")
		}
		prevLevel = level
	}

	fixed := strings.Join(lines, "\n")

	// Exactly one final newline.
	trimmed := strings.TrimRight(fixed, "\n")
	if fixed != trimmed+"\n" {
		issues = append(issues, Issue{
			File: file, Line: len(lines),
			Rule:    RuleFinalNewline,
			Message: "file must end with exactly one newline",
		})
	}
	fixed = trimmed + "\n"

	return issues, fixed
}

// headingLevel returns the ATX heading level of a line, or 0.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level >= len(line) || line[level] != ' ' {
		return 0
	}
	return level
}
