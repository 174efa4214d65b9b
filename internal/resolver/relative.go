package resolver

import "strings"

// RelativePath computes the wiki reference path from one output file to
// another. Both arguments are forward-slash paths relative to the output
// root; the ".md" extension is dropped from the result because references
// name pages, not files.
//
// Files in the same directory reference each other by bare name. Otherwise
// the shared directory prefix is trimmed and the source's remaining depth
// becomes "../" hops.
func RelativePath(sourceFile, targetFile string) string {
	target := strings.TrimSuffix(targetFile, ".md")

	srcParts := strings.Split(sourceFile, "/")
	srcDirs := srcParts[:len(srcParts)-1]
	tgtParts := strings.Split(target, "/")

	shared := 0
	for shared < len(srcDirs) && shared < len(tgtParts)-1 && srcDirs[shared] == tgtParts[shared] {
		shared++
	}

	ups := len(srcDirs) - shared
	return strings.Repeat("../", ups) + strings.Join(tgtParts[shared:], "/")
}
