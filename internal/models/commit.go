package models

// Commit sources passed by git as the second prepare-commit-msg argument
const (
	SourceMessage  = "message"
	SourceTemplate = "template"
	SourceMerge    = "merge"
	SourceSquash   = "squash"
	SourceCommit   = "commit"
)

// IsExcludedSource reports whether a commit message from this source must
// never be annotated
func IsExcludedSource(source string) bool {
	return source == SourceMerge || source == SourceSquash
}
