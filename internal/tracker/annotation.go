package tracker

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultMarker identifies a commit message that was already annotated
	DefaultMarker = "[gitleaks:verified]"
	// DefaultSignoff is the trailer appended after the marker line
	DefaultSignoff = "Signed-off-by: Gitleaks Secret Scanner"
)

// Annotation describes the lines appended to a scanned commit message
type Annotation struct {
	Marker  string
	Signoff string
}

// DefaultAnnotation returns the annotation used when nothing is configured
func DefaultAnnotation() Annotation {
	return Annotation{Marker: DefaultMarker, Signoff: DefaultSignoff}
}

// MessageAlreadyAnnotated reports whether text carries the default marker
func MessageAlreadyAnnotated(text string) bool {
	return DefaultAnnotation().AlreadyAnnotated(text)
}

// AlreadyAnnotated reports whether text carries this annotation's marker
func (a Annotation) AlreadyAnnotated(text string) bool {
	return a.Marker != "" && strings.Contains(text, a.Marker)
}

// Lines renders the marker line and the signed-off line
func (a Annotation) Lines(at time.Time) []string {
	return []string{
		fmt.Sprintf("%s Secrets scan passed at %s", a.Marker, at.UTC().Format(time.RFC3339)),
		a.Signoff,
	}
}

// Apply returns text with a blank line and the annotation appended. Text
// already carrying the marker is returned unchanged.
func (a Annotation) Apply(text string, at time.Time) (string, bool) {
	if a.AlreadyAnnotated(text) {
		return text, false
	}

	var b strings.Builder
	b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, line := range a.Lines(at) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), true
}

// annotateFile applies the annotation to the message file in place
func (a Annotation) annotateFile(path string, at time.Time) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read commit message: %w", err)
	}

	updated, changed := a.Apply(string(content), at)
	if !changed {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat commit message: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write commit message: %w", err)
	}
	return true, nil
}
