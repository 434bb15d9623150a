package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// GenerationKind selects which document the backend produces.
type GenerationKind string

const (
	KindSummary   GenerationKind = "summary"
	KindQuestions GenerationKind = "questions"
)

// ParseGenerationKind validates a raw kind string.
func ParseGenerationKind(s string) (GenerationKind, error) {
	switch GenerationKind(s) {
	case KindSummary, KindQuestions:
		return GenerationKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// String returns the string representation of the GenerationKind.
func (k GenerationKind) String() string {
	return string(k)
}

// Endpoint returns the backend path for this kind.
func (k GenerationKind) Endpoint() string {
	if k == KindSummary {
		return "/generate/summary"
	}
	return "/generate/questions"
}

// SuccessMessage is shown when generation of this kind completes.
func (k GenerationKind) SuccessMessage() string {
	if k == KindSummary {
		return "Summary generated successfully!"
	}
	return "Question paper generated successfully!"
}

// headingMarker matches one to six hashes and one whitespace character,
// counting vertical tab, Unicode space separators, line and paragraph
// separators and the byte order mark as whitespace.
var headingMarker = regexp.MustCompile(`#{1,6}[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`)

// CleanResult strips markdown emphasis and heading markers from generated
// text. Bold markers go first, then italics, then headings with the single
// whitespace character that follows them.
func CleanResult(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	return headingMarker.ReplaceAllString(s, "")
}

// GenerationStatus is the position in the generation state machine.
type GenerationStatus string

const (
	GenerationIdle    GenerationStatus = "idle"
	GenerationLoading GenerationStatus = "loading"
	GenerationSuccess GenerationStatus = "success"
	GenerationFailed  GenerationStatus = "failed"
)

// GenerationState tracks Idle -> Loading -> {Success | Failed}.
// Success and Failed may re-enter Loading.
type GenerationState struct {
	Status GenerationStatus
	Kind   GenerationKind
	Result string
}

// Loading reports whether a request is in flight.
func (s GenerationState) Loading() bool {
	return s.Status == GenerationLoading
}

// Begin moves to Loading and clears any prior result.
func (s GenerationState) Begin(kind GenerationKind) GenerationState {
	return GenerationState{Status: GenerationLoading, Kind: kind}
}

// Succeed stores the cleaned result text.
func (s GenerationState) Succeed(text string) GenerationState {
	return GenerationState{Status: GenerationSuccess, Kind: s.Kind, Result: text}
}

// Fail records a failed request. The result stays empty.
func (s GenerationState) Fail() GenerationState {
	return GenerationState{Status: GenerationFailed, Kind: s.Kind}
}
