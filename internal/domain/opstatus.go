package domain

import "fmt"

// StatusLevel is the calendar operation-status severity, 1 (normal)
// through 4 (danger).
type StatusLevel int

const (
	StatusNormal  StatusLevel = 1
	StatusCaution StatusLevel = 2
	StatusWarning StatusLevel = 3
	StatusDanger  StatusLevel = 4
)

// Valid reports whether v is within the 1..4 severity scale.
func (v StatusLevel) Valid() bool {
	return v >= StatusNormal && v <= StatusDanger
}

// Label returns the operator-facing Korean label for the level.
func (v StatusLevel) Label() string {
	switch v {
	case StatusNormal:
		return "정상"
	case StatusCaution:
		return "주의"
	case StatusWarning:
		return "경고"
	case StatusDanger:
		return "위험"
	default:
		return fmt.Sprintf("level %d", int(v))
	}
}

// StatusMap is the read-only calendar annotation feed: date key to
// severity level. It is sourced externally and never mutated here.
type StatusMap map[DateKey]StatusLevel
