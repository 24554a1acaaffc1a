package diag

import "fmt"

// Diagnostic codes: FP0xxx parse, FP1xxx compile, FP2xxx runtime.
const (
	CodeSyntax = "FP0001"

	CodeCompile              = "FP1000"
	CodeUnsupportedOperator  = "FP1001"
	CodeUnsupportedStatement = "FP1002"
	CodeNameNotFound         = "FP1003"
	CodeConstantOverflow     = "FP1004"
	CodeGlobalOverflow       = "FP1005"
	CodeLocalOverflow        = "FP1006"
	CodeBranchTooLarge       = "FP1007"

	CodeRuntime            = "FP2000"
	CodeStackUnderflow     = "FP2001"
	CodeStackOverflow      = "FP2002"
	CodeUndefinedGlobal    = "FP2003"
	CodeLocalOutOfRange    = "FP2004"
	CodeTypeMismatch       = "FP2005"
	CodeIntegerOverflow    = "FP2006"
	CodeUnknownOpcode      = "FP2007"
	CodeTruncated          = "FP2008"
	CodeStepLimit          = "FP2009"
	CodeConstantOutOfRange = "FP2010"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

type Range struct {
	Line   int // 1-based
	Col    int // 1-based
	Length int // best-effort; can be 1 if unknown
}

type Diagnostic struct {
	Code     string
	Message  string
	Severity Severity
	Range    Range
}

func (d Diagnostic) Format(path string) string {
	if d.Code != "" {
		return fmt.Sprintf("%s:%d:%d: %s %s: %s", path, d.Range.Line, d.Range.Col, d.Severity.String(), d.Code, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Line, d.Range.Col, d.Severity.String(), d.Message)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
