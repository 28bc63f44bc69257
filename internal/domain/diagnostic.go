package domain

// Severity of a diagnostic.
type Severity string

// Severity constants
const (
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Diagnostic is one entry of the run's diagnostics list. Presentation is the
// caller's responsibility.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"` // circuit id, riser id, table name or formula
	Message  string   `json:"message"`
}

// NewDiagnostic converts err into a diagnostic for subject.
func NewDiagnostic(subject string, severity Severity, err error) Diagnostic {
	return Diagnostic{
		Code:     CodeOf(err),
		Severity: severity,
		Subject:  subject,
		Message:  err.Error(),
	}
}

// Warning converts err into a warning diagnostic.
func Warning(subject string, err error) Diagnostic {
	return NewDiagnostic(subject, SeverityWarning, err)
}

// Failure converts err into an error diagnostic.
func Failure(subject string, err error) Diagnostic {
	return NewDiagnostic(subject, SeverityError, err)
}
