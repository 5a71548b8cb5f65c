// Package diagnostics holds the messages produced while cross-referencing
// and walking the migration graphs, and the pipeline-level error sink that
// decides the exit status of a run.
package diagnostics

import (
	"fmt"
	"sync"
)

// Severity is the level of a diagnostic. The values are lowercase to align
// with the database ENUM used when a run is persisted.
type Severity string

const (
	SeverityError   Severity = "error"   // Fails the run.
	SeverityWarning Severity = "warning" // Reported, never fails the run.
	SeverityInfo    Severity = "info"    // Cosmetic.
)

// Rank orders severities for prioritization, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 99
	}
}

// Code classifies a diagnostic. Reporters use it as a stable rule identifier.
type Code string

const (
	CodeModelIntegrity   Code = "MODEL-INTEGRITY"
	CodeUnresolved       Code = "UNRESOLVED-REFERENCE"
	CodeAmbiguous        Code = "AMBIGUOUS-REFERENCE"
	CodeDanglingRoute    Code = "DANGLING-ROUTE"
	CodeInformational    Code = "INFORMATIONAL"
	CodeSymmetry         Code = "ASYMMETRIC-RELATIONSHIP"
	CodeAnalysisCanceled Code = "ANALYSIS-CANCELED"
)

// Diagnostic is a single message attached to a resource or messaging node.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     Code     `json:"code" yaml:"code"`
	Text     string   `json:"text" yaml:"text"`
	// Subject is the key of the node the message is about, when known.
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// SubjectType is the resource or messaging kind of the subject.
	SubjectType string `json:"subject_type,omitempty" yaml:"subject_type,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("[%s] %s", d.Severity, d.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Subject, d.Text)
}

// Errorf builds an error-severity diagnostic.
func Errorf(code Code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Code: code, Text: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity diagnostic.
func Warnf(code Code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Text: fmt.Sprintf(format, args...)}
}

// Infof builds an info-severity diagnostic.
func Infof(code Code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Code: code, Text: fmt.Sprintf(format, args...)}
}

// Collector is the append-only, run-scoped diagnostics sink shared by every
// rule and walker call of one pipeline run. It is passed explicitly; there is
// no package-level instance.
//
// All records go to the full log. Error-severity records additionally land
// on the pipeline error list that decides whether the run failed.
type Collector struct {
	mu     sync.Mutex
	all    []Diagnostic
	errors []Diagnostic
	once   map[onceKey]bool
}

type onceKey struct {
	code          Code
	subject, text string
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all = append(c.all, d)
	if d.Severity == SeverityError {
		c.errors = append(c.errors, d)
	}
}

// AddOnce appends d unless a diagnostic with the same code, subject and text
// was already added through AddOnce. Several walks over one topology report
// a broken link through it, and the link is recorded once.
func (c *Collector) AddOnce(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := onceKey{code: d.Code, subject: d.Subject, text: d.Text}
	if c.once[k] {
		return
	}
	if c.once == nil {
		c.once = make(map[onceKey]bool)
	}
	c.once[k] = true
	c.all = append(c.all, d)
	if d.Severity == SeverityError {
		c.errors = append(c.errors, d)
	}
}

// All returns a copy of every diagnostic in insertion order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.all...)
}

// Errors returns a copy of the pipeline error list.
func (c *Collector) Errors() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.errors...)
}

// Failed reports whether the pipeline error list is non-empty.
func (c *Collector) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// Count returns the number of diagnostics recorded at the given severity.
func (c *Collector) Count(s Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, d := range c.all {
		if d.Severity == s {
			n++
		}
	}
	return n
}
