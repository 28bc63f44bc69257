package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes, one per error kind of the sizing taxonomy.
const (
	CodeConfiguration      = "CONFIGURATION"
	CodeDomain             = "DOMAIN"
	CodeCoverage           = "COVERAGE"
	CodeMissingAggregate   = "MISSING_AGGREGATE"
	CodeInvalidRiserData   = "INVALID_RISER_DATA"
	CodeDuplicateGroup     = "DUPLICATE_GROUP"
	CodeRatingRange        = "RATING_RANGE_EXCEEDED"
	CodeSectionRange       = "SECTION_RANGE_EXCEEDED"
	CodeUpsizeExhausted    = "UPSIZE_EXHAUSTED"
	CodeFormula            = "FORMULA"
	CodeUnknownSection     = "UNKNOWN_SECTION"
	CodeUnknownRating      = "UNKNOWN_RATING"
	CodeInvalidProductData = "INVALID_PRODUCT_DATA"
	CodeUnmatchedBrand     = "UNMATCHED_BRAND"
	CodeUndersizedRequest  = "UNDERSIZED_REQUEST"
	CodeInvalidCircuit     = "INVALID_CIRCUIT"
	CodeInternal           = "INTERNAL"
)

// Coded is implemented by every error of the sizing taxonomy.
type Coded interface {
	error
	Code() string
}

// ConfigurationError reports a malformed lookup table or configuration value.
// Fatal: the run is aborted before any circuit is processed.
type ConfigurationError struct {
	Table string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: table %q: %v", e.Table, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Code returns CodeConfiguration.
func (e *ConfigurationError) Code() string { return CodeConfiguration }

// DomainError reports interpolation input the interpolator cannot handle.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return "interpolation domain: " + e.Reason }

// Code returns CodeDomain.
func (e *DomainError) Code() string { return CodeDomain }

// CoverageWarning lists classification tags no aggregate definition covers.
type CoverageWarning struct {
	Tags []string
}

func (e *CoverageWarning) Error() string {
	return "no aggregate covers tags: " + strings.Join(e.Tags, ", ")
}

// Code returns CodeCoverage.
func (e *CoverageWarning) Code() string { return CodeCoverage }

// MissingAggregateError reports aggregates the active formula needs but the
// run could not provide.
type MissingAggregateError struct {
	Names     []string
	Uncovered []string // subset of Names that are uncovered classification tags
}

func (e *MissingAggregateError) Error() string {
	msg := "missing aggregates: " + strings.Join(e.Names, ", ")
	if len(e.Uncovered) > 0 {
		msg += " (uncovered tags: " + strings.Join(e.Uncovered, ", ") + ")"
	}
	return msg
}

// Code returns CodeMissingAggregate.
func (e *MissingAggregateError) Code() string { return CodeMissingAggregate }

// InvalidRiserDataError rejects one riser; the rest of the batch continues.
type InvalidRiserDataError struct {
	RiserID string
	Reason  string
}

func (e *InvalidRiserDataError) Error() string {
	return fmt.Sprintf("riser %s: %s", e.RiserID, e.Reason)
}

// Code returns CodeInvalidRiserData.
func (e *InvalidRiserDataError) Code() string { return CodeInvalidRiserData }

// DuplicateGroupError reports two elevator circuits sharing a group identifier.
type DuplicateGroupError struct {
	GroupID  string
	Circuits []string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("elevator group %q is declared by several circuits: %s",
		e.GroupID, strings.Join(e.Circuits, ", "))
}

// Code returns CodeDuplicateGroup.
func (e *DuplicateGroupError) Code() string { return CodeDuplicateGroup }

// RatingRangeExceeded reports a design current above the largest standard rating.
type RatingRangeExceeded struct {
	CircuitID  string
	CurrentA   float64
	MaxRatingA float64
}

func (e *RatingRangeExceeded) Error() string {
	return fmt.Sprintf("circuit %s: current %.2f A exceeds largest standard rating %.0f A",
		e.CircuitID, e.CurrentA, e.MaxRatingA)
}

// Code returns CodeRatingRange.
func (e *RatingRangeExceeded) Code() string { return CodeRatingRange }

// SectionRangeExceeded reports a tripping current no tabulated section carries.
type SectionRangeExceeded struct {
	CircuitID    string
	RequiredA    float64
	MaxAmpacityA float64
}

func (e *SectionRangeExceeded) Error() string {
	return fmt.Sprintf("circuit %s: required %.2f A exceeds largest tabulated ampacity %.2f A",
		e.CircuitID, e.RequiredA, e.MaxAmpacityA)
}

// Code returns CodeSectionRange.
func (e *SectionRangeExceeded) Code() string { return CodeSectionRange }

// UpsizeExhausted reports an upsizing loop that reached the end of the table.
// The circuit keeps its prior section.
type UpsizeExhausted struct {
	CircuitID  string
	Stage      string // derating | voltage-drop
	SectionMM2 float64
}

func (e *UpsizeExhausted) Error() string {
	return fmt.Sprintf("circuit %s: %s upsizing exhausted the section table, keeping %g mm2",
		e.CircuitID, e.Stage, e.SectionMM2)
}

// Code returns CodeUpsizeExhausted.
func (e *UpsizeExhausted) Code() string { return CodeUpsizeExhausted }

// FormulaError reports an unresolved name, a parse failure or a non-finite result.
type FormulaError struct {
	Formula string
	Reason  string
}

func (e *FormulaError) Error() string {
	if e.Formula == "" {
		return "formula: " + e.Reason
	}
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Reason)
}

// Code returns CodeFormula.
func (e *FormulaError) Code() string { return CodeFormula }

// UnknownSectionError reports a requested section outside the standard series.
type UnknownSectionError struct {
	CircuitID  string
	SectionMM2 float64
}

func (e *UnknownSectionError) Error() string {
	return fmt.Sprintf("circuit %s: %g mm2 is not a standard section", e.CircuitID, e.SectionMM2)
}

// Code returns CodeUnknownSection.
func (e *UnknownSectionError) Code() string { return CodeUnknownSection }

// InvalidCircuitError reports a circuit field outside its known values.
// Only the affected circuit fails; the tables are not at fault.
type InvalidCircuitError struct {
	CircuitID string
	Field     string
	Value     string
}

func (e *InvalidCircuitError) Error() string {
	return fmt.Sprintf("circuit %s: unknown %s %q", e.CircuitID, e.Field, e.Value)
}

// Code returns CodeInvalidCircuit.
func (e *InvalidCircuitError) Code() string { return CodeInvalidCircuit }

// UnknownRatingError reports a requested rating outside the standard series.
type UnknownRatingError struct {
	CircuitID string
	RatingA   float64
}

func (e *UnknownRatingError) Error() string {
	return fmt.Sprintf("circuit %s: %g A is not a standard breaker rating", e.CircuitID, e.RatingA)
}

// Code returns CodeUnknownRating.
func (e *UnknownRatingError) Code() string { return CodeUnknownRating }

// InvalidProductDataError reports a manufacturer entry that cannot be used.
type InvalidProductDataError struct {
	ProductLine string
	Brand       string
	Reason      string
}

func (e *InvalidProductDataError) Error() string {
	return fmt.Sprintf("product line %s, brand %s: %s", e.ProductLine, e.Brand, e.Reason)
}

// Code returns CodeInvalidProductData.
func (e *InvalidProductDataError) Code() string { return CodeInvalidProductData }

// CodeOf returns the taxonomy code of err, or CodeInternal.
func CodeOf(err error) string {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeInternal
}
