// Package query builds the BigQuery statements that split a source table into
// deterministic folds. Table names are validated identifiers and the fold set
// travels as a named query parameter, so no caller supplied value is spliced
// into the statement text.
package query

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

// BucketsParameter is the name of the query parameter holding the fold set.
const BucketsParameter = "split_buckets"

const defaultModulus = 10

var (
	projectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.:_-]*$`)
	namePattern    = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Table is a fully qualified BigQuery table.
type Table struct {
	Project string
	Dataset string
	Name    string
}

func (t Table) validate(field string) error {
	if !projectPattern.MatchString(t.Project) {
		return pipeline.NewConfigurationError(field+".project", "invalid project %q", t.Project)
	}

	if !namePattern.MatchString(t.Dataset) {
		return pipeline.NewConfigurationError(field+".dataset", "invalid dataset %q", t.Dataset)
	}

	if !namePattern.MatchString(t.Name) {
		return pipeline.NewConfigurationError(field+".table", "invalid table %q", t.Name)
	}

	return nil
}

// Identifier returns the backquoted project.dataset.table form.
func (t Table) Identifier() string {
	return fmt.Sprintf("`%s.%s.%s`", t.Project, t.Dataset, t.Name)
}

// URI returns the bq:// form used by batch prediction.
func (t Table) URI() string {
	return fmt.Sprintf("bq://%s.%s.%s", t.Project, t.Dataset, t.Name)
}

// Split copies the rows of Source whose fingerprint falls in Buckets into Destination.
type Split struct {
	Source      Table
	Destination Table
	// Modulus is the number of folds; it defaults to 10.
	Modulus int
	Buckets []int
}

// Parameter is a BigQuery named query parameter in its REST representation.
type Parameter struct {
	Name           string         `json:"name" yaml:"name"`
	ParameterType  ParameterType  `json:"parameterType" yaml:"parameterType"`
	ParameterValue ParameterValue `json:"parameterValue" yaml:"parameterValue"`
}

type ParameterType struct {
	Type      string         `json:"type" yaml:"type"`
	ArrayType *ParameterType `json:"arrayType,omitempty" yaml:"arrayType,omitempty"`
}

type ParameterValue struct {
	Value       string           `json:"value,omitempty" yaml:"value,omitempty"`
	ArrayValues []ParameterValue `json:"arrayValues,omitempty" yaml:"arrayValues,omitempty"`
}

// Query is a statement with its named parameters.
type Query struct {
	SQL        string
	Parameters []Parameter
}

// Build validates the split and renders its statement.
func (s Split) Build() (Query, error) {
	if err := s.Source.validate("query.source"); err != nil {
		return Query{}, err
	}

	if err := s.Destination.validate("query.destination"); err != nil {
		return Query{}, err
	}

	modulus := s.Modulus
	if modulus == 0 {
		modulus = defaultModulus
	}

	if modulus < 0 {
		return Query{}, pipeline.NewConfigurationError("query.modulus", "must be positive (got: %d)", modulus)
	}

	if len(s.Buckets) == 0 {
		return Query{}, pipeline.NewConfigurationError("query.buckets", "at least one bucket is required")
	}

	seen := make(map[int]struct{}, len(s.Buckets))
	values := make([]ParameterValue, 0, len(s.Buckets))

	for _, b := range s.Buckets {
		if b < 0 || b >= modulus {
			return Query{}, pipeline.NewConfigurationError("query.buckets", "bucket %d is outside [0, %d)", b, modulus)
		}

		if _, ok := seen[b]; ok {
			return Query{}, pipeline.NewConfigurationError("query.buckets", "bucket %d declared twice", b)
		}

		seen[b] = struct{}{}
		values = append(values, ParameterValue{Value: strconv.Itoa(b)})
	}

	sql := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS (SELECT * FROM %s AS table "+
			"WHERE MOD(ABS(FARM_FINGERPRINT(TO_JSON_STRING(table))), %d) IN UNNEST(@%s))",
		s.Destination.Identifier(), s.Source.Identifier(), modulus, BucketsParameter,
	)

	return Query{
		SQL: sql,
		Parameters: []Parameter{{
			Name: BucketsParameter,
			ParameterType: ParameterType{
				Type:      "ARRAY",
				ArrayType: &ParameterType{Type: "INT64"},
			},
			ParameterValue: ParameterValue{ArrayValues: values},
		}},
	}, nil
}
