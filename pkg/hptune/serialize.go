package hptune

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-vertex-pipeline/pkg/pipeline"
)

const (
	metricsField    = "study_spec_metrics"
	parametersField = "study_spec_parameters"
)

var scaleTypes = map[Scale]string{
	ScaleLinear:     "UNIT_LINEAR_SCALE",
	ScaleLog:        "UNIT_LOG_SCALE",
	ScaleReverseLog: "UNIT_REVERSE_LOG_SCALE",
}

type wireMetric struct {
	MetricID string `json:"metricId"`
	Goal     string `json:"goal"`
}

type wireParameter struct {
	ParameterID          string           `json:"parameterId"`
	DoubleValueSpec      *wireDouble      `json:"doubleValueSpec,omitempty"`
	IntegerValueSpec     *wireInteger     `json:"integerValueSpec,omitempty"`
	DiscreteValueSpec    *wireDiscrete    `json:"discreteValueSpec,omitempty"`
	CategoricalValueSpec *wireCategorical `json:"categoricalValueSpec,omitempty"`
	ScaleType            string           `json:"scaleType,omitempty"`
}

type wireDouble struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

type wireInteger struct {
	MinValue int64String `json:"minValue"`
	MaxValue int64String `json:"maxValue"`
}

type wireDiscrete struct {
	Values []float64 `json:"values"`
}

type wireCategorical struct {
	Values []string `json:"values"`
}

// int64String follows the proto JSON mapping: written as a string, read from
// either a string or a number.
type int64String int64

func (i int64String) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(i), 10))
}

func (i *int64String) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid int64 value %s", b)
	}

	*i = int64String(v)

	return nil
}

// SerializeMetrics converts the metrics to the payload expected by the tuning job.
func SerializeMetrics(metrics []MetricSpec) (string, error) {
	if len(metrics) == 0 {
		return "", pipeline.NewConfigurationError(metricsField, "at least one metric is required")
	}

	seen := make(map[string]struct{}, len(metrics))
	wire := make([]wireMetric, 0, len(metrics))

	for _, m := range metrics {
		if m.ID == "" {
			return "", pipeline.NewConfigurationError(metricsField, "metric id is required")
		}

		if _, ok := seen[m.ID]; ok {
			return "", pipeline.NewConfigurationError(metricsField+"."+m.ID, "metric declared twice")
		}

		seen[m.ID] = struct{}{}

		goal := Goal(strings.ToLower(string(m.Goal)))
		if goal != Maximize && goal != Minimize {
			return "", pipeline.NewConfigurationError(metricsField+"."+m.ID, "goal must be maximize or minimize (got: %q)", m.Goal)
		}

		wire = append(wire, wireMetric{MetricID: m.ID, Goal: strings.ToUpper(string(goal))})
	}

	return marshal(wire, metricsField)
}

// ParseMetrics reads back a payload built by SerializeMetrics.
func ParseMetrics(payload string) ([]MetricSpec, error) {
	var wire []wireMetric

	err := unmarshal(payload, &wire, metricsField)
	if err != nil {
		return nil, err
	}

	metrics := make([]MetricSpec, 0, len(wire))
	for _, m := range wire {
		metrics = append(metrics, MetricSpec{ID: m.MetricID, Goal: Goal(strings.ToLower(m.Goal))})
	}

	// re-serialising validates the payload
	if _, err := SerializeMetrics(metrics); err != nil {
		return nil, err
	}

	return metrics, nil
}

// SerializeParameters converts the parameters, in order, to the payload
// expected by the tuning job.
func SerializeParameters(params []ParameterSpec) (string, error) {
	if len(params) == 0 {
		return "", pipeline.NewConfigurationError(parametersField, "at least one parameter is required")
	}

	seen := make(map[string]struct{}, len(params))
	wire := make([]wireParameter, 0, len(params))

	for _, p := range params {
		if p.ID == "" {
			return "", pipeline.NewConfigurationError(parametersField, "parameter id is required")
		}

		if _, ok := seen[p.ID]; ok {
			return "", pipeline.NewConfigurationError(parametersField+"."+p.ID, "parameter declared twice")
		}

		seen[p.ID] = struct{}{}

		w, err := toWire(p)
		if err != nil {
			return "", err
		}

		wire = append(wire, w)
	}

	return marshal(wire, parametersField)
}

// ParseParameters reads back a payload built by SerializeParameters.
func ParseParameters(payload string) ([]ParameterSpec, error) {
	var wire []wireParameter

	err := unmarshal(payload, &wire, parametersField)
	if err != nil {
		return nil, err
	}

	params := make([]ParameterSpec, 0, len(wire))

	for _, w := range wire {
		p, err := fromWire(w)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	if _, err := SerializeParameters(params); err != nil {
		return nil, err
	}

	return params, nil
}

func toWire(p ParameterSpec) (wireParameter, error) {
	field := parametersField + "." + p.ID
	w := wireParameter{ParameterID: p.ID}

	if p.Scale != ScaleUnspecified {
		scaleType, ok := scaleTypes[p.Scale]
		if !ok {
			return w, pipeline.NewConfigurationError(field, "unknown scale %q", p.Scale)
		}

		w.ScaleType = scaleType
	}

	logScale := p.Scale == ScaleLog || p.Scale == ScaleReverseLog

	switch p.Kind {
	case Double:
		if err := checkRange(field, p.Min, p.Max, logScale); err != nil {
			return w, err
		}

		w.DoubleValueSpec = &wireDouble{MinValue: p.Min, MaxValue: p.Max}
	case Integer:
		if p.IntMin >= p.IntMax {
			return w, pipeline.NewConfigurationError(field, "min %d must be less than max %d", p.IntMin, p.IntMax)
		}

		if logScale && p.IntMin <= 0 {
			return w, pipeline.NewConfigurationError(field, "log scale requires a positive min (got: %d)", p.IntMin)
		}

		w.IntegerValueSpec = &wireInteger{MinValue: int64String(p.IntMin), MaxValue: int64String(p.IntMax)}
	case Discrete:
		if len(p.Values) == 0 {
			return w, pipeline.NewConfigurationError(field, "discrete values are required")
		}

		seen := make(map[float64]struct{}, len(p.Values))
		for _, v := range p.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return w, pipeline.NewConfigurationError(field, "discrete value %v is not finite", v)
			}

			if logScale && v <= 0 {
				return w, pipeline.NewConfigurationError(field, "log scale requires positive values (got: %v)", v)
			}

			if _, ok := seen[v]; ok {
				return w, pipeline.NewConfigurationError(field, "discrete value %v declared twice", v)
			}

			seen[v] = struct{}{}
		}

		w.DiscreteValueSpec = &wireDiscrete{Values: append([]float64(nil), p.Values...)}
	case Categorical:
		if p.Scale != ScaleUnspecified {
			return w, pipeline.NewConfigurationError(field, "categorical parameters have no scale")
		}

		if len(p.Categories) == 0 {
			return w, pipeline.NewConfigurationError(field, "categories are required")
		}

		seen := make(map[string]struct{}, len(p.Categories))
		for _, c := range p.Categories {
			if c == "" {
				return w, pipeline.NewConfigurationError(field, "empty category")
			}

			if _, ok := seen[c]; ok {
				return w, pipeline.NewConfigurationError(field, "category %q declared twice", c)
			}

			seen[c] = struct{}{}
		}

		w.CategoricalValueSpec = &wireCategorical{Values: append([]string(nil), p.Categories...)}
	default:
		return w, pipeline.NewConfigurationError(field, "unknown parameter kind %q", p.Kind)
	}

	return w, nil
}

func fromWire(w wireParameter) (ParameterSpec, error) {
	field := parametersField + "." + w.ParameterID
	p := ParameterSpec{ID: w.ParameterID}

	if w.ScaleType != "" {
		for scale, scaleType := range scaleTypes {
			if scaleType == w.ScaleType {
				p.Scale = scale
			}
		}

		if p.Scale == ScaleUnspecified {
			return p, pipeline.NewConfigurationError(field, "unknown scale type %q", w.ScaleType)
		}
	}

	specs := 0

	if w.DoubleValueSpec != nil {
		specs++
		p.Kind, p.Min, p.Max = Double, w.DoubleValueSpec.MinValue, w.DoubleValueSpec.MaxValue
	}

	if w.IntegerValueSpec != nil {
		specs++
		p.Kind = Integer
		p.IntMin, p.IntMax = int64(w.IntegerValueSpec.MinValue), int64(w.IntegerValueSpec.MaxValue)
	}

	if w.DiscreteValueSpec != nil {
		specs++
		p.Kind, p.Values = Discrete, w.DiscreteValueSpec.Values
	}

	if w.CategoricalValueSpec != nil {
		specs++
		p.Kind, p.Categories = Categorical, w.CategoricalValueSpec.Values
	}

	if specs != 1 {
		return p, pipeline.NewConfigurationError(field, "expected exactly one value spec, got %d", specs)
	}

	return p, nil
}

func checkRange(field string, lo, hi float64, logScale bool) error {
	for _, v := range []float64{lo, hi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return pipeline.NewConfigurationError(field, "bound %v is not finite", v)
		}
	}

	if lo >= hi {
		return pipeline.NewConfigurationError(field, "min %v must be less than max %v", lo, hi)
	}

	if logScale && lo <= 0 {
		return pipeline.NewConfigurationError(field, "log scale requires a positive min (got: %v)", lo)
	}

	return nil
}

func marshal(v any, field string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", pipeline.NewConfigurationError(field, "unable to encode payload: %v", err)
	}

	return string(b), nil
}

func unmarshal(payload string, v any, field string) error {
	dec := json.NewDecoder(bytes.NewBufferString(payload))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		return pipeline.NewConfigurationError(field, "unable to decode payload: %v", err)
	}

	return nil
}
