package hptune

// Kind is the kind of search dimension.
type Kind string

const (
	Double      Kind = "double"
	Integer     Kind = "integer"
	Discrete    Kind = "discrete"
	Categorical Kind = "categorical"
)

// Scale is how the tuning service maps a dimension to its search space.
type Scale string

const (
	ScaleUnspecified Scale = ""
	ScaleLinear      Scale = "linear"
	ScaleLog         Scale = "log"
	ScaleReverseLog  Scale = "reverse_log"
)

// Goal of a metric.
type Goal string

const (
	Maximize Goal = "maximize"
	Minimize Goal = "minimize"
)

// MetricSpec names a metric reported by the trials and its goal.
type MetricSpec struct {
	ID   string
	Goal Goal
}

// ParameterSpec is one search dimension.
type ParameterSpec struct {
	ID    string
	Kind  Kind
	Scale Scale
	// Min and Max bound a Double dimension.
	Min, Max float64
	// IntMin and IntMax bound an Integer dimension.
	IntMin, IntMax int64
	// Values enumerates a Discrete dimension.
	Values []float64
	// Categories enumerates a Categorical dimension.
	Categories []string
}

// DoubleParameter is a continuous range.
func DoubleParameter(id string, lo, hi float64, scale Scale) ParameterSpec {
	return ParameterSpec{ID: id, Kind: Double, Min: lo, Max: hi, Scale: scale}
}

// IntegerParameter is an integer range.
func IntegerParameter(id string, lo, hi int64, scale Scale) ParameterSpec {
	return ParameterSpec{ID: id, Kind: Integer, IntMin: lo, IntMax: hi, Scale: scale}
}

// DiscreteParameter is an ordered set of numbers.
func DiscreteParameter(id string, values []float64, scale Scale) ParameterSpec {
	return ParameterSpec{ID: id, Kind: Discrete, Values: values, Scale: scale}
}

// CategoricalParameter is an ordered set of strings.
func CategoricalParameter(id string, categories ...string) ParameterSpec {
	return ParameterSpec{ID: id, Kind: Categorical, Categories: categories}
}
