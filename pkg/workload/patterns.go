package workload

import "fmt"

// Weights is the {SELECT, INSERT, UPDATE, DELETE} mix, normalized to
// sum to 1.0, per §3 Workload config.
type Weights struct {
	Select float64
	Insert float64
	Update float64
	Delete float64
}

func (w Weights) sum() float64 { return w.Select + w.Insert + w.Update + w.Delete }

// patternWeights is the normative constant map from §4.4's pattern
// table.
var patternWeights = map[string]Weights{
	"oltp":         {Select: 0.40, Insert: 0.30, Update: 0.25, Delete: 0.05},
	"ecommerce":    {Select: 0.50, Insert: 0.25, Update: 0.20, Delete: 0.05},
	"olap":         {Select: 0.90, Insert: 0.05, Update: 0.04, Delete: 0.01},
	"reporting":    {Select: 0.95, Insert: 0.03, Update: 0.015, Delete: 0.005},
	"time_series":  {Select: 0.30, Insert: 0.65, Update: 0.02, Delete: 0.03},
	"social_media": {Select: 0.70, Insert: 0.20, Update: 0.08, Delete: 0.02},
	"iot":          {Select: 0.20, Insert: 0.75, Update: 0.03, Delete: 0.02},
	"read_heavy":   {Select: 0.80, Insert: 0.10, Update: 0.08, Delete: 0.02},
	"write_heavy":  {Select: 0.20, Insert: 0.40, Update: 0.30, Delete: 0.10},
	"balanced":     {Select: 0.50, Insert: 0.25, Update: 0.20, Delete: 0.05},
}

// WeightsFor resolves a named pattern, or validates a caller-supplied
// custom mix.
func WeightsFor(pattern string, custom *Weights) (Weights, error) {
	if custom != nil {
		if d := custom.sum(); d < 0.999 || d > 1.001 {
			return Weights{}, fmt.Errorf("custom operation mix must sum to 1.0, got %.4f", d)
		}
		return *custom, nil
	}
	w, ok := patternWeights[pattern]
	if !ok {
		return Weights{}, fmt.Errorf("unknown workload pattern %q", pattern)
	}
	return w, nil
}
