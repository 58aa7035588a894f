/*
Package driver runs one test case's iterations (spec.md §4.6 "Driver")
and builds the per-iteration stream set (§4.7 "Stream factory").
*/
package driver

import (
	"fmt"

	"github.com/intel/streambench/internal/specs"
)

// Assignment is one point in the test-case sweep: an ordered set of
// variable -> value bindings (§3 "Test context").
type Assignment []Binding

type Binding struct {
	Name  string
	Value interface{}
}

// BuildAssignments expands `test-cases: {var: [values...], ...}` into
// its Cartesian product, iterating in declaration order (§8 scenario 5:
// for `{n: [1,2], m: [a,b]}`, the order is `(n=1,m=a),(n=1,m=b),
// (n=2,m=a),(n=2,m=b)` — the last-declared variable varies fastest).
func BuildAssignments(testCases []struct {
	Name   string
	Values []interface{}
}) []Assignment {
	if len(testCases) == 0 {
		return []Assignment{{}}
	}
	var product []Assignment
	var recurse func(i int, current Assignment)
	recurse = func(i int, current Assignment) {
		if i == len(testCases) {
			cp := append(Assignment(nil), current...)
			product = append(product, cp)
			return
		}
		for _, v := range testCases[i].Values {
			recurse(i+1, append(current, Binding{Name: testCases[i].Name, Value: v}))
		}
	}
	recurse(0, nil)
	return product
}

// NormalizeTestCases converts the loaded yaml.MapSlice into the
// ordered (name, values) pairs BuildAssignments expects.
func NormalizeTestCases(spec *specs.Spec) ([]struct {
	Name   string
	Values []interface{}
}, error) {
	var out []struct {
		Name   string
		Values []interface{}
	}
	for _, item := range spec.TestCases {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("test-cases: non-string key %v", item.Key)
		}
		values, ok := item.Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("test-cases: %s is not a list", name)
		}
		out = append(out, struct {
			Name   string
			Values []interface{}
		}{Name: name, Values: values})
	}
	return out, nil
}
