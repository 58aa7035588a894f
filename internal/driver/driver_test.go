package driver

import (
	"reflect"
	"testing"
)

func TestBuildAssignmentsProductOrder(t *testing.T) {
	cases := []struct {
		Name   string
		Values []interface{}
	}{
		{Name: "n", Values: []interface{}{1, 2}},
		{Name: "m", Values: []interface{}{"a", "b"}},
	}
	got := BuildAssignments(cases)
	want := []Assignment{
		{{Name: "n", Value: 1}, {Name: "m", Value: "a"}},
		{{Name: "n", Value: 1}, {Name: "m", Value: "b"}},
		{{Name: "n", Value: 2}, {Name: "m", Value: "a"}},
		{{Name: "n", Value: 2}, {Name: "m", Value: "b"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got = %v, want %v", got, want)
	}
}

func TestBuildAssignmentsEmptyProducesOneEmptyAssignment(t *testing.T) {
	got := BuildAssignments(nil)
	if len(got) != 1 || len(got[0]) != 0 {
		t.Fatalf("got = %v", got)
	}
}

func TestAppendComment(t *testing.T) {
	c := appendComment("", "first")
	c = appendComment(c, "second")
	if c != "first; second" {
		t.Fatalf("c = %q", c)
	}
}
