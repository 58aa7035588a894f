package parsers

import "testing"

type capturingUpdater struct {
	calls []struct {
		name  string
		value interface{}
	}
}

func (u *capturingUpdater) Update(name string, value interface{}) {
	u.calls = append(u.calls, struct {
		name  string
		value interface{}
	}{name, value})
}

func TestRegexNamedGroupUpdate(t *testing.T) {
	u := &capturingUpdater{}
	r, err := NewRegex(u, []string{`^val=(?P<m>[0-9.]+)$`}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.OnStdout("val=3.14")
	if len(u.calls) != 1 || u.calls[0].name != "m" || u.calls[0].value != "3.14" {
		t.Fatalf("calls = %v", u.calls)
	}
}

func TestSplitAbsoluteLineAndColumn(t *testing.T) {
	u := &capturingUpdater{}
	s, err := NewSplit(u, "metric", `\s+`, 2, 0, "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.OnStdout("a b c d")
	if len(u.calls) != 1 || u.calls[0].value != "c" {
		t.Fatalf("calls = %v", u.calls)
	}
}

func TestSplitFilterDropsUnlisted(t *testing.T) {
	u := &capturingUpdater{}
	s, _ := NewSplit(u, "metric", `\s+`, 0, -1, "", nil, []string{"other"})
	s.OnStdout("a b")
	if len(u.calls) != 0 {
		t.Fatalf("expected filtered out, got %v", u.calls)
	}
}

func TestAliasSubstitutesName(t *testing.T) {
	u := &capturingUpdater{}
	s, _ := NewSplit(u, "metric", `\s+`, 0, -1, "", map[string]string{"metric": "renamed"}, nil)
	s.OnStdout("x")
	if len(u.calls) != 1 || u.calls[0].name != "renamed" {
		t.Fatalf("calls = %v", u.calls)
	}
}

func TestMpstatGridResolvesOnEOF(t *testing.T) {
	u := &capturingUpdater{}
	m := NewMpstatGrid(u, map[string]string{"usr": "all.%usr"}, nil, nil)
	m.OnStdout("12:00:00 AM  CPU    %usr   %idle")
	m.OnStdout("12:00:01 AM  all    12.50   87.50")
	m.OnEOF()
	if len(u.calls) != 1 || u.calls[0].name != "usr" || u.calls[0].value != 12.50 {
		t.Fatalf("calls = %v", u.calls)
	}
}
