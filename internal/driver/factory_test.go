package driver

import (
	"testing"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/metrics"
	"github.com/intel/streambench/internal/specs"
)

func TestFactoryBuildUndefinedNode(t *testing.T) {
	spec := &specs.Spec{}
	global := streamcontext.New(nil)
	store := metrics.NewStore(nil, nil)
	f := NewFactory(spec, global, store, nil)

	_, err := f.Build(specs.StreamConfig{Name: "s1", Node: "missing", App: "a"}, 0)
	if err == nil {
		t.Fatal("expected SpecError for undefined node")
	}
}

func TestFactoryBuildLocalEcho(t *testing.T) {
	spec := &specs.Spec{
		Nodes: []specs.NodeConfig{{Name: "dut", Host: "localhost"}},
		Apps: map[string]specs.AppConfig{
			"echo": {Binary: "/bin/echo", Args: []string{"hello"}, Parser: "greeting"},
		},
		Parsers: map[string]specs.ParserConfig{
			"greeting": {Class: "regex", Match: []string{`^(?P<greeting>\w+)$`}},
		},
	}
	global := streamcontext.New(nil)
	store := metrics.NewStore(spec.Metrics, nil)
	f := NewFactory(spec, global, store, nil)

	built, err := f.Build(specs.StreamConfig{Name: "s1", Node: "dut", App: "echo"}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	argv := built.Root.Cmdline()
	if len(argv) == 0 || argv[0] != "/bin/bash" {
		t.Fatalf("expected local access cmdline, got %v", argv)
	}
}
