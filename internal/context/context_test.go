package context

import "testing"

func TestSetGetFlatProjection(t *testing.T) {
	c := New(nil)
	c.Set("node", map[string]interface{}{"host": "dut1", "port": 22})
	v, ok := c.Get("node.host")
	if !ok || v != "dut1" {
		t.Fatalf("node.host = %v, %v", v, ok)
	}
	v, ok = c.Get("node.port")
	if !ok || v != 22 {
		t.Fatalf("node.port = %v, %v", v, ok)
	}
}

func TestForkIsIndependent(t *testing.T) {
	c := New(nil)
	c.Set("stream", map[string]interface{}{"name": "base"})
	fork := c.Fork()
	fork.Set("stream.name", "forked")

	if v, _ := c.Get("stream.name"); v != "base" {
		t.Fatalf("parent mutated: stream.name = %v", v)
	}
	if v, _ := fork.Get("stream.name"); v != "forked" {
		t.Fatalf("fork.stream.name = %v", v)
	}
}

func TestRenderKeySubstitution(t *testing.T) {
	c := New(nil)
	c.Set("node", map[string]interface{}{"host": "dut1"})
	c.Set("cmd", "ssh ${node.host} run")
	c.Render()
	if v, _ := c.Get("cmd"); v != "ssh dut1 run" {
		t.Fatalf("cmd = %v", v)
	}
}

func TestRenderDefaultWhenAbsent(t *testing.T) {
	c := New(nil)
	c.Set("cmd", "port=${node.port|22}")
	c.Render()
	if v, _ := c.Get("cmd"); v != "port=22" {
		t.Fatalf("cmd = %v", v)
	}
}

func TestRenderDeclaredButMissingStaysLiteral(t *testing.T) {
	c := New(nil)
	c.Declare("node.missing")
	c.Set("cmd", "${node.missing}")
	c.Render()
	if v, _ := c.Get("cmd"); v != "${node.missing}" {
		t.Fatalf("cmd = %v, want literal left unresolved", v)
	}
}

func TestRenderArithmeticExpression(t *testing.T) {
	c := New(nil)
	c.Set("a", 2.0)
	c.Set("b", 3.0)
	c.Set("sum", "${a + b}")
	c.Render()
	if v, _ := c.Get("sum"); v != "5" {
		t.Fatalf("sum = %v", v)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	c := New(nil)
	c.Set("node", map[string]interface{}{"host": "dut1"})
	c.Set("cmd", "ssh ${node.host} run")
	c.Render()
	first, _ := c.Get("cmd")
	c.Render()
	second, _ := c.Get("cmd")
	if first != second {
		t.Fatalf("render not idempotent: %v != %v", first, second)
	}
}

func TestRenderFixedPointAcrossNestedMacros(t *testing.T) {
	c := New(nil)
	c.Set("base", "10")
	c.Set("mid", "${base}")
	c.Set("top", "${mid}")
	c.Render()
	if v, _ := c.Get("top"); v != "10" {
		t.Fatalf("top = %v", v)
	}
}

func TestRenderStringAgainstAlreadyRenderedState(t *testing.T) {
	c := New(nil)
	c.Set("node", map[string]interface{}{"host": "dut1"})
	c.Render()
	got := c.RenderString("heredoc for ${node.host}")
	if got != "heredoc for dut1" {
		t.Fatalf("RenderString = %q", got)
	}
}
