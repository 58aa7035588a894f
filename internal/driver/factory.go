package driver

import (
	"fmt"
	"time"

	streamcontext "github.com/intel/streambench/internal/context"
	"github.com/intel/streambench/internal/metrics"
	"github.com/intel/streambench/internal/parsers"
	"github.com/intel/streambench/internal/pipe"
	"github.com/intel/streambench/internal/runtimeenv"
	"github.com/intel/streambench/internal/specs"
	"github.com/intel/streambench/internal/util"
)

// SpecError reports a malformed or incomplete configuration (§7
// "SpecError"): undefined node/app/env/parser/streamlet, or an unknown
// parser class. Fatal at stream-construction time. Aggregator names and
// bandwidth modes are not validated: metrics.NewAggregator falls back to
// "avg" for an unknown name and to "incrementing" for an unknown mode.
type SpecError struct {
	Msg string
}

func (e *SpecError) Error() string { return "spec error: " + e.Msg }

// Factory builds fully wired streams for one iteration of one test case
// (§4.7 "Stream factory").
type Factory struct {
	Spec   *specs.Spec
	Global *streamcontext.Context
	Store  *metrics.Store
	Env    *runtimeenv.RuntimeEnv
}

func NewFactory(spec *specs.Spec, global *streamcontext.Context, store *metrics.Store, env *runtimeenv.RuntimeEnv) *Factory {
	if env == nil {
		env = runtimeenv.New(nil)
	}
	return &Factory{Spec: spec, Global: global, Store: store, Env: env}
}

// BuiltStream is one stream's materialized attributes, ready to hand to
// stream.New.
type BuiltStream struct {
	ID      uint64
	Name    string
	Delay   time.Duration
	Timeout time.Duration
	Idle    time.Duration
	Root    pipe.Node
}

// Build implements §4.7 steps 1-5.
func (f *Factory) Build(sc specs.StreamConfig, iteration int) (*BuiltStream, error) {
	node, ok := f.findNode(sc.Node)
	if !ok {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: undefined node %q", sc.Name, sc.Node)}
	}
	app, ok := f.Spec.Apps[sc.App]
	if !ok {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: undefined app %q", sc.Name, sc.App)}
	}

	// Step 1: fork + inject stream/node/app/env + define overrides.
	ctx := f.Global.Fork()
	ctx.Set("iteration", float64(iteration))
	ctx.Set("stream", streamToMap(sc))
	ctx.Set("node", nodeToMap(node))
	ctx.Set("app", appToMap(app))
	env, hasEnv := f.Spec.Environments[app.Env]
	if app.Env != "" && !hasEnv {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: undefined env %q", sc.Name, app.Env)}
	}
	if hasEnv {
		ctx.Set("env", envToMap(env))
	}
	for _, define := range []map[string]interface{}{node.Define, app.Define, sc.Define} {
		for k, v := range define {
			ctx.Set(k, v)
			ctx.Declare(k)
		}
	}

	// Step 2: synthesize temp file paths.
	type resolvedFile struct {
		path     string
		contents string
		temp     bool
	}
	var files []resolvedFile
	for _, fc := range app.Files {
		path := fc.Path
		temp := false
		if path == "" {
			path = fmt.Sprintf("/tmp/robob.%s-%s.%s", fc.Name, util.RandomSuffix(24), fc.Suffix)
			temp = true
		}
		files = append(files, resolvedFile{path: path, contents: fc.Contents, temp: temp})
	}

	// Step 3: render the context to a fixed point.
	ctx.Render()

	// Step 4: build the pipe tree bottom-up.
	wrapper := pipe.NewShellWrapper()

	for _, fl := range files {
		wrapper.AddPreHook(pipe.NewFileGen(ctx.RenderString(fl.path), ctx.RenderString(fl.contents)))
		if fl.temp {
			wrapper.AddPostHook(pipe.NewFileDel(ctx.RenderString(fl.path)))
		}
	}

	appEnv := map[string]string{}
	if hasEnv {
		for k, v := range env {
			appEnv[k] = ctx.RenderString(v)
		}
	}
	appArgs := make([]string, len(app.Args))
	for i, a := range app.Args {
		appArgs[i] = ctx.RenderString(a)
	}
	appPipe := pipe.NewApp(ctx.RenderString(app.Binary), appArgs, appEnv, ctx.RenderString(app.Stdin))
	wrapper.AddChild(appPipe)

	appAlias, appFilter := sc.Alias, sc.Filter
	for _, pname := range app.ParserNames() {
		pcfg, ok := f.Spec.Parsers[pname]
		if !ok {
			return nil, &SpecError{Msg: fmt.Sprintf("stream %q: undefined parser %q", sc.Name, pname)}
		}
		listener, err := f.buildParser(pname, pcfg, appAlias, appFilter)
		if err != nil {
			return nil, err
		}
		appPipe.Listen(listener)
	}

	for _, sname := range sc.Streamlets {
		slCfg, ok := f.Spec.Streamlets[sname]
		if !ok {
			return nil, &SpecError{Msg: fmt.Sprintf("stream %q: undefined streamlet %q", sc.Name, sname)}
		}
		slNode := f.buildStreamletNode(ctx, slCfg)
		wrapper.AddChild(slNode)

		alias, filter := sc.Alias, sc.Filter
		if len(slCfg.Alias) > 0 {
			alias = slCfg.Alias
		}
		if len(slCfg.Filter) > 0 {
			filter = slCfg.Filter
		}
		for _, pname := range slCfg.ParserNames() {
			pcfg, ok := f.Spec.Parsers[pname]
			if !ok {
				return nil, &SpecError{Msg: fmt.Sprintf("streamlet %q: undefined parser %q", sname, pname)}
			}
			listener, err := f.buildParser(pname, pcfg, alias, filter)
			if err != nil {
				return nil, err
			}
			slNode.Listen(listener)
		}
	}

	root := f.buildAccessChain(ctx, node, wrapper)

	delay, err := timeSpecOrZero(sc.Delay)
	if err != nil {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: delay: %v", sc.Name, err)}
	}
	timeout, err := timeSpecOrZero(sc.Timeout)
	if err != nil {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: timeout: %v", sc.Name, err)}
	}
	idle, err := timeSpecOrZero(sc.Idle)
	if err != nil {
		return nil, &SpecError{Msg: fmt.Sprintf("stream %q: idle: %v", sc.Name, err)}
	}

	return &BuiltStream{
		ID:      f.Env.NextStreamID(),
		Name:    sc.Name,
		Delay:   time.Duration(delay * float64(time.Second)),
		Timeout: time.Duration(timeout * float64(time.Second)),
		Idle:    time.Duration(idle * float64(time.Second)),
		Root:    root,
	}, nil
}

func (f *Factory) findNode(name string) (specs.NodeConfig, bool) {
	for _, n := range f.Spec.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return specs.NodeConfig{}, false
}

func (f *Factory) buildAccessChain(ctx *streamcontext.Context, node specs.NodeConfig, innermost pipe.Node) pipe.Node {
	if len(node.Access) == 0 {
		local := pipe.NewAccessLocal()
		local.AddChild(innermost)
		return local
	}
	current := innermost
	for i := len(node.Access) - 1; i >= 0; i-- {
		current = f.buildAccessNode(ctx, node, node.Access[i], current)
	}
	return current
}

func (f *Factory) buildAccessNode(ctx *streamcontext.Context, node specs.NodeConfig, cfg specs.AccessConfig, child pipe.Node) pipe.Node {
	switch cfg.Class {
	case "ssh", "access/ssh":
		host := cfg.Host
		if host == "" {
			host = node.Host
		}
		ssh := pipe.NewAccessSSH(pipe.AccessSSHConfig{
			Host:     ctx.RenderString(host),
			Port:     ctx.RenderString(cfg.Port),
			User:     ctx.RenderString(cfg.User),
			Key:      ctx.RenderString(cfg.Key),
			Password: ctx.RenderString(cfg.Password),
		})
		ssh.AddChild(child)
		return ssh
	default:
		local := pipe.NewAccessLocal()
		local.AddChild(child)
		return local
	}
}

func (f *Factory) buildStreamletNode(ctx *streamcontext.Context, cfg specs.StreamletConfig) pipe.Node {
	switch cfg.Class {
	case "app":
		args := make([]string, len(cfg.Args))
		for i, a := range cfg.Args {
			args[i] = ctx.RenderString(a)
		}
		return pipe.NewApp(ctx.RenderString(cfg.Binary), args, nil, "")
	case "script", "":
		return pipe.NewStreamlet(ctx.RenderString(cfg.Text))
	default:
		return pipe.NewStreamlet(ctx.RenderString(cfg.Text))
	}
}

func (f *Factory) buildParser(name string, cfg specs.ParserConfig, alias map[string]string, filter []string) (parsers.Listener, error) {
	switch cfg.Class {
	case "regex":
		return parsers.NewRegex(f.Store, cfg.Match, alias, filter)
	case "split":
		return parsers.NewSplit(f.Store, name, cfg.Separator, cfg.Col, cfg.Line, cfg.Anchor, alias, filter)
	case "mpstat-grid":
		return parsers.NewMpstatGrid(f.Store, cfg.Metrics, alias, filter), nil
	default:
		return nil, &SpecError{Msg: fmt.Sprintf("parser %q: unknown class %q", name, cfg.Class)}
	}
}

func timeSpecOrZero(v interface{}) (float64, error) {
	if v == nil {
		return 0, nil
	}
	return specs.ParseTimeSpec(v)
}

func streamToMap(s specs.StreamConfig) map[string]interface{} {
	return map[string]interface{}{
		"name": s.Name,
		"node": s.Node,
		"app":  s.App,
	}
}

func nodeToMap(n specs.NodeConfig) map[string]interface{} {
	return map[string]interface{}{
		"name": n.Name,
		"host": n.Host,
	}
}

func appToMap(a specs.AppConfig) map[string]interface{} {
	args := make([]interface{}, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg
	}
	return map[string]interface{}{
		"binary": a.Binary,
		"args":   args,
	}
}

func envToMap(e specs.EnvConfig) map[string]interface{} {
	out := map[string]interface{}{}
	for k, v := range e {
		out[k] = v
	}
	return out
}
