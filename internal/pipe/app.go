package pipe

import (
	"fmt"
	"sort"
)

// App is the `app` variant (§4.2): the target application under
// benchmark. It contributes `[binary, args...]`, optionally wrapped in
// `env K=V ...`, plus a stdin payload when configured.
type App struct {
	Base
	Binary string
	Args   []string
	Env    map[string]string
	In     string
}

func NewApp(binary string, args []string, env map[string]string, stdin string) *App {
	return &App{Binary: binary, Args: args, Env: env, In: stdin}
}

func (a *App) Cmdline() []string {
	argv := append([]string{}, a.Base.Cmdline()...)
	argv = append(argv, a.Binary)
	argv = append(argv, a.Args...)
	if len(a.Env) == 0 {
		return argv
	}
	keys := make([]string, 0, len(a.Env))
	for k := range a.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	wrapped := []string{"env"}
	for _, k := range keys {
		wrapped = append(wrapped, fmt.Sprintf("%s=%s", k, a.Env[k]))
	}
	return append(wrapped, argv...)
}

func (a *App) Stdin() string {
	return a.In + a.Base.Stdin()
}
