/*
Package specs holds the declarative YAML schema described in spec.md §6
and the (collaborator-fidelity) loader that turns a spec file plus its
includes into a *Spec tree the core driver consumes read-only.

Field defaults follow intel-svr-info's internal/commandfile idiom:
UnmarshalYAML calls defaults.Set on the receiver, then unmarshals into an
identically-shaped "plain" type to avoid infinite UnmarshalYAML recursion.
*/
package specs

import (
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// Spec is the root of a loaded, deep-merged configuration tree.
type Spec struct {
	Globals      map[string]interface{}    `yaml:"globals"`
	Test         TestConfig                `yaml:"test"`
	Environments map[string]EnvConfig      `yaml:"environments"`
	Metrics      []MetricConfig            `yaml:"metrics"`
	Nodes        []NodeConfig              `yaml:"nodes"`
	Parsers      map[string]ParserConfig   `yaml:"parsers"`
	Apps         map[string]AppConfig      `yaml:"apps"`
	Streamlets   map[string]StreamletConfig `yaml:"streamlets"`
	Streams      []StreamConfig            `yaml:"streams"`
	// TestCases preserves declaration order via yaml.MapSlice (rather than
	// a plain map) so the Cartesian-product sweep iterates variables and
	// their values in the order the spec file wrote them (§8 scenario 5).
	TestCases yaml.MapSlice `yaml:"test-cases"`
	Report    ReportConfig  `yaml:"report"`
	Notes        string                    `yaml:"notes"`
}

// TestConfig holds the outer test-level controls (§6 "test").
type TestConfig struct {
	Iterations interface{} `yaml:"iterations" default:"1"`
	Cooldown   interface{} `yaml:"cooldown" default:"0"`
}

// EnvConfig is a flat K=V environment map applied to an app's cmdline
// via `env K=V ...` (§4.2 app variant).
type EnvConfig map[string]string

// AccessConfig describes one hop of a node's access chain: `access/local`
// or `access/ssh` (§3 "Pipe node" variants).
type AccessConfig struct {
	Class       string `yaml:"class"`
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Key         string `yaml:"key"`
	Password    string `yaml:"password"`
	SSHPassPath string `yaml:"sshpass_path"`
}

// NodeConfig names an access chain and the host it targets.
type NodeConfig struct {
	Name   string                 `yaml:"name"`
	Host   string                 `yaml:"host"`
	Access []AccessConfig         `yaml:"access"`
	Define map[string]interface{} `yaml:"define"`
}

// FileConfig describes one app.files[] entry (§4.7 step 2).
type FileConfig struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Suffix   string `yaml:"suffix" default:"tmp"`
	Contents string `yaml:"contents"`
}

func (f *FileConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults.Set(f)
	type plain FileConfig
	return unmarshal((*plain)(f))
}

// AppConfig is one `apps.<name>` entry (§6).
type AppConfig struct {
	Binary  string                 `yaml:"binary"`
	Args    []string               `yaml:"args"`
	Env     string                 `yaml:"env"`
	Files   []FileConfig           `yaml:"files"`
	Stdin   string                 `yaml:"stdin"`
	Parser  string                 `yaml:"parser"`
	Parsers []string               `yaml:"parsers"`
	Define  map[string]interface{} `yaml:"define"`
}

// ParserNames returns the app's declared parser name(s), singular field
// first, matching the `parser|parsers` union in §6.
func (a AppConfig) ParserNames() []string {
	return unionParserNames(a.Parser, a.Parsers)
}

func unionParserNames(singular string, plural []string) (names []string) {
	if singular != "" {
		names = append(names, singular)
	}
	names = append(names, plural...)
	return
}

// ParserConfig is one `parsers.<name>` entry. Fields are a superset over
// the three parser classes (§4.8); unused fields for a given class are
// simply left zero.
type ParserConfig struct {
	Class     string            `yaml:"class"`
	Match     []string          `yaml:"match"`
	Separator string            `yaml:"separator" default:"\\s+"`
	Col       int               `yaml:"col"`
	Line      int               `yaml:"line" default:"-1"`
	Anchor    string            `yaml:"anchor"`
	Metrics   map[string]string `yaml:"metrics"`
}

func (p *ParserConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults.Set(p)
	type plain ParserConfig
	return unmarshal((*plain)(p))
}

// StreamletConfig is one `streamlets.<name>` entry (§4.2 streamlet variant).
type StreamletConfig struct {
	Class   string                 `yaml:"class" default:"script"`
	Text    string                 `yaml:"text"`
	Binary  string                 `yaml:"binary"`
	Args    []string               `yaml:"args"`
	Parser  string                 `yaml:"parser"`
	Parsers []string               `yaml:"parsers"`
	Alias   map[string]string      `yaml:"alias"`
	Filter  []string               `yaml:"filter"`
	Define  map[string]interface{} `yaml:"define"`
}

func (s *StreamletConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults.Set(s)
	type plain StreamletConfig
	return unmarshal((*plain)(s))
}

func (s StreamletConfig) ParserNames() []string {
	return unionParserNames(s.Parser, s.Parsers)
}

// StreamConfig is one `streams[]` entry (§6, §4.7).
type StreamConfig struct {
	Name       string                 `yaml:"name"`
	Node       string                 `yaml:"node"`
	App        string                 `yaml:"app"`
	Parser     string                 `yaml:"parser"`
	Parsers    []string               `yaml:"parsers"`
	Delay      interface{}            `yaml:"delay"`
	Timeout    interface{}            `yaml:"timeout"`
	Idle       interface{}            `yaml:"idle"`
	Streamlets []string               `yaml:"streamlets"`
	Alias      map[string]string      `yaml:"alias"`
	Filter     []string               `yaml:"filter"`
	Define     map[string]interface{} `yaml:"define"`
	Active     *bool                  `yaml:"active"`
}

// IsActive defaults to true when unset (§4.6 step 1 "skipping any whose
// active == false").
func (s StreamConfig) IsActive() bool {
	return s.Active == nil || *s.Active
}

func (s StreamConfig) ParserNames() []string {
	return unionParserNames(s.Parser, s.Parsers)
}

// MetricConfig is one `metrics[]` entry (§3 "Metric").
type MetricConfig struct {
	Name      string   `yaml:"name"`
	Title     string   `yaml:"title"`
	Units     string   `yaml:"units"`
	Scale     float64  `yaml:"scale" default:"1"`
	Dec       int      `yaml:"dec" default:"2"`
	Prefix    string   `yaml:"prefix" default:"none"`
	Initial   float64  `yaml:"initial"`
	ShowUnits bool      `yaml:"showunits"`
	Aggregate []string `yaml:"aggregate"`
}

func (m *MetricConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults.Set(m)
	type plain MetricConfig
	if err := unmarshal((*plain)(m)); err != nil {
		return err
	}
	if len(m.Aggregate) == 0 {
		m.Aggregate = []string{"avg"}
	}
	return nil
}

// ReportConfig is the `report` block (§6).
type ReportConfig struct {
	Name       string `yaml:"name" default:"report"`
	Path       string `yaml:"path"`
	KeepOutput string `yaml:"keep_output"`
}

func (r *ReportConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults.Set(r)
	type plain ReportConfig
	return unmarshal((*plain)(r))
}
