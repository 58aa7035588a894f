/*
Package context implements the nested, flat-indexable key/value scope
macros resolve against (spec.md §3 "Context"). It is unrelated to, and
does not import, the standard library's context.Context.
*/
package context

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Context is an ordered mapping from dotted string keys to scalars,
// lists, or nested mappings, with a parallel flat projection so macro
// expansion can reach any nested field by its dotted path (invariant i).
type Context struct {
	root        map[string]interface{}
	flat        map[string]interface{}
	order       []string // insertion order of top-level keys
	definitions mapset.Set[string]
	warned      mapset.Set[string]
	logger      *log.Logger
}

// New returns an empty Context.
func New(logger *log.Logger) *Context {
	if logger == nil {
		logger = log.Default()
	}
	return &Context{
		root:        map[string]interface{}{},
		flat:        map[string]interface{}{},
		definitions: mapset.NewSet[string](),
		warned:      mapset.NewSet[string](),
		logger:      logger,
	}
}

// Fork produces a deep copy that may be mutated independently of its
// parent (invariant ii).
func (c *Context) Fork() *Context {
	fork := &Context{
		root:        deepCopy(c.root).(map[string]interface{}),
		flat:        map[string]interface{}{},
		order:       append([]string(nil), c.order...),
		definitions: c.definitions.Clone(),
		warned:      mapset.NewSet[string](),
		logger:      c.logger,
	}
	fork.rebuildFlat()
	return fork
}

// Declare records name as an introduced definition (a `define:` block
// name), so an unresolved macro referencing it is classified as
// "declared but missing" rather than "unknown" (§3 "Context").
func (c *Context) Declare(name string) {
	c.definitions.Add(name)
}

func (c *Context) IsDeclared(name string) bool {
	return c.definitions.Contains(name)
}

// Set assigns value at the dotted path key, creating intermediate
// mappings as needed, and (re)builds the flat projection rooted at key.
func (c *Context) Set(key string, value interface{}) {
	parts := strings.Split(key, ".")
	if _, exists := c.get(parts[0]); !exists {
		if len(parts) == 1 {
			c.order = append(c.order, key)
		} else if _, ok := c.root[parts[0]]; !ok {
			c.order = append(c.order, parts[0])
		}
	}
	setNested(c.root, parts, value)
	c.flat[key] = value
	c.projectFlat(key, value)
}

// Get looks up key (dotted or plain) in the flat projection.
func (c *Context) Get(key string) (interface{}, bool) {
	return c.get(key)
}

func (c *Context) get(key string) (interface{}, bool) {
	v, ok := c.flat[key]
	return v, ok
}

// Keys returns the top-level keys in insertion order.
func (c *Context) Keys() []string {
	return append([]string(nil), c.order...)
}

// Root returns the nested tree; callers must not mutate it.
func (c *Context) Root() map[string]interface{} {
	return c.root
}

func (c *Context) projectFlat(prefix string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := prefix + "." + k
			c.flat[child] = v[k]
			c.projectFlat(child, v[k])
		}
	case []interface{}:
		for i, item := range v {
			child := prefix + "." + strconv.Itoa(i)
			c.flat[child] = item
			c.projectFlat(child, item)
		}
	}
}

func (c *Context) rebuildFlat() {
	c.flat = map[string]interface{}{}
	for _, k := range c.order {
		v := c.root[k]
		c.flat[k] = v
		c.projectFlat(k, v)
	}
}

func setNested(root map[string]interface{}, parts []string, value interface{}) {
	m := root
	for i, p := range parts {
		if i == len(parts)-1 {
			m[p] = value
			return
		}
		next, ok := m[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[p] = next
		}
		m = next
	}
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, vv := range v {
			out[k] = deepCopy(vv)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, vv := range v {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return v
	}
}

// ToString renders a context value as a string the way macro
// substitution does: numbers without Go's default float noise, strings
// verbatim, everything else via fmt.Sprint.
func ToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatFloat(t)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
