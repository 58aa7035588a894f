package pipe

// Script is the `script` variant (§4.2): an opaque `eval <text>`
// fragment. The shell wrapper recognizes this exact cmdline shape and
// renders text verbatim rather than shell-quoting it (§4.3 step 1).
type Script struct {
	Base
	Text string
}

func NewScript(text string) *Script {
	return &Script{Text: text}
}

func (s *Script) Cmdline() []string {
	return []string{"eval", s.Text}
}

// Streamlet is the `streamlet` variant: by default it behaves exactly
// like Script, but a configuration can name any other variant via
// `class` (§4.2 "streamlet: either script by default or any variant
// named in class"); the stream factory builds an App node directly for
// class `app` and a Streamlet for every other class, including an
// unrecognized one.
type Streamlet = Script

func NewStreamlet(text string) *Streamlet {
	return NewScript(text)
}
