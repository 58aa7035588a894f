package pipe

import "fmt"

// FileDel is the `file-del` variant (§4.2): removes Path if present.
type FileDel struct {
	Base
	Path string
}

func NewFileDel(path string) *FileDel {
	return &FileDel{Path: path}
}

func (f *FileDel) Cmdline() []string {
	q := shellQuote(f.Path)
	return []string{"eval", fmt.Sprintf(`[ -f %s ] && rm %s`, q, q)}
}
