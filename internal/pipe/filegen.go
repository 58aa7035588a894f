package pipe

import (
	"fmt"

	"github.com/intel/streambench/internal/util"
)

// FileGen is the `file-gen` variant (§4.2): a heredoc fragment that
// writes Contents to Path, using a randomly suffixed EOF marker so the
// marker can't collide with file contents.
type FileGen struct {
	Base
	Path     string
	Contents string
}

func NewFileGen(path, contents string) *FileGen {
	return &FileGen{Path: path, Contents: contents}
}

func (f *FileGen) Cmdline() []string {
	marker := "EOF_" + util.RandomSuffix(16)
	script := fmt.Sprintf("cat > %s <<'%s'\n%s\n%s", shellQuote(f.Path), marker, f.Contents, marker)
	return []string{"eval", script}
}
