/*
Package util holds small helpers shared across packages.

Adapted from intel-svr-info's internal/util package; the path/home
helpers are unchanged in spirit; AbsPath (with ExpandUser) is used by the
specs loader to resolve the top-level spec path.
*/
package util

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ExpandUser expands a leading '~' to the current user's home directory.
func ExpandUser(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	}
	return path
}

// AbsPath returns the absolute path after expanding '~'.
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) (exists bool, err error) {
	var info fs.FileInfo
	info, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%s not a file", path)
	}
	return true, nil
}

// SanitizeForFilename replaces anything but letters/digits with '-', as
// required by §6 "Output logs" for variable values embedded in log file
// names.
var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func SanitizeForFilename(s string) string {
	return nonAlphaNum.ReplaceAllString(s, "-")
}

// RandomSuffix returns n uppercase alphanumeric characters, used for
// heredoc EOF markers (§4.2 file-gen) and temp file names (§4.7 step 2).
// The entropy source is uuid.New(), which draws from crypto/rand; reusing
// the random generation already pulled in for the teacher's toolchain
// rather than rolling a bespoke PRNG.
func RandomSuffix(n int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	idx := 0
	for idx < n {
		id := uuid.New()
		for _, bb := range id {
			if idx >= n {
				break
			}
			b[idx] = alphabet[int(bb)%len(alphabet)]
			idx++
		}
	}
	return string(b)
}
