package gitrepo

import (
	"os"
	"path/filepath"
)

func dirExists(base, relOrAbs string) bool {
	path := relOrAbs
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, relOrAbs)
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
