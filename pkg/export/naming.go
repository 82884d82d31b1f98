package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
)

// fallbackBase names outputs when neither a prefix nor a filename is usable.
const fallbackBase = "sliced"

// BaseName picks the stem shared by tile and archive names: the prefix if
// set, else the source filename without its extension, else "sliced".
func BaseName(prefix, filename string) string {
	if prefix != "" {
		return prefix
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return fallbackBase
	}
	if stem := strings.TrimSuffix(name, filepath.Ext(name)); stem != "" {
		return stem
	}
	return fallbackBase
}

// TileName is "{base}_{row+1}_{col+1}.{ext}".
func TileName(base string, row, col int, format grid.Format) string {
	return fmt.Sprintf("%s_%d_%d.%s", base, row+1, col+1, format.Ext())
}

// ArchiveName is "{base}_grid.zip".
func ArchiveName(base string) string {
	return base + "_grid.zip"
}
