package sqlitestore

import (
	"net/url"
	"strings"

	"github.com/abohomol/kaa/pkg/logstore"
)

// buildDSN turns Options into a glebarez/sqlite connection string, mapping
// each OptimizationFlags.* field onto its corresponding PRAGMA:
//
//	RelaxedDurability    -> PRAGMA synchronous=OFF
//	InMemoryJournal      -> PRAGMA journal_mode=MEMORY
//	InMemoryScratch      -> PRAGMA temp_store=MEMORY
//	SuppressChangeCounts -> PRAGMA count_changes=OFF
//
// Pragmas are applied by the driver at connection open, before any table
// creation, matching the reference implementation's ordering.
func buildDSN(path string, flags logstore.OptimizationFlags) string {
	var pragmas []string
	if flags.RelaxedDurability {
		pragmas = append(pragmas, "_pragma=synchronous(OFF)")
	}
	if flags.InMemoryJournal {
		pragmas = append(pragmas, "_pragma=journal_mode(MEMORY)")
	}
	if flags.InMemoryScratch {
		pragmas = append(pragmas, "_pragma=temp_store(MEMORY)")
	}
	if flags.SuppressChangeCounts {
		pragmas = append(pragmas, "_pragma=count_changes(OFF)")
	}

	if len(pragmas) == 0 {
		return path
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// memoryDSN returns a DSN for a named, in-process SQLite database with no
// file on disk. Neither Open nor the package's tests call it; Open always
// uses the StorageLocation path.
func memoryDSN(name string) string {
	return "file:" + url.PathEscape(name) + "?mode=memory&cache=shared"
}
