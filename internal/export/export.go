// Package export writes batch outcomes to JSON files for downstream
// consumption. Writes are atomic (temp file + rename) and idempotent:
// exporting an unchanged batch twice produces byte-identical files.
package export

import (
	"encoding/json"
	"os"
	"path/filepath"

	"fin-agent/internal/types"
)

// WriteSuggestions exports every suggestion present in the batch as an
// ordered JSON array. Symbols whose LLM stage was skipped or failed
// contribute nothing here; they are still visible in the results export.
func WriteSuggestions(path string, br *types.BatchResult) error {
	out := []*types.TradeSuggestion{}
	for _, res := range br.Results() {
		if res.Suggestion != nil {
			out = append(out, res.Suggestion)
		}
	}
	return writeJSON(path, out)
}

// WriteResults exports the full batch: one entry per input symbol in input
// order, including failures and skips.
func WriteResults(path string, br *types.BatchResult) error {
	return writeJSON(path, br.Results())
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
