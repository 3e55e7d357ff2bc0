package vmservice

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dartcov/dartcov/internal/domain"
)

// VM service protocol shapes, limited to the fields collection consumes.
type vmInfo struct {
	Isolates []isolateRef `json:"isolates"`
}

type isolateRef struct {
	ID string `json:"id"`
}

type scriptRef struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type sourceReport struct {
	Ranges  []sourceReportRange `json:"ranges"`
	Scripts []scriptRef         `json:"scripts"`
}

type sourceReportRange struct {
	ScriptIndex int           `json:"scriptIndex"`
	Compiled    bool          `json:"compiled"`
	Coverage    *coverageInfo `json:"coverage"`
}

type coverageInfo struct {
	Hits   []int `json:"hits"`
	Misses []int `json:"misses"`
}

type scriptObject struct {
	TokenPosTable [][]int `json:"tokenPosTable"`
}

// Collect pulls a full coverage source report from every isolate and
// translates token positions to line numbers, producing a hit map keyed
// by script URI. Paused isolates are resumed afterwards so the VM can
// exit (the process runs with --pause-isolates-on-exit).
func Collect(ctx context.Context, service *url.URL) (domain.HitMap, error) {
	client, err := Dial(ctx, service)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var vm vmInfo
	if err := client.Call(ctx, "getVM", nil, &vm); err != nil {
		return nil, err
	}

	hits := domain.HitMap{}
	for _, isolate := range vm.Isolates {
		if err := collectIsolate(ctx, client, isolate.ID, hits); err != nil {
			return nil, fmt.Errorf("isolate %s: %w", isolate.ID, err)
		}
		// Best effort: the isolate may already be running or gone.
		_ = client.Call(ctx, "resume", map[string]any{"isolateId": isolate.ID}, nil)
	}
	return hits, nil
}

func collectIsolate(ctx context.Context, client *Client, isolateID string, hits domain.HitMap) error {
	var report sourceReport
	params := map[string]any{
		"isolateId":    isolateID,
		"reports":      []string{"Coverage"},
		"forceCompile": true,
	}
	if err := client.Call(ctx, "getSourceReport", params, &report); err != nil {
		return err
	}

	// tokenPosTable lookups are per script; fetch each script object once.
	lineTables := make(map[int]map[int]int)
	tableFor := func(scriptIndex int) (map[int]int, error) {
		if table, ok := lineTables[scriptIndex]; ok {
			return table, nil
		}
		if scriptIndex < 0 || scriptIndex >= len(report.Scripts) {
			return nil, fmt.Errorf("source report references unknown script index %d", scriptIndex)
		}
		var script scriptObject
		params := map[string]any{"isolateId": isolateID, "objectId": report.Scripts[scriptIndex].ID}
		if err := client.Call(ctx, "getObject", params, &script); err != nil {
			return nil, err
		}
		table := tokenPosToLine(script.TokenPosTable)
		lineTables[scriptIndex] = table
		return table, nil
	}

	for _, r := range report.Ranges {
		if !r.Compiled || r.Coverage == nil {
			continue
		}
		table, err := tableFor(r.ScriptIndex)
		if err != nil {
			return err
		}
		uri := report.Scripts[r.ScriptIndex].URI
		lineHits := make(map[int]int)
		for _, pos := range r.Coverage.Misses {
			if line, ok := table[pos]; ok {
				if _, seen := lineHits[line]; !seen {
					lineHits[line] = 0
				}
			}
		}
		for _, pos := range r.Coverage.Hits {
			if line, ok := table[pos]; ok {
				lineHits[line] = 1
			}
		}
		hits.AddHits(uri, lineHits)
	}
	return nil
}

// tokenPosToLine flattens a script's tokenPosTable. Each row is
// [lineNumber, tokenPos, columnNumber, tokenPos, columnNumber, ...].
func tokenPosToLine(table [][]int) map[int]int {
	lines := make(map[int]int)
	for _, row := range table {
		if len(row) < 3 {
			continue
		}
		line := row[0]
		for i := 1; i+1 < len(row); i += 2 {
			lines[row[i]] = line
		}
	}
	return lines
}
