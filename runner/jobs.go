package runner

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/deduper"
	"github.com/tpgainz/sirene-search/exiter"
	"github.com/tpgainz/sirene-search/jobs"
	"github.com/tpgainz/sirene-search/sirene"
)

// CreateSeedJobs reads SIREN numbers from r (one per line) and builds the
// enrichment jobs for them. A line may carry its own list id after a `#!#`
// separator, otherwise listID applies. Invalid and duplicate sirens are
// skipped silently.
func CreateSeedJobs(
	listID string,
	ownerID string,
	r io.Reader,
	dedup deduper.Deduper,
	exitMonitor exiter.Exiter,
) (seeds []scrapemate.IJob, err error) {
	ctx := context.Background()
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		siren := line
		targetList := listID

		if before, after, ok := strings.Cut(line, "#!#"); ok {
			siren = strings.TrimSpace(before)
			targetList = strings.TrimSpace(after)
		}

		if !sirene.IsValidSiren(siren) {
			continue
		}

		if dedup != nil && !dedup.AddIfNotExists(ctx, targetList+"/"+siren) {
			continue
		}

		opts := []jobs.EnrichJobOptions{}
		if exitMonitor != nil {
			opts = append(opts, jobs.WithEnrichJobExitMonitor(exitMonitor))
		}

		seeds = append(seeds, jobs.NewEnrichJob(targetList, ownerID, siren, opts...))
	}

	if exitMonitor != nil {
		exitMonitor.SetSeedCount(len(seeds))
	}

	return seeds, scanner.Err()
}
