package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/tasks"
)

type resolveResult struct {
	Query      string                 `json:"query"`
	Threshold  float64                `json:"threshold"`
	Descriptor models.TrackDescriptor `json:"descriptor"`
	Candidates []scoredJSON           `json:"candidates"`
	Accepted   *scoredJSON            `json:"accepted,omitempty"`
	Nearest    *models.NearMiss       `json:"nearest,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

type scoredJSON struct {
	models.Candidate
	Score     float64              `json:"score"`
	Breakdown tasks.ScoreBreakdown `json:"breakdown"`
}

// Resolve searches the destination for one track and prints every candidate with its score.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return fmt.Errorf("%w: usage: ytmigrate resolve <title> [--artist name]", shared.ErrMissingArgument)
	}

	r.applyFlags(cmd)
	if err := r.config.Validate(); err != nil {
		return err
	}

	dst, err := r.newDestination(r.config, r.logger)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.Call.Duration)
	defer cancel()
	if err := dst.Connect(callCtx); err != nil {
		return fmt.Errorf("connecting to %s: %w", dst.Name(), err)
	}

	d := models.TrackDescriptor{
		Title:      title,
		Artists:    cmd.StringSlice("artist"),
		Album:      cmd.String("album"),
		DurationMS: cmd.Int("duration-ms"),
	}

	resolver := tasks.NewResolver(dst, tasks.ResolverOptions{
		Threshold: r.config.Resolve.Threshold,
		Limit:     r.config.Resolve.SearchLimit,
		Timeout:   r.config.Timeouts.Call.Duration,
		Logger:    r.logger,
	})
	res := resolver.Resolve(ctx, d)

	if cmd.Bool("json") {
		return r.writeJSON(newResolveResult(res, resolver.Threshold()), true)
	}
	return r.printResolution(res, resolver.Threshold())
}

func newResolveResult(res tasks.Resolution, threshold float64) resolveResult {
	out := resolveResult{
		Query:      tasks.Query(res.Descriptor),
		Threshold:  threshold,
		Candidates: make([]scoredJSON, 0, len(res.Candidates)),
		Nearest:    res.Nearest,
		Descriptor: res.Descriptor,
	}
	for _, sc := range res.Candidates {
		out.Candidates = append(out.Candidates, scoredJSON{
			Candidate: sc.Candidate,
			Score:     sc.Score,
			Breakdown: tasks.Breakdown(res.Descriptor, sc.Candidate),
		})
	}
	if res.Best != nil {
		out.Accepted = &scoredJSON{
			Candidate: res.Best.Candidate,
			Score:     res.Best.Score,
			Breakdown: tasks.Breakdown(res.Descriptor, res.Best.Candidate),
		}
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func (r *Runner) printResolution(res tasks.Resolution, threshold float64) error {
	r.writePlain("Query: %s\n", tasks.Query(res.Descriptor))
	r.writePlain("Threshold: %.2f\n\n", threshold)

	if len(res.Candidates) == 0 {
		return r.writePlain("No candidates returned: %v\n", res.Err)
	}

	candidates := make([]models.Candidate, len(res.Candidates))
	scores := make([]float64, len(res.Candidates))
	accepted := -1
	for i, sc := range res.Candidates {
		candidates[i] = sc.Candidate
		scores[i] = sc.Score
		if res.Best != nil && accepted < 0 && sc.Candidate.VideoID == res.Best.Candidate.VideoID {
			accepted = i
		}
	}
	r.writePlain("%s\n", formatter.CandidatesTable(candidates, scores, accepted, formatter.IsTerminal(r.output)))

	if res.Best != nil {
		b := tasks.Breakdown(res.Descriptor, res.Best.Candidate)
		return r.writePlain("\n✓ Accepted %s (%s) score %.2f [title %.1f, artist %.1f, duration %.1f]\n",
			res.Best.Candidate.Title, res.Best.Candidate.VideoID, res.Best.Score, b.Title, b.Artist, b.Duration)
	}

	r.writePlain("\n✗ No candidate scored above %.2f\n", threshold)
	if res.Nearest != nil {
		n := res.Nearest
		r.writePlain("Nearest: %s - %s (%s) score %.2f, similarity %.2f\n",
			strings.Join(n.Candidate.Artists, ", "), n.Candidate.Title, n.Candidate.VideoID, n.Score, n.Similarity)
	}
	return nil
}
