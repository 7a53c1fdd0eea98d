package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/vijay-prabhu/mailphone/internal/config"
	"github.com/vijay-prabhu/mailphone/internal/database"
	"github.com/vijay-prabhu/mailphone/internal/email"
	"github.com/vijay-prabhu/mailphone/internal/email/gmail"
	"github.com/vijay-prabhu/mailphone/internal/output"
)

// Authenticator yields an HTTP client authorized for the mail API
type Authenticator interface {
	Authenticate(ctx context.Context) (*http.Client, error)
}

// SourceFactory builds the message source on top of an authorized client
type SourceFactory func(ctx context.Context, client *http.Client) (email.Source, error)

// HistoryRecorder stores one row per run
type HistoryRecorder interface {
	CreateRun(ctx context.Context, r *database.Run) error
	FinishRun(ctx context.Context, r *database.Run) error
}

// GmailSource is the production SourceFactory
func GmailSource(ctx context.Context, client *http.Client) (email.Source, error) {
	c, err := gmail.New(ctx, client)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Runner orchestrates one authorize, list, extract, persist, summarize run
type Runner struct {
	cfg       *config.Config
	auth      Authenticator
	newSource SourceFactory
	history   HistoryRecorder
	out       io.Writer
	log       zerolog.Logger
}

// New creates a Runner. history may be nil.
func New(cfg *config.Config, auth Authenticator, newSource SourceFactory, history HistoryRecorder, out io.Writer, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		auth:      auth,
		newSource: newSource,
		history:   history,
		out:       out,
		log:       log,
	}
}

// Options configures a single run
type Options struct {
	Progress ProgressCallback // Optional progress callback
}

// Result contains the outcome of a successful run
type Result struct {
	RunID      string
	Query      string
	Records    []email.Record
	Failed     int
	OutputPath string
	Phones     []string
	Truncated  bool
	Cap        int64
}

// Run executes the pipeline once. now fixes both the search window and the
// output file name.
func (r *Runner) Run(ctx context.Context, now time.Time, opts Options) (*Result, error) {
	report := func(phase ProgressPhase, current, total int, started time.Time) {
		if opts.Progress != nil {
			opts.Progress(Progress{Phase: phase, Current: current, Total: total, StartedAt: started})
		}
	}

	query := gmail.BuildQuery(r.cfg.Query.Label, r.cfg.Query.Subject, r.cfg.Query.LookbackDays, now)
	run := r.startRun(ctx, query, now)

	result, err := r.execute(ctx, query, now, report)
	r.finishRun(run, result, err)
	if err != nil {
		if needsReauth(err) {
			r.log.Error().Msg("stored authorization was rejected; run 'mailphone auth --reset' to authorize again")
		}
		return nil, err
	}

	if run != nil {
		result.RunID = run.ID
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, query string, now time.Time, report func(ProgressPhase, int, int, time.Time)) (*Result, error) {
	report(PhaseAuthenticating, 0, 0, time.Now())
	client, err := r.auth.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	source, err := r.newSource(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	r.log.Info().Str("query", query).Int("max_results", r.cfg.Gmail.MaxResults).Msg("listing messages")
	report(PhaseListing, 0, 0, time.Now())
	list, err := source.ListMessages(ctx, query, int64(r.cfg.Gmail.MaxResults))
	if err != nil {
		return nil, err
	}
	report(PhaseListing, len(list.Refs), len(list.Refs), time.Now())

	if list.Truncated {
		r.log.Warn().Int64("cap", list.Cap).Msg("result cap reached, older matches were not listed")
	}

	extractStart := time.Now()
	records := source.ExtractAll(ctx, list.Refs, email.ExtractOptions{
		MaxInFlight:    r.cfg.Gmail.MaxInFlight,
		RequestTimeout: r.cfg.Gmail.RequestTimeout(),
		Progress: func(done, total int) {
			report(PhaseExtracting, done, total, extractStart)
		},
	})

	failed := email.CountFailed(records)
	if failed > 0 {
		r.log.Warn().Int("failed", failed).Int("total", len(records)).Msg("some messages could not be extracted")
	}

	report(PhaseWriting, 0, 0, time.Now())
	persisted, err := output.Persist(r.cfg.Output.Dir, r.cfg.Output.MappingPath, records, now, r.log)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Query:      query,
		Records:    records,
		Failed:     failed,
		OutputPath: persisted.Path,
		Phones:     persisted.Phones,
		Truncated:  list.Truncated,
		Cap:        list.Cap,
	}

	if err := output.Summarize(r.out, records, output.SummaryOptions{
		Detail:     r.cfg.Output.Detail,
		Query:      query,
		OutputPath: res.OutputPath,
		Phones:     res.Phones,
		Truncated:  res.Truncated,
		Cap:        res.Cap,
	}); err != nil {
		return nil, fmt.Errorf("failed to print summary: %w", err)
	}

	return res, nil
}

func (r *Runner) startRun(ctx context.Context, query string, now time.Time) *database.Run {
	if r.history == nil {
		return nil
	}
	run := &database.Run{Query: query, StartedAt: now}
	if err := r.history.CreateRun(ctx, run); err != nil {
		r.log.Warn().Err(err).Msg("failed to record run history")
		return nil
	}
	return run
}

func (r *Runner) finishRun(run *database.Run, res *Result, runErr error) {
	if run == nil {
		return
	}

	if runErr != nil {
		run.Status = database.RunStatusFailed
		run.Failure = ptr(runErr.Error())
	} else {
		run.Status = database.RunStatusSucceeded
		run.MessageCount = len(res.Records)
		run.ErrorCount = res.Failed
		run.PhoneCount = len(res.Phones)
		run.Truncated = res.Truncated
		run.OutputPath = ptr(res.OutputPath)
	}

	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.history.FinishRun(ctx, run); err != nil {
		r.log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to update run history")
	}
}

// needsReauth reports whether err means the cached token is no longer accepted
func needsReauth(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return true
	}
	var retrieveErr *oauth2.RetrieveError
	return errors.As(err, &retrieveErr)
}

func ptr(s string) *string {
	return &s
}
