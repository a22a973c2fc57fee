package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/departures-cli/internal/extract"
	"github.com/sells-group/departures-cli/internal/fetcher"
	"github.com/sells-group/departures-cli/internal/ledger"
	"github.com/sells-group/departures-cli/internal/model"
	"github.com/sells-group/departures-cli/internal/snapshot"
	"github.com/sells-group/departures-cli/internal/store"
)

// LedgerAppender appends a batch's records to the ledger.
type LedgerAppender interface {
	Append(records []model.FlightRecord, timestamp string) (*ledger.AppendResult, error)
}

// Options wires the pipeline's collaborators.
type Options struct {
	SourceURL    string
	Fetcher      fetcher.Fetcher
	Extractor    *extract.Extractor
	SnapshotPath string
	Ledger       LedgerAppender
	Store        store.Store      // optional
	Console      io.Writer        // receives the batch JSON; optional
	Now          func() time.Time // defaults to time.Now
}

// Result summarizes one run.
type Result struct {
	Batch   model.CaptureBatch
	Rows    int // departure rows found on the page
	Skipped int // rows dropped as empty or malformed
	Empty   bool
	Ledger  *ledger.AppendResult
	Run     *store.Run
}

// Pipeline runs fetch → extract → snapshot + ledger once.
type Pipeline struct {
	opts Options
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.SourceURL == "" {
		return nil, eris.New("pipeline: source url is required")
	}
	if opts.Fetcher == nil || opts.Extractor == nil || opts.Ledger == nil {
		return nil, eris.New("pipeline: fetcher, extractor and ledger are required")
	}
	if opts.SnapshotPath == "" {
		return nil, eris.New("pipeline: snapshot path is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}, nil
}

// Run executes one capture. An empty page or a page without flights is not
// an error; nothing is written in that case.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("url", p.opts.SourceURL))

	page, err := p.opts.Fetcher.Fetch(ctx, p.opts.SourceURL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: fetch departures")
	}
	log.Info("pipeline: fetched departures page", zap.Int("bytes", len(page.Body)))

	res := &Result{}
	if len(page.Body) == 0 {
		log.Warn("pipeline: empty response body, nothing to write")
		res.Empty = true
		return res, nil
	}

	extracted, err := p.opts.Extractor.Extract(page.Body, page.ContentType)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract flights")
	}
	res.Rows = extracted.Rows
	res.Skipped = extracted.Skipped
	log.Info("pipeline: extracted flights",
		zap.Int("rows", extracted.Rows),
		zap.Int("flights", len(extracted.Flights)),
		zap.Int("skipped", extracted.Skipped),
	)
	if len(extracted.Flights) == 0 {
		log.Warn("pipeline: no flights extracted, nothing to write")
		res.Empty = true
		return res, nil
	}

	batch := model.NewCaptureBatch(p.opts.Now(), extracted.Flights)
	res.Batch = batch

	if p.opts.Console != nil {
		data, err := snapshot.Encode(batch)
		if err != nil {
			return nil, err
		}
		if _, err := p.opts.Console.Write(data); err != nil {
			return nil, eris.Wrap(err, "pipeline: write console")
		}
	}

	// Both sinks read the same batch; neither depends on the other.
	var g errgroup.Group
	g.Go(func() error {
		if err := snapshot.Write(p.opts.SnapshotPath, batch); err != nil {
			return err
		}
		log.Info("pipeline: flight data saved", zap.String("path", p.opts.SnapshotPath))
		return nil
	})
	g.Go(func() error {
		lr, err := p.opts.Ledger.Append(batch.Flights, batch.Timestamp)
		if err != nil {
			return err
		}
		res.Ledger = lr
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, eris.Wrap(err, "pipeline: write sinks")
	}

	if p.opts.Store != nil {
		run, err := p.opts.Store.RecordRun(ctx, p.opts.SourceURL, batch, res.Skipped)
		if err != nil {
			return res, eris.Wrap(err, "pipeline: record run")
		}
		res.Run = run
		log.Info("pipeline: run recorded", zap.String("run_id", run.ID))
	}

	return res, nil
}

// Hold blocks for d or until ctx is done. A cancelled hold is not an error.
func Hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	zap.L().Info("pipeline: holding before exit", zap.Duration("hold", d))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
