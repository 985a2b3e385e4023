// Package dataset loads a schema, its observations and a cluster
// assignment together and keeps them current while the files change.
package dataset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/hirm/errors"
	"github.com/teranos/hirm/logger"
	"github.com/teranos/hirm/parser"
	"github.com/teranos/hirm/types"
	"github.com/teranos/hirm/validate"
)

// DefaultDebounce is how long the watcher waits for file activity to settle
// before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Files names the on-disk sources of a dataset. Schema is required;
// an empty Observations or Clusters path leaves that part unloaded.
type Files struct {
	Schema       string `mapstructure:"schema" toml:"schema"`
	Observations string `mapstructure:"observations" toml:"observations"`
	Clusters     string `mapstructure:"clusters" toml:"clusters"`
}

// Paths returns the non-empty paths in schema, observations, clusters order.
func (f Files) Paths() []string {
	var out []string
	for _, p := range []string{f.Schema, f.Observations, f.Clusters} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Dataset is one consistent load of Files.
type Dataset struct {
	// ID identifies this load in logs; every reload gets a new one.
	ID           string
	Files        Files
	Schema       *types.Schema
	Observations []types.Observation
	Clusters     []types.Cluster
	// Report is set when the dataset was loaded with validation.
	Report   *validate.Report
	LoadedAt time.Time
}

// Encode assigns integer codes to the observed items of every domain.
func (d *Dataset) Encode() (*types.Encoding, error) {
	return types.Encode(d.Schema, d.Observations)
}

// Validate cross-checks the loaded parts and stores the report on d.
func (d *Dataset) Validate() *validate.Report {
	d.Report = validate.Validate(d.Schema, d.Observations, d.Clusters)
	return d.Report
}

type settings struct {
	parser   *parser.Parser
	validate bool
	strict   bool
	debounce time.Duration
	log      *zap.SugaredLogger
}

// Option configures Load and NewWatcher.
type Option func(*settings)

// WithParser sets the parser used for all three files.
func WithParser(p *parser.Parser) Option {
	return func(s *settings) { s.parser = p }
}

// WithValidation runs validate.Validate after loading and attaches the
// report. Violations are logged but do not fail the load.
func WithValidation() Option {
	return func(s *settings) { s.validate = true }
}

// WithStrictValidation is WithValidation where any violation fails the load
// with an error matching errors.ErrReferenceViolation.
func WithStrictValidation() Option {
	return func(s *settings) {
		s.validate = true
		s.strict = true
	}
}

// WithDebounce sets the watcher's settle period.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithLogger sets the logger for load and reload events.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *settings) { s.log = log }
}

func newSettings(opts []Option) *settings {
	s := &settings{
		debounce: DefaultDebounce,
		log:      logger.ComponentLogger("dataset"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = parser.New(parser.WithLogger(s.log.Named("parser")))
	}
	return s
}

// Load reads the files concurrently and returns the assembled dataset. The
// first failure cancels the rest and no partial dataset is returned.
func Load(ctx context.Context, files Files, opts ...Option) (*Dataset, error) {
	return load(ctx, files, newSettings(opts))
}

func load(ctx context.Context, files Files, s *settings) (*Dataset, error) {
	if files.Schema == "" {
		return nil, errors.WithHint(errors.New("dataset has no schema file"),
			"set dataset.schema in hirm.toml or Files.Schema")
	}

	start := time.Now()
	ds := &Dataset{ID: uuid.NewString(), Files: files}
	log := logger.ChildLogger(s.log, logger.FieldDatasetID, ds.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		schema, err := s.parser.LoadSchema(files.Schema)
		if err != nil {
			return err
		}
		ds.Schema = schema
		return nil
	})
	if files.Observations != "" {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			obs, err := s.parser.LoadObservations(files.Observations)
			if err != nil {
				return err
			}
			ds.Observations = obs
			return nil
		})
	}
	if files.Clusters != "" {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			clusters, err := s.parser.LoadClusters(files.Clusters)
			if err != nil {
				return err
			}
			ds.Clusters = clusters
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fields := []interface{}{logger.FieldError, err}
		if re, ok := parser.AsRecordError(err); ok {
			fields = append(fields,
				logger.FieldFile, re.Source,
				logger.FieldLine, re.Line,
				logger.FieldRecord, re.Record)
		}
		log.Warnw("Dataset load failed", fields...)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.validate {
		report := ds.Validate()
		if !report.OK() {
			log.Warnw("Dataset has reference violations",
				logger.FieldViolations, report.Len(),
				"first", report.Violations[0].String())
			if s.strict {
				return nil, report.Err()
			}
		}
	}

	ds.LoadedAt = time.Now()
	log.Infow("Dataset loaded",
		"relations", ds.Schema.Len(),
		"observations", len(ds.Observations),
		"clusters", len(ds.Clusters),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return ds, nil
}
