package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccollicutt/tanklog/pkg/charset"
	"github.com/ccollicutt/tanklog/pkg/dataset"
)

// sampleNamespace scopes synthetic sample ids.
var sampleNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tanklog:sample"))

// Parser turns log data into a dataset. A Parser holds no per-parse state
// and can be used from several goroutines at once; every call builds an
// independent dataset.
type Parser struct {
	logger   *zap.Logger
	grouping GroupingPolicy
}

// Option configures the Parser.
type Option func(*Parser)

// WithLogger sets the logger used for debug output about dropped rows.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithGrouping sets the policy that assigns rows to entities.
func WithGrouping(g GroupingPolicy) Option {
	return func(p *Parser) {
		if g != nil {
			p.grouping = g
		}
	}
}

// New creates a Parser. By default it infers the entity column and logs
// nothing.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger:   zap.NewNop(),
		grouping: InferredColumn{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grouping returns the configured grouping policy.
func (p *Parser) Grouping() GroupingPolicy {
	return p.grouping
}

// ParseFile reads and parses one log file. Only failing to read the file is
// an error; malformed content simply yields fewer samples.
func (p *Parser) ParseFile(ctx context.Context, path string) (*dataset.Dataset, error) {
	data, _, err := ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.parse(ctx, data, path)
}

// Parse reads r to the end and parses it. source is recorded on the dataset
// and may be empty.
func (p *Parser) Parse(ctx context.Context, r io.Reader, source string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading log data: %w", err)
	}
	data, _, err = Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing log data: %w", err)
	}
	return p.parse(ctx, data, source)
}

// ParseBytes parses an in-memory buffer.
func (p *Parser) ParseBytes(ctx context.Context, data []byte, source string) (*dataset.Dataset, error) {
	data, _, err := Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing log data: %w", err)
	}
	return p.parse(ctx, data, source)
}

func (p *Parser) parse(ctx context.Context, data []byte, source string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.logger.With(zap.String("source", source))

	text, cs := charset.DecodeDetected(data)
	log.Debug("decoded log data", zap.String("encoding", cs.Name), zap.Int("bytes", len(data)))

	rows, stats, err := Segment(ctx, text)
	if err != nil {
		return nil, err
	}

	resolve := p.grouping.Bind(rows)
	b := dataset.NewBuilder(source)
	dropped := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := assemble(row, resolve)
		if err != nil {
			dropped++
			log.Debug("dropped row", zap.Int("line", row.Line), zap.Error(err))
			continue
		}
		b.Add(s)
	}

	ds := b.Build()
	log.Debug("parsed log",
		zap.String("grouping", p.grouping.Name()),
		zap.Int("blocks", stats.Blocks),
		zap.Int("rows", len(rows)),
		zap.Int("short_rows", stats.ShortRows),
		zap.Int("dropped", dropped),
		zap.Int("entities", ds.EntityCount()),
		zap.Int("samples", ds.Len()),
	)
	return ds, nil
}

// assemble resolves one row into a sample.
func assemble(row Row, resolve EntityResolver) (dataset.Sample, error) {
	if row.Width() < MinFields {
		return dataset.Sample{}, ErrTooFewFields
	}

	entity := resolve(row)

	ts, err := ResolveTimestamp(row)
	if err != nil {
		return dataset.Sample{}, err
	}

	value, err := ParseNumber(row.Field(ValueField))
	if err != nil {
		return dataset.Sample{}, err
	}

	return dataset.NewSample(entity, sampleID(row, entity, ts), ts.Time, value, row.Fields, row.Raw), nil
}

// sampleID returns the row's own record id, or a synthetic id derived from
// entity, timestamp and row index when the first field is blank or was
// consumed as the date.
func sampleID(row Row, entity string, ts Resolution) string {
	if id := row.Field(0); !isBlank(id) && !ts.DateFromField {
		return id
	}
	name := entity + "|" + ts.Time.Format(dataset.TimestampLayout) + "|" + strconv.Itoa(row.Index)
	return uuid.NewSHA1(sampleNamespace, []byte(name)).String()
}

// IsRowError reports whether err is a row-level failure.
func IsRowError(err error) bool {
	return errors.Is(err, ErrTooFewFields) || errors.Is(err, ErrTimestamp) || errors.Is(err, ErrNumber)
}
