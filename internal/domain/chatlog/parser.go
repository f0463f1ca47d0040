// Package chatlog turns exported chat text into records and narrows them
// down to the messages that count as check-ins.
package chatlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/okian/waffles/internal/domain/model"
)

// TimestampLayout is the day-month-year hour:minute form used by chat exports.
const TimestampLayout = "02-01-2006 15:04"

// DefaultPattern matches "<dd-mm-yyyy HH:MM> - <author>: <message>" and the
// author-less system form "<dd-mm-yyyy HH:MM> - <message>".
const DefaultPattern = `^(\d{2}-\d{2}-\d{4} \d{2}:\d{2}) - (?:(.*?): )?(.*)$`

const maxLineBytes = 1 << 20

// Result is the outcome of parsing one export.
type Result struct {
	Records []model.Record
	Lines   int // lines read
	Skipped int // lines that did not parse
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithPattern replaces the line pattern. The pattern must capture either
// (timestamp, author, message) or (timestamp, message).
func WithPattern(re *regexp.Regexp) Option {
	return func(p *Parser) {
		if re != nil {
			p.pattern = re
		}
	}
}

// Parser reads chat exports line by line.
type Parser struct {
	pattern *regexp.Regexp
}

// NewParser creates a parser using DefaultPattern in UTC.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		pattern: regexp.MustCompile(DefaultPattern),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CompilePattern validates a custom line pattern.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPattern, err)
	}
	if n := re.NumSubexp(); n != 2 && n != 3 {
		return nil, fmt.Errorf("%w: want 2 or 3 groups, got %d", ErrPattern, n)
	}
	return re, nil
}

// Parse reads r to the end and returns the records in file order.
// Lines that do not match are skipped, as are lines longer than the line
// limit. A read failure discards everything.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		line, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if res.Lines%1024 == 0 && ctx.Err() != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrRead, ctx.Err())
		}
		res.Lines++
		if tooLong {
			res.Skipped++
			continue
		}
		if res.Lines == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		rec, ok := p.ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// readLine returns the next line without its terminator. Lines over
// maxLineBytes are drained and reported as tooLong. io.EOF is returned only
// when no further line exists; a final line without a newline is returned.
func readLine(br *bufio.Reader) (string, bool, error) {
	var (
		buf     []byte
		read    bool
		tooLong bool
	)
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && read {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(frag) > maxLineBytes {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// ParseLine parses a single line. It reports false for lines that do not match
// the pattern, carry an impossible timestamp, or name an author with an empty
// message.
func (p *Parser) ParseLine(line string) (model.Record, bool) {
	line = strings.TrimLeftFunc(strings.TrimRight(line, "\r\n"), unicode.IsSpace)
	idx := p.pattern.FindStringSubmatchIndex(line)
	if idx == nil {
		return model.Record{}, false
	}
	group := func(i int) (string, bool) {
		if idx[2*i] < 0 {
			return "", false
		}
		return line[idx[2*i]:idx[2*i+1]], true
	}

	stamp, _ := group(1)
	ts, err := time.ParseInLocation(TimestampLayout, stamp, time.UTC)
	if err != nil {
		return model.Record{}, false
	}

	rec := model.Record{Timestamp: ts}
	var msg string
	switch p.pattern.NumSubexp() {
	case 3:
		if author, ok := group(2); ok {
			rec.Author = &author
		}
		msg, _ = group(3)
	default:
		msg, _ = group(2)
	}
	rec.Message = strings.TrimSpace(msg)
	if rec.Author != nil && rec.Message == "" {
		return model.Record{}, false
	}
	return rec, true
}
