// Package emit renders aggregation results into AdGuard Home upstream
// configuration files plus the auxiliary plain-list and QuanX outputs.
package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/velden/splitgen/internal/split/common/clock"
	"github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/repos/customdns"
	"github.com/velden/splitgen/internal/split/services/pipeline"
)

// WriteError reports a failure to produce one output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("writing %s: %v", e.Path, e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// Filenames names the generated files inside the output directory.
type Filenames struct {
	Whitelist        string
	WhitelistGrouped string
	Blacklist        string
	BlacklistGrouped string
	CNPlain          string
	ForeignPlain     string
	QuanX            string
}

// Options configures an Emitter.
type Options struct {
	OutputDir string
	Files     Filenames

	DomesticDNS []string
	ForeignDNS  []string

	// CustomDNS carries per-domain DNS rules; matching domains are pulled
	// out of the generated category rules and emitted in their own section.
	CustomDNS *customdns.Rules

	// DomesticOverrides are the user's domestic override patterns; they are
	// excluded from the blacklist outputs.
	DomesticOverrides []string

	// GroupSize caps how many domains share one grouped blacklist rule.
	GroupSize int

	// DryRun renders everything but leaves existing files untouched.
	DryRun bool

	Clock  clock.Clock
	Logger log.Logger
}

// Emitter writes the output surface for one run.
type Emitter struct {
	opts     Options
	location *time.Location
	excluded map[string]struct{}
}

var _ pipeline.Emitter = (*Emitter)(nil)

// New constructs an Emitter.
func New(opts Options) (*Emitter, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("emitter requires an output directory")
	}
	if opts.GroupSize < 1 {
		return nil, fmt.Errorf("group size must be at least 1, got %d", opts.GroupSize)
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("emitter requires a logger")
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if len(opts.DomesticDNS) == 0 {
		opts.DomesticDNS = DefaultDomesticDNS
	}
	if len(opts.ForeignDNS) == 0 {
		opts.ForeignDNS = DefaultForeignDNS
	}

	// Generation timestamps are rendered in Beijing time to match the
	// audience of the generated files.
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}

	excluded := make(map[string]struct{}, len(opts.DomesticOverrides))
	for _, p := range opts.DomesticOverrides {
		excluded[p] = struct{}{}
	}
	return &Emitter{opts: opts, location: loc, excluded: excluded}, nil
}

// Emit renders and writes every output file. Each file is written atomically
// via a temp file and rename, so a failed run never leaves a partial file.
func (e *Emitter) Emit(_ context.Context, res *pipeline.Result) error {
	domestic := e.filterCustom(res.Domestic.Sorted())
	foreign := e.filterCustom(res.Foreign.Sorted())
	blacklist := e.filterOverridden(foreign)
	stamp := e.opts.Clock.Now().In(e.location).Format("2006-01-02 15:04:05")

	outputs := []struct {
		name string
		body []byte
	}{
		{e.opts.Files.Whitelist, e.renderWhitelistSingle(domestic, res, stamp)},
		{e.opts.Files.WhitelistGrouped, e.renderWhitelistGrouped(domestic, res, stamp)},
		{e.opts.Files.Blacklist, e.renderBlacklistBatched(blacklist, res, stamp)},
		{e.opts.Files.BlacklistGrouped, e.renderBlacklistGrouped(blacklist, res, stamp)},
		{e.opts.Files.CNPlain, renderPlain(res.Domestic.Sorted())},
		{e.opts.Files.ForeignPlain, renderPlain(res.Foreign.Sorted())},
		{e.opts.Files.QuanX, renderQuanX(domestic, stamp)},
	}

	for _, out := range outputs {
		if out.name == "" {
			continue
		}
		path := filepath.Join(e.opts.OutputDir, out.name)
		if e.opts.DryRun {
			e.opts.Logger.Info(map[string]any{"path": path, "bytes": len(out.body)}, "dry run, file not written")
			continue
		}
		if err := writeAtomic(path, out.body); err != nil {
			return &WriteError{Path: path, Err: err}
		}
		e.opts.Logger.Info(map[string]any{"path": path, "bytes": len(out.body)}, "output written")
	}
	return nil
}

// filterCustom removes domains covered by a custom DNS rule; those are
// emitted in the dedicated custom section instead.
func (e *Emitter) filterCustom(domains []string) []string {
	if e.opts.CustomDNS.Empty() {
		return domains
	}
	out := domains[:0:0]
	for _, d := range domains {
		if e.opts.CustomDNS.Matches(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// filterOverridden drops the user's domestic override patterns from a
// blacklist domain list.
func (e *Emitter) filterOverridden(domains []string) []string {
	if len(e.excluded) == 0 {
		return domains
	}
	out := domains[:0:0]
	for _, d := range domains {
		if _, ok := e.excluded[d]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// customByDomain flattens the custom DNS groups into a sorted per-domain
// view for the one-rule-per-line outputs.
func (e *Emitter) customByDomain() []customdns.Group {
	if e.opts.CustomDNS.Empty() {
		return nil
	}
	var out []customdns.Group
	for _, g := range e.opts.CustomDNS.Groups {
		for _, d := range g.Domains {
			out = append(out, customdns.Group{Domains: []string{d}, Servers: g.Servers})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domains[0] < out[j].Domains[0] })
	return out
}

// writeAtomic writes data to path via a temp file in the same directory
// followed by a rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
