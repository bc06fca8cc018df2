package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/velden/splitgen/internal/split/common/utils"
	"github.com/velden/splitgen/internal/split/services/pipeline"
)

const sectionRule = "#=================================================="

// writeHeader emits the shared preamble: mode line, timestamp, and the
// checksums of the source lists that fed the run.
func (e *Emitter) writeHeader(b *strings.Builder, mode, policy, stamp string, res *pipeline.Result) {
	fmt.Fprintf(b, "# AdGuard Home DNS diversion rules, %s\n", mode)
	fmt.Fprintf(b, "# Generated at %s Asia/Shanghai\n", stamp)
	fmt.Fprintf(b, "# %s\n", policy)
	if len(res.Lists) > 0 {
		b.WriteString("# Sources:\n")
		for _, list := range res.Lists {
			suffix := ""
			if list.FromCache {
				suffix = " (cached)"
			}
			fmt.Fprintf(b, "#   %s sha256:%s%s\n", list.Source.Name, list.Checksum, suffix)
		}
	}
	if !e.opts.CustomDNS.Empty() {
		b.WriteString("# Includes custom domain DNS rules\n")
	}
	b.WriteString("\n")
}

// writeDefaults emits the default upstream block.
func writeDefaults(b *strings.Builder, label string, servers []string) {
	fmt.Fprintf(b, "# Default upstream DNS servers (%s)\n", label)
	for _, s := range servers {
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// writeCustomSingle emits one `[/domain/]servers` line per custom domain.
func (e *Emitter) writeCustomSingle(b *strings.Builder) {
	groups := e.customByDomain()
	if len(groups) == 0 {
		return
	}
	b.WriteString(sectionRule + "\n")
	b.WriteString("# Custom domain DNS rules (one per domain)\n")
	b.WriteString(sectionRule + "\n")
	for _, g := range groups {
		fmt.Fprintf(b, "[/%s/]%s\n", g.Domains[0], strings.Join(g.Servers, " "))
	}
	b.WriteString("\n")
}

// writeCustomGrouped emits one `[/d1/d2/] servers` line per custom group.
func (e *Emitter) writeCustomGrouped(b *strings.Builder) {
	if e.opts.CustomDNS.Empty() {
		return
	}
	b.WriteString(sectionRule + "\n")
	b.WriteString("# Custom domain DNS rules (grouped)\n")
	b.WriteString(sectionRule + "\n")
	for _, g := range e.opts.CustomDNS.Groups {
		fmt.Fprintf(b, "[/%s/] %s\n", strings.Join(g.Domains, "/"), strings.Join(g.Servers, " "))
	}
	b.WriteString("\n")
}

// renderWhitelistSingle renders one diversion rule per domestic domain, with
// the foreign servers as default upstreams.
func (e *Emitter) renderWhitelistSingle(domestic []string, res *pipeline.Result, stamp string) []byte {
	var b strings.Builder
	e.writeHeader(&b, "whitelist mode (one rule per domain)",
		"Domestic domains resolve via domestic DNS, everything else via the default upstreams", stamp, res)
	writeDefaults(&b, "foreign", e.opts.ForeignDNS)
	e.writeCustomSingle(&b)

	b.WriteString(sectionRule + "\n")
	fmt.Fprintf(&b, "# Domestic domain rules (%d domains)\n", len(domestic))
	b.WriteString(sectionRule + "\n")
	dns := strings.Join(e.opts.DomesticDNS, " ")
	for _, d := range domestic {
		fmt.Fprintf(&b, "[/%s/]%s\n", d, dns)
	}
	return []byte(b.String())
}

// renderWhitelistGrouped renders the whitelist with all domestic domains
// merged into a single grouped rule.
func (e *Emitter) renderWhitelistGrouped(domestic []string, res *pipeline.Result, stamp string) []byte {
	var b strings.Builder
	e.writeHeader(&b, "whitelist mode (grouped)",
		"Domestic domains resolve via domestic DNS, everything else via the default upstreams", stamp, res)
	writeDefaults(&b, "foreign", e.opts.ForeignDNS)
	e.writeCustomGrouped(&b)

	b.WriteString(sectionRule + "\n")
	fmt.Fprintf(&b, "# Domestic domain rules (%d domains, merged)\n", len(domestic))
	b.WriteString(sectionRule + "\n")
	if len(domestic) > 0 {
		fmt.Fprintf(&b, "[/%s/] %s\n", strings.Join(domestic, "/"), strings.Join(e.opts.DomesticDNS, " "))
	}
	return []byte(b.String())
}

// renderBlacklistBatched renders the blacklist with foreign domains batched
// into grouped rules of at most GroupSize domains each.
func (e *Emitter) renderBlacklistBatched(foreign []string, res *pipeline.Result, stamp string) []byte {
	var b strings.Builder
	e.writeHeader(&b, "blacklist mode (batched)",
		"Foreign domains resolve via foreign DNS, everything else via the default upstreams", stamp, res)
	writeDefaults(&b, "domestic", e.opts.DomesticDNS)
	e.writeCustomSingle(&b)

	b.WriteString(sectionRule + "\n")
	fmt.Fprintf(&b, "# Foreign domain rules (%d domains, %d per rule)\n", len(foreign), e.opts.GroupSize)
	b.WriteString(sectionRule + "\n")
	dns := strings.Join(e.opts.ForeignDNS, " ")
	for start := 0; start < len(foreign); start += e.opts.GroupSize {
		end := start + e.opts.GroupSize
		if end > len(foreign) {
			end = len(foreign)
		}
		fmt.Fprintf(&b, "[/%s/] %s\n", strings.Join(foreign[start:end], "/"), dns)
	}
	return []byte(b.String())
}

// renderBlacklistGrouped renders the blacklist with all foreign domains
// merged into a single grouped rule.
func (e *Emitter) renderBlacklistGrouped(foreign []string, res *pipeline.Result, stamp string) []byte {
	var b strings.Builder
	e.writeHeader(&b, "blacklist mode (grouped)",
		"Foreign domains resolve via foreign DNS, everything else via the default upstreams", stamp, res)
	writeDefaults(&b, "domestic", e.opts.DomesticDNS)
	e.writeCustomGrouped(&b)

	b.WriteString(sectionRule + "\n")
	fmt.Fprintf(&b, "# Foreign domain rules (%d domains, merged)\n", len(foreign))
	b.WriteString(sectionRule + "\n")
	if len(foreign) > 0 {
		fmt.Fprintf(&b, "[/%s/] %s\n", strings.Join(foreign, "/"), strings.Join(e.opts.ForeignDNS, " "))
	}
	return []byte(b.String())
}

// renderPlain renders a bare sorted domain list, one per line.
func renderPlain(domains []string) []byte {
	var b strings.Builder
	for _, d := range domains {
		b.WriteString(d)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// renderQuanX collapses the domestic domains to their registrable suffixes
// and renders QuanX direct rules.
func renderQuanX(domestic []string, stamp string) []byte {
	seen := make(map[string]struct{}, len(domestic))
	suffixes := make([]string, 0, len(domestic))
	for _, d := range domestic {
		s := utils.RegistrableDomain(d)
		if s == "" || !strings.Contains(s, ".") {
			continue // bare TLD overrides have no registrable suffix
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	var b strings.Builder
	b.WriteString("# QuanX direct whitelist rules\n")
	fmt.Fprintf(&b, "# Generated at %s Asia/Shanghai\n", stamp)
	b.WriteString("# Format: host-suffix, domain, DIRECT\n\n")
	for _, s := range suffixes {
		fmt.Fprintf(&b, "host-suffix, %s, DIRECT\n", s)
	}
	return []byte(b.String())
}
