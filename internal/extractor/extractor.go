// Package extractor classifies P2Pool log lines into typed updates.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/db4e/db4e-supervisor/internal/types"
	"github.com/shopspring/decimal"
)

const (
	logTimestampLayout = "2006-01-02 15:04"
	// EmptySharePosition is recorded when the pool reports no shares in
	// the PPLNS window.
	EmptySharePosition = "[..............................]"
)

// every pool log line starts with "YYYY-MM-DD HH:MM:SS.ffff", only the
// minute prefix is captured
const logTimestamp = `(\d{4}-\d{2}-\d{2} \d{2}:\d{2}):\d{2}\.\d{4}`

type rule struct {
	pattern *regexp.Regexp
	build   func(match []string, now time.Time) []Update
}

// Extractor holds the compiled rule table. It has no mutable state and is
// safe for concurrent use.
type Extractor struct {
	rules []rule
}

func New() *Extractor {
	return &Extractor{
		rules: []rule{
			{
				pattern: regexp.MustCompile(logTimestamp + ` StratumServer SHARE FOUND:.*client (\d+\.\d+\.\d+\.\d+):\d+, user (.+?), effort (\d+\.\d+)`),
				build:   buildShareFound,
			},
			{
				pattern: regexp.MustCompile(logTimestamp + ` P2Pool BLOCK FOUND`),
				build:   buildBlockFound,
			},
			{
				pattern: regexp.MustCompile(logTimestamp + ` .*got a payout of (\d+\.\d+) XMR`),
				build:   buildPayment,
			},
			{
				pattern: regexp.MustCompile(`Main chain hashrate\s.*=\s+(\S.*H/s)`),
				build:   buildHashrate(types.DocMainchainHashrate),
			},
			{
				pattern: regexp.MustCompile(`Side chain hashrate\s.*=\s+(\S.*H/s)`),
				build:   buildSidechainHashrate,
			},
			{
				pattern: regexp.MustCompile(`Hashrate \(1h\s+est\)\s.*=\s+(\S.*H/s)`),
				build:   buildHashrate(types.DocPoolHashrate),
			},
			{
				pattern: regexp.MustCompile(`Your shares position\s.*=\s+(\[.*\])`),
				build:   buildSharePosition,
			},
			{
				pattern: regexp.MustCompile(`Your shares\s.*=\s+0\s`),
				build:   buildNoShares,
			},
			{
				pattern: regexp.MustCompile(logTimestamp + ` StratumServer (\d+\.\d+\.\d+\.\d+):\d+\s+no\s+\d+h \d+m \d+s\s+\d+\s+(\d+(?:\.\d+)?) (K?)H/s\s+(\S.*)$`),
				build:   buildWorkerStat,
			},
		},
	}
}

// Extract evaluates every rule against line, a line may yield several
// updates. now stamps gauges, buckets, share position and worker stats.
func (e *Extractor) Extract(line string, now time.Time) []Update {
	var updates []Update
	for _, r := range e.rules {
		match := r.pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		updates = append(updates, r.build(match, now)...)
	}
	return updates
}

func parseLogTimestamp(s string) (time.Time, bool) {
	ts, err := time.ParseInLocation(logTimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func buildShareFound(match []string, _ time.Time) []Update {
	ts, ok := parseLogTimestamp(match[1])
	if !ok {
		return nil
	}
	effort, err := strconv.ParseFloat(match[4], 64)
	if err != nil {
		return nil
	}

	return []Update{DiscreteEvent{
		DocType:   types.DocShareFound,
		Timestamp: ts,
		IPAddr:    match[2],
		Worker:    match[3],
		Effort:    effort,
	}}
}

func buildBlockFound(match []string, _ time.Time) []Update {
	ts, ok := parseLogTimestamp(match[1])
	if !ok {
		return nil
	}

	return []Update{DiscreteEvent{
		DocType:   types.DocBlockFound,
		Timestamp: ts,
	}}
}

func buildPayment(match []string, _ time.Time) []Update {
	ts, ok := parseLogTimestamp(match[1])
	if !ok {
		return nil
	}
	amount, err := decimal.NewFromString(match[2])
	if err != nil {
		return nil
	}

	return []Update{DiscreteEvent{
		DocType:   types.DocXmrPayment,
		Timestamp: ts,
		Payment:   amount,
	}}
}

func buildHashrate(metric types.DocType) func([]string, time.Time) []Update {
	return func(match []string, now time.Time) []Update {
		return []Update{Hashrate{
			Metric:   metric,
			Value:    strings.TrimSpace(match[1]),
			Observed: now,
		}}
	}
}

// the sidechain miner count is sampled whenever the sidechain hashrate is
// reported
func buildSidechainHashrate(match []string, now time.Time) []Update {
	updates := buildHashrate(types.DocSidechainHashrate)(match, now)
	return append(updates, SidechainMinersRefresh{Observed: now})
}

func buildSharePosition(match []string, now time.Time) []Update {
	return []Update{SharePosition{
		Position: match[1],
		Observed: now,
	}}
}

func buildNoShares(_ []string, now time.Time) []Update {
	return []Update{SharePosition{
		Position: EmptySharePosition,
		Observed: now,
	}}
}

func buildWorkerStat(match []string, now time.Time) []Update {
	rate, err := strconv.ParseFloat(match[3], 64)
	if err != nil {
		return nil
	}
	// rates are reported in H/s or KH/s
	if match[4] == "K" {
		rate *= 1000
	}

	return []Update{WorkerStat{
		Worker:   strings.TrimSpace(match[5]),
		IPAddr:   match[2],
		Hashrate: int64(rate),
		Observed: now,
	}}
}
