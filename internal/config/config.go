// Package config holds the process-level settings shared by every tool.
//
// Tools take their data on stdin and their few behavioural flags on the
// command line; everything operational (job name, verbosity, metrics sink,
// text delimiter) comes from BSV_* environment variables so a whole shell
// pipeline can be configured at once:
//
//	BSV_JOB=nightly BSV_METRICS_BACKEND=pushgateway \
//	BSV_PUSHGATEWAY_URL=http://localhost:9091 \
//	  bsv < in.csv | bschema 8,a:u64,... --filter | csv > out.csv
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvJob             = "BSV_JOB"
	EnvVerbose         = "BSV_VERBOSE"
	EnvLogEvery        = "BSV_LOG_EVERY"
	EnvMetricsBackend  = "BSV_METRICS_BACKEND"
	EnvPushgatewayURL  = "BSV_PUSHGATEWAY_URL"
	EnvStatsdAddr      = "BSV_STATSD_ADDR"
	EnvStatsdNamespace = "BSV_STATSD_NAMESPACE"
	EnvStatsdTags      = "BSV_STATSD_TAGS"
	EnvCSVComma        = "BSV_CSV_COMMA"
	EnvCSVTrim         = "BSV_CSV_TRIM"
)

// Metrics backend names.
const (
	BackendNone        = "none"
	BackendPushgateway = "pushgateway"
	BackendDatadog     = "datadog"
)

// Config is the resolved process configuration.
type Config struct {
	// Job labels metrics; defaults to the tool name.
	Job string

	// Verbose enables progress logging on stderr.
	Verbose bool

	// LogEvery is the row interval between progress lines in verbose mode.
	LogEvery int64

	Metrics Metrics
	CSV     CSV
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend         string
	PushgatewayURL  string
	StatsdAddr      string
	StatsdNamespace string
	StatsdTags      []string
}

// CSV configures the text side of bsv and csv.
type CSV struct {
	// Comma is the raw delimiter setting; see Config.Comma for the rune.
	Comma     string
	TrimSpace bool
}

// Options is a typed view over string settings. Accessors return the default
// when a key is absent, blank, or does not parse.
type Options map[string]string

// String returns the trimmed value for key or def if it is missing or blank.
func (o Options) String(key, def string) string {
	if v := strings.TrimSpace(o[key]); v != "" {
		return v
	}
	return def
}

// Bool accepts the forms strconv.ParseBool knows.
func (o Options) Bool(key string, def bool) bool {
	if v := strings.TrimSpace(o[key]); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int64 returns the base-10 value for key or def.
func (o Options) Int64(key string, def int64) int64 {
	if v := strings.TrimSpace(o[key]); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// StringSlice splits a comma-separated value, dropping blank items. Returns
// nil when the key is missing.
func (o Options) StringSlice(key string) []string {
	v, ok := o[key]
	if !ok {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Environ collects the BSV_* variables from the process environment.
func Environ() Options {
	return FromLookup(os.LookupEnv)
}

// FromLookup collects the known variables through lookup.
func FromLookup(lookup func(string) (string, bool)) Options {
	o := Options{}
	for _, k := range []string{
		EnvJob, EnvVerbose, EnvLogEvery, EnvMetricsBackend, EnvPushgatewayURL,
		EnvStatsdAddr, EnvStatsdNamespace, EnvStatsdTags, EnvCSVComma, EnvCSVTrim,
	} {
		if v, ok := lookup(k); ok {
			o[k] = v
		}
	}
	return o
}

// Load resolves a Config from o; tool is the default job name. Load never
// fails; call Validate to lint the result.
func Load(tool string, o Options) Config {
	return Config{
		Job:      o.String(EnvJob, tool),
		Verbose:  o.Bool(EnvVerbose, false),
		LogEvery: o.Int64(EnvLogEvery, 1_000_000),
		Metrics: Metrics{
			Backend:         strings.ToLower(o.String(EnvMetricsBackend, BackendNone)),
			PushgatewayURL:  o.String(EnvPushgatewayURL, ""),
			StatsdAddr:      o.String(EnvStatsdAddr, ""),
			StatsdNamespace: o.String(EnvStatsdNamespace, ""),
			StatsdTags:      o.StringSlice(EnvStatsdTags),
		},
		CSV: CSV{
			Comma:     o[EnvCSVComma],
			TrimSpace: o.Bool(EnvCSVTrim, false),
		},
	}
}

// Comma returns the text delimiter rune, ',' when unset.
func (c Config) Comma() rune {
	if c.CSV.Comma == "" {
		return ','
	}
	return []rune(c.CSV.Comma)[0]
}
