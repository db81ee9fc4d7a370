package config

import (
	"reflect"
	"strings"
	"testing"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

/*
An empty environment yields the tool name as job, metrics disabled and the
comma delimiter.
*/
func TestLoad_Defaults(t *testing.T) {
	c := Load("bschema", FromLookup(lookupMap(nil)))

	if c.Job != "bschema" {
		t.Fatalf("Job=%q; want bschema", c.Job)
	}
	if c.Verbose {
		t.Fatal("Verbose should default to false")
	}
	if c.LogEvery != 1_000_000 {
		t.Fatalf("LogEvery=%d; want 1000000", c.LogEvery)
	}
	if c.Metrics.Backend != BackendNone {
		t.Fatalf("Backend=%q; want none", c.Metrics.Backend)
	}
	if c.Comma() != ',' {
		t.Fatalf("Comma()=%q; want ','", c.Comma())
	}
	if issues := Validate(c); len(issues) != 0 {
		t.Fatalf("defaults should be valid; got %+v", issues)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	env := map[string]string{
		EnvJob:             "nightly",
		EnvVerbose:         "1",
		EnvLogEvery:        "500",
		EnvMetricsBackend:  "DataDog",
		EnvStatsdAddr:      "127.0.0.1:8125",
		EnvStatsdNamespace: "bsv.",
		EnvStatsdTags:      "env:prod, team:data,,",
		EnvCSVComma:        "\t",
		EnvCSVTrim:         "true",
		"UNRELATED":        "x",
	}
	o := FromLookup(lookupMap(env))
	if _, ok := o["UNRELATED"]; ok {
		t.Fatal("FromLookup picked up an unknown variable")
	}

	c := Load("bsv", o)
	want := Config{
		Job:      "nightly",
		Verbose:  true,
		LogEvery: 500,
		Metrics: Metrics{
			Backend:         BackendDatadog,
			StatsdAddr:      "127.0.0.1:8125",
			StatsdNamespace: "bsv.",
			StatsdTags:      []string{"env:prod", "team:data"},
		},
		CSV: CSV{Comma: "\t", TrimSpace: true},
	}
	if !reflect.DeepEqual(c, want) {
		t.Fatalf("Load=%+v; want %+v", c, want)
	}
	if c.Comma() != '\t' {
		t.Fatalf("Comma()=%q; want tab", c.Comma())
	}
}

/*
Unparseable values fall back to their defaults instead of failing.
*/
func TestOptions_BadValuesUseDefault(t *testing.T) {
	o := Options{"b": "maybe", "n": "ten", "s": "   "}
	if o.Bool("b", true) != true {
		t.Fatal("Bool fallback")
	}
	if o.Int64("n", 7) != 7 {
		t.Fatal("Int64 fallback")
	}
	if o.String("s", "d") != "d" {
		t.Fatal("String fallback on blank")
	}
	if o.StringSlice("missing") != nil {
		t.Fatal("StringSlice on missing key should be nil")
	}
}

func hasIssue(issues []Issue, sev IssueSeverity, path, msg string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msg) {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	base := func() Config { return Load("bsv", Options{}) }

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(c *Config) { c.Job = " " }, SeverityError, EnvJob, "must not be empty"},
		{"log every", func(c *Config) { c.LogEvery = 0 }, SeverityError, EnvLogEvery, "must be positive"},
		{"unknown backend", func(c *Config) { c.Metrics.Backend = "graphite" }, SeverityError, EnvMetricsBackend, "unknown backend"},
		{"pushgateway without url", func(c *Config) { c.Metrics.Backend = BackendPushgateway }, SeverityError, EnvPushgatewayURL, "requires a URL"},
		{"pushgateway bad url", func(c *Config) {
			c.Metrics.Backend = BackendPushgateway
			c.Metrics.PushgatewayURL = "localhost"
		}, SeverityError, EnvPushgatewayURL, "invalid URL"},
		{"datadog without addr", func(c *Config) { c.Metrics.Backend = BackendDatadog }, SeverityError, EnvStatsdAddr, "DogStatsD"},
		{"datadog bad tag", func(c *Config) {
			c.Metrics.Backend = BackendDatadog
			c.Metrics.StatsdAddr = "localhost:8125"
			c.Metrics.StatsdTags = []string{"prod"}
		}, SeverityWarning, EnvStatsdTags, "not key:value"},
		{"endpoint without backend", func(c *Config) { c.Metrics.PushgatewayURL = "http://x:9091" }, SeverityWarning, EnvMetricsBackend, "backend is none"},
		{"multi-char comma", func(c *Config) { c.CSV.Comma = "||" }, SeverityError, EnvCSVComma, "single character"},
		{"quote comma", func(c *Config) { c.CSV.Comma = `"` }, SeverityError, EnvCSVComma, "not allowed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			issues := Validate(c)
			if !hasIssue(issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("want %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
			if got := HasErrors(issues); got != (tc.sev == SeverityError) {
				t.Fatalf("HasErrors=%v for %+v", got, issues)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: EnvJob, Message: "bad"}
	if got, want := iss.Error(), "error at BSV_JOB: bad"; got != want {
		t.Fatalf("Error()=%q; want %q", got, want)
	}
}
