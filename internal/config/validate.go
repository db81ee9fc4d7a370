package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single validation finding. Path names the environment variable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate lints c and returns the findings in a stable order.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvJob,
			Message:  "job must not be empty; it labels metrics",
		})
	}
	if c.LogEvery <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvLogEvery,
			Message:  fmt.Sprintf("must be positive, got %d", c.LogEvery),
		})
	}

	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateCSV(c.CSV)...)
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case BackendNone, "":
		if m.PushgatewayURL != "" || m.StatsdAddr != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     EnvMetricsBackend,
				Message:  "metrics endpoint configured but backend is none",
			})
		}

	case BackendPushgateway:
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     EnvPushgatewayURL,
				Message:  "pushgateway backend requires a URL",
			})
			break
		}
		if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     EnvPushgatewayURL,
				Message:  fmt.Sprintf("invalid URL %q", m.PushgatewayURL),
			})
		}

	case BackendDatadog:
		if m.StatsdAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     EnvStatsdAddr,
				Message:  "datadog backend requires a DogStatsD address",
			})
		}
		for _, tag := range m.StatsdTags {
			if !strings.Contains(tag, ":") {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     EnvStatsdTags,
					Message:  fmt.Sprintf("tag %q is not key:value", tag),
				})
			}
		}

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     EnvMetricsBackend,
			Message:  fmt.Sprintf("unknown backend %q; use none, pushgateway or datadog", m.Backend),
		})
	}
	return issues
}

func validateCSV(c CSV) []Issue {
	if c.Comma == "" {
		return nil
	}
	r, size := utf8.DecodeRuneInString(c.Comma)
	switch {
	case size != len(c.Comma):
		return []Issue{{
			Severity: SeverityError,
			Path:     EnvCSVComma,
			Message:  fmt.Sprintf("delimiter %q must be a single character", c.Comma),
		}}
	case r == '\r' || r == '\n' || r == '"' || r == utf8.RuneError:
		return []Issue{{
			Severity: SeverityError,
			Path:     EnvCSVComma,
			Message:  fmt.Sprintf("delimiter %q is not allowed", c.Comma),
		}}
	}
	return nil
}
