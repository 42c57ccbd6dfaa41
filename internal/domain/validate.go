package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity of a registry Problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one finding of the registry validation pass.
type Problem struct {
	Pool     string
	Field    string
	Message  string
	Severity Severity
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: pool %q field %s: %s", p.Severity, p.Pool, p.Field, p.Message)
}

// ValidationError aggregates every hard error found in a registry.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid registry: " + e.Problems[0].String()
	}
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.String())
	}
	return fmt.Sprintf("invalid registry (%d problems): %s", len(e.Problems), strings.Join(msgs, "; "))
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-_][A-Za-z0-9]+)*$`)

// reservedNames are first path segments served by fixed routes; a pool with
// one of these names could never be reached at /{name}.
var reservedNames = map[string]struct{}{
	"api":     {},
	"healthz": {},
	"readyz":  {},
	"infra":   {},
	"metrics": {},
	"reload":  {},
}

// Validate checks descriptors against the registry rules.
//
// Errors (returned as *ValidationError): empty, non URL-safe or reserved
// name, duplicate name, zero or duplicate pool address, duplicate hostname
// override, maxStaked <= 0, unknown enum values, unsupported analytic kinds.
//
// Warnings (returned, never fatal): a redirect on a listed pool that is not
// marked notFound, and names that are not lowercase.
func Validate(pools []PoolDescriptor) ([]Problem, error) {
	var errs, warns []Problem

	fail := func(d PoolDescriptor, field, format string, args ...any) {
		errs = append(errs, Problem{Pool: d.Key(), Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
	}
	warn := func(d PoolDescriptor, field, format string, args ...any) {
		warns = append(warns, Problem{Pool: d.Key(), Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
	}

	names := make(map[string]int, len(pools))
	addrs := make(map[PublicKey]int, len(pools))
	hosts := make(map[string]int, len(pools))

	for i, d := range pools {
		switch {
		case d.Name == "":
			fail(d, "name", "is required")
		case !nameRe.MatchString(d.Name):
			fail(d, "name", "%q is not URL-safe (letters, digits, single '-' or '_' separators)", d.Name)
		case isReservedName(d.Name):
			fail(d, "name", "%q is reserved by a fixed route", d.Name)
		case strings.ToLower(d.Name) != d.Name:
			warn(d, "name", "%q should be lowercase kebab-case", d.Name)
		}
		if prev, dup := names[d.Name]; dup && d.Name != "" {
			fail(d, "name", "duplicates entry #%d", prev)
		} else {
			names[d.Name] = i
		}

		if d.PoolAddress.IsZero() {
			fail(d, "poolAddress", "is required")
		} else if prev, dup := addrs[d.PoolAddress]; dup {
			fail(d, "poolAddress", "%s duplicates entry #%d (%s)", d.PoolAddress, prev, pools[prev].Key())
		} else {
			addrs[d.PoolAddress] = i
		}

		if d.HostnameOverride != "" {
			if prev, dup := hosts[d.HostnameOverride]; dup {
				fail(d, "hostname", "%q already mapped to %s", d.HostnameOverride, pools[prev].Key())
			} else {
				hosts[d.HostnameOverride] = i
			}
		}

		if d.MaxStaked != nil && *d.MaxStaked <= 0 {
			fail(d, "maxStaked", "must be > 0, got %d", *d.MaxStaked)
		}
		if !d.ReceiptKind.Valid() {
			fail(d, "receiptType", "unknown value %d", int(d.ReceiptKind))
		}
		if !d.TokenStandard.Valid() {
			fail(d, "tokenStandard", "unknown value %d", int(d.TokenStandard))
		}
		for _, a := range d.Analytics {
			if a.Kind != AnalyticKindStaked {
				fail(d, "analytics", "unsupported kind %q", a.Kind)
			}
		}
		for _, r := range d.DisallowedRegions {
			if strings.TrimSpace(r.Code) == "" {
				fail(d, "disallowRegions", "region code is required")
			}
		}

		if d.RedirectURL != "" && !d.Hidden && !d.NotFound {
			warn(d, "redirect", "listed pool redirects to %s; mark it hidden or notFound to make the intent explicit", d.RedirectURL)
		}
	}

	if len(errs) > 0 {
		return warns, &ValidationError{Problems: errs}
	}
	return warns, nil
}

func isReservedName(name string) bool {
	_, ok := reservedNames[strings.ToLower(name)]
	return ok
}
