// Package routing implements a statement-inspection filter that attaches
// routing hints. Each rule pairs a pattern with a list of named servers; the
// first rule whose pattern matches a statement yields a hint naming those
// servers. Matching can be restricted to a single user and to client
// addresses matching a source host with trailing-octet wildcards.
//
// Pattern semantics are delegated to the regexp package; this filter only
// matches and forwards.
package routing

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync/atomic"
)

// Hint asks the router to send a statement to one of the named servers.
type Hint struct {
	// Servers are the candidate server names, in rule order.
	Servers []string
}

// RuleConfig pairs a pattern with the servers a match diverts to.
type RuleConfig struct {
	// Match is the regular expression applied to statement text. It does not
	// need to match the complete statement; anchor it to enforce that.
	Match string

	// Servers are the named servers a matching statement is hinted to.
	Servers []string
}

// Config defines routing filter configuration
type Config struct {
	// Rules are evaluated in order; the first match wins.
	Rules []RuleConfig

	// User, when non-empty, restricts matching to sessions of this user.
	User string

	// Source, when non-empty, restricts matching to clients whose IPv4
	// address matches. Up to three trailing octets may be the wildcard '%',
	// e.g. "192.168.1.%".
	Source string
}

type rule struct {
	match   string
	re      *regexp.Regexp
	servers []string
}

// sourceHost is a parsed source restriction.
type sourceHost struct {
	address string
	octets  []string // leading non-wildcard octets
	exact   bool
}

// Engine is a compiled routing filter shared by all of its sessions.
type Engine struct {
	rules  []rule
	user   string
	source *sourceHost

	// approximate totals across sessions
	totalDiverted   int64
	totalUndiverted int64
}

// NewEngine compiles the configuration into an engine
func NewEngine(config *Config) (*Engine, error) {
	if config == nil || len(config.Rules) == 0 {
		return nil, fmt.Errorf("at least one routing rule is required")
	}

	rules := make([]rule, 0, len(config.Rules))
	for _, rc := range config.Rules {
		if len(rc.Servers) == 0 {
			return nil, fmt.Errorf("rule %q names no servers", rc.Match)
		}
		re, err := regexp.Compile(rc.Match)
		if err != nil {
			return nil, fmt.Errorf("invalid match pattern %q: %w", rc.Match, err)
		}
		rules = append(rules, rule{match: rc.Match, re: re, servers: rc.Servers})
	}

	engine := &Engine{rules: rules, user: config.User}
	if config.Source != "" {
		src, err := parseSourceHost(config.Source)
		if err != nil {
			return nil, err
		}
		engine.source = src
	}
	return engine, nil
}

// Session applies the engine to one client connection.
type Session struct {
	engine *Engine

	// active is decided once at session setup from the user and source
	// restrictions; an inactive session never diverts
	active bool

	nDiverted   int64
	nUndiverted int64
}

// NewSession creates a session for a client identified by user name and
// remote address (host or host:port).
func (e *Engine) NewSession(user, remoteAddr string) *Session {
	active := true
	if e.source != nil && !e.source.matches(remoteAddr) {
		active = false
	}
	if e.user != "" && user != e.user {
		active = false
	}
	return &Session{engine: e, active: active}
}

// RouteQuery inspects one statement and returns a routing hint, or nil when
// no rule matches or the session is inactive. The statement itself is never
// modified.
func (s *Session) RouteQuery(stmt string) *Hint {
	if !s.active {
		return nil
	}
	for _, r := range s.engine.rules {
		if r.re.MatchString(stmt) {
			atomic.AddInt64(&s.nDiverted, 1)
			atomic.AddInt64(&s.engine.totalDiverted, 1)
			return &Hint{Servers: r.servers}
		}
	}
	atomic.AddInt64(&s.nUndiverted, 1)
	atomic.AddInt64(&s.engine.totalUndiverted, 1)
	return nil
}

// Active reports whether the session passed the user and source restrictions.
func (s *Session) Active() bool {
	return s.active
}

// Stats returns the session's diverted/undiverted counters.
func (s *Session) Stats() (diverted, undiverted int64) {
	return atomic.LoadInt64(&s.nDiverted), atomic.LoadInt64(&s.nUndiverted)
}

// Diagnostics returns a human-readable summary of the mapping and counters.
func (e *Engine) Diagnostics() string {
	var b strings.Builder
	if len(e.rules) > 0 {
		b.WriteString("matches and routes:\n")
	}
	for _, r := range e.rules {
		fmt.Fprintf(&b, "  /%s/ -> %s\n", r.match, strings.Join(r.servers, ", "))
	}
	fmt.Fprintf(&b, "total queries diverted (approx.): %d\n", atomic.LoadInt64(&e.totalDiverted))
	fmt.Fprintf(&b, "total queries not diverted (approx.): %d\n", atomic.LoadInt64(&e.totalUndiverted))
	if e.source != nil {
		fmt.Fprintf(&b, "matching limited to connections from %s\n", e.source.address)
	}
	if e.user != "" {
		fmt.Fprintf(&b, "matching limited to user %s\n", e.user)
	}
	return b.String()
}

// parseSourceHost parses an IPv4 source restriction. Wildcard '%' octets may
// only trail concrete ones: "a.b.c.%" and "a.b.%.%" are valid, "a.%.b.%" is
// not.
func parseSourceHost(address string) (*sourceHost, error) {
	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid source address %q", address)
	}

	wild := false
	var octets []string
	for _, part := range parts {
		if part == "%" {
			wild = true
			continue
		}
		if wild {
			return nil, fmt.Errorf("invalid source address %q: wildcards must trail", address)
		}
		octets = append(octets, part)
	}

	if !wild {
		if net.ParseIP(address) == nil {
			return nil, fmt.Errorf("invalid source address %q", address)
		}
		return &sourceHost{address: address, exact: true}, nil
	}
	if len(octets) == 0 {
		return nil, fmt.Errorf("invalid source address %q: no concrete octets", address)
	}
	return &sourceHost{address: address, octets: octets}, nil
}

// matches checks a client address (host or host:port) against the
// restriction.
func (sh *sourceHost) matches(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	if sh.exact {
		return host == sh.address
	}
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for i, oct := range sh.octets {
		if parts[i] != oct {
			return false
		}
	}
	return true
}
