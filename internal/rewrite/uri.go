package rewrite

import (
	"regexp"
	"strings"
)

// Generic URI syntax, RFC 3986 appendix A. Every group is non-capturing so
// the expression can be embedded anywhere.
const (
	unreserved = `[A-Za-z0-9\-._~]`
	pctEncoded = `%[0-9A-Fa-f]{2}`
	subDelims  = `[!$&'()*+,;=]`
	pchar      = `(?:` + unreserved + `|` + pctEncoded + `|` + subDelims + `|:|@)`

	scheme   = `[A-Za-z][A-Za-z0-9+\-.]*`
	userinfo = `(?:` + unreserved + `|` + pctEncoded + `|` + subDelims + `|:)*`

	decOctet = `(?:25[0-5]|2[0-4][0-9]|1[0-9]{2}|[1-9][0-9]|[0-9])`
	ipv4     = decOctet + `\.` + decOctet + `\.` + decOctet + `\.` + decOctet
	h16      = `[0-9A-Fa-f]{1,4}`
	ls32     = `(?:` + h16 + `:` + h16 + `|` + ipv4 + `)`

	ipvFuture = `v[0-9A-Fa-f]+\.(?:` + unreserved + `|` + subDelims + `|:)+`
	regName   = `(?:` + unreserved + `|` + pctEncoded + `|` + subDelims + `)*`
	port      = `[0-9]*`

	pathAbempty  = `(?:/` + pchar + `*)*`
	pathAbsolute = `/(?:` + pchar + `+` + pathAbempty + `)?`
	pathRootless = pchar + `+` + pathAbempty

	query    = `(?:` + pchar + `|/|\?)*`
	fragment = query
)

// ipv6 lists the nine IPv6address forms in grammar order.
var ipv6 = strings.Join([]string{
	`(?:` + h16 + `:){6}` + ls32,
	`::(?:` + h16 + `:){5}` + ls32,
	`(?:` + h16 + `)?::(?:` + h16 + `:){4}` + ls32,
	`(?:(?:` + h16 + `:){0,1}` + h16 + `)?::(?:` + h16 + `:){3}` + ls32,
	`(?:(?:` + h16 + `:){0,2}` + h16 + `)?::(?:` + h16 + `:){2}` + ls32,
	`(?:(?:` + h16 + `:){0,3}` + h16 + `)?::` + h16 + `:` + ls32,
	`(?:(?:` + h16 + `:){0,4}` + h16 + `)?::` + ls32,
	`(?:(?:` + h16 + `:){0,5}` + h16 + `)?::` + h16,
	`(?:(?:` + h16 + `:){0,6}` + h16 + `)?::`,
}, "|")

var (
	ipLiteral = `\[(?:` + ipv6 + `|` + ipvFuture + `)\]`
	host      = `(?:` + ipLiteral + `|` + ipv4 + `|` + regName + `)`
	authority = `(?:` + userinfo + `@)?` + host + `(?::` + port + `)?`
	hierPart  = `(?://` + authority + pathAbempty + `|` + pathAbsolute + `|` + pathRootless + `|)`

	// AbsoluteURI matches an absolute URI with an optional fragment.
	AbsoluteURI = scheme + `:` + hierPart + `(?:\?` + query + `)?(?:#` + fragment + `)?`
)

var absoluteURIRegex = regexp.MustCompile(AbsoluteURI)

// FindURI returns the offsets of the leftmost absolute URI in s, or nil.
func FindURI(s string) []int {
	return absoluteURIRegex.FindStringIndex(s)
}
