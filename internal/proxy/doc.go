// Package proxy selects outbound identities for the crawl.
//
// It decides the proxy class (datacenter or residential) that drives pacing
// and pool sizes, hands out proxy URLs round-robin to new sessions, and
// builds HTTP clients that route through http, https or socks5 proxies.
// Without configured proxy URLs, clients connect directly.
package proxy
