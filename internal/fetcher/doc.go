// Package fetcher downloads job board pages through the session pool.
//
// Each attempt checks out a session, waits for the politeness gate, sends a
// browser-like GET and reports the status back to the gate. Blocked
// responses retire the session and are retried with a fresh one; transport
// errors and 5xx responses are retried after a short backoff. Bodies are
// decoded (gzip, deflate, br), capped at model.MaxPageSize and parsed with
// goquery.
package fetcher
