// Package session manages the pool of crawl sessions.
//
// A session is an outbound identity: one proxy, one cookie jar and one
// browser fingerprint (user agent plus accept-language). The fingerprint is
// picked the first time the session is used and never changes. Rotation is
// expressed by retiring a session; the next checkout then issues a fresh
// session with a fresh fingerprint.
//
// Sessions are checked out by exactly one worker at a time:
//
//	s, err := pool.Checkout(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Return(s)
//	resp, err := s.Client().Do(req)
package session
