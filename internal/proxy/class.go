package proxy

import (
	"time"

	"github.com/nao1215/jobharvest/internal/config"
)

// Class is the kind of egress a crawl runs through. Datacenter egress
// tolerates faster pacing; residential egress gets slower, more human-like
// jitter and larger session pools.
type Class int

const (
	// Datacenter is the default class, also used when no proxy is configured.
	Datacenter Class = iota
	// Residential is selected by a RESIDENTIAL proxy group.
	Residential
)

// String returns the class name as used in the proxy group configuration.
func (c Class) String() string {
	switch c {
	case Datacenter:
		return "DATACENTER"
	case Residential:
		return "RESIDENTIAL"
	default:
		return "UNKNOWN"
	}
}

// ClassOf returns the class selected by the proxy configuration.
func ClassOf(pc *config.ProxyConfiguration) Class {
	if pc.IsResidential() {
		return Residential
	}
	return Datacenter
}

// Profile holds the pacing and pool settings for a class.
type Profile struct {
	// BaseDelay and DelaySpread give the pre-fetch delay
	// BaseDelay + rand[0, DelaySpread).
	BaseDelay   time.Duration
	DelaySpread time.Duration

	// MaxPoolSize is the maximum number of live sessions.
	MaxPoolSize int

	// MaxUsageCount is how many requests a session serves before it is
	// replaced.
	MaxUsageCount int

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// HandlerTimeout bounds a single request including body read.
	HandlerTimeout time.Duration
}

var profiles = map[Class]Profile{
	Datacenter: {
		BaseDelay:      30 * time.Millisecond,
		DelaySpread:    70 * time.Millisecond,
		MaxPoolSize:    50,
		MaxUsageCount:  30,
		MaxRetries:     2,
		HandlerTimeout: 20 * time.Second,
	},
	Residential: {
		BaseDelay:      80 * time.Millisecond,
		DelaySpread:    140 * time.Millisecond,
		MaxPoolSize:    100,
		MaxUsageCount:  50,
		MaxRetries:     3,
		HandlerTimeout: 30 * time.Second,
	},
}

// ProfileFor returns the settings for the class. Unknown classes get the
// datacenter profile.
func ProfileFor(c Class) Profile {
	if p, ok := profiles[c]; ok {
		return p
	}
	return profiles[Datacenter]
}
