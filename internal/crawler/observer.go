package crawler

import (
	"time"

	"github.com/nao1215/jobharvest/internal/model"
)

// Observer feeds fetch measurements into the run statistics and the
// Scaler. It satisfies fetcher.Observer.
type Observer struct {
	Stats  *model.RunStats
	Scaler *Scaler
}

// IncBlocked counts a blocked response and scales the pool down.
func (o Observer) IncBlocked() {
	if o.Stats != nil {
		o.Stats.IncBlocked()
	}
	if o.Scaler != nil {
		o.Scaler.Blocked()
	}
}

// ObserveRequestTime records the duration of one request.
func (o Observer) ObserveRequestTime(d time.Duration) {
	if o.Stats != nil {
		o.Stats.ObserveRequestTime(d)
	}
}
