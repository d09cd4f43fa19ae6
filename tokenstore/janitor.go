package tokenstore

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// IdleEvicter is a storage that can drop abandoned namespaces
type IdleEvicter interface {
	EvictIdle(idle time.Duration) int
}

// Janitor periodically evicts idle namespaces from storages without native TTLs.
type Janitor struct {
	cron   *cron.Cron
	target IdleEvicter
	idle   time.Duration
}

// NewJanitor schedules eviction with a cron spec such as "@every 10m".
func NewJanitor(target IdleEvicter, schedule string, idle time.Duration) (*Janitor, error) {
	j := &Janitor{
		cron:   cron.New(),
		target: target,
		idle:   idle,
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("tokenstore: janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep runs one eviction pass
func (j *Janitor) Sweep() {
	if n := j.target.EvictIdle(j.idle); n > 0 {
		log.Info().Int("evicted", n).Dur("idle", j.idle).Msg("tokenstore: evicted idle namespaces")
	}
}
