package runtime

import (
	"sort"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
)

// Scheduled is a deferred dispatch registered by an earlier block.
type Scheduled struct {
	When   common.BlockNumber
	Origin types.Origin
	Call   types.Call
	seq    uint64
}

// Scheduler keeps deferred calls ordered by (when, insertion order) so
// enactment order is deterministic across replicas.
type Scheduler struct {
	queue []Scheduled
	seq   uint64
}

func newScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) add(when common.BlockNumber, origin types.Origin, call types.Call) {
	s.seq++
	s.queue = append(s.queue, Scheduled{When: when, Origin: origin, Call: call, seq: s.seq})
}

// takeDue removes and returns every entry with When <= n, oldest first.
func (s *Scheduler) takeDue(n common.BlockNumber) []Scheduled {
	var due, rest []Scheduled
	for _, e := range s.queue {
		if e.When <= n {
			due = append(due, e)
		} else {
			rest = append(rest, e)
		}
	}
	s.queue = rest
	sort.Slice(due, func(i, j int) bool {
		if due[i].When != due[j].When {
			return due[i].When < due[j].When
		}
		return due[i].seq < due[j].seq
	})
	return due
}

type schedulerSnapshot struct {
	queue []Scheduled
	seq   uint64
}

func (s *Scheduler) snapshot() schedulerSnapshot {
	queue := make([]Scheduled, len(s.queue))
	copy(queue, s.queue)
	return schedulerSnapshot{queue: queue, seq: s.seq}
}

func (s *Scheduler) restore(snap schedulerSnapshot) {
	s.queue = snap.queue
	s.seq = snap.seq
}
