package workflow

import (
	"math"
	"sort"
	"time"

	"github.com/medevalink/be-ts-requests/internal/domain"
)

// Bottleneck is a status where requests sit longer than the threshold.
type Bottleneck struct {
	Status  domain.Status
	AvgDays float64
}

// Stats aggregates residency times across a set of requests.
type Stats struct {
	AvgDaysPerTrack  map[domain.Track]float64
	AvgDaysPerStatus map[domain.Status]float64
	Bottlenecks      []Bottleneck
}

// ComputeStats measures how long requests spend per track (since track
// assignment) and per status (from the request history), and flags statuses
// whose average residency exceeds the bottleneck threshold. Averages over an
// empty sample are zero, never NaN.
func ComputeStats(requests []*domain.Request, now time.Time) Stats {
	daysByTrack := make(map[domain.Track][]float64, len(domain.AllTracks))
	for _, track := range domain.AllTracks {
		daysByTrack[track] = nil
	}
	daysByStatus := make(map[domain.Status][]float64)

	for _, req := range requests {
		if req.Track != nil && req.TrackAssignedAt != nil {
			daysByTrack[*req.Track] = append(daysByTrack[*req.Track], floorDays(*req.TrackAssignedAt, now))
		}
		for status, days := range daysInStatus(req, now) {
			daysByStatus[status] = append(daysByStatus[status], days)
		}
	}

	stats := Stats{
		AvgDaysPerTrack:  make(map[domain.Track]float64, len(daysByTrack)),
		AvgDaysPerStatus: make(map[domain.Status]float64, len(daysByStatus)),
	}
	for track, days := range daysByTrack {
		stats.AvgDaysPerTrack[track] = average(days)
	}
	for status, days := range daysByStatus {
		avg := average(days)
		stats.AvgDaysPerStatus[status] = avg
		if avg > domain.BottleneckThresholdDays {
			stats.Bottlenecks = append(stats.Bottlenecks, Bottleneck{Status: status, AvgDays: avg})
		}
	}

	sort.Slice(stats.Bottlenecks, func(i, j int) bool {
		return stats.Bottlenecks[i].AvgDays > stats.Bottlenecks[j].AvgDays
	})
	return stats
}

// daysInStatus walks the history and measures the residency of each reached
// status: from the entry that entered it to the next entry, or to now for the
// last one. Later re-entries of the same status overwrite earlier ones.
func daysInStatus(req *domain.Request, now time.Time) map[domain.Status]float64 {
	out := make(map[domain.Status]float64)
	for i, entry := range req.History {
		if entry.ToStatus == nil {
			continue
		}
		end := now
		if i+1 < len(req.History) {
			end = req.History[i+1].At
		}
		out[*entry.ToStatus] = floorDays(entry.At, end)
	}
	return out
}

func floorDays(from, to time.Time) float64 {
	return math.Floor(to.Sub(from).Hours() / 24)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
