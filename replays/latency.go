package replays

import "time"

// LatencyWindow is the number of round trips kept.
const LatencyWindow = 10

// latencies is a fixed-capacity ring, oldest evicted first.
type latencies struct {
	values [LatencyWindow]time.Duration
	next   int
	n      int
}

func (l *latencies) add(d time.Duration) {
	l.values[l.next] = d
	l.next = (l.next + 1) % LatencyWindow
	if l.n < LatencyWindow {
		l.n++
	}
}

// list returns the samples from oldest to newest.
func (l *latencies) list() []time.Duration {
	ret := make([]time.Duration, 0, l.n)
	start := (l.next - l.n + LatencyWindow) % LatencyWindow
	for i := range l.n {
		ret = append(ret, l.values[(start+i)%LatencyWindow])
	}
	return ret
}

func (l *latencies) mean() time.Duration {
	if l.n == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range l.list() {
		sum += d
	}
	return sum / time.Duration(l.n)
}
