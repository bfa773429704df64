package babysit

// ThresholdPolicy decides whether a failing target should be notified about
// this cycle, given its current consecutive-failure count and the count at
// which it was last notified. The policy never sees healthy targets.
type ThresholdPolicy func(consecutiveFailures, lastNotified int) bool

// PowerOfTwo notifies at failure counts 1, 2, 4, 8, 16, and so on. This
// keeps notification volume logarithmic under sustained failure while still
// re-alerting on long outages.
func PowerOfTwo(consecutiveFailures, lastNotified int) bool {
	if consecutiveFailures <= lastNotified {
		return false
	}
	return consecutiveFailures&(consecutiveFailures-1) == 0
}

// EveryN notifies on the first failure and then every n failures after the
// last notification. An alternative cadence for operators who want a
// constant reminder rate instead of a backoff curve.
func EveryN(n int) ThresholdPolicy {
	if n < 1 {
		n = 1
	}
	return func(consecutiveFailures, lastNotified int) bool {
		if consecutiveFailures == 1 {
			return true
		}
		return consecutiveFailures-lastNotified >= n
	}
}
