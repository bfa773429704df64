package babysit

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes digest entries.
type Kind string

const (
	// KindFailure marks a target that failed its check this cycle.
	KindFailure Kind = "failure"
	// KindRecovery marks a target that passed after a notified outage.
	KindRecovery Kind = "recovery"
)

// Entry is one target's contribution to a cycle digest.
type Entry struct {
	Target string
	Detail string
	Action string
	Kind   Kind
	// Notify reports whether this entry crossed its notification
	// threshold. Recoveries always notify.
	Notify bool
}

// Digest aggregates one poll cycle's failures and recoveries. At most one
// notification is sent per digest, however many targets it contains.
type Digest struct {
	CycleTime time.Time
	Entries   []Entry
}

// Notifiable returns the entries that warrant an operator notification.
func (d Digest) Notifiable() []Entry {
	var out []Entry
	for _, e := range d.Entries {
		if e.Notify {
			out = append(out, e)
		}
	}
	return out
}

// buildEmail renders the single digest notification. The subject counts
// affected targets; the body lists each one with its detail and any action
// taken.
func buildEmail(d Digest) (subject, body string) {
	entries := d.Notifiable()

	failing := 0
	recovered := 0
	for _, e := range entries {
		if e.Kind == KindRecovery {
			recovered++
		} else {
			failing++
		}
	}

	switch {
	case failing > 0 && recovered > 0:
		subject = fmt.Sprintf("babysitter: %d target(s) failing, %d recovered", failing, recovered)
	case failing > 0:
		subject = fmt.Sprintf("babysitter: %d target(s) failing", failing)
	default:
		subject = fmt.Sprintf("babysitter: %d target(s) recovered", recovered)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Poll cycle at %s\n\n", d.CycleTime.Format(time.RFC3339))
	for _, e := range entries {
		if e.Kind == KindRecovery {
			fmt.Fprintf(&b, "RECOVERED %s: %s\n", e.Target, e.Detail)
			continue
		}
		fmt.Fprintf(&b, "FAILED %s: %s\n", e.Target, e.Detail)
		if e.Action != "" {
			fmt.Fprintf(&b, "  action: %s\n", e.Action)
		}
	}
	return subject, b.String()
}
