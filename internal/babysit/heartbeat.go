package babysit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HeartbeatConfig enables a daily "still alive" email. The heartbeat proves
// the babysitter itself is running; silence past the configured hour means
// the supervisor is down too.
type HeartbeatConfig struct {
	Enabled bool
	// Hour of day (0-23, local time) after which the heartbeat is sent.
	Hour int
}

// maybeHeartbeat sends at most one heartbeat per day, checked
// opportunistically at cycle boundaries.
func (b *Babysitter) maybeHeartbeat(ctx context.Context, now time.Time) {
	if !b.heartbeat.Enabled {
		return
	}
	if now.Hour() < b.heartbeat.Hour {
		return
	}

	day := now.Year()*1000 + now.YearDay()
	if day == b.lastHeartbeatDay {
		return
	}
	b.lastHeartbeatDay = day

	subject := "babysitter heartbeat"
	body := "babysitter is running.\n\nCurrent state of all targets:\n" + b.statusSummary()
	if err := b.channel.Send(ctx, subject, body); err != nil {
		b.logger.Error().Err(err).Msg("heartbeat notification failed")
	}
}

// sendStartupNotice announces that supervision has begun and what is being
// watched.
func (b *Babysitter) sendStartupNotice(ctx context.Context) {
	var sb strings.Builder
	sb.WriteString("babysitter starting up.\n\nWatching:\n")
	for _, t := range b.targets {
		kind := "notify-only"
		if t.Restart != nil {
			kind = fmt.Sprintf("restartable, cooldown %s", t.RestartCooldown)
		}
		fmt.Fprintf(&sb, "  %s (%s)\n", t.Name, kind)
	}

	if err := b.channel.Send(ctx, "babysitter running", sb.String()); err != nil {
		b.logger.Error().Err(err).Msg("startup notification failed")
	}
}

// statusSummary renders the last known state of every target.
func (b *Babysitter) statusSummary() string {
	var sb strings.Builder
	for _, t := range b.targets {
		st := b.states[t.Name]
		switch {
		case !st.evaluated:
			fmt.Fprintf(&sb, "  %s: not yet checked\n", t.Name)
		case st.lastPassed:
			fmt.Fprintf(&sb, "  %s: OK (%s)\n", t.Name, st.lastDetail)
		default:
			fmt.Fprintf(&sb, "  %s: FAIL (%s)\n", t.Name, st.lastDetail)
		}
	}
	return sb.String()
}
