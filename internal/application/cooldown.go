package application

import (
	"math"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
)

type CooldownScope struct {
	Agent    domain.AgentID
	Channel  domain.ChannelID
	Interval time.Duration
}

func GlobalCooldown(agent domain.AgentID, interval time.Duration) CooldownScope {
	return CooldownScope{Agent: agent, Channel: domain.GlobalScope, Interval: interval}
}

func ChannelCooldown(agent domain.AgentID, channel domain.ChannelID, interval time.Duration) CooldownScope {
	return CooldownScope{Agent: agent, Channel: channel, Interval: interval}
}

// CooldownGate throttles triggers per agent and per (agent, channel). Records live in the
// process state so they survive restarts. A pass is consumed immediately and never rolled
// back, even if the downstream action fails.
type CooldownGate struct {
	state *StateStore
}

func NewCooldownGate(state *StateStore) *CooldownGate {
	return &CooldownGate{state: state}
}

func (g *CooldownGate) Allow(scope CooldownScope, now time.Time) bool {
	return g.AllowAll(now, scope)
}

// AllowAll passes only if every scope passes; timestamps are recorded for all scopes on
// acceptance and for none on rejection. Scopes with a non-positive interval are ignored.
func (g *CooldownGate) AllowAll(now time.Time, scopes ...CooldownScope) bool {
	nowSeconds := unixSeconds(now)
	allowed := true

	g.state.Update(func(state *domain.ProcessState) {
		for _, scope := range scopes {
			if scope.Interval <= 0 {
				continue
			}
			last, ok := state.Cooldowns[scope.Agent][scope.Channel]
			if ok && nowSeconds-last < scope.Interval.Seconds() {
				allowed = false
				return
			}
		}

		for _, scope := range scopes {
			if scope.Interval <= 0 {
				continue
			}
			records := state.Cooldowns[scope.Agent]
			if records == nil {
				records = map[domain.ChannelID]float64{}
				state.Cooldowns[scope.Agent] = records
			}
			records[scope.Channel] = nowSeconds
		}
	})

	return allowed
}

func (g *CooldownGate) Last(agent domain.AgentID, channel domain.ChannelID) (time.Time, bool) {
	snapshot := g.state.Snapshot()
	last, ok := snapshot.Cooldowns[agent][channel]
	if !ok {
		return time.Time{}, false
	}
	return fromUnixSeconds(last), true
}

// Prune drops records older than retention and returns how many were removed.
func (g *CooldownGate) Prune(now time.Time, retention time.Duration) int {
	if retention <= 0 {
		return 0
	}

	cutoff := unixSeconds(now) - retention.Seconds()
	removed := 0
	g.state.Update(func(state *domain.ProcessState) {
		for agent, records := range state.Cooldowns {
			for channel, last := range records {
				if last < cutoff {
					delete(records, channel)
					removed++
				}
			}
			if len(records) == 0 {
				delete(state.Cooldowns, agent)
			}
		}
	})

	return removed
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromUnixSeconds(seconds float64) time.Time {
	whole := math.Floor(seconds)
	return time.Unix(int64(whole), int64((seconds-whole)*float64(time.Second)))
}
