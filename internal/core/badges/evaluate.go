package badges

import (
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

// Delta is the outcome of comparing badge conditions with the current unlock state.
type Delta struct {
	Unlocked []Badge `json:"unlocked"`
	Revoked  []Badge `json:"revoked"`
}

func (d Delta) IsEmpty() bool {
	return len(d.Unlocked) == 0 && len(d.Revoked) == 0
}

// Evaluate revokes unlocked badges whose condition no longer holds, then unlocks every
// registered badge whose condition holds and that is not unlocked after revocation.
// Unknown ids in unlocked are left alone. Revoked badges follow registry order.
func Evaluate(reg *Registry, stats domain.GlobalStats, unlocked map[string]struct{}) Delta {
	delta := Delta{
		Unlocked: []Badge{},
		Revoked:  []Badge{},
	}

	stillUnlocked := make(map[string]struct{}, len(unlocked))
	for id := range unlocked {
		stillUnlocked[id] = struct{}{}
	}

	for _, b := range reg.badges {
		if _, ok := unlocked[b.ID]; !ok {
			continue
		}
		if !b.Earned(stats) {
			delta.Revoked = append(delta.Revoked, b)
			delete(stillUnlocked, b.ID)
		}
	}

	for _, b := range reg.badges {
		if _, ok := stillUnlocked[b.ID]; ok {
			continue
		}
		if b.Earned(stats) {
			delta.Unlocked = append(delta.Unlocked, b)
		}
	}

	return delta
}

// Apply returns the unlock set that results from the delta.
func (d Delta) Apply(unlocked map[string]struct{}) map[string]struct{} {
	next := make(map[string]struct{}, len(unlocked)+len(d.Unlocked))
	for id := range unlocked {
		next[id] = struct{}{}
	}
	for _, b := range d.Revoked {
		delete(next, b.ID)
	}
	for _, b := range d.Unlocked {
		next[b.ID] = struct{}{}
	}
	return next
}
