package relay

import (
	"log"
	"sync"
)

// Call records one Set invocation on the prototype platform.
type Call struct {
	Level int
	Zone  string
}

// Prototype is the no-hardware variant: it logs every switch and
// records the calls so they can be inspected. Used on development
// machines and as the fallback for unknown target systems.
type Prototype struct {
	mu      sync.Mutex
	pins    Pins
	trigger int
	calls   []Call
	cleaned int
}

func NewPrototype(pins Pins, trigger int) *Prototype {
	p := &Prototype{pins: pins, trigger: trigger}
	off := OffLevel(trigger)
	for name := range pins {
		log.Printf("relay: [prototype] init %s -> level %d", name, off)
	}
	return p
}

func (p *Prototype) Set(level int, zone string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pins[zone]; !ok {
		log.Printf("relay: [prototype] unknown output %q", zone)
		return CodeFault
	}
	p.calls = append(p.calls, Call{Level: level, Zone: zone})
	switchTotal.WithLabelValues(zone).Inc()
	log.Printf("relay: [prototype] set %s -> level %d", zone, level)
	return CodeOK
}

func (p *Prototype) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleaned++
	log.Printf("relay: [prototype] cleanup, all outputs off")
}

// Calls returns a copy of the recorded Set invocations.
func (p *Prototype) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CleanupCount reports how many times Cleanup ran.
func (p *Prototype) CleanupCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cleaned
}
