package relay

import (
	"log"
	"strconv"

	"gobot.io/x/gobot/v2/platforms/chip"
)

// chipController drives relays through the C.H.I.P GPIO adaptor.
type chipController struct {
	adaptor *chip.Adaptor
	pins    Pins
	trigger int
	ready   bool
}

func newCHIP(pins Pins, trigger int) *chipController {
	c := &chipController{adaptor: chip.NewAdaptor(), pins: pins, trigger: trigger}
	if err := c.adaptor.Connect(); err != nil {
		log.Printf("relay: chip connect failed: %v", err)
		return c
	}
	c.ready = true
	off := byte(OffLevel(trigger))
	for name, pin := range pins {
		if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), off); err != nil {
			log.Printf("relay: chip init %s (pin %d): %v", name, pin, err)
		}
	}
	return c
}

func (c *chipController) Set(level int, zone string) int {
	pin, ok := c.pins[zone]
	if !ok || !c.ready {
		return CodeFault
	}
	if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), byte(level)); err != nil {
		log.Printf("relay: chip set %s (pin %d) level %d: %v", zone, pin, level, err)
		return CodeFault
	}
	switchTotal.WithLabelValues(zone).Inc()
	return CodeOK
}

func (c *chipController) Cleanup() {
	if !c.ready {
		return
	}
	off := byte(OffLevel(c.trigger))
	for name, pin := range c.pins {
		if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), off); err != nil {
			log.Printf("relay: chip cleanup %s (pin %d): %v", name, pin, err)
		}
	}
	if err := c.adaptor.Finalize(); err != nil {
		log.Printf("relay: chip finalize: %v", err)
	}
}
