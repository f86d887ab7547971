package relay

import (
	"log"
	"strconv"

	"gobot.io/x/gobot/v2/platforms/raspi"
)

// raspiController drives relays through the Raspberry Pi GPIO adaptor.
type raspiController struct {
	adaptor *raspi.Adaptor
	pins    Pins
	trigger int
	ready   bool
}

func newRasPi(pins Pins, trigger int) *raspiController {
	c := &raspiController{adaptor: raspi.NewAdaptor(), pins: pins, trigger: trigger}
	if err := c.adaptor.Connect(); err != nil {
		log.Printf("relay: raspi connect failed: %v", err)
		return c
	}
	c.ready = true
	off := byte(OffLevel(trigger))
	for name, pin := range pins {
		if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), off); err != nil {
			log.Printf("relay: raspi init %s (pin %d): %v", name, pin, err)
		}
	}
	return c
}

func (c *raspiController) Set(level int, zone string) int {
	pin, ok := c.pins[zone]
	if !ok || !c.ready {
		return CodeFault
	}
	if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), byte(level)); err != nil {
		log.Printf("relay: raspi set %s (pin %d) level %d: %v", zone, pin, level, err)
		return CodeFault
	}
	switchTotal.WithLabelValues(zone).Inc()
	return CodeOK
}

func (c *raspiController) Cleanup() {
	if !c.ready {
		return
	}
	off := byte(OffLevel(c.trigger))
	for name, pin := range c.pins {
		if err := c.adaptor.DigitalWrite(strconv.Itoa(pin), off); err != nil {
			log.Printf("relay: raspi cleanup %s (pin %d): %v", name, pin, err)
		}
	}
	if err := c.adaptor.Finalize(); err != nil {
		log.Printf("relay: raspi finalize: %v", err)
	}
}
