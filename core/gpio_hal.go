package core

// GPIOPin is a board-specific pin number
type GPIOPin uint32

// GPIODriver is the digital pin access buttons need. host/gpio implements it
// with periph.io and the board targets with machine.Pin.
type GPIODriver interface {
	ConfigureOutput(pin GPIOPin) error
	ConfigureInputPullUp(pin GPIOPin) error
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin drives an output high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin returns the input level. Unconfigured pins and read errors
	// report low, since a sampler has no way to return an error.
	ReadPin(pin GPIOPin) bool
}

// InputPin configures pin as an input and returns a sampler for it.
// Active-low inputs (pull-up wiring) are inverted so pressed reads true.
func InputPin(d GPIODriver, pin GPIOPin, pullUp bool) (Sampler, error) {
	if pullUp {
		if err := d.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
		return Not(PinSampler(d, pin)), nil
	}
	if err := d.ConfigureInputPullDown(pin); err != nil {
		return nil, err
	}
	return PinSampler(d, pin), nil
}
