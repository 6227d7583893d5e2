package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Relay channel to BCM pin assignment on the carrier board.
var channelPins = [ChannelCount]int{5, 6, 13, 16, 19, 20, 21, 26}

// gpioDriver drives relays through the sysfs GPIO interface. The board is
// active-low: writing 0 energizes the relay.
type gpioDriver struct {
	base string
}

func newGPIODriver() (*gpioDriver, error) {
	return newGPIODriverAt("/sys/class/gpio")
}

func newGPIODriverAt(base string) (*gpioDriver, error) {
	if _, err := os.Stat(base); err != nil {
		return nil, fmt.Errorf("sysfs gpio not present: %w", err)
	}
	d := &gpioDriver{base: base}
	for _, pin := range channelPins {
		if err := d.export(pin); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *gpioDriver) export(pin int) error {
	dir := d.pinDir(pin)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.WriteFile(filepath.Join(d.base, "export"), []byte(strconv.Itoa(pin)), 0o644); err != nil {
			return fmt.Errorf("export gpio %d: %w", pin, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("out"), 0o644); err != nil {
		return fmt.Errorf("set gpio %d direction: %w", pin, err)
	}
	// Idle state is de-energized.
	return os.WriteFile(filepath.Join(dir, "value"), []byte("1"), 0o644)
}

func (d *gpioDriver) Set(channel int, on bool) error {
	pin := channelPins[channel-1]
	val := "1"
	if on {
		val = "0"
	}
	return os.WriteFile(filepath.Join(d.pinDir(pin), "value"), []byte(val), 0o644)
}

func (d *gpioDriver) Close() error {
	var firstErr error
	for _, pin := range channelPins {
		if err := os.WriteFile(filepath.Join(d.pinDir(pin), "value"), []byte("1"), 0o644); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *gpioDriver) pinDir(pin int) string {
	return filepath.Join(d.base, fmt.Sprintf("gpio%d", pin))
}
