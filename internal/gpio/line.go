package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Edge selects which signal transitions wake an input line.
type Edge string

const (
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

// Direction of a GPIO line.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

const (
	sysfsRoot     = "/sys/class/gpio"
	exportRetries = 10
	exportDelay   = 50 * time.Millisecond
)

// Line is one exported sysfs GPIO line.
type Line struct {
	pin       int
	dir       Direction
	root      string
	valueFile *os.File
}

// Chip binds lines against a sysfs root. The zero value is not usable; use
// NewChip. A non-default root is only used by tests.
type Chip struct {
	root string
}

// NewChip returns a chip over the standard sysfs GPIO tree.
func NewChip() *Chip {
	return &Chip{root: sysfsRoot}
}

// NewChipAt returns a chip rooted at an alternate directory.
func NewChipAt(root string) *Chip {
	return &Chip{root: root}
}

// OpenInput exports a pin as an edge triggered input.
func (c *Chip) OpenInput(pin int, edge Edge) (*Line, error) {
	line, err := c.open(pin, DirectionIn)
	if err != nil {
		return nil, err
	}
	if err := line.setEdge(edge); err != nil {
		_ = line.Close()
		return nil, err
	}
	return line, nil
}

// OpenOutput exports a pin as an output, initially low.
func (c *Chip) OpenOutput(pin int) (*Line, error) {
	line, err := c.open(pin, DirectionOut)
	if err != nil {
		return nil, err
	}
	if err := line.Write(false); err != nil {
		_ = line.Close()
		return nil, err
	}
	return line, nil
}

func (c *Chip) open(pin int, dir Direction) (*Line, error) {
	pinDir := filepath.Join(c.root, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(pinDir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(c.root, "export"), strconv.Itoa(pin)); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", pin, err)
		}
	}

	// The kernel creates the pin directory asynchronously after export and
	// udev may still be fixing permissions, so retry briefly.
	var lastErr error
	for attempt := 0; attempt < exportRetries; attempt++ {
		lastErr = writeSysfs(filepath.Join(pinDir, "direction"), string(dir))
		if lastErr == nil {
			break
		}
		time.Sleep(exportDelay)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("set gpio %d direction: %w", pin, lastErr)
	}

	flags := os.O_RDONLY
	if dir == DirectionOut {
		flags = os.O_RDWR
	}
	valueFile, err := os.OpenFile(filepath.Join(pinDir, "value"), flags, 0)
	if err != nil {
		return nil, fmt.Errorf("open gpio %d value: %w", pin, err)
	}

	return &Line{pin: pin, dir: dir, root: c.root, valueFile: valueFile}, nil
}

// Pin returns the line's pin number.
func (l *Line) Pin() int { return l.pin }

func (l *Line) setEdge(edge Edge) error {
	if edge == "" {
		edge = EdgeRising
	}
	path := filepath.Join(l.root, fmt.Sprintf("gpio%d", l.pin), "edge")
	if err := writeSysfs(path, string(edge)); err != nil {
		return fmt.Errorf("set gpio %d edge: %w", l.pin, err)
	}
	return nil
}

// Read returns the current level of the line.
func (l *Line) Read() (bool, error) {
	buf := make([]byte, 8)
	n, err := l.valueFile.ReadAt(buf, 0)
	if err != nil && n == 0 {
		return false, fmt.Errorf("read gpio %d: %w", l.pin, err)
	}
	value := strings.TrimSpace(string(buf[:n]))
	return value == "1", nil
}

// Write sets the level of an output line.
func (l *Line) Write(high bool) error {
	if l.dir != DirectionOut {
		return fmt.Errorf("gpio %d is not an output", l.pin)
	}
	value := "0"
	if high {
		value = "1"
	}
	if _, err := l.valueFile.WriteAt([]byte(value), 0); err != nil {
		return fmt.Errorf("write gpio %d: %w", l.pin, err)
	}
	return nil
}

// Close releases the value handle and unexports the pin.
func (l *Line) Close() error {
	if l == nil {
		return nil
	}
	var firstErr error
	if l.valueFile != nil {
		if err := l.valueFile.Close(); err != nil {
			firstErr = err
		}
		l.valueFile = nil
	}
	if err := writeSysfs(filepath.Join(l.root, "unexport"), strconv.Itoa(l.pin)); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func writeSysfs(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(value); err != nil {
		return err
	}
	return nil
}
