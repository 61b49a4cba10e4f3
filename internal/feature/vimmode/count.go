package vimmode

import "github.com/dshills/keyweave/internal/keycode"

// maxCount caps a count prefix.
const maxCount = 99

// count accumulates a numeric prefix such as the 3 in "3j".
type count struct {
	value  int
	active bool
}

func (c *count) reset() {
	c.value = 0
	c.active = false
}

// accumulate adds a digit usage to the count. A leading 0 is a motion, not
// a count, and is rejected.
func (c *count) accumulate(u keycode.Usage) bool {
	if !u.IsDigit() {
		return false
	}
	digit := 0
	if u != keycode.Usage0 {
		digit = int(u-keycode.Usage1) + 1
	}
	if !c.active && digit == 0 {
		return false
	}

	c.active = true
	c.value = min(c.value*10+digit, maxCount)
	return true
}

// get returns the effective count, 1 when none was typed.
func (c *count) get() int {
	if c.value <= 0 {
		return 1
	}
	return c.value
}
