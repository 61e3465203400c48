// Package gpio drives buttons and LEDs through the sysfs GPIO interface.
// Input lines support edge triggered waits backed by poll on the value file.
package gpio
