// Package textutil sanitizes free-form text, such as movie names taken from
// submitted file names, for use inside clip file names.
package textutil
