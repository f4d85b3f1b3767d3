// Package clock hides time.Now behind Clocker so persisted and pushed timestamps
// can be pinned in tests with Fixed.
package clock
