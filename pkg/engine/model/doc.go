// Package model holds the shared vocabulary of the engine: phase kinds,
// phase statuses and the option hooks implemented by features such as the
// drawer and the measure.
package model
