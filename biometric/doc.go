// Package biometric adapts a platform sensor to the yes/no prompt contract the
// authentication engine consumes.
//
// A [Sensor] reports rich failures (not enrolled, cancelled, hardware fault).
// [Prompt] deliberately collapses them: availability probes that fail mean
// "unavailable", and every authentication outcome other than explicit success
// is false. Failures are logged, never returned.
//
// Sensors shipped here are [Static] (scripted, for tests and demos) and
// [TerminalSensor] (device-passcode confirmation on an interactive terminal).
package biometric
