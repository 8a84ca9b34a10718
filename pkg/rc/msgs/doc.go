// Package msgs defines the telemetry messages published by the RC
// input daemon and the typed envelope carrying them.
//
// Producer: rcinputd
// Consumer: monitors, shells and ground stations
package msgs
