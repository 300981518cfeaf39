package models

import (
	"math"
	"time"
)

// GPSample represents one accepted satellite-positioning fix
type GPSample struct {
	Timestamp time.Time `json:"timestamp"`

	// Latitude in degrees
	Latitude float64 `json:"latitude"`

	// Longitude in degrees
	Longitude float64 `json:"longitude"`

	// Altitude in meters
	Altitude float64 `json:"altitude"`

	// Speed in km/h
	SpeedKmh float64 `json:"speedKmh"`

	// Number of satellites used in solution
	Satellites int `json:"satellites"`

	// HDOP (Horizontal Dilution of Precision)
	HDOP float64 `json:"hdop"`

	// Fix quality as reported by the receiver (1 = GPS fix)
	FixQuality int `json:"fixQuality"`

	// Heading in degrees, only present on newer firmware
	Heading *float64 `json:"heading,omitempty"`
}

// InertialSample represents one row of the stability (IMU) stream
type InertialSample struct {
	Timestamp time.Time `json:"timestamp"`

	// Acceleration on X/Y/Z axes
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
	AZ float64 `json:"az"`

	// Rotation rate on X/Y/Z axes
	GX float64 `json:"gx"`
	GY float64 `json:"gy"`
	GZ float64 `json:"gz"`

	// Stability index, always within [0,1]
	StabilityIndex float64 `json:"stabilityIndex"`

	// Magnitude of the acceleration vector
	AccelMagnitude float64 `json:"accelMagnitude"`
}

// EngineSample represents one decoded engine-bus frame
type EngineSample struct {
	Timestamp        time.Time `json:"timestamp"`
	EngineRPM        float64   `json:"engineRpm"`
	VehicleSpeedKmh  float64   `json:"vehicleSpeedKmh"`
	FuelSystemStatus int       `json:"fuelSystemStatus"`
}

// BeaconSample represents a change of the rotating beacon state
type BeaconSample struct {
	Timestamp time.Time `json:"timestamp"`
	State     int       `json:"state"` // 0 = off, 1 = on
}

// ClampStability bounds a raw stability index into [0,1]. NaN maps to 0.
func ClampStability(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
