// Package rules contains the pure calculation logic for mission mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"math"

	"github.com/MRamiBalles/FrostlineExpress/internal/domain/vehicle"
)

// EventProbability is the chance a milestone raises an event. Warm trains keep
// passengers out of trouble.
func EventProbability(decisionMaking float64, train vehicle.Train) float64 {
	return decisionMaking - float64(train.WarmthLevelPercent())*0.01
}

// SkipProbability is the chance a milestone lets the train jump a whole interval.
func SkipProbability(train vehicle.Train) float64 {
	return float64(train.SpeedLevelPercent()) * 0.01
}

// PassengerIncreaseProbability grows with weather difficulty: every tier adds perTier.
func PassengerIncreaseProbability(base, perTier float64, weatherIndex int) float64 {
	if weatherIndex < 0 {
		weatherIndex = 0
	}
	return base + float64(weatherIndex)*perTier
}

// UpgradeCost prices the next level of a train attribute. Each level costs 10% more.
func UpgradeCost(initialCost, currentLevel int) int {
	if currentLevel < 1 {
		currentLevel = 1
	}
	return int(math.Round(float64(initialCost) * math.Pow(1.1, float64(currentLevel-1))))
}

// MissionReward is the payment earned by completing a mission.
func MissionReward(miles, passengersAboard, perMile, perPassenger int) int {
	return miles*perMile + passengersAboard*perPassenger
}
