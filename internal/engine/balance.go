package engine

import "time"

// Balance holds every gameplay tunable. The defaults give the stock pacing.
type Balance struct {
	// MileDuration is the simulated time one mile takes.
	MileDuration time.Duration `json:"mile_duration" mapstructure:"mileDuration"`
	// MilesPerInterval is the milestone spacing for events and skips.
	MilesPerInterval int `json:"miles_per_interval" mapstructure:"milesPerInterval"`

	MilesPerPassengerIncrease          int     `json:"miles_per_passenger_increase" mapstructure:"milesPerPassengerIncrease"`
	PassengerBaseProbability           float64 `json:"passenger_base_probability" mapstructure:"passengerBaseProbability"`
	PassengerProbabilityPerWeatherTier float64 `json:"passenger_probability_per_weather_tier" mapstructure:"passengerProbabilityPerWeatherTier"`
	PassengerStatusChangeProbability   float64 `json:"passenger_status_change_probability" mapstructure:"passengerStatusChangeProbability"`

	CrewRecoveryProbability float64 `json:"crew_recovery_probability" mapstructure:"crewRecoveryProbability"`

	RewardPerMile      int `json:"reward_per_mile" mapstructure:"rewardPerMile"`
	RewardPerPassenger int `json:"reward_per_passenger" mapstructure:"rewardPerPassenger"`
	UpgradeBaseCost    int `json:"upgrade_base_cost" mapstructure:"upgradeBaseCost"`
	StartingPayments   int `json:"starting_payments" mapstructure:"startingPayments"`

	// PendingSlots is how many undeployed missions are offered at once.
	PendingSlots int `json:"pending_slots" mapstructure:"pendingSlots"`
}

// DefaultBalance returns the stock tunables.
func DefaultBalance() Balance {
	return Balance{
		MileDuration:                       100 * time.Millisecond,
		MilesPerInterval:                   5,
		MilesPerPassengerIncrease:          5,
		PassengerBaseProbability:           0.5,
		PassengerProbabilityPerWeatherTier: 0.05,
		PassengerStatusChangeProbability:   0.5,
		CrewRecoveryProbability:            0.25,
		RewardPerMile:                      2,
		RewardPerPassenger:                 25,
		UpgradeBaseCost:                    100,
		StartingPayments:                   0,
		PendingSlots:                       5,
	}
}

// withDefaults fills zero values that would stall or break the simulation.
func (b Balance) withDefaults() Balance {
	d := DefaultBalance()
	if b.MileDuration <= 0 {
		b.MileDuration = d.MileDuration
	}
	if b.MilesPerInterval <= 0 {
		b.MilesPerInterval = d.MilesPerInterval
	}
	if b.MilesPerPassengerIncrease <= 0 {
		b.MilesPerPassengerIncrease = d.MilesPerPassengerIncrease
	}
	if b.UpgradeBaseCost <= 0 {
		b.UpgradeBaseCost = d.UpgradeBaseCost
	}
	if b.PendingSlots < 0 {
		b.PendingSlots = 0
	}
	return b
}
