package engine

// Journal payloads. Field names are part of the stored JSON and are read back
// by the recap builder.

type MissionCreatedPayload struct {
	Kind            string  `json:"kind"`
	Train           string  `json:"train"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	Weather         string  `json:"weather"`
	WeatherIndex    int     `json:"weather_index"`
	EventChance     float64 `json:"event_chance"`
	InitialDistance int     `json:"initial_distance"`
}

type DeployedPayload struct {
	Train    string `json:"train"`
	Supplies int    `json:"supplies"`
	Crew     int    `json:"crew"`
}

type DistancePayload struct {
	MilesRemaining int `json:"miles_remaining"`
}

type SkipPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type PendingPayload struct {
	Pending        bool `json:"pending"`
	MilesRemaining int  `json:"miles_remaining"`
}

type PassengerPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

type ResourcePayload struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type CompletedPayload struct {
	Reward     int `json:"reward"`
	Miles      int `json:"miles"`
	Passengers int `json:"passengers"`
}

type AcknowledgedPayload struct {
	Reward   int `json:"reward"`
	Payments int `json:"payments"`
}

type CrewRecoveredPayload struct {
	Status  string `json:"status"`
	Resting bool   `json:"resting"`
}

type UpgradePayload struct {
	Attribute string `json:"attribute"`
	Level     int    `json:"level"`
	Cost      int    `json:"cost"`
	Payments  int    `json:"payments"`
}
