package dashboard

// Summary is the aggregate view rendered on the clinic dashboard. All
// figures are computed at request time, nothing is denormalized.
type Summary struct {
	PatientCount       int            `json:"patient_count"`
	SignedContracts    int            `json:"signed_contracts"`
	BookingsToday      int            `json:"bookings_today"`
	BookingsUpcoming   int            `json:"bookings_upcoming"`
	RevenueCollected   float64        `json:"revenue_collected"`
	TotalPlanned       float64        `json:"total_planned"`
	OutstandingBalance float64        `json:"outstanding_balance"`
	PlansByStatus      map[string]int `json:"plans_by_status"`
}
