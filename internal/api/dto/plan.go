package dto

type PlanRequest struct {
	Regions      []string `json:"regions"`
	StationCount int      `json:"station_count"`
	DayCount     int      `json:"day_count"`
}

type FixRequest struct {
	Regions      []string `json:"regions"`
	StationCount int      `json:"station_count"`
	DayCount     int      `json:"day_count"`
	Action       string   `json:"action"`
}

type StopResponse struct {
	Sequence         int      `json:"sequence"`
	StationID        string   `json:"station_id"`
	Name             string   `json:"name"`
	Frequency        string   `json:"frequency"`
	District         string   `json:"district"`
	Province         string   `json:"province"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	TravelDistanceKm float64  `json:"travel_distance_km"`
	TravelMinutes    float64  `json:"travel_minutes"`
	EstimateSource   string   `json:"estimate_source"`
	ArriveAt         string   `json:"arrive_at"`
	DepartAt         string   `json:"depart_at"`
	LunchBefore      bool     `json:"lunch_before"`
}

type DayResponse struct {
	Day               int            `json:"day"`
	StartTime         string         `json:"start_time"`
	ReturnTime        string         `json:"return_time"`
	Stations          int            `json:"stations"`
	TotalDistanceKm   float64        `json:"total_distance_km"`
	TotalTimeMinutes  float64        `json:"total_time_minutes"`
	ReturnDistanceKm  float64        `json:"return_distance_km"`
	ReturnMinutes     float64        `json:"return_minutes"`
	LunchBreakApplied bool           `json:"lunch_break_applied"`
	Feasible          bool           `json:"feasible"`
	Stops             []StopResponse `json:"stops"`
}

type ViolationResponse struct {
	Severity string  `json:"severity"`
	Category string  `json:"category"`
	Day      int     `json:"day,omitempty"`
	Observed float64 `json:"observed"`
	Limit    float64 `json:"limit"`
	Message  string  `json:"message"`
}

type MonitorResponse struct {
	Violations         []ViolationResponse `json:"violations"`
	SeverityScore      int                 `json:"severity_score"`
	InterventionNeeded bool                `json:"intervention_needed"`
	Summary            string              `json:"summary"`
	Recommendations    []string            `json:"recommendations"`
}

type ImprovementResponse struct {
	ViolationsFixed   int     `json:"violations_fixed"`
	SafetyImprovement float64 `json:"safety_improvement"`
	EfficiencyGain    float64 `json:"efficiency_gain"`
	FatigueReduction  float64 `json:"fatigue_reduction"`
}

type FixStrategyResponse struct {
	Action             string              `json:"action"`
	NewDayCount        int                 `json:"new_day_count,omitempty"`
	TargetStationCount int                 `json:"target_station_count,omitempty"`
	ChosenRegion       string              `json:"chosen_region,omitempty"`
	Confidence         int                 `json:"confidence"`
	Secondary          []string            `json:"secondary"`
	Reason             string              `json:"reason"`
	Summary            string              `json:"summary"`
	Improvement        ImprovementResponse `json:"improvement"`
}

type DistrictResponse struct {
	District     string `json:"district"`
	StationCount int    `json:"station_count"`
	Score        int    `json:"score"`
	ShouldVisit  bool   `json:"should_visit"`
	Reason       string `json:"reason"`
}

type EvaluationResponse struct {
	Score             float64  `json:"score"`
	Rating            string   `json:"rating"`
	Efficiency        float64  `json:"efficiency"`
	Consistency       float64  `json:"consistency"`
	Pattern           string   `json:"pattern"`
	Backtracking      bool     `json:"backtracking"`
	BacktrackCount    int      `json:"backtrack_count"`
	FatigueLevel      string   `json:"fatigue_level"`
	FatigueFactors    []string `json:"fatigue_factors"`
	NeedsDayExtension bool     `json:"needs_day_extension"`
	RecommendedAction string   `json:"recommended_action"`
}

type PlanResponse struct {
	Status            string                `json:"status"`
	Reason            string                `json:"reason,omitempty"`
	Detail            string                `json:"detail,omitempty"`
	Request           PlanRequest           `json:"request"`
	Districts         []DistrictResponse    `json:"districts,omitempty"`
	Days              []DayResponse         `json:"days,omitempty"`
	Dropped           []StationResponse     `json:"dropped,omitempty"`
	ScheduledStations int                   `json:"scheduled_stations"`
	TotalDistanceKm   float64               `json:"total_distance_km"`
	TotalTimeMinutes  float64               `json:"total_time_minutes"`
	Monitor           *MonitorResponse      `json:"monitor,omitempty"`
	Fix               *FixStrategyResponse  `json:"fix,omitempty"`
	Alternatives      []FixStrategyResponse `json:"alternatives,omitempty"`
	Evaluation        *EvaluationResponse   `json:"evaluation,omitempty"`
	Narrative         string                `json:"narrative,omitempty"`
}

type FixPlanResponse struct {
	Applied   bool                 `json:"applied"`
	Original  PlanRequest          `json:"original"`
	Revised   PlanRequest          `json:"revised"`
	Strategy  *FixStrategyResponse `json:"strategy,omitempty"`
	Rationale string               `json:"rationale"`
	Plan      PlanResponse         `json:"plan"`
}
