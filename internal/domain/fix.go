package domain

type FixAction string

const (
	ActionExtendDays     FixAction = "extend_days"
	ActionReduceStations FixAction = "reduce_stations"
	ActionSingleRegion   FixAction = "single_region"
)

// Secondary recommendations attached to a fix.
const (
	SecondaryStartEarlier  = "start_earlier"
	SecondaryOptimizeRoute = "optimize_route"
)

// FixStrategy is a corrective re-planning proposal. Only the parameter that
// matches Action is meaningful.
type FixStrategy struct {
	Action             FixAction
	NewDayCount        int
	TargetStationCount int
	ChosenRegion       string
	Confidence         int
	Secondary          []string
	Reason             string
	Improvement        Improvement
}

// Improvement estimates what a fix would achieve on the current plan.
type Improvement struct {
	ViolationsFixed   int
	SafetyImprovement float64
	EfficiencyGain    float64
	FatigueReduction  float64
}
