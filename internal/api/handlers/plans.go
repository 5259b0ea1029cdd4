package handlers

import (
	"context"
	"inspection-route-service/internal/api/dto"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/services"
	"net/http"

	"github.com/rs/zerolog"
)

// PlanService is the planning pipeline as seen by the HTTP layer.
type PlanService interface {
	Plan(ctx context.Context, req domain.PlanRequest) (*services.Outcome, error)
	Fix(ctx context.Context, req domain.PlanRequest, action domain.FixAction) (*services.FixOutcome, error)
}

type PlanHandler struct {
	Service PlanService
}

// Plan runs the full pipeline for one request. Requests the planner rejects
// come back as 422 with the reason code.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.PlanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.Service.Plan(r.Context(), domain.PlanRequest{
		Regions:      req.Regions,
		StationCount: req.StationCount,
		DayCount:     req.DayCount,
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("plan inspection failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusOK
	if out.Status == services.StatusCannotPlan {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, toPlan(out))
}

// Fix applies one corrective strategy and returns the revised request.
func (h *PlanHandler) Fix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.FixRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	action := domain.FixAction(req.Action)
	switch action {
	case "", domain.ActionExtendDays, domain.ActionReduceStations, domain.ActionSingleRegion:
	default:
		writeError(w, r, http.StatusBadRequest, "action must be extend_days, reduce_stations or single_region")
		return
	}

	out, err := h.Service.Fix(r.Context(), domain.PlanRequest{
		Regions:      req.Regions,
		StationCount: req.StationCount,
		DayCount:     req.DayCount,
	}, action)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("fix plan failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.FixPlanResponse{
		Applied:   out.Applied,
		Original:  toRequest(out.Original),
		Revised:   toRequest(out.Revised),
		Rationale: out.Rationale,
		Plan:      toPlan(out.Plan),
	}
	if out.Strategy != nil {
		s := toStrategy(*out.Strategy)
		res.Strategy = &s
	}

	status := http.StatusOK
	if out.Plan.Status == services.StatusCannotPlan {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, res)
}

func toRequest(req domain.PlanRequest) dto.PlanRequest {
	regions := req.Regions
	if regions == nil {
		regions = []string{}
	}
	return dto.PlanRequest{Regions: regions, StationCount: req.StationCount, DayCount: req.DayCount}
}

func toPlan(out *services.Outcome) dto.PlanResponse {
	res := dto.PlanResponse{
		Status:  string(out.Status),
		Reason:  out.Reason,
		Detail:  out.Detail,
		Request: toRequest(out.Request),
	}
	if out.Status == services.StatusCannotPlan {
		return res
	}

	it := out.Itinerary
	res.ScheduledStations = it.ScheduledStations()
	res.TotalDistanceKm = it.TotalDistanceKm
	res.TotalTimeMinutes = it.TotalTimeMinutes
	res.Narrative = out.Narrative

	for _, d := range out.Districts {
		res.Districts = append(res.Districts, dto.DistrictResponse{
			District:     d.Region,
			StationCount: d.StationCount,
			Score:        d.Score,
			ShouldVisit:  d.ShouldVisit,
			Reason:       d.Reason,
		})
	}

	res.Days = make([]dto.DayResponse, 0, len(it.Days))
	for _, d := range it.Days {
		res.Days = append(res.Days, toDay(d))
	}
	for _, st := range it.Dropped {
		res.Dropped = append(res.Dropped, toStation(st))
	}

	mon := dto.MonitorResponse{
		Violations:         make([]dto.ViolationResponse, 0, len(out.Monitor.Violations)),
		SeverityScore:      out.Monitor.SeverityScore,
		InterventionNeeded: out.Monitor.InterventionNeeded,
		Summary:            out.Monitor.Summary,
		Recommendations:    out.Monitor.Recommendations,
	}
	for _, v := range out.Monitor.Violations {
		mon.Violations = append(mon.Violations, dto.ViolationResponse{
			Severity: string(v.Severity),
			Category: string(v.Category),
			Day:      v.Day,
			Observed: v.Observed,
			Limit:    v.Limit,
			Message:  v.Message,
		})
	}
	res.Monitor = &mon

	if out.Fix != nil {
		fix := toStrategy(*out.Fix)
		res.Fix = &fix
	}
	for _, alt := range out.Alternatives {
		res.Alternatives = append(res.Alternatives, toStrategy(alt))
	}

	if ev := out.Evaluation; ev != nil {
		res.Evaluation = &dto.EvaluationResponse{
			Score:             ev.Score,
			Rating:            ev.Rating,
			Efficiency:        ev.Efficiency,
			Consistency:       ev.Consistency,
			Pattern:           ev.Pattern,
			Backtracking:      ev.Backtracking,
			BacktrackCount:    ev.BacktrackCount,
			FatigueLevel:      ev.Fatigue.Level,
			FatigueFactors:    ev.Fatigue.Factors,
			NeedsDayExtension: ev.NeedsDayExtension,
			RecommendedAction: ev.RecommendedAction,
		}
	}

	return res
}

func toDay(d domain.DailyPlan) dto.DayResponse {
	day := dto.DayResponse{
		Day:               d.DayNumber,
		StartTime:         d.StartTime.String(),
		ReturnTime:        d.ReturnTime.String(),
		Stations:          d.StationCount(),
		TotalDistanceKm:   d.TotalDistanceKm,
		TotalTimeMinutes:  d.TotalTimeMinutes,
		ReturnDistanceKm:  d.ReturnDistanceKm,
		ReturnMinutes:     d.ReturnMinutes,
		LunchBreakApplied: d.LunchBreakApplied,
		Feasible:          d.Feasible,
		Stops:             make([]dto.StopResponse, 0, len(d.Stops)),
	}
	for _, s := range d.Stops {
		st := toStation(s.Station)
		day.Stops = append(day.Stops, dto.StopResponse{
			Sequence:         s.Sequence,
			StationID:        st.StationID,
			Name:             st.Name,
			Frequency:        st.Frequency,
			District:         st.District,
			Province:         st.Province,
			Lat:              st.Lat,
			Lon:              st.Lon,
			TravelDistanceKm: s.TravelDistanceKm,
			TravelMinutes:    s.TravelMinutes,
			EstimateSource:   s.EstimateSource,
			ArriveAt:         s.ArriveAt.String(),
			DepartAt:         s.DepartAt.String(),
			LunchBefore:      s.LunchBefore,
		})
	}
	return day
}

func toStrategy(s domain.FixStrategy) dto.FixStrategyResponse {
	secondary := s.Secondary
	if secondary == nil {
		secondary = []string{}
	}
	return dto.FixStrategyResponse{
		Action:             string(s.Action),
		NewDayCount:        s.NewDayCount,
		TargetStationCount: s.TargetStationCount,
		ChosenRegion:       s.ChosenRegion,
		Confidence:         s.Confidence,
		Secondary:          secondary,
		Reason:             s.Reason,
		Summary:            services.Summary(s),
		Improvement: dto.ImprovementResponse{
			ViolationsFixed:   s.Improvement.ViolationsFixed,
			SafetyImprovement: s.Improvement.SafetyImprovement,
			EfficiencyGain:    s.Improvement.EfficiencyGain,
			FatigueReduction:  s.Improvement.FatigueReduction,
		},
	}
}
