package garmin

import (
	"strings"
)

type ConvertOptions struct {
	OwnerID          string
	HumanDescription string
	SportFallback    Sport
}

const fallbackWorkoutName = "Converted workout"

// ConvertStructuredPlan flattens a structured plan into the vendor workout
// shape. Sections map 1:1 to segments in input order; single blocks become
// one step each and repeat blocks become one repeat-group node. Pure
// function: no unit conversion, no validation — the schema validator owns
// semantic correctness.
func ConvertStructuredPlan(plan *StructuredPlan, opts ConvertOptions) *Workout {
	sport := opts.SportFallback
	if plan.Sport != nil {
		sport = *plan.Sport
	}

	workout := &Workout{
		OwnerID:        opts.OwnerID,
		WorkoutName:    workoutNameFrom(opts.HumanDescription),
		Sport:          sport,
		PoolLength:     plan.PoolLength,
		PoolLengthUnit: plan.PoolLengthUnit,
	}
	if desc := strings.TrimSpace(opts.HumanDescription); desc != "" {
		workout.Description = &desc
	}

	for i, section := range plan.Sections {
		segment := convertSection(section, i+1, sport)
		workout.EstimatedDurationInSecs += segment.EstimatedDurationInSecs
		workout.Segments = append(workout.Segments, segment)
	}

	return workout
}

func convertSection(section PlanSection, order int, sportFallback Sport) Segment {
	sport := sportFallback
	if section.Sport != nil {
		sport = *section.Sport
	}

	segment := Segment{
		SegmentOrder: order,
		Sport:        sport,
	}

	stepOrder := 0
	for _, block := range section.Blocks {
		stepOrder++
		switch block.Kind {
		case BlockRepeat:
			step := convertRepeatBlock(block, stepOrder)
			segment.EstimatedDurationInSecs += block.Repeat * childDurationSecs(step.Steps)
			segment.Steps = append(segment.Steps, step)
		default:
			if block.Step == nil {
				continue
			}
			step := convertPlanStep(*block.Step, stepOrder)
			segment.EstimatedDurationInSecs += stepDurationSecs(step)
			segment.Steps = append(segment.Steps, step)
		}
	}

	return segment
}

func convertRepeatBlock(block PlanBlock, order int) Step {
	repeat := block.Repeat
	step := Step{
		Type:        StepTypeRepeat,
		StepOrder:   order,
		RepeatValue: &repeat,
	}

	// Children are numbered independently of their parent's siblings; order
	// is structural, scoped to the containing group.
	for i, child := range block.Steps {
		step.Steps = append(step.Steps, convertPlanStep(child, i+1))
	}

	return step
}

func convertPlanStep(ps PlanStep, order int) Step {
	step := Step{
		Type:              StepTypeWorkout,
		StepOrder:         order,
		Intensity:         ps.Intensity,
		DurationType:      ps.Duration.Type,
		ExerciseCategory:  ps.ExerciseCategory,
		ExerciseName:      ps.ExerciseName,
		WeightValue:       ps.WeightValue,
		WeightDisplayUnit: ps.WeightUnit,
	}

	value := ps.Duration.Value
	step.DurationValue = &value

	// The vendor format distinguishes timed rest from generic timed work even
	// though the structured plan does not.
	if ps.Intensity == IntensityRest && ps.Duration.Type == DurationTime {
		step.DurationType = DurationFixedRest
	}

	if notes := strings.TrimSpace(ps.Notes); notes != "" {
		step.Description = &notes
	}

	// Targets pass through verbatim; low/high are the author's units.
	if len(ps.Targets) > 0 {
		target := ps.Targets[0]
		targetType := target.Type
		low, high := target.Low, target.High
		step.TargetType = &targetType
		step.TargetValueLow = &low
		step.TargetValueHigh = &high
	}

	return step
}

// stepDurationSecs is the time contribution of one leaf step. Only timed
// durations count; REPS and DISTANCE have no fixed time cost.
func stepDurationSecs(step Step) int {
	if step.DurationValue == nil {
		return 0
	}
	switch step.DurationType {
	case DurationTime, DurationFixedRest:
		return int(*step.DurationValue)
	default:
		return 0
	}
}

func childDurationSecs(steps []Step) int {
	total := 0
	for _, s := range steps {
		total += stepDurationSecs(s)
	}
	return total
}

// workoutNameFrom extracts a name from the first non-empty line of the human
// description, stripping markdown heading markers.
func workoutNameFrom(description string) string {
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line != "" {
			return line
		}
	}
	return fallbackWorkoutName
}
