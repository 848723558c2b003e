package garmin

import (
	"fmt"
)

// Issue is one validation failure addressed by its exact field path, e.g.
// "segments.0.steps.2.exerciseCategory". Paths are machine-consumable: the
// AI correction loop feeds them back as targeted re-prompts.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

type fieldRule int

const (
	ruleAllowed fieldRule = iota
	ruleRequired
	ruleForbidden
)

// sportRules is the closed, sport-conditioned validation matrix. Acceptance
// is the complement of what it forbids. Sports not listed here only get the
// structural checks.
type sportRules struct {
	exercise           fieldRule
	weight             fieldRule
	forbiddenDurations []DurationType
}

var sportMatrix = map[Sport]sportRules{
	SportStrengthTraining: {exercise: ruleRequired, weight: ruleAllowed},
	SportCardioTraining:   {exercise: ruleAllowed, weight: ruleForbidden},
	SportYoga: {
		exercise:           ruleAllowed,
		weight:             ruleForbidden,
		forbiddenDurations: []DurationType{DurationReps}, // holds are timed, not counted
	},
	SportPilates:     {exercise: ruleAllowed, weight: ruleForbidden},
	SportRunning:     {exercise: ruleForbidden, weight: ruleForbidden},
	SportCycling:     {exercise: ruleForbidden, weight: ruleForbidden},
	SportLapSwimming: {exercise: ruleForbidden, weight: ruleForbidden},
}

var validDurationTypes = map[DurationType]bool{
	DurationTime:      true,
	DurationReps:      true,
	DurationDistance:  true,
	DurationFixedRest: true,
	DurationOpen:      true,
}

// Validate runs structural shape checks first, then the per-sport field
// matrix as a refinement, reporting everything through one issue list.
// An empty result means the workout is acceptable to the vendor API.
func Validate(w *Workout) []Issue {
	var issues []Issue

	if w.WorkoutName == "" {
		issues = append(issues, Issue{Path: "workoutName", Message: "must not be empty"})
	}
	if w.Sport == "" {
		issues = append(issues, Issue{Path: "sport", Message: "must not be empty"})
	}
	if len(w.Segments) == 0 {
		issues = append(issues, Issue{Path: "segments", Message: "workout needs at least one segment"})
	}
	if w.PoolLength != nil && w.Sport != SportLapSwimming {
		issues = append(issues, Issue{Path: "poolLength", Message: "only valid for LAP_SWIMMING"})
	}

	for si, segment := range w.Segments {
		segPath := fmt.Sprintf("segments.%d", si)
		if segment.Sport == "" {
			issues = append(issues, Issue{Path: segPath + ".sport", Message: "must not be empty"})
		}
		if len(segment.Steps) == 0 {
			issues = append(issues, Issue{Path: segPath + ".steps", Message: "segment needs at least one step"})
		}
		for pi, step := range segment.Steps {
			issues = append(issues, validateStep(step, segment.Sport, fmt.Sprintf("%s.steps.%d", segPath, pi))...)
		}
	}

	return issues
}

func validateStep(step Step, sport Sport, path string) []Issue {
	if step.IsRepeat() {
		return validateRepeatStep(step, sport, path)
	}

	var issues []Issue

	if !validDurationTypes[step.DurationType] {
		issues = append(issues, Issue{
			Path:    path + ".durationType",
			Message: fmt.Sprintf("unknown duration type %q", step.DurationType),
		})
	} else if step.DurationType != DurationOpen && (step.DurationValue == nil || *step.DurationValue <= 0) {
		issues = append(issues, Issue{
			Path:    path + ".durationValue",
			Message: "must be a positive number",
		})
	}

	if step.TargetValueLow != nil && step.TargetValueHigh != nil && *step.TargetValueLow > *step.TargetValueHigh {
		issues = append(issues, Issue{
			Path:    path + ".targetValueLow",
			Message: "target low must not exceed target high",
		})
	}

	rules, known := sportMatrix[sport]
	if !known {
		return issues
	}

	switch rules.exercise {
	case ruleRequired:
		if step.ExerciseCategory == nil {
			issues = append(issues, Issue{
				Path:    path + ".exerciseCategory",
				Message: fmt.Sprintf("required for %s steps", sport),
			})
		}
		if step.ExerciseName == nil {
			issues = append(issues, Issue{
				Path:    path + ".exerciseName",
				Message: fmt.Sprintf("required for %s steps", sport),
			})
		}
	case ruleForbidden:
		if step.ExerciseCategory != nil {
			issues = append(issues, Issue{
				Path:    path + ".exerciseCategory",
				Message: fmt.Sprintf("not allowed for %s steps", sport),
			})
		}
		if step.ExerciseName != nil {
			issues = append(issues, Issue{
				Path:    path + ".exerciseName",
				Message: fmt.Sprintf("not allowed for %s steps", sport),
			})
		}
	}

	if rules.weight == ruleForbidden {
		if step.WeightValue != nil {
			issues = append(issues, Issue{
				Path:    path + ".weightValue",
				Message: fmt.Sprintf("not allowed for %s steps", sport),
			})
		}
		if step.WeightDisplayUnit != nil {
			issues = append(issues, Issue{
				Path:    path + ".weightDisplayUnit",
				Message: fmt.Sprintf("not allowed for %s steps", sport),
			})
		}
	}

	for _, forbidden := range rules.forbiddenDurations {
		if step.DurationType == forbidden {
			issues = append(issues, Issue{
				Path:    path + ".durationType",
				Message: fmt.Sprintf("%s is not valid for %s steps", forbidden, sport),
			})
		}
	}

	return issues
}

func validateRepeatStep(step Step, sport Sport, path string) []Issue {
	var issues []Issue

	if step.RepeatValue == nil || *step.RepeatValue < 1 {
		issues = append(issues, Issue{
			Path:    path + ".repeatValue",
			Message: "repeat steps need a repeat count of at least 1",
		})
	}
	if len(step.Steps) == 0 {
		issues = append(issues, Issue{
			Path:    path + ".steps",
			Message: "repeat steps need at least one child step",
		})
	}

	for ci, child := range step.Steps {
		issues = append(issues, validateStep(child, sport, fmt.Sprintf("%s.steps.%d", path, ci))...)
	}

	return issues
}
