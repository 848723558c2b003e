package garmin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedStep(intensity Intensity, secs float64) PlanStep {
	return PlanStep{
		Intensity: intensity,
		Duration:  PlanDuration{Type: DurationTime, Value: secs},
	}
}

func singleBlock(step PlanStep) PlanBlock {
	return PlanBlock{Kind: BlockSingle, Step: &step}
}

func TestConvertStructuredPlan(t *testing.T) {
	t.Run("sections map to segments in phase order", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseWarmup, Blocks: []PlanBlock{singleBlock(timedStep(IntensityWarmup, 300))}},
				{Phase: PhaseMain, Blocks: []PlanBlock{singleBlock(timedStep(IntensityActive, 1200))}},
				{Phase: PhaseCooldown, Blocks: []PlanBlock{singleBlock(timedStep(IntensityCooldown, 300))}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportRunning})

		require.Len(t, workout.Segments, 3)
		assert.Equal(t, 1, workout.Segments[0].SegmentOrder)
		assert.Equal(t, 2, workout.Segments[1].SegmentOrder)
		assert.Equal(t, 3, workout.Segments[2].SegmentOrder)
		assert.Equal(t, IntensityWarmup, workout.Segments[0].Steps[0].Intensity)
		assert.Equal(t, IntensityCooldown, workout.Segments[2].Steps[0].Intensity)
	})

	t.Run("estimated duration is exact sum of leaf durations", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseWarmup, Blocks: []PlanBlock{singleBlock(timedStep(IntensityWarmup, 600))}},
				{Phase: PhaseMain, Blocks: []PlanBlock{
					{Kind: BlockRepeat, Repeat: 5, Steps: []PlanStep{
						{Role: RoleEffort, Intensity: IntensityInterval, Duration: PlanDuration{Type: DurationTime, Value: 90}},
						{Role: RoleRest, Intensity: IntensityRest, Duration: PlanDuration{Type: DurationTime, Value: 90}},
					}},
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportRunning})

		// 600 + 5 * (90 + 90)
		assert.Equal(t, 1500, workout.EstimatedDurationInSecs)
		assert.Equal(t, 600, workout.Segments[0].EstimatedDurationInSecs)
		assert.Equal(t, 900, workout.Segments[1].EstimatedDurationInSecs)
	})

	t.Run("rest time steps are retagged FIXED_REST", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseMain, Blocks: []PlanBlock{
					singleBlock(timedStep(IntensityRest, 120)),
					singleBlock(timedStep(IntensityActive, 120)),
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportRunning})

		steps := workout.Segments[0].Steps
		assert.Equal(t, DurationFixedRest, steps[0].DurationType)
		assert.Equal(t, DurationTime, steps[1].DurationType)
	})

	t.Run("rest reps steps keep their duration type", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseMain, Blocks: []PlanBlock{
					singleBlock(PlanStep{Intensity: IntensityRest, Duration: PlanDuration{Type: DurationReps, Value: 10}}),
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportStrengthTraining})

		assert.Equal(t, DurationReps, workout.Segments[0].Steps[0].DurationType)
	})

	t.Run("repeat children are numbered independently", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseMain, Blocks: []PlanBlock{
					singleBlock(timedStep(IntensityActive, 60)),
					{Kind: BlockRepeat, Repeat: 3, Steps: []PlanStep{
						timedStep(IntensityInterval, 30),
						timedStep(IntensityRest, 30),
					}},
					singleBlock(timedStep(IntensityActive, 60)),
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportCycling})

		steps := workout.Segments[0].Steps
		require.Len(t, steps, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{steps[0].StepOrder, steps[1].StepOrder, steps[2].StepOrder})

		repeat := steps[1]
		assert.True(t, repeat.IsRepeat())
		require.NotNil(t, repeat.RepeatValue)
		assert.Equal(t, 3, *repeat.RepeatValue)
		require.Len(t, repeat.Steps, 2)
		assert.Equal(t, 1, repeat.Steps[0].StepOrder)
		assert.Equal(t, 2, repeat.Steps[1].StepOrder)
	})

	t.Run("targets pass through without unit conversion", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseMain, Blocks: []PlanBlock{
					singleBlock(PlanStep{
						Intensity: IntensityActive,
						Duration:  PlanDuration{Type: DurationTime, Value: 300},
						Targets:   []PlanTarget{{Type: TargetHeartRate, Low: 140, High: 160}},
					}),
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportRunning})

		step := workout.Segments[0].Steps[0]
		require.NotNil(t, step.TargetType)
		assert.Equal(t, TargetHeartRate, *step.TargetType)
		assert.Equal(t, 140.0, *step.TargetValueLow)
		assert.Equal(t, 160.0, *step.TargetValueHigh)
	})

	t.Run("workout name comes from first description line", func(t *testing.T) {
		plan := &StructuredPlan{Sections: []PlanSection{
			{Phase: PhaseMain, Blocks: []PlanBlock{singleBlock(timedStep(IntensityActive, 60))}},
		}}

		workout := ConvertStructuredPlan(plan, ConvertOptions{
			SportFallback:    SportRunning,
			HumanDescription: "# Tuesday Intervals\n5x400m at 5k pace",
		})
		assert.Equal(t, "Tuesday Intervals", workout.WorkoutName)

		workout = ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportRunning})
		assert.Equal(t, fallbackWorkoutName, workout.WorkoutName)
	})

	t.Run("section sport overrides fallback", func(t *testing.T) {
		strength := SportStrengthTraining
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseWarmup, Blocks: []PlanBlock{singleBlock(timedStep(IntensityWarmup, 300))}},
				{Phase: PhaseMain, Sport: &strength, Blocks: []PlanBlock{singleBlock(timedStep(IntensityActive, 600))}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportCardioTraining})

		assert.Equal(t, SportCardioTraining, workout.Segments[0].Sport)
		assert.Equal(t, SportStrengthTraining, workout.Segments[1].Sport)
	})

	t.Run("reps and distance contribute no time", func(t *testing.T) {
		plan := &StructuredPlan{
			Sections: []PlanSection{
				{Phase: PhaseMain, Blocks: []PlanBlock{
					singleBlock(PlanStep{Intensity: IntensityActive, Duration: PlanDuration{Type: DurationReps, Value: 12}}),
					singleBlock(timedStep(IntensityActive, 45)),
				}},
			},
		}

		workout := ConvertStructuredPlan(plan, ConvertOptions{SportFallback: SportStrengthTraining})

		assert.Equal(t, 45, workout.EstimatedDurationInSecs)
	})
}
