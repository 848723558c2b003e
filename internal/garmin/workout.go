package garmin

// Vendor workout document shapes as accepted by the Garmin Training API.
// Field names follow the wire format, not our internal conventions.

type Sport string

const (
	SportRunning          Sport = "RUNNING"
	SportCycling          Sport = "CYCLING"
	SportLapSwimming      Sport = "LAP_SWIMMING"
	SportStrengthTraining Sport = "STRENGTH_TRAINING"
	SportCardioTraining   Sport = "CARDIO_TRAINING"
	SportYoga             Sport = "YOGA"
	SportPilates          Sport = "PILATES"
	SportGeneric          Sport = "GENERIC"
)

type DurationType string

const (
	DurationTime      DurationType = "TIME"
	DurationReps      DurationType = "REPS"
	DurationDistance  DurationType = "DISTANCE"
	DurationFixedRest DurationType = "FIXED_REST"
	DurationOpen      DurationType = "OPEN"
)

type Intensity string

const (
	IntensityActive   Intensity = "ACTIVE"
	IntensityRest     Intensity = "REST"
	IntensityWarmup   Intensity = "WARMUP"
	IntensityCooldown Intensity = "COOLDOWN"
	IntensityRecovery Intensity = "RECOVERY"
	IntensityInterval Intensity = "INTERVAL"
)

type TargetType string

const (
	TargetHeartRate TargetType = "HEART_RATE"
	TargetCadence   TargetType = "CADENCE"
	TargetPower     TargetType = "POWER"
	TargetPace      TargetType = "PACE"
	TargetSpeed     TargetType = "SPEED"
	TargetOpen      TargetType = "OPEN"
)

const (
	StepTypeWorkout = "WorkoutStep"
	StepTypeRepeat  = "WorkoutRepeatStep"
)

// Step is either a simple workout step or a repeat group. Repeat groups carry
// RepeatValue and nested Steps; simple steps carry everything else.
type Step struct {
	Type            string       `json:"type"`
	StepOrder       int          `json:"stepOrder"`
	Intensity       Intensity    `json:"intensity,omitempty"`
	Description     *string      `json:"description,omitempty"`
	DurationType    DurationType `json:"durationType,omitempty"`
	DurationValue   *float64     `json:"durationValue,omitempty"`
	TargetType      *TargetType  `json:"targetType,omitempty"`
	TargetValueLow  *float64     `json:"targetValueLow,omitempty"`
	TargetValueHigh *float64     `json:"targetValueHigh,omitempty"`

	// Exercise taxonomy reference, strength/cardio family only
	ExerciseCategory *string `json:"exerciseCategory,omitempty"`
	ExerciseName     *string `json:"exerciseName,omitempty"`

	WeightValue       *float64 `json:"weightValue,omitempty"`
	WeightDisplayUnit *string  `json:"weightDisplayUnit,omitempty"`

	// Repeat group fields
	RepeatValue *int   `json:"repeatValue,omitempty"`
	Steps       []Step `json:"steps,omitempty"`
}

// IsRepeat reports whether the step is a repeat group node.
func (s *Step) IsRepeat() bool {
	return s.Type == StepTypeRepeat
}

type Segment struct {
	SegmentOrder            int    `json:"segmentOrder"`
	Sport                   Sport  `json:"sport"`
	EstimatedDurationInSecs int    `json:"estimatedDurationInSecs"`
	Steps                   []Step `json:"steps"`
}

type Workout struct {
	OwnerID                 string    `json:"ownerId,omitempty"`
	WorkoutName             string    `json:"workoutName"`
	Description             *string   `json:"description,omitempty"`
	Sport                   Sport     `json:"sport"`
	EstimatedDurationInSecs int       `json:"estimatedDurationInSecs"`
	PoolLength              *float64  `json:"poolLength,omitempty"`
	PoolLengthUnit          *string   `json:"poolLengthUnit,omitempty"`
	Segments                []Segment `json:"segments"`
}
