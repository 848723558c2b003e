package garmin

// StructuredPlan is the intermediate representation the AI emits before
// conversion into the vendor workout document. It is deliberately flatter
// than the Garmin shape: phases hold blocks, blocks are single steps or
// repeat groups, and semantic consistency is enforced by the validator
// after conversion, not here.

type Phase string

const (
	PhaseWarmup   Phase = "WARMUP"
	PhaseMain     Phase = "MAIN"
	PhaseCooldown Phase = "COOLDOWN"
)

type BlockKind string

const (
	BlockSingle BlockKind = "single"
	BlockRepeat BlockKind = "repeat"
)

type StepRole string

const (
	RoleEffort   StepRole = "effort"
	RoleRest     StepRole = "rest"
	RoleRecovery StepRole = "recovery"
)

type PlanDuration struct {
	Type  DurationType `json:"type"`
	Value float64      `json:"value"`
}

type PlanTarget struct {
	Type TargetType `json:"type"`
	Low  float64    `json:"low"`
	High float64    `json:"high"`
}

type PlanStep struct {
	Role             StepRole     `json:"role,omitempty"`
	Intensity        Intensity    `json:"intensity"`
	Duration         PlanDuration `json:"duration"`
	Targets          []PlanTarget `json:"targets,omitempty"`
	Notes            string       `json:"notes,omitempty"`
	ExerciseCategory *string      `json:"exerciseCategory,omitempty"`
	ExerciseName     *string      `json:"exerciseName,omitempty"`
	WeightValue      *float64     `json:"weightValue,omitempty"`
	WeightUnit       *string      `json:"weightUnit,omitempty"`
}

type PlanBlock struct {
	Kind BlockKind `json:"kind"`

	// single blocks
	Step *PlanStep `json:"step,omitempty"`

	// repeat blocks
	Repeat int        `json:"repeat,omitempty"`
	Steps  []PlanStep `json:"steps,omitempty"`
}

type PlanSection struct {
	Phase  Phase       `json:"phase"`
	Sport  *Sport      `json:"sport,omitempty"`
	Blocks []PlanBlock `json:"blocks"`
}

type StructuredPlan struct {
	Sport          *Sport        `json:"sport,omitempty"`
	PoolLength     *float64      `json:"poolLength,omitempty"`
	PoolLengthUnit *string       `json:"poolLengthUnit,omitempty"`
	Sections       []PlanSection `json:"sections"`
}
