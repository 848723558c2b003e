package garmin

// Exercise taxonomy: the canonical (sport, category, name) triples the
// Training API accepts, with display labels per locale. Generated plans must
// reference these identifiers exactly; the lookup tool exists so the AI can
// resolve them instead of guessing.

type Exercise struct {
	Sport    Sport
	Category string
	Name     string
	Labels   map[string]string // locale -> display label, "en" always present
}

var exerciseCatalog = []Exercise{
	// Strength
	{SportStrengthTraining, "SQUAT", "BARBELL_BACK_SQUAT", map[string]string{"en": "Barbell Back Squat", "de": "Langhantel-Kniebeuge"}},
	{SportStrengthTraining, "SQUAT", "GOBLET_SQUAT", map[string]string{"en": "Goblet Squat", "de": "Goblet Squat"}},
	{SportStrengthTraining, "SQUAT", "BULGARIAN_SPLIT_SQUAT", map[string]string{"en": "Bulgarian Split Squat", "de": "Bulgarische Kniebeuge"}},
	{SportStrengthTraining, "DEADLIFT", "BARBELL_DEADLIFT", map[string]string{"en": "Barbell Deadlift", "de": "Langhantel-Kreuzheben"}},
	{SportStrengthTraining, "DEADLIFT", "ROMANIAN_DEADLIFT", map[string]string{"en": "Romanian Deadlift", "de": "Rumänisches Kreuzheben"}},
	{SportStrengthTraining, "DEADLIFT", "SINGLE_LEG_DEADLIFT", map[string]string{"en": "Single Leg Deadlift", "de": "Einbeiniges Kreuzheben"}},
	{SportStrengthTraining, "BENCH_PRESS", "BARBELL_BENCH_PRESS", map[string]string{"en": "Barbell Bench Press", "de": "Langhantel-Bankdrücken"}},
	{SportStrengthTraining, "BENCH_PRESS", "DUMBBELL_BENCH_PRESS", map[string]string{"en": "Dumbbell Bench Press", "de": "Kurzhantel-Bankdrücken"}},
	{SportStrengthTraining, "BENCH_PRESS", "INCLINE_BARBELL_BENCH_PRESS", map[string]string{"en": "Incline Barbell Bench Press", "de": "Schrägbank-Langhanteldrücken"}},
	{SportStrengthTraining, "SHOULDER_PRESS", "OVERHEAD_BARBELL_PRESS", map[string]string{"en": "Overhead Barbell Press", "de": "Überkopfdrücken mit Langhantel"}},
	{SportStrengthTraining, "SHOULDER_PRESS", "SEATED_DUMBBELL_PRESS", map[string]string{"en": "Seated Dumbbell Press", "de": "Schulterdrücken sitzend"}},
	{SportStrengthTraining, "ROW", "BARBELL_ROW", map[string]string{"en": "Barbell Row", "de": "Langhantelrudern"}},
	{SportStrengthTraining, "ROW", "DUMBBELL_ROW", map[string]string{"en": "Dumbbell Row", "de": "Kurzhantelrudern"}},
	{SportStrengthTraining, "ROW", "SEATED_CABLE_ROW", map[string]string{"en": "Seated Cable Row", "de": "Rudern am Kabelzug"}},
	{SportStrengthTraining, "PULL_UP", "PULL_UP", map[string]string{"en": "Pull Up", "de": "Klimmzug"}},
	{SportStrengthTraining, "PULL_UP", "CHIN_UP", map[string]string{"en": "Chin Up", "de": "Klimmzug im Untergriff"}},
	{SportStrengthTraining, "PULL_UP", "LAT_PULLDOWN", map[string]string{"en": "Lat Pulldown", "de": "Latzug"}},
	{SportStrengthTraining, "PUSH_UP", "PUSH_UP", map[string]string{"en": "Push Up", "de": "Liegestütz"}},
	{SportStrengthTraining, "PUSH_UP", "DIAMOND_PUSH_UP", map[string]string{"en": "Diamond Push Up", "de": "Enger Liegestütz"}},
	{SportStrengthTraining, "LUNGE", "WALKING_LUNGE", map[string]string{"en": "Walking Lunge", "de": "Ausfallschritte gehend"}},
	{SportStrengthTraining, "LUNGE", "REVERSE_LUNGE", map[string]string{"en": "Reverse Lunge", "de": "Ausfallschritt rückwärts"}},
	{SportStrengthTraining, "HIP_RAISE", "BARBELL_HIP_THRUST", map[string]string{"en": "Barbell Hip Thrust", "de": "Hip Thrust mit Langhantel"}},
	{SportStrengthTraining, "HIP_RAISE", "GLUTE_BRIDGE", map[string]string{"en": "Glute Bridge", "de": "Beckenheben"}},
	{SportStrengthTraining, "CURL", "BARBELL_BICEPS_CURL", map[string]string{"en": "Barbell Biceps Curl", "de": "Langhantel-Bizepscurl"}},
	{SportStrengthTraining, "CURL", "HAMMER_CURL", map[string]string{"en": "Hammer Curl", "de": "Hammercurl"}},
	{SportStrengthTraining, "TRICEPS_EXTENSION", "CABLE_PUSHDOWN", map[string]string{"en": "Cable Pushdown", "de": "Trizepsdrücken am Kabel"}},
	{SportStrengthTraining, "CORE", "PLANK", map[string]string{"en": "Plank", "de": "Unterarmstütz"}},
	{SportStrengthTraining, "CORE", "SIDE_PLANK", map[string]string{"en": "Side Plank", "de": "Seitstütz"}},
	{SportStrengthTraining, "CORE", "RUSSIAN_TWIST", map[string]string{"en": "Russian Twist", "de": "Russian Twist"}},
	{SportStrengthTraining, "CORE", "DEAD_BUG", map[string]string{"en": "Dead Bug", "de": "Dead Bug"}},
	{SportStrengthTraining, "CALF_RAISE", "STANDING_CALF_RAISE", map[string]string{"en": "Standing Calf Raise", "de": "Wadenheben stehend"}},

	// Cardio
	{SportCardioTraining, "PLYO", "BURPEE", map[string]string{"en": "Burpee", "de": "Burpee"}},
	{SportCardioTraining, "PLYO", "BOX_JUMP", map[string]string{"en": "Box Jump", "de": "Box Jump"}},
	{SportCardioTraining, "PLYO", "JUMPING_JACK", map[string]string{"en": "Jumping Jack", "de": "Hampelmann"}},
	{SportCardioTraining, "CARDIO", "JUMP_ROPE", map[string]string{"en": "Jump Rope", "de": "Seilspringen"}},
	{SportCardioTraining, "CARDIO", "MOUNTAIN_CLIMBER", map[string]string{"en": "Mountain Climber", "de": "Bergsteiger"}},
	{SportCardioTraining, "CARDIO", "HIGH_KNEE_RUN", map[string]string{"en": "High Knee Run", "de": "Kniehebelauf"}},

	// Yoga
	{SportYoga, "YOGA_STANDING", "DOWNWARD_FACING_DOG", map[string]string{"en": "Downward Facing Dog", "de": "Herabschauender Hund"}},
	{SportYoga, "YOGA_STANDING", "WARRIOR_ONE", map[string]string{"en": "Warrior One", "de": "Krieger Eins"}},
	{SportYoga, "YOGA_STANDING", "WARRIOR_TWO", map[string]string{"en": "Warrior Two", "de": "Krieger Zwei"}},
	{SportYoga, "YOGA_SEATED", "CHILDS_POSE", map[string]string{"en": "Child's Pose", "de": "Stellung des Kindes"}},
	{SportYoga, "YOGA_SEATED", "PIGEON_POSE", map[string]string{"en": "Pigeon Pose", "de": "Taube"}},

	// Pilates
	{SportPilates, "PILATES_CORE", "HUNDRED", map[string]string{"en": "The Hundred", "de": "Hundred"}},
	{SportPilates, "PILATES_CORE", "ROLL_UP", map[string]string{"en": "Roll Up", "de": "Roll Up"}},
	{SportPilates, "PILATES_CORE", "SINGLE_LEG_STRETCH", map[string]string{"en": "Single Leg Stretch", "de": "Single Leg Stretch"}},
}

// Catalog returns the full exercise taxonomy.
func Catalog() []Exercise {
	return exerciseCatalog
}

// FindExercise returns the catalog entry for an exact (sport, category, name)
// triple, or nil when the triple is not part of the taxonomy.
func FindExercise(sport Sport, category, name string) *Exercise {
	for i := range exerciseCatalog {
		e := &exerciseCatalog[i]
		if e.Sport == sport && e.Category == category && e.Name == name {
			return e
		}
	}
	return nil
}

// Label returns the display label for the locale, falling back to English.
func (e *Exercise) Label(locale string) string {
	if label, ok := e.Labels[locale]; ok {
		return label
	}
	return e.Labels["en"]
}
