package models

import "time"

// AlphaSession is one workout parsed from an Alpha Progression CSV export.
type AlphaSession struct {
	Name      string
	Date      time.Time
	Duration  time.Duration
	Exercises []AlphaExercise
}

// AlphaExercise is one exercise block of an exported session. Warmups are
// kept apart from working sets because they never count towards records.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Warmups    []AlphaSet
	Sets       []AlphaSet
}

// AlphaSet is a single exported set. RIR is nil when the export has no value
// for it (warmups, or the app's -1 sentinel).
type AlphaSet struct {
	Number         int
	WeightKg       float64
	BodyweightPlus bool
	Reps           int
	RIR            *float64
}
