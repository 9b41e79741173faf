package alpha

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;1
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
3;+35;10;0
"4. Reverse Lunges · Dumbbells · 10 reps"
#;KG;REPS;RIR
1;10;10;1
2;10;10;1
3;10;10;0
"5. Standing Calf Raises · Machine · 12 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;157,5;11;1
2;157,5;11;0
3;157,5;10;0
"6. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;1
3;+0;12;0

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps<br>WU3 · 77,5 kg · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
`

// TestParseCompleteSessions covers a two-session export end to end.
func TestParseCompleteSessions(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	s1 := sessions[0]
	if s1.Name != "Legs · Day 2 · Week 4 · Push-Pull-Legs" {
		t.Errorf("s1.Name = %q", s1.Name)
	}
	if want := time.Date(2026, 2, 19, 4, 54, 0, 0, time.UTC); !s1.Date.Equal(want) {
		t.Errorf("s1.Date = %v, want %v", s1.Date, want)
	}
	if s1.Duration != 62*time.Minute {
		t.Errorf("s1.Duration = %v, want 1h2m", s1.Duration)
	}
	if len(s1.Exercises) != 6 {
		t.Fatalf("s1 exercises = %d, want 6", len(s1.Exercises))
	}

	tests := []struct {
		name, equipment  string
		target           int
		warmups, working int
	}{
		{"Hack Squats", "Machine", 8, 2, 3},
		{"Sumo Squats", "Smith machine", 10, 1, 2},
		{"Hyperextensions on Roman Chair", "Bodyweight", 10, 1, 3},
		{"Reverse Lunges", "Dumbbells", 10, 0, 3},
		{"Standing Calf Raises", "Machine", 12, 1, 3},
		{"Hanging Leg Raises", "Bodyweight", 12, 0, 3},
	}
	for i, tt := range tests {
		ex := s1.Exercises[i]
		if ex.Number != i+1 {
			t.Errorf("ex%d.Number = %d", i+1, ex.Number)
		}
		if ex.Name != tt.name {
			t.Errorf("ex%d.Name = %q, want %q", i+1, ex.Name, tt.name)
		}
		if ex.Equipment != tt.equipment {
			t.Errorf("ex%d.Equipment = %q, want %q", i+1, ex.Equipment, tt.equipment)
		}
		if ex.TargetReps != tt.target {
			t.Errorf("ex%d.TargetReps = %d, want %d", i+1, ex.TargetReps, tt.target)
		}
		if len(ex.Warmups) != tt.warmups {
			t.Errorf("ex%d warmups = %d, want %d", i+1, len(ex.Warmups), tt.warmups)
		}
		if len(ex.Sets) != tt.working {
			t.Errorf("ex%d sets = %d, want %d", i+1, len(ex.Sets), tt.working)
		}
	}

	s2 := sessions[1]
	if s2.Name != "Push · Day 1 · Week 4 · Push-Pull-Legs" {
		t.Errorf("s2.Name = %q", s2.Name)
	}
	bench := s2.Exercises[0]
	if bench.Sets[0].WeightKg != 102.5 || bench.Sets[2].WeightKg != 100 {
		t.Errorf("bench weights = %v, %v", bench.Sets[0].WeightKg, bench.Sets[2].WeightKg)
	}
}

// TestParseSetValues checks decimal commas, bodyweight-plus and RIR handling.
func TestParseSetValues(t *testing.T) {
	sessions, err := Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	hyper := sessions[0].Exercises[2].Sets[0]
	if !hyper.BodyweightPlus || hyper.WeightKg != 35 {
		t.Errorf("hyper set = %+v, want +35", hyper)
	}
	if hyper.RIR == nil || *hyper.RIR != 0 {
		t.Errorf("hyper RIR = %v, want 0", hyper.RIR)
	}
	calf := sessions[0].Exercises[4].Sets[0]
	if calf.WeightKg != 157.5 || calf.Reps != 11 {
		t.Errorf("calf set = %+v", calf)
	}
}

// TestParseUnknownRIR verifies the -1 placeholder becomes a nil RIR.
func TestParseUnknownRIR(t *testing.T) {
	csv := `"Pull";"2026-03-01 18:30 h";"45 min"
"1. Deadlift · Barbell · 5 reps"
#;KG;REPS;RIR
1;180;5;-1
2;182,5;5;0,5
`
	sessions, err := Parse(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].Duration != 45*time.Minute {
		t.Errorf("Duration = %v, want 45m", sessions[0].Duration)
	}
	sets := sessions[0].Exercises[0].Sets
	if sets[0].RIR != nil {
		t.Errorf("set 1 RIR = %v, want nil", *sets[0].RIR)
	}
	if sets[1].RIR == nil || *sets[1].RIR != 0.5 {
		t.Errorf("set 2 RIR = %v, want 0.5", sets[1].RIR)
	}
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantBW bool
	}{
		{"102,5", 102.5, false},
		{"100", 100, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{"0.5", 0.5, false},
	}
	for _, tt := range tests {
		got, bw, err := parseWeight(tt.in)
		if err != nil {
			t.Errorf("parseWeight(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want || bw != tt.wantBW {
			t.Errorf("parseWeight(%q) = (%v, %v), want (%v, %v)", tt.in, got, bw, tt.want, tt.wantBW)
		}
	}
}

// TestWarmupParsing verifies warmup extraction from the exercise header's
// second column.
func TestWarmupParsing(t *testing.T) {
	sets, err := parseWarmups("WU1 · 37,5 kg · 9 reps<br>WU2 · +0 kg · 7 reps")
	if err != nil {
		t.Fatalf("parseWarmups: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("warmup sets = %d, want 2", len(sets))
	}
	if sets[0].WeightKg != 37.5 || sets[0].Reps != 9 {
		t.Errorf("wu1 = %+v", sets[0])
	}
	if !sets[1].BodyweightPlus || sets[1].WeightKg != 0 {
		t.Errorf("wu2 = %+v", sets[1])
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"1:02 hr": 62 * time.Minute,
		"0:45 hr": 45 * time.Minute,
		"2:00 h":  2 * time.Hour,
		"50 min":  50 * time.Minute,
	}
	for in, want := range tests {
		got, err := parseDuration(in)
		if err != nil {
			t.Errorf("parseDuration(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseDuration(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseDuration("soon"); err == nil {
		t.Error("parseDuration(soon) should fail")
	}
}

// TestParseErrors verifies that structural and numeric problems report the
// offending line.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, csv, want string
	}{
		{"exercise without session", `"1. Bench Press · Barbell · 6 reps"`, "line 1"},
		{"set without exercise", "\"Push\";\"2026-02-17 5:04 h\";\"1:12 hr\"\n1;100;6;0", "line 2"},
		{"bad weight", "\"Push\";\"2026-02-17 5:04 h\";\"1:12 hr\"\n\"1. Bench Press · Barbell · 6 reps\"\n1;abc;6;0", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

// TestEmptyInput verifies that empty input returns no sessions without error.
func TestEmptyInput(t *testing.T) {
	sessions, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
}
