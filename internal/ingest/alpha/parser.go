// Package alpha imports training history exported from the Alpha Progression
// app as CSV.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Hack Squats · Machine · 8 reps[ · modifiers]"[;"WU1 · 37,5 kg · 9 reps<br>..."]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);([^;]+);(\d+);([^;]+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupItem = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// 1:02 hr, 45 min
	durationHours   = regexp.MustCompile(`^(\d+):(\d{2})\s*hr?$`)
	durationMinutes = regexp.MustCompile(`^(\d+)\s*min$`)
)

const columnHeader = "#;KG;REPS;RIR"

// parser accumulates sessions line by line. A blank line or a new session
// header closes the open session.
type parser struct {
	sessions []models.AlphaSession
	session  *models.AlphaSession
	exercise *models.AlphaExercise
	lineNo   int
}

// Parse reads an Alpha Progression CSV export. Sessions are returned in file
// order, which is newest first for exports from the app.
func Parse(r io.Reader) ([]models.AlphaSession, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNo++
		if err := p.feed(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

func (p *parser) feed(line string) error {
	switch {
	case line == "":
		p.closeSession()
		return nil
	case line == columnHeader:
		return nil
	}

	if m := sessionLine.FindStringSubmatch(line); m != nil {
		return p.startSession(m[1], m[2], m[3])
	}
	if m := exerciseLine.FindStringSubmatch(line); m != nil {
		return p.startExercise(m)
	}
	if m := setLine.FindStringSubmatch(line); m != nil {
		return p.addSet(m)
	}
	// Notes and other metadata lines carry nothing we store.
	return nil
}

func (p *parser) startSession(name, date, duration string) error {
	p.closeSession()
	started, err := time.Parse("2006-01-02 15:04", date)
	if err != nil {
		return fmt.Errorf("parsing session date %q: %w", date, err)
	}
	d, err := parseDuration(duration)
	if err != nil {
		return err
	}
	p.session = &models.AlphaSession{Name: name, Date: started, Duration: d}
	return nil
}

func (p *parser) startExercise(m []string) error {
	if p.session == nil {
		return fmt.Errorf("exercise %q outside a session", m[2])
	}
	p.closeExercise()
	num, _ := strconv.Atoi(m[1])
	target, _ := strconv.Atoi(m[4])
	p.exercise = &models.AlphaExercise{
		Number:     num,
		Name:       strings.TrimSpace(m[2]),
		Equipment:  strings.TrimSpace(m[3]),
		TargetReps: target,
	}
	if m[6] != "" {
		warmups, err := parseWarmups(m[6])
		if err != nil {
			return err
		}
		p.exercise.Warmups = warmups
	}
	return nil
}

func (p *parser) addSet(m []string) error {
	if p.exercise == nil {
		return fmt.Errorf("set data outside an exercise")
	}
	num, _ := strconv.Atoi(m[1])
	weight, bw, err := parseWeight(m[2])
	if err != nil {
		return err
	}
	reps, _ := strconv.Atoi(m[3])
	rir, err := parseDecimal(m[4])
	if err != nil {
		return fmt.Errorf("parsing RIR: %w", err)
	}

	s := models.AlphaSet{Number: num, WeightKg: weight, BodyweightPlus: bw, Reps: reps}
	if rir >= 0 {
		s.RIR = &rir
	}
	p.exercise.Sets = append(p.exercise.Sets, s)
	return nil
}

func (p *parser) closeExercise() {
	if p.exercise == nil {
		return
	}
	p.session.Exercises = append(p.session.Exercises, *p.exercise)
	p.exercise = nil
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

// parseWarmups reads the warmup column: items separated by <br>.
func parseWarmups(s string) ([]models.AlphaSet, error) {
	var sets []models.AlphaSet
	for _, item := range strings.Split(s, "<br>") {
		m := warmupItem.FindStringSubmatch(item)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw, err := parseWeight(m[2])
		if err != nil {
			return nil, fmt.Errorf("warmup %d: %w", num, err)
		}
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, models.AlphaSet{Number: num, WeightKg: weight, BodyweightPlus: bw, Reps: reps})
	}
	return sets, nil
}

// parseWeight handles decimal commas and the bodyweight-plus notation:
// "+35" is (35, true), "102,5" is (102.5, false).
func parseWeight(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	bw := strings.HasPrefix(s, "+")
	w, err := parseDecimal(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, false, fmt.Errorf("parsing weight %q: %w", s, err)
	}
	return w, bw, nil
}

// parseDecimal accepts both "0,5" and "0.5".
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if m := durationHours.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute, nil
	}
	if m := durationMinutes.FindStringSubmatch(s); m != nil {
		min, _ := strconv.Atoi(m[1])
		return time.Duration(min) * time.Minute, nil
	}
	return 0, fmt.Errorf("unrecognized duration %q", s)
}
