// Package planner maps a media file and its creation date to a year/month destination.
package planner

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Plan is the destination computed for one primary file.
type Plan struct {
	Year           string
	Month          string
	TargetDir      string // <base>/<year>/<month>
	Target         string // TargetDir + original file name, before collision resolution
	AlreadyCorrect bool
}

// Compute derives the year/month folder for a file created at created.
// AlreadyCorrect is true when the file's directory already contains the
// literal segment /<year>/<month>/; Target is left empty in that case.
func Compute(base, current string, created time.Time) Plan {
	p := Plan{
		Year:  created.Format("2006"),
		Month: created.Format("01"),
	}

	dir := filepath.ToSlash(filepath.Dir(current)) + "/"
	if strings.Contains(dir, "/"+p.Year+"/"+p.Month+"/") {
		p.AlreadyCorrect = true
		return p
	}

	p.TargetDir = filepath.Join(base, p.Year, p.Month)
	p.Target = filepath.Join(p.TargetDir, filepath.Base(current))
	return p
}

// ExistsFunc reports whether a path is taken.
type ExistsFunc func(path string) bool

// OnDisk is an ExistsFunc backed by os.Lstat.
func OnDisk(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Unique returns path if it is free, otherwise the first free name-N.ext,
// scanning N upward from 1.
func Unique(path string, exists ExistsFunc) string {
	if !exists(path) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, name+"-"+strconv.Itoa(n)+ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

// Reservations simulates the moves of a dry run, so later items in the same
// batch see the collisions a live run would produce: claimed targets count as
// taken and vacated sources count as free.
type Reservations struct {
	claimed map[string]bool
	vacated map[string]bool
}

// NewReservations returns an empty set.
func NewReservations() *Reservations {
	return &Reservations{claimed: map[string]bool{}, vacated: map[string]bool{}}
}

// Exists reports whether path would be occupied at this point of the run.
func (r *Reservations) Exists(path string) bool {
	if r.claimed[path] {
		return true
	}
	if r.vacated[path] {
		return false
	}
	return OnDisk(path)
}

// Claim marks path as taken.
func (r *Reservations) Claim(path string) {
	delete(r.vacated, path)
	r.claimed[path] = true
}

// Vacate marks path as moved away.
func (r *Reservations) Vacate(path string) {
	delete(r.claimed, path)
	r.vacated[path] = true
}
