package reclassify

import (
	"encoding/json"

	"github.com/rcliao/media-reclassify/internal/mover"
)

// Status is the coarse classification of an Outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Outcome is the result of running one item through the pipeline.
// It is exactly one of *Success, *Skipped or *Failure.
type Outcome interface {
	ItemID() int64
	Status() Status
	Message() string
	isOutcome()
}

// Success means the primary file is at NewPath and the store agrees.
// In a dry run nothing was written and NewPath is the would-be destination.
type Success struct {
	ID                int64               `json:"id"`
	OldPath           string              `json:"old_path"`
	NewPath           string              `json:"new_path"`
	DryRun            bool                `json:"dry_run,omitempty"`
	Variants          []mover.VariantMove `json:"variants,omitempty"`
	ReferencesUpdated int64               `json:"references_updated,omitempty"`
	Warnings          []string            `json:"warnings,omitempty"`
}

// Skipped means the item needed no change.
type Skipped struct {
	ID     int64  `json:"id"`
	Kind   Kind   `json:"kind"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Failure means the item could not be reclassified. For KindMetadataUpdateFailed
// the file already sits at NewPath while the store still records OldPath.
type Failure struct {
	ID      int64  `json:"id"`
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason"`
	OldPath string `json:"old_path,omitempty"`
	NewPath string `json:"new_path,omitempty"`
	Err     error  `json:"-"`
}

func (o *Success) ItemID() int64 { return o.ID }
func (o *Skipped) ItemID() int64 { return o.ID }
func (o *Failure) ItemID() int64 { return o.ID }

func (o *Success) Status() Status { return StatusSuccess }
func (o *Skipped) Status() Status { return StatusSkipped }
func (o *Failure) Status() Status { return StatusError }

func (o *Success) Message() string {
	if o.DryRun {
		return "Dry run: would move to " + o.NewPath
	}
	return "Successfully reclassified"
}
func (o *Skipped) Message() string { return o.Reason }
func (o *Failure) Message() string { return o.Reason }

func (*Success) isOutcome() {}
func (*Skipped) isOutcome() {}
func (*Failure) isOutcome() {}

// VariantFailures returns the variants that existed but could not be moved.
func (o *Success) VariantFailures() []mover.VariantMove {
	var out []mover.VariantMove
	for _, v := range o.Variants {
		if v.Err != nil {
			out = append(out, v)
		}
	}
	return out
}

func (o *Success) MarshalJSON() ([]byte, error) {
	type alias Success
	failed := []variantFailure{}
	for _, v := range o.VariantFailures() {
		failed = append(failed, variantFailure{Name: v.Name, From: v.From, Reason: v.Err.Error()})
	}
	return json.Marshal(struct {
		Status  Status `json:"status"`
		Message string `json:"message"`
		*alias
		VariantFailures []variantFailure `json:"variant_failures,omitempty"`
	}{StatusSuccess, o.Message(), (*alias)(o), failed})
}

func (o *Skipped) MarshalJSON() ([]byte, error) {
	type alias Skipped
	return json.Marshal(struct {
		Status Status `json:"status"`
		*alias
	}{StatusSkipped, (*alias)(o)})
}

func (o *Failure) MarshalJSON() ([]byte, error) {
	type alias Failure
	return json.Marshal(struct {
		Status Status `json:"status"`
		*alias
	}{StatusError, (*alias)(o)})
}

type variantFailure struct {
	Name   string `json:"name"`
	From   string `json:"from"`
	Reason string `json:"reason"`
}
