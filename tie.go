package vexedit

import (
	"errors"
	"fmt"
)

type (
	// Tie asks the renderer to connect two adjacent notes of a corrected
	// sequence. FirstNote and LastNote index the sequence; the key indices
	// tell which noteheads of each note are tied.
	Tie struct {
		FirstNote    int   `json:"first_note"`
		LastNote     int   `json:"last_note"`
		FirstIndices []int `json:"first_indices"`
		LastIndices  []int `json:"last_indices"`
	}

	// ResolvedTie is a Tie whose indices have been replaced by the handles
	// the renderer materialized for the two notes.
	ResolvedTie[H any] struct {
		First, Last                H
		FirstIndices, LastIndices []int
	}
)

var ErrHandleMismatch = errors.New("renderer handles do not match the corrected sequence")

// ResolveTies is the last step of tie construction: the renderer has
// materialized one handle per note of the corrected sequence, in order, and
// the index based ties are turned into ties between those handles.
func ResolveTies[H any](ties []Tie, handles []H) ([]ResolvedTie[H], error) {
	ret := make([]ResolvedTie[H], 0, len(ties))
	for _, t := range ties {
		if t.FirstNote < 0 || t.LastNote < 0 || t.FirstNote >= len(handles) || t.LastNote >= len(handles) {
			return nil, fmt.Errorf("%w: tie %d-%d with %d handles", ErrHandleMismatch, t.FirstNote, t.LastNote, len(handles))
		}
		ret = append(ret, ResolvedTie[H]{
			First:        handles[t.FirstNote],
			Last:         handles[t.LastNote],
			FirstIndices: t.FirstIndices,
			LastIndices:  t.LastIndices,
		})
	}
	return ret, nil
}
