package centroid

import "fmt"

// PreconditionError reports input that violates a requirement of the
// calibration pipeline, such as an empty or ragged observation table.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string {
	return e.Msg
}

// ObservationSet is the rectangular P x N table of centroid measurements:
// P pinholes, each observed in the same N shift frames, ordered by frame
// index. The constructor enforces the rectangular structure so that indexing
// by frame is always valid.
type ObservationSet struct {
	pinholes [][]Centroid
	shifts   int
}

// NewObservationSet validates and wraps a pinhole-major measurement table.
// Every pinhole must carry the same, non-zero number of observations.
func NewObservationSet(pinholes [][]Centroid) (*ObservationSet, error) {
	if len(pinholes) == 0 {
		return nil, &PreconditionError{Msg: "no valid observations, perhaps the flux threshold is too high?"}
	}
	shifts := len(pinholes[0])
	if shifts == 0 {
		return nil, &PreconditionError{Msg: "pinhole 0 has no observations"}
	}
	for i, row := range pinholes {
		if len(row) != shifts {
			return nil, &PreconditionError{Msg: fmt.Sprintf(
				"ragged observations: pinhole %d has %d observations, expected %d", i, len(row), shifts)}
		}
	}
	return &ObservationSet{pinholes: pinholes, shifts: shifts}, nil
}

// Pinholes returns P, the number of pinholes.
func (s *ObservationSet) Pinholes() int {
	return len(s.pinholes)
}

// Shifts returns N, the number of shift frames per pinhole.
func (s *ObservationSet) Shifts() int {
	return s.shifts
}

// Pinhole returns the N observations of pinhole i, ordered by frame index.
func (s *ObservationSet) Pinhole(i int) []Centroid {
	return s.pinholes[i]
}
