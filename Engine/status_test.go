package Engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name    string
		reviews []ReviewStatus
		want    SubmissionStatus
	}{
		{"no tasks", nil, SubmissionPending},
		{"all pending", []ReviewStatus{ReviewPending, ReviewPending}, SubmissionPending},
		{"mixed pending and approved", []ReviewStatus{ReviewApproved, ReviewPending}, SubmissionPending},
		{"all approved", []ReviewStatus{ReviewApproved, ReviewApproved, ReviewApproved}, SubmissionApproved},
		{"single rework wins", []ReviewStatus{ReviewApproved, ReviewRework, ReviewApproved}, SubmissionRework},
		{"rework among pending", []ReviewStatus{ReviewPending, ReviewRework}, SubmissionRework},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AggregateStatus(tc.reviews))
		})
	}
}
