package Engine

// TaskStatus is the completion status of a single task.
type TaskStatus string

const (
	TaskIncomplete TaskStatus = "Incomplete"
	TaskComplete   TaskStatus = "Complete"
)

// ReviewStatus is the manager-side review status of a submitted task.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "Pending"
	ReviewApproved ReviewStatus = "Approved"
	ReviewRework   ReviewStatus = "Rework"
)

// SubmissionStatus is the aggregate status of a daily submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "Pending"
	SubmissionApproved SubmissionStatus = "Approved"
	SubmissionRework   SubmissionStatus = "Rework"
)

// AggregateStatus derives a submission's status from its task review
// statuses. Any Rework makes the whole submission Rework; Approved requires
// every task approved and at least one task; everything else is Pending.
func AggregateStatus(reviews []ReviewStatus) SubmissionStatus {
	if len(reviews) == 0 {
		return SubmissionPending
	}
	allApproved := true
	for _, r := range reviews {
		if r == ReviewRework {
			return SubmissionRework
		}
		if r != ReviewApproved {
			allApproved = false
		}
	}
	if allApproved {
		return SubmissionApproved
	}
	return SubmissionPending
}
