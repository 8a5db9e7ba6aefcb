// Package swipe holds the per-pair state machine for mutual matching.
//
// States are keyed by (applicant_id, job_id), whichever side acted:
//
//	NONE ──► APPLICANT_LIKED ──┐
//	  │                        ├──► MATCHED
//	  └────► EMPLOYER_LIKED ───┘
//
//	NONE / APPLICANT_LIKED / EMPLOYER_LIKED ──► DISLIKED
//
// MATCHED is permanent: a later dislike does not undo it. DISLIKED holds for
// as long as the dislike stands; the disliking actor may change their mind.
package swipe

import "swiftjobs-backend/internal/domain"

type State string

const (
	StateNone           State = "NONE"
	StateApplicantLiked State = "APPLICANT_LIKED"
	StateEmployerLiked  State = "EMPLOYER_LIKED"
	StateMatched        State = "MATCHED"
	StateDisliked       State = "DISLIKED"
)

// Derive computes the pair state from the latest action of each side (empty
// when that side never swiped) and whether a match row exists.
func Derive(applicant, employer domain.SwipeAction, matched bool) State {
	if matched {
		return StateMatched
	}
	if applicant == domain.ActionDislike || employer == domain.ActionDislike {
		return StateDisliked
	}
	switch {
	case applicant == domain.ActionLike && employer == domain.ActionLike:
		// mutual like observed before the match row landed
		return StateMatched
	case applicant == domain.ActionLike:
		return StateApplicantLiked
	case employer == domain.ActionLike:
		return StateEmployerLiked
	}
	return StateNone
}

// IsMutual reports whether both sides currently hold a like.
func IsMutual(applicant, employer domain.SwipeAction) bool {
	return applicant == domain.ActionLike && employer == domain.ActionLike
}

// Pair identifies the (applicant, job) key a swipe contributes to, plus the
// swipe key of the opposite side.
type Pair struct {
	ApplicantID string
	JobID       string
	// Counterpart is the (actor, target, job) key of the other side's swipe.
	CounterActorID  string
	CounterTargetID string
}

// Resolve maps a swipe on job to its pair. The caller has already checked the
// roles of actor and target.
func Resolve(cmd domain.SwipeCommand, job *domain.Job) Pair {
	if cmd.ActorRole == domain.RoleApplicant {
		return Pair{
			ApplicantID:     cmd.ActorID,
			JobID:           job.ID,
			CounterActorID:  job.OwnerID,
			CounterTargetID: cmd.ActorID,
		}
	}
	return Pair{
		ApplicantID:     cmd.TargetID,
		JobID:           job.ID,
		CounterActorID:  cmd.TargetID,
		CounterTargetID: job.ID,
	}
}
