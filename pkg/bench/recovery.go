package bench

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/depthbench/pkg/question"
)

// cellKey identifies one (question, matrix cell) pair across runs.
// Question text is hashed rather than carried verbatim so keys stay
// cheap to compare and the map keys stay bounded.
type cellKey struct {
	questionHash string
	cell         string
}

func hashQuestion(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// resultKey derives the recovery key for a prior result.
func resultKey(r *Result) cellKey {
	k := cellKey{questionHash: hashQuestion(r.Question)}
	switch {
	case r.TestMode == ModeNoReference:
		k.cell = "no_reference"
	case r.DepthBin != "":
		k.cell = fmt.Sprintf("%d/%s", r.TestContextLength, r.DepthBin)
	default:
		k.cell = fmt.Sprintf("%d", r.TestContextLength)
	}
	return k
}

// assignmentKey derives the recovery key for a pending assignment.
func assignmentKey(a Assignment, questions []question.Question, mode TestMode, legacy bool) cellKey {
	k := cellKey{questionHash: hashQuestion(questions[a.QuestionIndex].Text)}
	switch {
	case mode == ModeNoReference:
		k.cell = "no_reference"
	case legacy:
		k.cell = fmt.Sprintf("%d", a.ContextLength)
	default:
		k.cell = fmt.Sprintf("%d/%s", a.ContextLength, a.DepthBin)
	}
	return k
}

// RecoveryPlan is the outcome of merging a prior result file with the
// current assignment list: results to carry forward verbatim and
// assignments that still need a model call.
type RecoveryPlan struct {
	Kept    []Result
	Pending []Assignment
}

// Recover plans a resumed run. A prior result is kept when its parsing
// status carries a usable answer; its assignment is then complete.
// Everything else (failed priors and cells with no prior at all) is
// pending. The final result file is the union of kept and newly
// produced results, so keys remain unique.
func Recover(prior []Result, assignments []Assignment, questions []question.Question, mode TestMode, legacy bool) *RecoveryPlan {
	done := make(map[cellKey]*Result, len(prior))
	for i := range prior {
		r := &prior[i]
		if r.ParsingStatus.Succeeded() {
			done[resultKey(r)] = r
		}
	}

	plan := &RecoveryPlan{}
	seen := make(map[cellKey]bool, len(assignments))
	for _, a := range assignments {
		key := assignmentKey(a, questions, mode, legacy)
		if r, ok := done[key]; ok && !seen[key] {
			plan.Kept = append(plan.Kept, *r)
			seen[key] = true
			continue
		}
		plan.Pending = append(plan.Pending, a)
	}

	slog.Info("Recovery plan built",
		"prior_results", len(prior),
		"kept", len(plan.Kept),
		"pending", len(plan.Pending))

	return plan
}
