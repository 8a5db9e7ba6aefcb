package negotiation

import (
	"fmt"
	"strings"

	"swiftjobs-backend/internal/domain"
	"swiftjobs-backend/pkg/llm"
)

const turnSchema = `Reply with a single JSON object and nothing else:
{"sender": "EMPLOYER" | "CANDIDATE",
 "message": string (at most two sentences),
 "offer": number (optional, the salary figure you are proposing or accepting),
 "decision": "accept" | "reject" | "none",
 "fit": integer 0-100 (optional, your estimate of how well the resume fits the role)}`

func employerInstructions(in Input) string {
	return strings.Join([]string{
		"You are an HR recruiter hiring for the role described below.",
		fmt.Sprintf("Your absolute maximum budget is %s. Try to hire below it.", money(in.EmployerBudget)),
		"Assess whether the candidate has the required skills.",
		"If they are unqualified, set decision to \"reject\".",
		"If they are qualified, negotiate salary and state concrete offers.",
		"If you reach a deal, set decision to \"accept\" and repeat the agreed figure as offer.",
		"Keep your responses short.",
		turnSchema,
	}, "\n")
}

func candidateInstructions(in Input) string {
	return strings.Join([]string{
		"You represent a job seeker with the resume described below.",
		fmt.Sprintf("Your goal is to get the job; your desired salary is %s.", money(in.CandidateTarget)),
		"Highlight skills that match the job description.",
		"If the budget is too low, negotiate politely but firmly.",
		"If the offer is good, set decision to \"accept\" and repeat the agreed figure as offer.",
		"Keep your responses short.",
		turnSchema,
	}, "\n")
}

func buildRequest(sender domain.Sender, in Input, transcript []domain.NegotiationTurn, turn, maxTurns int) llm.Request {
	var b strings.Builder

	if in.JobTitle != "" {
		fmt.Fprintf(&b, "Role: %s\n", in.JobTitle)
	}
	fmt.Fprintf(&b, "Job description:\n%s\n\n", orNone(in.JobDescription))
	fmt.Fprintf(&b, "Resume summary:\n%s\n\n", orNone(in.ResumeSummary))
	if len(in.MatchedSkills) > 0 || len(in.MissingSkills) > 0 {
		fmt.Fprintf(&b, "Matched skills: %s\nMissing skills: %s\n\n",
			joinOrNone(in.MatchedSkills), joinOrNone(in.MissingSkills))
	}

	b.WriteString("Transcript so far:\n")
	if len(transcript) == 0 {
		b.WriteString("(no messages yet, you open the conversation)\n")
	}
	for _, t := range transcript {
		fmt.Fprintf(&b, "%s: %s", t.Sender, t.Message)
		if t.Offer != nil {
			fmt.Fprintf(&b, " [offer %s]", money(*t.Offer))
		}
		if t.Decision != domain.DecisionNone && t.Decision != "" {
			fmt.Fprintf(&b, " [%s]", t.Decision)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nThis is turn %d of at most %d. You are the %s.\n", turn, maxTurns, sender)

	instructions := employerInstructions(in)
	if sender == domain.SenderCandidate {
		instructions = candidateInstructions(in)
	}

	return llm.Request{
		Instructions: instructions,
		Prompt:       b.String(),
		JSON:         true,
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.0f", v)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
