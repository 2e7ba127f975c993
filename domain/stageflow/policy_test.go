package stageflow_test

import (
	"testing"

	"pms/domain/stageflow"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func buildPolicy(t *testing.T) *stageflow.Policy {
	config, err := stageflow.LoadConfig()
	Expect(err).To(BeNil())
	return stageflow.NewPolicy(config)
}

func TestStageOrder(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should expose the canonical eight stage flow", func(t *testing.T) {
		policy := buildPolicy(t)
		Expect(policy.Stages()).To(Equal([]string{
			"Proposal", "Evaluation", "Approval", "Implementation",
			"Construction", "Operation", "Completion", "Divestment"}))
		Expect(policy.FirstStage()).To(Equal("Proposal"))
		Expect(policy.NextStage("Proposal")).To(Equal("Evaluation"))
		Expect(policy.NextStage("Divestment")).To(BeZero())
	})
}

func TestIsLegalTransition(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should allow staying on the same stage", func(t *testing.T) {
		policy := buildPolicy(t)
		legal, err := policy.IsLegalTransition("Evaluation", "Evaluation")
		Expect(err).To(BeNil())
		Expect(legal).To(BeTrue())
	})

	t.Run("should allow exactly one forward hop", func(t *testing.T) {
		policy := buildPolicy(t)
		legal, err := policy.IsLegalTransition("Proposal", "Evaluation")
		Expect(err).To(BeNil())
		Expect(legal).To(BeTrue())

		legal, err = policy.IsLegalTransition("Proposal", "Approval")
		Expect(err).To(BeNil())
		Expect(legal).To(BeFalse())

		legal, err = policy.IsLegalTransition("Evaluation", "Proposal")
		Expect(err).To(BeNil())
		Expect(legal).To(BeFalse())
	})

	t.Run("should report stage names outside the flow", func(t *testing.T) {
		policy := buildPolicy(t)
		_, err := policy.IsLegalTransition("Proposal", "Garbage")
		Expect(err).ToNot(BeNil())

		_, err = policy.IsLegalTransition("Garbage", "Garbage")
		Expect(err).ToNot(BeNil())
	})
}

func TestCheckTransition(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should yield no violations for a same-stage move", func(t *testing.T) {
		policy := buildPolicy(t)
		Expect(policy.CheckTransition("Operation", "Operation")).To(BeEmpty())
	})

	t.Run("should name the only allowed next stage on a skip", func(t *testing.T) {
		policy := buildPolicy(t)
		violations := policy.CheckTransition("Proposal", "Construction")
		Expect(len(violations)).To(Equal(1))
		Expect(violations[0].Field).To(Equal("current_stage_id"))
		Expect(violations[0].Message).To(Equal(
			"Invalid stage transition. Allowed next stage after Proposal is Evaluation."))
	})

	t.Run("should answer N/A beyond the end of the flow", func(t *testing.T) {
		policy := buildPolicy(t)
		violations := policy.CheckTransition("Divestment", "Proposal")
		Expect(len(violations)).To(Equal(1))
		Expect(violations[0].Message).To(Equal(
			"Invalid stage transition. Allowed next stage after Divestment is N/A."))
	})
}

func TestMissingFieldsFor(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should treat nil, empty, zero and zero string as absent", func(t *testing.T) {
		policy := buildPolicy(t)
		violations := policy.MissingFieldsFor("Proposal", stageflow.FieldValues{
			"title":           "Some project",
			"description":     "",
			"project_type_id": types.ID(0),
			"industry_id":     "0",
			"sector_id":       float64(0),
		})
		fields := make([]string, 0, len(violations))
		for _, v := range violations {
			fields = append(fields, v.Field)
		}
		Expect(fields).To(ConsistOf(
			"description", "project_type_id", "industry_id", "sector_id", "proposal_date"))
	})

	t.Run("should phrase the violation with the configured label", func(t *testing.T) {
		policy := buildPolicy(t)
		violations := policy.MissingFieldsFor("Implementation", stageflow.FieldValues{
			"start_date":             types.CurrentTimestamp(),
			"target_completion_date": types.CurrentTimestamp(),
			"estimated_cost":         float64(1000),
		})
		Expect(len(violations)).To(Equal(1))
		Expect(violations[0].Field).To(Equal("currency"))
		Expect(violations[0].Message).To(Equal("The currency is required for Implementation stage."))
	})
}

func TestIsClosingStage(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should mark Completion and Divestment as closing", func(t *testing.T) {
		policy := buildPolicy(t)
		Expect(policy.IsClosingStage("Completion")).To(BeTrue())
		Expect(policy.IsClosingStage("Divestment")).To(BeTrue())
		Expect(policy.IsClosingStage("Operation")).To(BeFalse())
	})
}

func TestMergeValues(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should let submitted values shadow stored ones, nulls included", func(t *testing.T) {
		merged := stageflow.MergeValues(
			stageflow.FieldValues{"title": "new title", "description": nil},
			stageflow.FieldValues{"title": "old title", "description": "old text", "currency": "PHP"})
		Expect(merged["title"]).To(Equal("new title"))
		Expect(merged["description"]).To(BeNil())
		Expect(merged["currency"]).To(Equal("PHP"))
	})
}

func TestIsMissingValue(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should see through pointers", func(t *testing.T) {
		s := "value"
		var nilPtr *string
		Expect(stageflow.IsMissingValue(&s)).To(BeFalse())
		Expect(stageflow.IsMissingValue(nilPtr)).To(BeTrue())

		zeroTime := types.Timestamp{}
		Expect(stageflow.IsMissingValue(&zeroTime)).To(BeTrue())
	})
}
