package stageflow_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"pms/domain/stageflow"

	. "github.com/onsi/gomega"
)

func TestLoadConfig(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should carry the canonical defaults without a config file", func(t *testing.T) {
		defer os.Unsetenv("PROJECT_WORKFLOW_CONFIG")

		config, err := stageflow.LoadConfig()
		Expect(err).To(BeNil())
		Expect(len(config.Stages)).To(Equal(8))
		Expect(config.RequiredFields["Proposal"]).To(ContainElement("proposal_date"))
		Expect(config.FieldLabels["target_completion_date"]).To(Equal("target completion date"))
	})

	t.Run("should let PROJECT_WORKFLOW_CONFIG override the flow", func(t *testing.T) {
		defer os.Unsetenv("PROJECT_WORKFLOW_CONFIG")

		dir, err := ioutil.TempDir("", "stageflow")
		Expect(err).To(BeNil())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "workflow.yaml")
		yaml := "stages:\n  - Draft\n  - Live\nrequiredFields:\n  Draft:\n    - title\n"
		Expect(ioutil.WriteFile(path, []byte(yaml), 0600)).To(BeNil())
		os.Setenv("PROJECT_WORKFLOW_CONFIG", path)

		config, err := stageflow.LoadConfig()
		Expect(err).To(BeNil())
		Expect(config.Stages).To(Equal([]string{"Draft", "Live"}))
		Expect(config.RequiredFields["Draft"]).To(Equal([]string{"title"}))
	})

	t.Run("should fail on a pointed-to file that does not exist", func(t *testing.T) {
		defer os.Unsetenv("PROJECT_WORKFLOW_CONFIG")

		os.Setenv("PROJECT_WORKFLOW_CONFIG", "/nonexistent/workflow.yaml")
		_, err := stageflow.LoadConfig()
		Expect(err).ToNot(BeNil())
	})
}
