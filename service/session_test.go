package service_test

import (
	"github.com/cockroachdb/errors"
	"github.com/ryandumpert/flint/config"
	"github.com/ryandumpert/flint/model"
	"github.com/ryandumpert/flint/pkg/pii"
	"github.com/ryandumpert/flint/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const clause = "The Customer (jane.roe@example.com) may terminate for convenience."

func title(s string) *string { return &s }

var _ = Describe("DocumentStore", func() {
	var store *service.DocumentStore

	BeforeEach(func() {
		store = service.NewDocumentStore()
	})

	Context("when a second document replaces the first", func() {
		It("rejects issues computed against the earlier version", func() {
			first := store.LoadDocument("hello", model.MetadataOverrides{Title: title("T")})
			second := store.LoadDocument("hello", model.MetadataOverrides{Title: title("T")})
			Expect(second.ID).NotTo(Equal(first.ID))

			err := store.SetIssues([]model.Issue{{
				ContractVersionID: first.ID,
				Severity:          model.SeverityLow,
				Anchor:            model.Anchor{Start: 0, End: 5},
				Quote:             "hello",
			}})
			Expect(errors.Is(err, service.ErrStaleVersion)).To(BeTrue())
			Expect(store.Issues()).To(BeEmpty())
		})
	})

	Context("with issues set", func() {
		var v model.ContractVersion

		BeforeEach(func() {
			v = store.LoadDocument(clause, model.MetadataOverrides{})
			Expect(store.SetIssues([]model.Issue{
				{ID: "a", ContractVersionID: v.ID, Category: "termination", Severity: model.SeverityCritical, Anchor: model.Anchor{Start: 40, End: 49}, Quote: "terminate"},
				{ID: "b", ContractVersionID: v.ID, Category: "privacy", Severity: model.SeverityMedium, Anchor: model.Anchor{Start: 14, End: 34}, Quote: "jane.roe@example.com"},
			})).To(Succeed())
		})

		It("groups by every severity", func() {
			groups := store.IssuesBySeverity()
			Expect(groups).To(HaveLen(4))
			Expect(groups[model.SeverityCritical]).To(HaveLen(1))
			Expect(groups[model.SeverityHigh]).To(BeEmpty())
		})

		It("keeps issues and version in one snapshot", func() {
			snap := store.Snapshot()
			Expect(snap.Version).NotTo(BeNil())
			for _, issue := range snap.Issues {
				Expect(issue.ContractVersionID).To(Equal(snap.Version.ID))
			}
		})

		It("masks issue text without moving anchors", func() {
			issue, err := store.Issue("b")
			Expect(err).NotTo(HaveOccurred())
			masked := service.MaskIssue(pii.Default(), issue)
			Expect(masked.Quote).NotTo(ContainSubstring("jane.roe"))
			Expect(masked.Anchor).To(Equal(issue.Anchor))
		})

		It("forgets everything on clear", func() {
			store.Clear()
			Expect(store.HasContract()).To(BeFalse())
			Expect(store.HasIssues()).To(BeFalse())
			_, err := store.Issue("a")
			Expect(errors.Is(err, service.ErrNoActiveDocument)).To(BeTrue())
		})
	})

	DescribeTable("analysis status",
		func(status model.AnalysisStatus, terminal bool) {
			store.SetAnalysisStatus(status)
			got, _ := store.Status()
			Expect(got).To(Equal(status))
			Expect(got.Terminal()).To(Equal(terminal))
		},
		Entry("idle", model.StatusIdle, false),
		Entry("uploading", model.StatusUploading, false),
		Entry("extracting", model.StatusExtracting, false),
		Entry("analyzing", model.StatusAnalyzing, false),
		Entry("complete", model.StatusComplete, true),
		Entry("error", model.StatusError, true),
	)
})

var _ = Describe("SessionRegistry", func() {
	It("keeps sessions apart", func() {
		registry := service.NewSessionRegistry(&config.StoreConfig{}, nil)

		registry.Get("acme:alice").LoadDocument(clause, model.MetadataOverrides{})

		Expect(registry.Get("acme:alice").HasContract()).To(BeTrue())
		Expect(registry.Get("acme:bob").HasContract()).To(BeFalse())
		Expect(registry.Count()).To(Equal(2))
	})
})
