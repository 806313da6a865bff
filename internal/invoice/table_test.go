package invoice

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buildTable", func() {
	var (
		extractions []extraction
		table       *Table
	)

	JustBeforeEach(func() {
		table = buildTable(extractions)
	})

	When("documents report different keys", func() {
		BeforeEach(func() {
			extractions = []extraction{
				{source: "a.png", status: StatusOK, fields: map[string]string{"zeta_note": "x", "invoice_date": "2024-01-01"}},
				{source: "b.png", status: StatusOK, fields: map[string]string{"invoice_number": "7", "alpha_note": "y"}},
			}
		})

		It("should put requested fields first in prompt order", func() {
			Expect(table.Columns).To(Equal([]string{"invoice_number", "invoice_date", "alpha_note", "zeta_note"}))
		})

		It("should give every row every column", func() {
			for _, row := range table.Rows {
				Expect(row.Values).To(HaveLen(len(table.Columns)))
			}
		})

		It("should mark missing keys null", func() {
			Expect(table.Rows[0].Values["invoice_number"]).To(BeNil())
			Expect(table.Rows[1].Values["invoice_date"]).To(BeNil())
		})

		It("should keep values by key", func() {
			Expect(table.Rows[0].Value("invoice_date")).To(Equal("2024-01-01"))
			Expect(table.Rows[1].Value("alpha_note")).To(Equal("y"))
		})
	})

	When("a document failed", func() {
		BeforeEach(func() {
			extractions = []extraction{
				{source: "broken.pdf", status: StatusDecodeFailure, err: errors.New("bad pdf"), fields: map[string]string{}},
				{source: "ok.png", status: StatusOK, fields: map[string]string{"gst": "5"}},
			}
		})

		It("should keep its row in position", func() {
			Expect(table.Rows).To(HaveLen(2))
			Expect(table.Rows[0].Source).To(Equal("broken.pdf"))
			Expect(table.Rows[0].Status).To(Equal(StatusDecodeFailure))
			Expect(table.Rows[0].Error).To(Equal("bad pdf"))
			Expect(table.Rows[0].Values).To(HaveKeyWithValue("gst", BeNil()))
		})
	})

	When("values share storage", func() {
		BeforeEach(func() {
			extractions = []extraction{
				{source: "a.png", status: StatusOK, fields: map[string]string{"gst": "1", "subtotal": "2"}},
			}
		})

		It("should not alias values across columns", func() {
			Expect(table.Rows[0].Value("gst")).To(Equal("1"))
			Expect(table.Rows[0].Value("subtotal")).To(Equal("2"))
		})
	})

	When("there are no extractions", func() {
		BeforeEach(func() {
			extractions = nil
		})

		It("should return an empty table", func() {
			Expect(table.Columns).To(BeEmpty())
			Expect(table.Rows).To(BeEmpty())
		})
	})
})

var _ = Describe("Batch", func() {
	Describe("Summary", func() {
		It("should count rows per status", func() {
			batch := &Batch{ID: "b1", Table: Table{Rows: []Row{
				{Status: StatusOK},
				{Status: StatusParseMiss},
				{Status: StatusOK},
			}}}
			summary := batch.Summary()
			Expect(summary.ID).To(Equal("b1"))
			Expect(summary.Documents).To(Equal(3))
			Expect(summary.Statuses).To(HaveKeyWithValue(StatusOK, 2))
			Expect(summary.Statuses).To(HaveKeyWithValue(StatusParseMiss, 1))
		})
	})
})
