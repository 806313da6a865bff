package invoice

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Export", func() {
	var (
		table *Table
		opts  ExportOptions
	)

	BeforeEach(func() {
		table = &Table{
			Columns: []string{"invoice_number", "notes"},
			Rows: []Row{
				{Source: "a.png", Status: StatusOK, Values: map[string]*string{"invoice_number": strPtr("INV-1"), "notes": strPtr("paid, thanks")}},
				{Source: "b.pdf", Status: StatusDecodeFailure, Values: map[string]*string{"invoice_number": nil, "notes": nil}},
			},
		}
		opts = ExportOptions{}
	})

	Describe("csv", func() {
		It("should write a header and one line per row", func() {
			data, err := Export(table, FormatCSV, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("invoice_number,notes\nINV-1,\"paid, thanks\"\n,\n"))
		})

		When("status columns are requested", func() {
			BeforeEach(func() {
				opts.WithStatus = true
			})

			It("should prepend the source and status", func() {
				data, err := Export(table, FormatCSV, opts)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal(
					"source_file,extraction_status,invoice_number,notes\n" +
						"a.png,ok,INV-1,\"paid, thanks\"\n" +
						"b.pdf,decode_failure,,\n"))
			})
		})

		When("the table is empty", func() {
			It("should write only the header", func() {
				data, err := Export(&Table{}, FormatCSV, ExportOptions{WithStatus: true})
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("source_file,extraction_status\n"))
			})
		})
	})

	Describe("xlsx", func() {
		var rows [][]string

		JustBeforeEach(func() {
			data, err := Export(table, FormatXLSX, opts)
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			Expect(f.GetSheetList()).To(Equal([]string{"Invoices"}))
			rows, err = f.GetRows("Invoices")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should write the header row", func() {
			Expect(rows[0]).To(Equal([]string{"invoice_number", "notes"}))
		})

		It("should write the values", func() {
			Expect(rows[1]).To(Equal([]string{"INV-1", "paid, thanks"}))
		})

		It("should leave null rows empty", func() {
			// excelize drops trailing empty cells and rows
			Expect(len(rows)).To(BeNumerically("<=", 3))
			if len(rows) == 3 {
				Expect(rows[2]).To(BeEmpty())
			}
		})

		When("status columns are requested", func() {
			BeforeEach(func() {
				opts.WithStatus = true
			})

			It("should prepend the source and status", func() {
				Expect(rows[0]).To(Equal([]string{"source_file", "extraction_status", "invoice_number", "notes"}))
				Expect(rows[2]).To(Equal([]string{"b.pdf", "decode_failure"}))
			})
		})
	})

	It("should widen every exported column", func() {
		data, err := Export(table, FormatXLSX, ExportOptions{WithStatus: true})
		Expect(err).NotTo(HaveOccurred())

		f, err := excelize.OpenReader(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		for _, col := range []string{"A", "D"} {
			width, err := f.GetColWidth("Invoices", col)
			Expect(err).NotTo(HaveOccurred())
			Expect(width).To(BeNumerically("==", 18))
		}
	})

	It("returns an error for an unknown format", func() {
		_, err := Export(table, Format("pdf"), opts)
		Expect(err).To(MatchError(ContainSubstring("unknown export format")))
	})
})

var _ = Describe("Format", func() {
	DescribeTable("ParseFormat",
		func(name string, expected Format) {
			format, err := ParseFormat(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal(expected))
		},
		Entry("csv", "csv", FormatCSV),
		Entry("upper case", "CSV", FormatCSV),
		Entry("xlsx", "xlsx", FormatXLSX),
		Entry("excel label", "Excel", FormatXLSX),
	)

	It("rejects unknown names", func() {
		_, err := ParseFormat("pdf")
		Expect(err).To(HaveOccurred())
	})

	It("names downloads", func() {
		Expect(FormatCSV.Filename()).To(Equal("invoice_data.csv"))
		Expect(FormatXLSX.Filename()).To(Equal("invoice_data.xlsx"))
	})

	It("reports content types", func() {
		Expect(FormatCSV.ContentType()).To(Equal("text/csv"))
		Expect(FormatXLSX.ContentType()).To(ContainSubstring("spreadsheetml"))
	})
})
