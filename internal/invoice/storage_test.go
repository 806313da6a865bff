package invoice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		It("should create a missing directory", func() {
			dir := filepath.Join(tmpDir, "nested", "out")
			_, err := NewLocalStorage(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(BeADirectory())
		})
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "invoice_data.csv"
			data = []byte("gst\nINR 5.00\n")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the full path", func() {
				Expect(savedPath).To(Equal(filepath.Join(tmpDir, filename)))
			})

			It("should save the file to disk", func() {
				written, readErr := os.ReadFile(savedPath)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(written).To(Equal(data))
			})
		})

		When("the name has directory parts", func() {
			BeforeEach(func() {
				filename = "../../escape.csv"
			})

			It("should keep the file under the base directory", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(filepath.Join(tmpDir, "escape.csv")))
			})
		})
	})

	Describe("SaveExport", func() {
		var table *Table

		BeforeEach(func() {
			table = &Table{
				Columns: []string{"invoice_number"},
				Rows: []Row{
					{Source: "a.png", Status: StatusOK, Values: map[string]*string{"invoice_number": strPtr("INV-1")}},
				},
			}
		})

		It("should write the csv under its download name", func() {
			path, err := SaveExport(storage, table, FormatCSV, ExportOptions{WithStatus: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "invoice_data.csv")))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("source_file,extraction_status,invoice_number\na.png,ok,INV-1\n"))
		})

		It("should write the xlsx under its download name", func() {
			path, err := SaveExport(storage, table, FormatXLSX, ExportOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(tmpDir, "invoice_data.xlsx")))
		})

		It("returns an error for an unknown format", func() {
			_, err := SaveExport(storage, table, Format("pdf"), ExportOptions{})
			Expect(err).To(MatchError(ContainSubstring("unknown export format")))
		})
	})
})
