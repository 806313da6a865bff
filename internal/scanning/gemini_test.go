package scanning

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Gemini", func() {
	Describe("NewGemini", func() {
		It("should require an API key", func() {
			_, err := NewGemini(context.Background(), "", "")
			Expect(err).To(MatchError(ContainSubstring("api key is required")))
		})
	})

	Describe("fromGenai", func() {
		var (
			resp *genai.GenerateContentResponse
			out  *Response
		)

		JustBeforeEach(func() {
			out = fromGenai(resp)
		})

		When("the response carries text", func() {
			BeforeEach(func() {
				resp = &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{
						{Content: &genai.Content{Parts: []genai.Part{genai.Text("**gst:** 18.5")}}},
					},
				}
			})

			It("should expose it as the answer text", func() {
				text, ok := out.AnswerText()
				Expect(ok).To(BeTrue())
				Expect(text).To(Equal("**gst:** 18.5"))
			})
		})

		When("the first part is not text", func() {
			BeforeEach(func() {
				resp = &genai.GenerateContentResponse{
					Candidates: []*genai.Candidate{
						{Content: &genai.Content{Parts: []genai.Part{
							genai.ImageData("png", []byte{1, 2, 3}),
							genai.Text("late text"),
						}}},
					},
				}
			})

			It("should keep the part position", func() {
				Expect(out.Candidates[0].Parts).To(HaveLen(2))
			})

			It("should report no answer text", func() {
				_, ok := out.AnswerText()
				Expect(ok).To(BeFalse())
			})
		})

		When("a candidate has no content", func() {
			BeforeEach(func() {
				resp = &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
			})

			It("should report no answer text", func() {
				_, ok := out.AnswerText()
				Expect(ok).To(BeFalse())
			})
		})

		When("the response is nil", func() {
			BeforeEach(func() {
				resp = nil
			})

			It("should return an empty response", func() {
				Expect(out).NotTo(BeNil())
				Expect(out.Candidates).To(BeEmpty())
			})
		})
	})
})
