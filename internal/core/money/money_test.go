package money_test

import (
	"encoding/json"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

func TestMoney(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Money Suite")
}

var _ = Describe("Amount", func() {
	DescribeTable("Parse normalizes to two fractional digits",
		func(in, want string) {
			a, err := money.Parse(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.String()).To(Equal(want))
		},
		Entry("integer", "12", "12.00"),
		Entry("one digit", "12.5", "12.50"),
		Entry("rounds half away from zero", "12.345", "12.35"),
		Entry("rounds down", "12.344", "12.34"),
		Entry("surrounding whitespace", " 4.85 ", "4.85"),
	)

	It("rejects malformed input", func() {
		for _, in := range []string{"", "abc", "12,50", "1.2.3"} {
			_, err := money.Parse(in)
			Expect(err).To(MatchError(money.ErrInvalidAmount), in)
		}
	})

	It("decodes JSON numbers and strings alike", func() {
		var payload struct {
			A money.Amount `json:"a"`
			B money.Amount `json:"b"`
		}
		Expect(json.Unmarshal([]byte(`{"a": 32.5, "b": "32.50"}`), &payload)).To(Succeed())
		Expect(payload.A.String()).To(Equal("32.50"))
		Expect(payload.A.Equal(payload.B.Decimal)).To(BeTrue())
	})

	It("encodes as a quoted string with two digits", func() {
		out, err := json.Marshal(map[string]money.Amount{"amount": money.MustParse("7")})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"amount":"7.00"}`))
	})

	It("sums repeated cents without drift", func() {
		parts := make([]money.Amount, 0, 10)
		for i := 0; i < 10; i++ {
			parts = append(parts, money.MustParse("0.10"))
		}
		Expect(money.Sum(parts...).String()).To(Equal("1.00"))
	})

	It("allows negative differences", func() {
		diff := money.MustParse("10").Minus(money.MustParse("25.50"))
		Expect(diff.String()).To(Equal("-15.50"))
	})

	It("scans driver values back to two digits", func() {
		var a money.Amount
		Expect(a.Scan(12.5)).To(Succeed())
		Expect(a.String()).To(Equal("12.50"))
		Expect(a.Scan([]byte("67.23"))).To(Succeed())
		Expect(a.String()).To(Equal("67.23"))
	})
})

var _ = Describe("Figure", func() {
	It("encodes as a bare JSON number", func() {
		out, err := json.Marshal(map[string]money.Figure{"total": money.MustParse("8.5").Figure()})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"total":8.50}`))
	})

	It("decodes back into an Amount", func() {
		var f money.Figure
		Expect(json.Unmarshal([]byte(`24.99`), &f)).To(Succeed())
		Expect(f.Amount().String()).To(Equal("24.99"))
	})
})
