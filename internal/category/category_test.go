package category_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal/category"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-tracker/internal/storage/memory"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

func TestCategory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Suite")
}

type brokenRepo struct{}

func (brokenRepo) GetCategories() ([]*categoryDatamodel.Category, error) {
	return nil, errors.New("connection refused")
}
func (brokenRepo) GetCategoryByID(int64) (*categoryDatamodel.Category, error) { return nil, nil }
func (brokenRepo) CreateCategory(c *categoryDatamodel.Category) (*categoryDatamodel.Category, error) {
	return c, nil
}

var _ = Describe("Category Handler", func() {
	var slogger *slog.Logger

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("lists the seven default categories as an array", func() {
		service := category.NewService(memory.NewStore(), slogger)
		handler := category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		w := httptest.NewRecorder()
		handler.GetCategories(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var categories []categoryDatamodel.Category
		Expect(json.NewDecoder(w.Body).Decode(&categories)).To(Succeed())
		Expect(categories).To(HaveLen(7))
		Expect(categories[4].Name).To(Equal("Health"))
		Expect(categories[4].Icon).To(Equal("fas fa-heartbeat"))
		Expect(categories[4].Color).To(Equal("red"))
	})

	It("hides repository failures behind a 500", func() {
		handler := category.NewHandler(&transport.BaseHandler{Logger: slogger}, category.NewService(brokenRepo{}, slogger))

		w := httptest.NewRecorder()
		handler.GetCategories(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
	})
})

var _ = Describe("FindByNameFragment", func() {
	It("matches case-insensitively and returns the first hit", func() {
		categories, _ := memory.NewStore().GetCategories()
		Expect(category.FindByNameFragment(categories, "food").ID).To(Equal(int64(1)))
		Expect(category.FindByNameFragment(categories, "TRANSPORT").ID).To(Equal(int64(2)))
		Expect(category.FindByNameFragment(categories, "travel")).To(BeNil())
	})
})
