package category

import (
	"log/slog"
	"strings"

	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

type Service struct {
	repo   storage.CategoryRepository
	logger *slog.Logger
}

func NewService(repo storage.CategoryRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetAllCategories returns every category in id order.
func (s *Service) GetAllCategories() ([]*categoryDatamodel.Category, error) {
	categories, err := s.repo.GetCategories()
	if err != nil {
		s.logger.Error("failed to get categories from repository", "error", err)
		return nil, err
	}

	s.logger.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// FindByNameFragment returns the first category whose lower-cased name
// contains fragment, or nil.
func FindByNameFragment(categories []*categoryDatamodel.Category, fragment string) *categoryDatamodel.Category {
	fragment = strings.ToLower(fragment)
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), fragment) {
			return c
		}
	}
	return nil
}
