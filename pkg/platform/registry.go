package platform

import (
	"fmt"
	"slices"

	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/model"
)

// Registry is the ordered, read-only model list of one platform.
type Registry struct {
	models []*model.Model
}

func NewRegistry(models ...*model.Model) *Registry {
	return &Registry{models: slices.Clone(models)}
}

// Lookup resolves a public model name. Names are matched exactly and the
// first registered model wins when a name is duplicated.
func (r *Registry) Lookup(name string) (*model.Model, error) {
	for _, m := range r.models {
		if m.Name() == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, name)
}

func (r *Registry) Models() []*model.Model {
	return slices.Clone(r.models)
}

func (r *Registry) Len() int { return len(r.models) }
