package transforms

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр типов преобразований.
//
// Позволяет регистрировать и получать реализации Transform по типу.
// Потокобезопасен.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		transforms: make(map[string]Transform),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными преобразованиями.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Регистрируем все стандартные преобразования
	r.Register(NewFilterRows())
	r.Register(NewDeleteRows())
	r.Register(NewSortRows())
	r.Register(NewDedupeRows())
	r.Register(NewRenameColumns())
	r.Register(NewSelectColumns())
	r.Register(NewRearrangeColumns())
	r.Register(NewRemoveColumnsRows())
	r.Register(NewJoinLookup())
	r.Register(NewAppendFiles())

	// Исторические имена блоков: старые документы продолжают выполняться
	r.RegisterAs("remove_column", NewRemoveColumnsRows())
	r.RegisterAs("remove_duplicates", NewDedupeRows())

	return r
}

// Register регистрирует преобразование в реестре.
// Если преобразование с таким типом уже существует, оно будет перезаписано.
func (r *Registry) Register(tr Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[tr.Type()] = tr
}

// RegisterAs регистрирует преобразование под явным типом.
// Используется для псевдонимов, отличных от tr.Type().
func (r *Registry) RegisterAs(transformType string, tr Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[transformType] = tr
}

// Get возвращает преобразование по типу.
// Возвращает ErrTransformNotFound, если преобразование не найдено.
func (r *Registry) Get(transformType string) (Transform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, exists := r.transforms[transformType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTransformNotFound, transformType)
	}

	return tr, nil
}

// Has проверяет, зарегистрировано ли преобразование.
func (r *Registry) Has(transformType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.transforms[transformType]
	return exists
}

// Types возвращает список всех зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.transforms))
	for t := range r.transforms {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных преобразований.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transforms)
}

// Unregister удаляет преобразование из реестра.
func (r *Registry) Unregister(transformType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transforms, transformType)
}
