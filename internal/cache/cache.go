package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries — предел числа записей по умолчанию.
	DefaultMaxEntries = 256

	// DefaultTTL — срок жизни записи по умолчанию.
	DefaultTTL = 10 * time.Minute
)

// entry — одна запись кэша.
type entry struct {
	key      string
	value    any
	storedAt time.Time
}

// Cache — потокобезопасный LRU-кэш с TTL.
//
// Get обновляет позицию записи в порядке вытеснения, но не её
// возраст: запись, которую постоянно читают, всё равно истечёт.
// Set по существующему ключу сбрасывает возраст.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	order      *list.List // свежие в начале
	items      map[string]*list.Element

	// now подменяется в тестах.
	now func() time.Time
}

// New создаёт кэш. Неположительные параметры заменяются значениями
// по умолчанию.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		maxEntries: maxEntries,
		ttl:        ttl,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get возвращает значение по ключу.
// Каждое чтение сперва вычищает все просроченные записи: кэш не
// держит мёртвый груз до следующей записи.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}

	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Set записывает значение по ключу.
// Существующая запись перезаписывается со сбросом возраста.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		ent.value = value
		ent.storedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.maxEntries {
		c.remove(c.order.Back())
	}

	el := c.order.PushFront(&entry{key: key, value: value, storedAt: c.now()})
	c.items[key] = el
}

// Delete удаляет запись по ключу.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len возвращает число живых записей.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired()
	return c.order.Len()
}

// Clear очищает кэш целиком.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
}

func (c *Cache) expired(ent *entry) bool {
	return c.now().Sub(ent.storedAt) > c.ttl
}

func (c *Cache) purgeExpired() {
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry)) {
			c.remove(el)
		}
		el = prev
	}
}

func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
