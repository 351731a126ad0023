package util

import (
	"container/list"
	"fmt"
	"sync"
)

// entry 是链表节点中保存的键值对。
type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache 是一个按条目数量淘汰、线程安全的泛型 LRU 缓存。
// 条目没有过期时间，只有超出容量时才会淘汰最久未使用的条目。
type LRUCache[K comparable, V any] struct {
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	onEvict  func(K, V)
	lock     sync.Mutex
}

// NewLRU 创建一个容量为 capacity 的 LRU 缓存。
// onEvict 可以为 nil，否则会在持有锁的情况下对每个被淘汰的条目调用。
func NewLRU[K comparable, V any](capacity int, onEvict func(K, V)) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("LRU 容量必须为正数, 实际为 %d", capacity)
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
		onEvict:  onEvict,
	}, nil
}

// Get 根据键获取值，并将其标记为最近使用。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(element)
	return element.Value.(*entry[K, V]).value, true
}

// Put 添加或更新一个键值对，必要时淘汰最久未使用的条目。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.items[key]; ok {
		element.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(element)
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	for c.ll.Len() > c.capacity {
		back := c.ll.Back()
		c.ll.Remove(back)
		evicted := back.Value.(*entry[K, V])
		delete(c.items, evicted.key)
		if c.onEvict != nil {
			c.onEvict(evicted.key, evicted.value)
		}
	}
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}
