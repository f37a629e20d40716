// Package keylock реализует блокировки по строковому ключу внутри процесса.
// Записи удаляются, когда ключ больше никто не держит и не ждёт,
// поэтому карта не растёт вместе с числом пар (соревнование, пользователь).
package keylock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout блокировку не удалось получить до отмены контекста.
var ErrLockTimeout = errors.New("lock acquisition timeout")

type entry struct {
	ch   chan struct{}
	refs int
}

// KeyLock набор мьютексов, адресуемых строковым ключом.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New создаёт пустой KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

func (k *KeyLock) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Lock захватывает ключ, ожидая не дольше, чем живёт ctx.
func (k *KeyLock) Lock(ctx context.Context, key string) error {
	e := k.acquire(key)
	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.release(key, e)
		return errors.Join(ErrLockTimeout, ctx.Err())
	}
}

// Unlock освобождает ключ. Вызов без предшествующего Lock является ошибкой программы.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		panic("keylock: unlock of unlocked key " + key)
	}
	<-e.ch
	k.release(key, e)
}

// WithLock выполняет fn под блокировкой ключа.
func (k *KeyLock) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := k.Lock(ctx, key); err != nil {
		return err
	}
	defer k.Unlock(key)
	return fn()
}

// Len количество ключей, которые сейчас захвачены или ожидаются.
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
