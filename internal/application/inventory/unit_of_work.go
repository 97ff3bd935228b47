package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// KeyLocker locks por llave de stock. Operaciones sobre llaves distintas no se bloquean entre sí.
// Cada lock es un semáforo de capacidad 1 para poder abandonar la espera si el contexto se cancela.
type KeyLocker struct {
	mu    sync.Mutex
	slots map[entity.StockKey]*keySlot
}

type keySlot struct {
	sem  chan struct{}
	refs int
}

// NewKeyLocker construye el administrador de locks.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{slots: make(map[entity.StockKey]*keySlot)}
}

// UnitOfWork locks tomados sobre un conjunto de llaves. Es el límite transaccional que se pasa
// a cada paso del motor; Release debe ejecutarse en todo camino de salida.
type UnitOfWork struct {
	locker   *KeyLocker
	keys     []entity.StockKey
	slots    []*keySlot
	once     sync.Once
	released bool
}

// Acquire toma los locks de las llaves en orden global (tenant, producto, bodega), de modo que
// dos traslados en sentido contrario no pueden esperarse mutuamente.
func (l *KeyLocker) Acquire(ctx context.Context, keys ...entity.StockKey) (*UnitOfWork, error) {
	sorted := sortedUnique(keys)
	uow := &UnitOfWork{locker: l, keys: sorted, slots: make([]*keySlot, 0, len(sorted))}
	for _, k := range sorted {
		slot := l.ref(k)
		select {
		case slot.sem <- struct{}{}:
			uow.slots = append(uow.slots, slot)
		case <-ctx.Done():
			l.unref(k)
			uow.Release()
			return nil, fmt.Errorf("esperando lock de %s: %w", k, ctx.Err())
		}
	}
	return uow, nil
}

// Release libera los locks en orden inverso. Es idempotente.
func (u *UnitOfWork) Release() {
	u.once.Do(func() {
		for i := len(u.slots) - 1; i >= 0; i-- {
			<-u.slots[i].sem
			u.locker.unref(u.keys[i])
		}
		u.released = true
	})
}

// Holds indica si la unidad de trabajo tiene el lock de la llave.
func (u *UnitOfWork) Holds(key entity.StockKey) bool {
	if u.released {
		return false
	}
	for i, k := range u.keys {
		if k == key {
			return i < len(u.slots)
		}
	}
	return false
}

// Keys llaves cubiertas, en orden de adquisición.
func (u *UnitOfWork) Keys() []entity.StockKey {
	return append([]entity.StockKey(nil), u.keys...)
}

func (l *KeyLocker) ref(k entity.StockKey) *keySlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[k]
	if !ok {
		slot = &keySlot{sem: make(chan struct{}, 1)}
		l.slots[k] = slot
	}
	slot.refs++
	return slot
}

func (l *KeyLocker) unref(k entity.StockKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[k]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, k)
	}
}

// size número de llaves con locks vivos (tests).
func (l *KeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func sortedUnique(keys []entity.StockKey) []entity.StockKey {
	out := make([]entity.StockKey, 0, len(keys))
	seen := make(map[entity.StockKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
