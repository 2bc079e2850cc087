package memory

import (
	"slices"

	"github.com/angelmondragon/tableside-backend/pkg/db/models"
)

// state owns every table. It is never shared between goroutines without the
// Store mutex; transactions write in place and journal their undo steps.
type state struct {
	restaurants    map[int64]models.Restaurant
	categories     map[int64]models.MenuCategory
	menuItems      map[int64]models.MenuItem
	addons         map[int64]models.MenuItemAddon
	deals          map[int64]models.Deal
	cartItems      map[int64]models.CartItem
	cartItemAddons map[int64]models.CartItemAddon
	sessions       map[int64]models.TableSession
	sessionIndex   map[string]int64
	orders         map[int64]models.Order
	serverCalls    map[int64]models.ServerCall

	seq sequences
}

type sequences struct {
	restaurant    int64
	category      int64
	menuItem      int64
	addon         int64
	deal          int64
	cartItem      int64
	cartItemAddon int64
	session       int64
	order         int64
	serverCall    int64
}

func newState() *state {
	return &state{
		restaurants:    map[int64]models.Restaurant{},
		categories:     map[int64]models.MenuCategory{},
		menuItems:      map[int64]models.MenuItem{},
		addons:         map[int64]models.MenuItemAddon{},
		deals:          map[int64]models.Deal{},
		cartItems:      map[int64]models.CartItem{},
		cartItemAddons: map[int64]models.CartItemAddon{},
		sessions:       map[int64]models.TableSession{},
		sessionIndex:   map[string]int64{},
		orders:         map[int64]models.Order{},
		serverCalls:    map[int64]models.ServerCall{},
	}
}

// journal records how to revert the writes of one transaction.
type journal struct {
	undo []func()
}

func (j *journal) record(step func()) {
	if j != nil {
		j.undo = append(j.undo, step)
	}
}

// rollback reverts the recorded writes, newest first.
func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// put stores row under key and journals the previous value.
func put[K comparable, T any](j *journal, table map[K]T, key K, row T) {
	prev, had := table[key]
	j.record(func() {
		if had {
			table[key] = prev
		} else {
			delete(table, key)
		}
	})
	table[key] = row
}

// remove deletes key and journals the removed row.
func remove[K comparable, T any](j *journal, table map[K]T, key K) {
	prev, had := table[key]
	if !had {
		return
	}
	j.record(func() { table[key] = prev })
	delete(table, key)
}

// sortedValues returns the rows matching keep, ordered by id.
func sortedValues[T any](rows map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(rows))
	for id, row := range rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out
}
