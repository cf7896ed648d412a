// Package memory provides an in-memory storage.Store. It backs the memory
// data backend and the service test suites; semantics mirror the sqlite
// store, including conflict errors and transactional rollback.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps everything in maps guarded by one mutex. InTx snapshots the
// tables and restores them when fn fails, giving all-or-nothing writes.
type Store struct {
	mu sync.Mutex
	t  tables
}

type instanceKey struct {
	billID string
	period core.Period
}

type tables struct {
	users        map[string]core.User
	usersByEmail map[string]string
	cards        map[string]core.Card
	access       map[string]core.CardAccess
	bills        map[string]core.Bill
	instances    map[string]core.BillInstance
	instanceKeys map[instanceKey]string
	payments     map[string]core.Payment
}

func newTables() tables {
	return tables{
		users:        make(map[string]core.User),
		usersByEmail: make(map[string]string),
		cards:        make(map[string]core.Card),
		access:       make(map[string]core.CardAccess),
		bills:        make(map[string]core.Bill),
		instances:    make(map[string]core.BillInstance),
		instanceKeys: make(map[instanceKey]string),
		payments:     make(map[string]core.Payment),
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.usersByEmail {
		c.usersByEmail[k] = v
	}
	for k, v := range t.cards {
		c.cards[k] = v
	}
	for k, v := range t.access {
		c.access[k] = v
	}
	for k, v := range t.bills {
		c.bills[k] = v
	}
	for k, v := range t.instances {
		c.instances[k] = v
	}
	for k, v := range t.instanceKeys {
		c.instanceKeys[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	return c
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{t: newTables()}
}

func (s *Store) Close() error { return nil }

// InTx serializes against all other operations, snapshots the tables and
// rolls back on error.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(&txStore{t: &s.t}); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

// txStore exposes the tables without locking; it only lives inside InTx,
// which already holds the store mutex.
type txStore struct {
	t *tables
}

var _ storage.Store = (*txStore)(nil)

func (x *txStore) Close() error { return nil }

// InTx on a transactional view reuses the enclosing transaction.
func (x *txStore) InTx(ctx context.Context, fn func(storage.Store) error) error {
	return fn(x)
}

func newID() string { return uuid.New().String() }

// Users

func (t *tables) createUser(u *core.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	email := strings.ToLower(u.Email)
	if _, exists := t.usersByEmail[email]; exists {
		return core.ErrConflict
	}
	t.users[u.ID] = *u
	t.usersByEmail[email] = u.ID
	return nil
}

func (t *tables) getUserByEmail(email string) (*core.User, error) {
	id, ok := t.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrNotFound
	}
	u := t.users[id]
	return &u, nil
}

func (t *tables) getUserByID(id string) (*core.User, error) {
	u, ok := t.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &u, nil
}

func (t *tables) listUserIDs() ([]string, error) {
	ids := make([]string, 0, len(t.users))
	for id := range t.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Cards

func (t *tables) createCard(c *core.Card) error {
	if c.ID == "" {
		c.ID = newID()
	}
	t.cards[c.ID] = *c
	return nil
}

func (t *tables) getCard(id string) (*core.Card, error) {
	c, ok := t.cards[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &c, nil
}

func (t *tables) hasActiveAccess(cardID, userID string) bool {
	for _, a := range t.access {
		if a.CardID == cardID && a.GrantedToID == userID && a.RevokedAt == nil {
			return true
		}
	}
	return false
}

func (t *tables) listCardsForUser(userID string) ([]core.Card, error) {
	var out []core.Card
	for _, c := range t.cards {
		if c.OwnerID == userID || t.hasActiveAccess(c.ID, userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tables) updateCard(c *core.Card) error {
	if _, ok := t.cards[c.ID]; !ok {
		return core.ErrNotFound
	}
	t.cards[c.ID] = *c
	return nil
}

func (t *tables) grantAccess(a *core.CardAccess) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if t.hasActiveAccess(a.CardID, a.GrantedToID) {
		return core.ErrConflict
	}
	t.access[a.ID] = *a
	return nil
}

func (t *tables) revokeAccess(cardID, grantedToID string, at time.Time) error {
	for id, a := range t.access {
		if a.CardID == cardID && a.GrantedToID == grantedToID && a.RevokedAt == nil {
			revoked := at
			a.RevokedAt = &revoked
			t.access[id] = a
			return nil
		}
	}
	return core.ErrNotFound
}

func (t *tables) listAccess(cardID string) ([]core.CardAccess, error) {
	var out []core.CardAccess
	for _, a := range t.access {
		if a.CardID == cardID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.Before(out[j].GrantedAt) })
	return out, nil
}

// Bills

func (t *tables) createBill(b *core.Bill) error {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	t.bills[b.ID] = *b
	return nil
}

func (t *tables) getBill(id string) (*core.Bill, error) {
	b, ok := t.bills[id]
	if !ok || b.DeletedAt != nil {
		return nil, core.ErrNotFound
	}
	return &b, nil
}

func (t *tables) listBillsByCard(cardID string) ([]core.Bill, error) {
	var out []core.Bill
	for _, b := range t.bills {
		if b.CardID == cardID && b.DeletedAt == nil {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tables) listVisibleActiveBills(userID string) ([]core.Bill, error) {
	var out []core.Bill
	for _, b := range t.bills {
		if b.DeletedAt != nil || !b.IsActive {
			continue
		}
		card, ok := t.cards[b.CardID]
		if !ok {
			continue
		}
		if card.OwnerID == userID || t.hasActiveAccess(card.ID, userID) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) updateBillVersioned(b *core.Bill, expectedVersion int64) error {
	stored, ok := t.bills[b.ID]
	if !ok || stored.DeletedAt != nil {
		return core.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return core.ErrConflict
	}
	b.Version = expectedVersion + 1
	t.bills[b.ID] = *b
	return nil
}

func (t *tables) softDeleteBill(id string, at time.Time) error {
	b, ok := t.bills[id]
	if !ok || b.DeletedAt != nil {
		return core.ErrNotFound
	}
	deleted := at
	b.DeletedAt = &deleted
	t.bills[id] = b
	return nil
}

// Instances

func (t *tables) createInstance(i *core.BillInstance) error {
	if i.ID == "" {
		i.ID = newID()
	}
	key := instanceKey{billID: i.BillID, period: i.Period}
	if _, exists := t.instanceKeys[key]; exists {
		return core.ErrConflict
	}
	t.instances[i.ID] = *i
	t.instanceKeys[key] = i.ID
	return nil
}

func (t *tables) getInstance(id string) (*core.BillInstance, error) {
	i, ok := t.instances[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &i, nil
}

func (t *tables) getInstanceByBillPeriod(billID string, p core.Period) (*core.BillInstance, error) {
	id, ok := t.instanceKeys[instanceKey{billID: billID, period: p}]
	if !ok {
		return nil, core.ErrNotFound
	}
	i := t.instances[id]
	return &i, nil
}

func (t *tables) listInstancesForPeriod(userID string, p core.Period) ([]core.BillInstance, error) {
	var out []core.BillInstance
	for _, i := range t.instances {
		if i.Period != p {
			continue
		}
		bill, ok := t.bills[i.BillID]
		if !ok || bill.DeletedAt != nil {
			continue
		}
		card, ok := t.cards[bill.CardID]
		if !ok {
			continue
		}
		if card.OwnerID == userID || t.hasActiveAccess(card.ID, userID) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tables) listInstancesFrom(billID string, from core.Period) ([]core.BillInstance, error) {
	var out []core.BillInstance
	for _, i := range t.instances {
		if i.BillID == billID && !i.Period.Before(from) {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (t *tables) updateInstanceStructural(i *core.BillInstance) error {
	stored, ok := t.instances[i.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.Amount = i.Amount
	stored.DueDate = i.DueDate
	stored.InstallmentNumber = i.InstallmentNumber
	t.instances[i.ID] = stored
	return nil
}

func (t *tables) updateInstanceStatus(i *core.BillInstance) error {
	stored, ok := t.instances[i.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.Status = i.Status
	stored.PaidAt = i.PaidAt
	stored.PaidByUserID = i.PaidByUserID
	stored.CancelledAt = i.CancelledAt
	t.instances[i.ID] = stored
	return nil
}

func (t *tables) updateInstanceOverrides(i *core.BillInstance) error {
	stored, ok := t.instances[i.ID]
	if !ok {
		return core.ErrNotFound
	}
	stored.OverriddenAmount = i.OverriddenAmount
	stored.OverriddenDueDate = i.OverriddenDueDate
	t.instances[i.ID] = stored
	return nil
}

func (t *tables) deleteInstance(id string) error {
	i, ok := t.instances[id]
	if !ok {
		return core.ErrNotFound
	}
	delete(t.instances, id)
	delete(t.instanceKeys, instanceKey{billID: i.BillID, period: i.Period})
	return nil
}

// Payments

func (t *tables) createPayment(p *core.Payment) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, ok := t.instances[p.InstanceID]; !ok {
		return core.ErrNotFound
	}
	t.payments[p.ID] = *p
	return nil
}

func (t *tables) listPaymentsByInstance(instanceID string) ([]core.Payment, error) {
	var out []core.Payment
	for _, p := range t.payments {
		if p.InstanceID == instanceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (t *tables) sumPaymentsByInstance(instanceID string) (int64, error) {
	var sum int64
	for _, p := range t.payments {
		if p.InstanceID == instanceID {
			sum += p.Amount.Cents
		}
	}
	return sum, nil
}

func (t *tables) countPaymentsByInstance(instanceID string) (int, error) {
	n := 0
	for _, p := range t.payments {
		if p.InstanceID == instanceID {
			n++
		}
	}
	return n, nil
}
