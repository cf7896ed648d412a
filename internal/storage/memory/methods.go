package memory

// Locked and unlocked front-ends over the shared table logic. Store methods
// take the mutex; txStore methods run inside InTx, which already holds it.

import (
	"context"
	"time"

	"contas/internal/core"
)

func (s *Store) CreateUser(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.createUser(u)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getUserByEmail(email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getUserByID(id)
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listUserIDs()
}

func (s *Store) CreateCard(ctx context.Context, c *core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.createCard(c)
}

func (s *Store) GetCard(ctx context.Context, id string) (*core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getCard(id)
}

func (s *Store) ListCardsForUser(ctx context.Context, userID string) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listCardsForUser(userID)
}

func (s *Store) UpdateCard(ctx context.Context, c *core.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateCard(c)
}

func (s *Store) GrantAccess(ctx context.Context, a *core.CardAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.grantAccess(a)
}

func (s *Store) RevokeAccess(ctx context.Context, cardID, grantedToID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.revokeAccess(cardID, grantedToID, at)
}

func (s *Store) ListAccess(ctx context.Context, cardID string) ([]core.CardAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listAccess(cardID)
}

func (s *Store) HasActiveAccess(ctx context.Context, cardID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.hasActiveAccess(cardID, userID), nil
}

func (s *Store) CreateBill(ctx context.Context, b *core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.createBill(b)
}

func (s *Store) GetBill(ctx context.Context, id string) (*core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getBill(id)
}

func (s *Store) ListBillsByCard(ctx context.Context, cardID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listBillsByCard(cardID)
}

func (s *Store) ListVisibleActiveBills(ctx context.Context, userID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listVisibleActiveBills(userID)
}

func (s *Store) UpdateBillVersioned(ctx context.Context, b *core.Bill, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateBillVersioned(b, expectedVersion)
}

func (s *Store) SoftDeleteBill(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.softDeleteBill(id, at)
}

func (s *Store) CreateInstance(ctx context.Context, i *core.BillInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.createInstance(i)
}

func (s *Store) GetInstance(ctx context.Context, id string) (*core.BillInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getInstance(id)
}

func (s *Store) GetInstanceByBillPeriod(ctx context.Context, billID string, p core.Period) (*core.BillInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.getInstanceByBillPeriod(billID, p)
}

func (s *Store) ListInstancesForPeriod(ctx context.Context, userID string, p core.Period) ([]core.BillInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listInstancesForPeriod(userID, p)
}

func (s *Store) ListInstancesFrom(ctx context.Context, billID string, from core.Period) ([]core.BillInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listInstancesFrom(billID, from)
}

func (s *Store) UpdateInstanceStructural(ctx context.Context, i *core.BillInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateInstanceStructural(i)
}

func (s *Store) UpdateInstanceStatus(ctx context.Context, i *core.BillInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateInstanceStatus(i)
}

func (s *Store) UpdateInstanceOverrides(ctx context.Context, i *core.BillInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.updateInstanceOverrides(i)
}

func (s *Store) DeleteInstance(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.deleteInstance(id)
}

func (s *Store) CreatePayment(ctx context.Context, p *core.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.createPayment(p)
}

func (s *Store) ListPaymentsByInstance(ctx context.Context, instanceID string) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.listPaymentsByInstance(instanceID)
}

func (s *Store) SumPaymentsByInstance(ctx context.Context, instanceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.sumPaymentsByInstance(instanceID)
}

func (s *Store) CountPaymentsByInstance(ctx context.Context, instanceID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.countPaymentsByInstance(instanceID)
}

// txStore variants.

func (x *txStore) CreateUser(ctx context.Context, u *core.User) error {
	return x.t.createUser(u)
}

func (x *txStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return x.t.getUserByEmail(email)
}

func (x *txStore) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return x.t.getUserByID(id)
}

func (x *txStore) ListUserIDs(ctx context.Context) ([]string, error) {
	return x.t.listUserIDs()
}

func (x *txStore) CreateCard(ctx context.Context, c *core.Card) error {
	return x.t.createCard(c)
}

func (x *txStore) GetCard(ctx context.Context, id string) (*core.Card, error) {
	return x.t.getCard(id)
}

func (x *txStore) ListCardsForUser(ctx context.Context, userID string) ([]core.Card, error) {
	return x.t.listCardsForUser(userID)
}

func (x *txStore) UpdateCard(ctx context.Context, c *core.Card) error {
	return x.t.updateCard(c)
}

func (x *txStore) GrantAccess(ctx context.Context, a *core.CardAccess) error {
	return x.t.grantAccess(a)
}

func (x *txStore) RevokeAccess(ctx context.Context, cardID, grantedToID string, at time.Time) error {
	return x.t.revokeAccess(cardID, grantedToID, at)
}

func (x *txStore) ListAccess(ctx context.Context, cardID string) ([]core.CardAccess, error) {
	return x.t.listAccess(cardID)
}

func (x *txStore) HasActiveAccess(ctx context.Context, cardID, userID string) (bool, error) {
	return x.t.hasActiveAccess(cardID, userID), nil
}

func (x *txStore) CreateBill(ctx context.Context, b *core.Bill) error {
	return x.t.createBill(b)
}

func (x *txStore) GetBill(ctx context.Context, id string) (*core.Bill, error) {
	return x.t.getBill(id)
}

func (x *txStore) ListBillsByCard(ctx context.Context, cardID string) ([]core.Bill, error) {
	return x.t.listBillsByCard(cardID)
}

func (x *txStore) ListVisibleActiveBills(ctx context.Context, userID string) ([]core.Bill, error) {
	return x.t.listVisibleActiveBills(userID)
}

func (x *txStore) UpdateBillVersioned(ctx context.Context, b *core.Bill, expectedVersion int64) error {
	return x.t.updateBillVersioned(b, expectedVersion)
}

func (x *txStore) SoftDeleteBill(ctx context.Context, id string, at time.Time) error {
	return x.t.softDeleteBill(id, at)
}

func (x *txStore) CreateInstance(ctx context.Context, i *core.BillInstance) error {
	return x.t.createInstance(i)
}

func (x *txStore) GetInstance(ctx context.Context, id string) (*core.BillInstance, error) {
	return x.t.getInstance(id)
}

func (x *txStore) GetInstanceByBillPeriod(ctx context.Context, billID string, p core.Period) (*core.BillInstance, error) {
	return x.t.getInstanceByBillPeriod(billID, p)
}

func (x *txStore) ListInstancesForPeriod(ctx context.Context, userID string, p core.Period) ([]core.BillInstance, error) {
	return x.t.listInstancesForPeriod(userID, p)
}

func (x *txStore) ListInstancesFrom(ctx context.Context, billID string, from core.Period) ([]core.BillInstance, error) {
	return x.t.listInstancesFrom(billID, from)
}

func (x *txStore) UpdateInstanceStructural(ctx context.Context, i *core.BillInstance) error {
	return x.t.updateInstanceStructural(i)
}

func (x *txStore) UpdateInstanceStatus(ctx context.Context, i *core.BillInstance) error {
	return x.t.updateInstanceStatus(i)
}

func (x *txStore) UpdateInstanceOverrides(ctx context.Context, i *core.BillInstance) error {
	return x.t.updateInstanceOverrides(i)
}

func (x *txStore) DeleteInstance(ctx context.Context, id string) error {
	return x.t.deleteInstance(id)
}

func (x *txStore) CreatePayment(ctx context.Context, p *core.Payment) error {
	return x.t.createPayment(p)
}

func (x *txStore) ListPaymentsByInstance(ctx context.Context, instanceID string) ([]core.Payment, error) {
	return x.t.listPaymentsByInstance(instanceID)
}

func (x *txStore) SumPaymentsByInstance(ctx context.Context, instanceID string) (int64, error) {
	return x.t.sumPaymentsByInstance(instanceID)
}

func (x *txStore) CountPaymentsByInstance(ctx context.Context, instanceID string) (int, error) {
	return x.t.countPaymentsByInstance(instanceID)
}
