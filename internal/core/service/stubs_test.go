package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stand-ins for the Postgres repositories. They enforce the same
// uniqueness and ownership rules the SQL schema does.
// ---------------------------------------------------------------------------

type memStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*domain.User
	coupons     map[int64]*domain.Coupon
	assignments map[int64]*domain.Assignment
	failWrites  error
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[int64]*domain.User),
		coupons:     make(map[int64]*domain.Coupon),
		assignments: make(map[int64]*domain.Assignment),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// ----- users ---------------------------------------------------------------

type stubUserRepo struct{ *memStore }

func (r stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *u
	clone.ID = r.id()
	r.users[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r stubUserRepo) List(_ context.Context, skip, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*domain.User
	for i, id := range ids {
		if i < skip || len(out) == limit {
			continue
		}
		clone := *r.users[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (r stubUserRepo) Update(_ context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	clone := *u
	return &clone, nil
}

func (r stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	for cid, c := range r.coupons {
		if c.CreatedByID == id {
			r.dropCoupon(cid)
		}
	}
	for aid, a := range r.assignments {
		if a.UserID == id {
			delete(r.assignments, aid)
		}
	}
	return nil
}

func (r stubUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// ----- coupons -------------------------------------------------------------

type stubCouponRepo struct{ *memStore }

func (m *memStore) dropCoupon(id int64) {
	delete(m.coupons, id)
	for aid, a := range m.assignments {
		if a.CouponID == id {
			delete(m.assignments, aid)
		}
	}
}

func (m *memStore) codeTaken(code string) bool {
	for _, c := range m.coupons {
		if c.Code == code {
			return true
		}
	}
	return false
}

func (r stubCouponRepo) insert(c *domain.Coupon, at time.Time) {
	c.ID = r.id()
	c.CreatedAt = at
	clone := *c
	r.coupons[c.ID] = &clone
}

func (r stubCouponRepo) Create(_ context.Context, c *domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	if r.codeTaken(c.Code) {
		return domain.ErrCouponCodeExists
	}
	r.insert(c, time.Now().UTC())
	return nil
}

func (r stubCouponRepo) CreateMany(_ context.Context, coupons []*domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return r.failWrites
	}
	for _, c := range coupons {
		if r.codeTaken(c.Code) {
			return domain.ErrCouponCodeExists
		}
	}
	now := time.Now().UTC()
	for _, c := range coupons {
		r.insert(c, now)
	}
	return nil
}

func (r stubCouponRepo) FindByID(_ context.Context, id int64) (*domain.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	clone := *c
	return &clone, nil
}

func (r stubCouponRepo) ExistingCodes(_ context.Context, codes []string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for _, code := range codes {
		if r.codeTaken(code) {
			out[code] = struct{}{}
		}
	}
	return out, nil
}

func (r stubCouponRepo) filter(keep func(*domain.Coupon) bool) []*domain.Coupon {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Coupon
	for _, c := range r.coupons {
		if keep(c) {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r stubCouponRepo) List(_ context.Context) ([]*domain.Coupon, error) {
	return r.filter(func(*domain.Coupon) bool { return true }), nil
}

func (r stubCouponRepo) ListByCreator(_ context.Context, creatorID int64) ([]*domain.Coupon, error) {
	return r.filter(func(c *domain.Coupon) bool { return c.CreatedByID == creatorID }), nil
}

func (r stubCouponRepo) ListUnassigned(_ context.Context, title string) ([]*domain.Coupon, error) {
	assigned := make(map[int64]bool)
	r.mu.Lock()
	for _, a := range r.assignments {
		assigned[a.CouponID] = true
	}
	r.mu.Unlock()
	return r.filter(func(c *domain.Coupon) bool {
		return !assigned[c.ID] && (title == "" || c.AssignmentTitle == title)
	}), nil
}

func (r stubCouponRepo) ListTitles(ctx context.Context) ([]domain.TitleSummary, error) {
	free, _ := r.ListUnassigned(ctx, "")
	counts := make(map[string]int)
	for _, c := range r.filter(func(c *domain.Coupon) bool { return c.AssignmentTitle != "" }) {
		counts[c.AssignmentTitle] = 0
	}
	for _, c := range free {
		if c.AssignmentTitle != "" {
			counts[c.AssignmentTitle]++
		}
	}
	out := make([]domain.TitleSummary, 0, len(counts))
	for t, n := range counts {
		out = append(out, domain.TitleSummary{Title: t, Unassigned: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r stubCouponRepo) Update(_ context.Context, c *domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[c.ID]; !ok {
		return domain.ErrCouponNotFound
	}
	for _, other := range r.coupons {
		if other.ID != c.ID && other.Code == c.Code {
			return domain.ErrCouponCodeExists
		}
	}
	clone := *c
	r.coupons[c.ID] = &clone
	return nil
}

func (r stubCouponRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[id]; !ok {
		return domain.ErrCouponNotFound
	}
	r.dropCoupon(id)
	return nil
}

// ----- assignments ---------------------------------------------------------

type stubAssignmentRepo struct{ *memStore }

func (m *memStore) pairTaken(p domain.Pair) bool {
	for _, a := range m.assignments {
		if a.CouponID == p.CouponID && a.UserID == p.UserID {
			return true
		}
	}
	return false
}

func (r stubAssignmentRepo) Create(_ context.Context, p domain.Pair, at time.Time) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return nil, r.failWrites
	}
	if _, ok := r.coupons[p.CouponID]; !ok {
		return nil, domain.ErrReferenceNotFound
	}
	if _, ok := r.users[p.UserID]; !ok {
		return nil, domain.ErrReferenceNotFound
	}
	if r.pairTaken(p) {
		return nil, domain.ErrAssignmentExists
	}
	a := &domain.Assignment{ID: r.id(), CouponID: p.CouponID, UserID: p.UserID, AssignedAt: at}
	r.assignments[a.ID] = a
	clone := *a
	return &clone, nil
}

func (r stubAssignmentRepo) ExistingPairs(_ context.Context, pairs []domain.Pair) (map[domain.Pair]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[domain.Pair]struct{})
	for _, p := range pairs {
		if r.pairTaken(p) {
			out[p] = struct{}{}
		}
	}
	return out, nil
}

func (r stubAssignmentRepo) CreateBatch(_ context.Context, pairs []domain.Pair, at time.Time) ([]*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites != nil {
		return nil, r.failWrites
	}
	for _, p := range pairs {
		if _, ok := r.coupons[p.CouponID]; !ok {
			return nil, domain.ErrReferenceNotFound
		}
		if _, ok := r.users[p.UserID]; !ok {
			return nil, domain.ErrReferenceNotFound
		}
	}
	out := make([]*domain.Assignment, 0, len(pairs))
	for _, p := range pairs {
		if r.pairTaken(p) {
			continue
		}
		a := &domain.Assignment{ID: r.id(), CouponID: p.CouponID, UserID: p.UserID, AssignedAt: at}
		r.assignments[a.ID] = a
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (r stubAssignmentRepo) FindByID(_ context.Context, id int64) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r stubAssignmentRepo) MarkUsed(_ context.Context, id, userID int64, usedAt time.Time) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.UserID != userID || a.IsUsed {
		return nil, domain.ErrAssignmentNotFound
	}
	a.IsUsed = true
	t := usedAt
	a.UsedAt = &t
	clone := *a
	return &clone, nil
}

func (r stubAssignmentRepo) ListByUser(_ context.Context, userID int64, unusedOnly bool) ([]*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Assignment
	for _, a := range r.assignments {
		if a.UserID != userID || (unusedOnly && a.IsUsed) {
			continue
		}
		clone := *a
		if c, ok := r.coupons[a.CouponID]; ok {
			cc := *c
			clone.Coupon = &cc
		}
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ----- events --------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CouponEvent
}

func (p *recordingPublisher) Publish(e domain.CouponEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t domain.EventType) []domain.CouponEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.CouponEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// ----- fixtures ------------------------------------------------------------

var (
	_ ports.UserRepository       = stubUserRepo{}
	_ ports.CouponRepository     = stubCouponRepo{}
	_ ports.AssignmentRepository = stubAssignmentRepo{}
)

func adminPrincipal() domain.Principal {
	return domain.Principal{UserID: 1, Username: "admin", Role: domain.RoleAdmin}
}

func managerPrincipal(id int64) domain.Principal {
	return domain.Principal{UserID: id, Username: "manager", Role: domain.RoleManager}
}

func userPrincipal(id int64) domain.Principal {
	return domain.Principal{UserID: id, Username: "user", Role: domain.RoleUser}
}

// seedUser inserts a user directly, bypassing hashing.
func (m *memStore) seedUser(username string, role domain.Role) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: m.id(), Username: username, Email: username + "@example.com", Role: role}
	m.users[u.ID] = u
	return u.ID
}

// seedCoupon inserts a coupon with an explicit creation time.
func (m *memStore) seedCoupon(code, title string, createdAt time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &domain.Coupon{
		ID:              m.id(),
		Code:            code,
		DiscountAmount:  10,
		DiscountType:    domain.DiscountPercentage,
		IsActive:        true,
		CreatedAt:       createdAt,
		AssignmentTitle: title,
	}
	m.coupons[c.ID] = c
	return c.ID
}
