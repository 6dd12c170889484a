package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"malladmin/internal/model"
	"malladmin/internal/query"
	"malladmin/internal/repository"
)

type Malls struct {
	mu     sync.Mutex
	rows   map[int64]*model.Mall
	nextID int64
	// HasShops makes Delete fail with ErrConflict for these ids.
	HasShops map[int64]bool
	Err      error
}

func NewMalls() *Malls {
	return &Malls{rows: map[int64]*model.Mall{}, HasShops: map[int64]bool{}}
}

func (s *Malls) List(ctx context.Context, p query.ListParams) ([]model.Mall, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var out []model.Mall
	for _, m := range s.rows {
		if !contains(p.Search, m.Name, m.City, m.Address) {
			continue
		}
		if p.Status != "" && m.Status != p.Status {
			continue
		}
		out = append(out, *m)
	}
	items, total := paginate(out, func(m model.Mall) int64 { return m.ID }, p)
	return items, total, nil
}

func (s *Malls) GetByID(ctx context.Context, id int64) (*model.Mall, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, notFound("mall", id)
	}
	cp := *m
	return &cp, nil
}

func (s *Malls) Create(ctx context.Context, m *model.Mall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	m.ID = s.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	s.rows[m.ID] = &cp
	return nil
}

func (s *Malls) Update(ctx context.Context, m *model.Mall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.ID]; !ok {
		return notFound("mall", m.ID)
	}
	m.UpdatedAt = time.Now()
	cp := *m
	s.rows[m.ID] = &cp
	return nil
}

func (s *Malls) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("mall", id)
	}
	if s.HasShops[id] {
		return fmt.Errorf("delete mall: %w", repository.ErrConflict)
	}
	delete(s.rows, id)
	return nil
}

func (s *Malls) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.rows)), nil
}

type Shops struct {
	mu     sync.Mutex
	rows   map[int64]*model.Shop
	nextID int64
	Err    error
}

func NewShops(shops ...model.Shop) *Shops {
	s := &Shops{rows: map[int64]*model.Shop{}}
	for _, shop := range shops {
		shop := shop
		s.nextID++
		shop.ID = s.nextID
		s.rows[shop.ID] = &shop
	}
	return s
}

func (s *Shops) List(ctx context.Context, p query.ListParams) ([]model.Shop, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Shop
	for _, shop := range s.rows {
		if !contains(p.Search, shop.Name, shop.ShopNumber, shop.Category) {
			continue
		}
		if p.Status != "" && shop.Status != p.Status {
			continue
		}
		if mallID, ok := p.FilterID("mall_id"); ok && shop.MallID != mallID {
			continue
		}
		out = append(out, *shop)
	}
	items, total := paginate(out, func(s model.Shop) int64 { return s.ID }, p)
	return items, total, nil
}

func (s *Shops) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop, ok := s.rows[id]
	if !ok {
		return nil, notFound("shop", id)
	}
	cp := *shop
	return &cp, nil
}

func (s *Shops) duplicate(shop *model.Shop) bool {
	for _, other := range s.rows {
		if other.ID != shop.ID && other.MallID == shop.MallID && other.ShopNumber == shop.ShopNumber {
			return true
		}
	}
	return false
}

func (s *Shops) Create(ctx context.Context, shop *model.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duplicate(shop) {
		return fmt.Errorf("create shop: %w", repository.ErrConflict)
	}
	s.nextID++
	shop.ID = s.nextID
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = shop.CreatedAt
	cp := *shop
	s.rows[shop.ID] = &cp
	return nil
}

func (s *Shops) Update(ctx context.Context, shop *model.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[shop.ID]; !ok {
		return notFound("shop", shop.ID)
	}
	if s.duplicate(shop) {
		return fmt.Errorf("update shop: %w", repository.ErrConflict)
	}
	cp := *shop
	s.rows[shop.ID] = &cp
	return nil
}

func (s *Shops) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("shop", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Shops) CountByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, shop := range s.rows {
		if status == "" || shop.Status == status {
			n++
		}
	}
	return n, nil
}

type Bookings struct {
	mu     sync.Mutex
	rows   map[int64]*model.Booking
	nextID int64
	Err    error
}

func NewBookings(bookings ...model.Booking) *Bookings {
	s := &Bookings{rows: map[int64]*model.Booking{}}
	for _, b := range bookings {
		b := b
		s.nextID++
		b.ID = s.nextID
		b.CreatedAt = time.Now().Add(time.Duration(b.ID) * time.Second)
		s.rows[b.ID] = &b
	}
	return s
}

func (s *Bookings) sorted(match func(*model.Booking) bool) []model.Booking {
	var out []model.Booking
	for _, b := range s.rows {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Bookings) List(ctx context.Context, p query.ListParams) ([]model.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(b *model.Booking) bool {
		if !contains(p.Search, b.ShopName, b.UserName, b.Notes) {
			return false
		}
		if p.Status != "" && b.Status != p.Status {
			return false
		}
		if id, ok := p.FilterID("shop_id"); ok && b.ShopID != id {
			return false
		}
		if id, ok := p.FilterID("user_id"); ok && b.UserID != id {
			return false
		}
		return true
	})
	items, total := paginate(out, func(b model.Booking) int64 { return b.ID }, p)
	return items, total, nil
}

func (s *Bookings) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, notFound("booking", id)
	}
	cp := *b
	return &cp, nil
}

func (s *Bookings) Recent(ctx context.Context, limit int) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.sorted(func(*model.Booking) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Bookings) Create(ctx context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	b.ID = s.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	s.rows[b.ID] = &cp
	return nil
}

func (s *Bookings) Update(ctx context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[b.ID]; !ok {
		return notFound("booking", b.ID)
	}
	cp := *b
	s.rows[b.ID] = &cp
	return nil
}

func (s *Bookings) UpdateStatus(ctx context.Context, id int64, status string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return "", notFound("booking", id)
	}
	prev := b.Status
	b.Status = status
	return prev, nil
}

func (s *Bookings) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("booking", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Bookings) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.rows {
		if oneOf(b.Status, statuses) {
			n++
		}
	}
	return n, nil
}

type Payments struct {
	mu     sync.Mutex
	rows   map[int64]*model.Payment
	nextID int64
}

func NewPayments(payments ...model.Payment) *Payments {
	s := &Payments{rows: map[int64]*model.Payment{}}
	for _, p := range payments {
		p := p
		s.nextID++
		p.ID = s.nextID
		s.rows[p.ID] = &p
	}
	return s
}

func (s *Payments) List(ctx context.Context, p query.ListParams) ([]model.Payment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, pay := range s.rows {
		if !contains(p.Search, pay.TransactionRef) {
			continue
		}
		if p.Status != "" && pay.Status != p.Status {
			continue
		}
		if m := p.Filter("method"); m != "" && pay.Method != m {
			continue
		}
		out = append(out, *pay)
	}
	items, total := paginate(out, func(p model.Payment) int64 { return p.ID }, p)
	return items, total, nil
}

func (s *Payments) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return nil, notFound("payment", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Payments) Create(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.rows[p.ID] = &cp
	return nil
}

func (s *Payments) Update(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[p.ID]; !ok {
		return notFound("payment", p.ID)
	}
	cp := *p
	s.rows[p.ID] = &cp
	return nil
}

func (s *Payments) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("payment", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Payments) SumByStatus(ctx context.Context, status string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, p := range s.rows {
		if p.Status == status {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (s *Payments) CountByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.rows {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

type Inquiries struct {
	mu     sync.Mutex
	rows   map[int64]*model.Inquiry
	nextID int64
	Err    error
}

func NewInquiries(inquiries ...model.Inquiry) *Inquiries {
	s := &Inquiries{rows: map[int64]*model.Inquiry{}}
	for _, q := range inquiries {
		q := q
		s.nextID++
		q.ID = s.nextID
		s.rows[q.ID] = &q
	}
	return s
}

func (s *Inquiries) List(ctx context.Context, p query.ListParams) ([]model.Inquiry, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Inquiry
	for _, q := range s.rows {
		if !contains(p.Search, q.Name, q.Email, q.Subject) {
			continue
		}
		if p.Status != "" && q.Status != p.Status {
			continue
		}
		out = append(out, *q)
	}
	items, total := paginate(out, func(q model.Inquiry) int64 { return q.ID }, p)
	return items, total, nil
}

func (s *Inquiries) GetByID(ctx context.Context, id int64) (*model.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.rows[id]
	if !ok {
		return nil, notFound("inquiry", id)
	}
	cp := *q
	return &cp, nil
}

func (s *Inquiries) Recent(ctx context.Context, limit int) ([]model.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []model.Inquiry
	for _, q := range s.rows {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Inquiries) Create(ctx context.Context, q *model.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	q.ID = s.nextID
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	cp := *q
	s.rows[q.ID] = &cp
	return nil
}

func (s *Inquiries) Update(ctx context.Context, q *model.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[q.ID]; !ok {
		return notFound("inquiry", q.ID)
	}
	cp := *q
	s.rows[q.ID] = &cp
	return nil
}

func (s *Inquiries) Respond(ctx context.Context, id int64, response string) (*model.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.rows[id]
	if !ok {
		return nil, notFound("inquiry", id)
	}
	q.Response = response
	q.Status = model.InquiryStatusResolved
	cp := *q
	return &cp, nil
}

func (s *Inquiries) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return notFound("inquiry", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Inquiries) CountByStatus(ctx context.Context, statuses ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, q := range s.rows {
		if oneOf(q.Status, statuses) {
			n++
		}
	}
	return n, nil
}

type Notifications struct {
	mu     sync.Mutex
	rows   map[int64]*model.Notification
	nextID int64
	Err    error
}

func NewNotifications() *Notifications {
	return &Notifications{rows: map[int64]*model.Notification{}}
}

func (s *Notifications) ListForUser(ctx context.Context, userID int64, p query.ListParams) ([]model.Notification, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.rows {
		if n.UserID != userID {
			continue
		}
		switch p.Filter("read") {
		case "true":
			if !n.IsRead {
				continue
			}
		case "false":
			if n.IsRead {
				continue
			}
		}
		if t := p.Filter("type"); t != "" && n.Type != t {
			continue
		}
		out = append(out, *n)
	}
	items, total := paginate(out, func(n model.Notification) int64 { return n.ID }, p)
	return items, total, nil
}

func (s *Notifications) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, notFound("notification", id)
	}
	cp := *n
	return &cp, nil
}

func (s *Notifications) Create(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	n.ID = s.nextID
	n.CreatedAt = time.Now()
	cp := *n
	s.rows[n.ID] = &cp
	return nil
}

func (s *Notifications) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var c int64
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (s *Notifications) MarkRead(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok || n.UserID != userID {
		return notFound("notification", id)
	}
	n.IsRead = true
	return nil
}

func (s *Notifications) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var c int64
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func (s *Notifications) Delete(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok || n.UserID != userID {
		return notFound("notification", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *Notifications) MarkDelivered(ctx context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	n, ok := s.rows[id]
	if !ok || n.DeliveredAt != nil {
		return false, nil
	}
	n.DeliveredAt = &at
	return true, nil
}

// ForUser returns every notification of userID, oldest first.
func (s *Notifications) ForUser(userID int64) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.rows {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type Settings struct {
	mu   sync.Mutex
	rows map[string]*model.Setting
}

func NewSettings(settings ...model.Setting) *Settings {
	s := &Settings{rows: map[string]*model.Setting{}}
	for _, st := range settings {
		st := st
		s.rows[st.Key] = &st
	}
	return s
}

func (s *Settings) List(ctx context.Context) ([]model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Setting
	for _, st := range s.rows {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Settings) Get(ctx context.Context, key string) (*model.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.rows[key]
	if !ok {
		return nil, notFound("setting", key)
	}
	cp := *st
	return &cp, nil
}

func (s *Settings) Upsert(ctx context.Context, st *model.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rows[st.Key]; ok && st.Description == "" {
		st.Description = cur.Description
	}
	st.UpdatedAt = time.Now()
	cp := *st
	s.rows[st.Key] = &cp
	return nil
}

func (s *Settings) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[key]; !ok {
		return notFound("setting", key)
	}
	delete(s.rows, key)
	return nil
}

// Reports returns canned report rows and records the revenue range asked for.
type Reports struct {
	Revenue     []model.MonthlyRevenue
	Occupied    []model.MallOccupancy
	StatusCount map[string]int64
	Err         error

	From, To time.Time
	MallID   *int64
}

func (r *Reports) RevenueByMonth(ctx context.Context, from, to time.Time, mallID *int64) ([]model.MonthlyRevenue, error) {
	r.From, r.To, r.MallID = from, to, mallID
	return r.Revenue, r.Err
}

func (r *Reports) Occupancy(ctx context.Context) ([]model.MallOccupancy, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]model.MallOccupancy, len(r.Occupied))
	copy(out, r.Occupied)
	return out, nil
}

func (r *Reports) BookingStatusCounts(ctx context.Context) (map[string]int64, error) {
	return r.StatusCount, r.Err
}
