package model

// MonthlyRevenue is the completed-payment total of one calendar month
// ("YYYY-MM").
type MonthlyRevenue struct {
	Month    string  `json:"month"`
	Total    float64 `json:"total"`
	Payments int64   `json:"payments"`
}

type RevenueReport struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	MallID *int64           `json:"mall_id,omitempty"`
	Months []MonthlyRevenue `json:"months"`
	Total  float64          `json:"total"`
}

type MallOccupancy struct {
	MallID        int64   `json:"mall_id"`
	MallName      string  `json:"mall_name"`
	TotalShops    int64   `json:"total_shops"`
	OccupiedShops int64   `json:"occupied_shops"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DashboardStats is the landing-page summary.
type DashboardStats struct {
	TotalUsers          int64     `json:"total_users"`
	TotalMalls          int64     `json:"total_malls"`
	TotalShops          int64     `json:"total_shops"`
	OccupiedShops       int64     `json:"occupied_shops"`
	OccupancyRate       float64   `json:"occupancy_rate"`
	ActiveBookings      int64     `json:"active_bookings"`
	TotalRevenue        float64   `json:"total_revenue"`
	PendingPayments     int64     `json:"pending_payments"`
	OpenInquiries       int64     `json:"open_inquiries"`
	UnreadNotifications int64     `json:"unread_notifications"`
	RecentBookings      []Booking `json:"recent_bookings"`
	RecentInquiries     []Inquiry `json:"recent_inquiries"`
}

// OccupancyRate returns occupied/total as a percentage rounded to two
// decimals, 0 when total is 0.
func OccupancyRate(occupied, total int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(occupied) * 100 / float64(total)
	return float64(int64(rate*100+0.5)) / 100
}
