package board

import (
	"math"
	"time"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

const (
	monthlyBuckets = 12
	recentCount    = 5
)

type MonthBucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Dashboard struct {
	TotalInquiries int              `json:"total_inquiries"`
	Converted      int              `json:"converted"`
	ConversionRate int              `json:"conversion_rate"`
	TotalLeads     int              `json:"total_leads"`
	Monthly        []MonthBucket    `json:"monthly"`
	Recent         []entity.Inquiry `json:"recent"`
	Unconverted    []entity.Inquiry `json:"unconverted"`
}

func (b *Board) Dashboard() Dashboard {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ComputeDashboard(b.inquiries, len(b.leads), b.now())
}

// ComputeDashboard derives the overview figures from inquiries ordered
// newest first. Monthly buckets cover the 12 calendar months ending with
// now's month, in now's location.
func ComputeDashboard(inquiries []*entity.Inquiry, totalLeads int, now time.Time) Dashboard {
	d := Dashboard{
		TotalInquiries: len(inquiries),
		TotalLeads:     totalLeads,
		Monthly:        make([]MonthBucket, 0, monthlyBuckets),
		Recent:         []entity.Inquiry{},
		Unconverted:    []entity.Inquiry{},
	}

	loc := now.Location()
	byKey := make(map[string]int, monthlyBuckets)
	for i := monthlyBuckets - 1; i >= 0; i-- {
		m := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, loc)
		key := m.Format("2006-01")
		byKey[key] = len(d.Monthly)
		d.Monthly = append(d.Monthly, MonthBucket{Key: key, Label: m.Format("Jan")})
	}

	for idx, inq := range inquiries {
		if inq.ConvertedToLead {
			d.Converted++
		} else {
			d.Unconverted = append(d.Unconverted, *inq)
		}
		if idx < recentCount {
			d.Recent = append(d.Recent, *inq)
		}
		if i, ok := byKey[inq.CreatedAt.In(loc).Format("2006-01")]; ok {
			d.Monthly[i].Count++
		}
	}

	if d.TotalInquiries > 0 {
		d.ConversionRate = int(math.Floor(float64(d.Converted)*100/float64(d.TotalInquiries) + 0.5))
	}
	return d
}
