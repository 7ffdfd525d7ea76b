package nursery

import (
	"gorm.io/gorm"

	"github.com/luminex/nursery-backend/internal/pkg/paging"
)

// paginate counts the filtered rows, then loads one page of them into dest. The session
// keeps the count and the page query from sharing statement state.
func paginate(q *gorm.DB, p paging.Params, order string, dest interface{}, preload ...func(*gorm.DB) *gorm.DB) (int64, error) {
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	p = p.Normalize()
	page := q
	for _, fn := range preload {
		page = fn(page)
	}
	if order != "" {
		page = page.Order(order)
	}
	if err := page.Offset(p.Offset()).Limit(p.Limit).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func likePattern(s string) string { return "%" + s + "%" }
