package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	logx "notibot/pkg/logx"
	"notibot/pkg/tgui"
)

// DailyReport summarizes the given day's transactions and broadcasts the
// result. Scheduled by the app's cron at end of day; safe to invoke
// manually for any date.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (sent, total int) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	sum, err := s.store.SumTransactions(ctx, from, to)
	if err != nil {
		s.log.Warn("daily report aggregation failed", logx.Err(err))
		return 0, 0
	}

	var b strings.Builder
	b.WriteString("📊 " + tgui.B("التقرير اليومي").String() + " — " + from.Format("02.01.2006") + "\n\n")
	if sum.Count == 0 {
		b.WriteString("لا توجد عمليات مسجلة اليوم.")
	} else {
		b.WriteString("• " + tgui.B("عدد العمليات:").String() + fmt.Sprintf(" %d\n", sum.Count))
		b.WriteString("• " + tgui.B("الدخل:").String() + fmt.Sprintf(" %.2f\n", sum.Income))
		b.WriteString("• " + tgui.B("المصروفات:").String() + fmt.Sprintf(" %.2f\n", sum.Expense))
		b.WriteString("• " + tgui.B("الصافي:").String() + fmt.Sprintf(" %.2f", sum.Income-sum.Expense))
	}

	return s.Broadcast(ctx, b.String())
}

// MonthlyReport summarizes the calendar month containing the given time and
// broadcasts the result. The app's cron passes a day from the previous month
// on the first of each month.
func (s *Service) MonthlyReport(ctx context.Context, month time.Time) (sent, total int) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	to := from.AddDate(0, 1, 0)

	sum, err := s.store.SumTransactions(ctx, from, to)
	if err != nil {
		s.log.Warn("monthly report aggregation failed", logx.Err(err))
		return 0, 0
	}

	var b strings.Builder
	b.WriteString("📊 " + tgui.B("التقرير الشهري").String() + " — " + from.Format("01.2006") + "\n\n")
	if sum.Count == 0 {
		b.WriteString("لا توجد عمليات مسجلة هذا الشهر.")
	} else {
		b.WriteString("• " + tgui.B("عدد العمليات:").String() + fmt.Sprintf(" %d\n", sum.Count))
		b.WriteString("• " + tgui.B("الدخل:").String() + fmt.Sprintf(" %.2f\n", sum.Income))
		b.WriteString("• " + tgui.B("المصروفات:").String() + fmt.Sprintf(" %.2f\n", sum.Expense))
		b.WriteString("• " + tgui.B("الصافي:").String() + fmt.Sprintf(" %.2f", sum.Income-sum.Expense))
	}

	return s.Broadcast(ctx, b.String())
}
