package bot

import (
	"context"
	"os"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
	"kopilka/internal/report"
)

// ReportPublisher enqueues report requests; satisfied by *amqp.Client.
type ReportPublisher interface {
	PublishReportRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error
}

// QueueDispatcher hands report work to the worker process over AMQP.
type QueueDispatcher struct {
	publisher ReportPublisher
}

func NewQueueDispatcher(publisher ReportPublisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, chatID, userID int64, kind core.Kind, days int, mode report.Mode) ([]string, bool, error) {
	msg := amqp.NewReportRequestMessage(chatID, userID, kind, days, mode)
	if err := d.publisher.PublishReportRequest(ctx, msg); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

// InlineDispatcher renders reports in-process, for deployments without a
// queue. notify delivers the workbook link when the backend produces a URL
// instead of a local file (the gsheet backend).
type InlineDispatcher struct {
	reports *report.Service
	notify  func(ctx context.Context, chatID int64, text string) error
}

func NewInlineDispatcher(reports *report.Service, notify func(ctx context.Context, chatID int64, text string) error) *InlineDispatcher {
	return &InlineDispatcher{reports: reports, notify: notify}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, chatID, userID int64, kind core.Kind, days int, mode report.Mode) ([]string, bool, error) {
	art, err := d.reports.Generate(ctx, report.Request{
		UserID: userID,
		Kind:   kind,
		Mode:   mode,
		Days:   days,
	})
	if err != nil {
		return nil, false, err
	}

	files := []string{art.ChartPath}
	if _, statErr := os.Stat(art.WorkbookRef); statErr == nil {
		files = append([]string{art.WorkbookRef}, files...)
	} else if d.notify != nil {
		if notifyErr := d.notify(ctx, chatID, "Таблица: "+art.WorkbookRef); notifyErr != nil {
			return nil, false, notifyErr
		}
	}
	return files, false, nil
}
