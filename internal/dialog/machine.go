package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/report"
	"kopilka/internal/session"
	"kopilka/internal/taxonomy"
)

// Repository is the slice of the storage layer the dialogue needs.
type Repository interface {
	Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
	List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	DeleteByID(ctx context.Context, userID, txID int64) (bool, error)
	DeleteMostRecentSince(ctx context.Context, userID int64, since time.Time) (*core.Transaction, error)
}

// ReportDispatcher runs or enqueues a report. queued means the work went to
// the queue and files will arrive later from the worker; otherwise files
// holds the rendered artifact paths.
type ReportDispatcher interface {
	Dispatch(ctx context.Context, chatID, userID int64, kind core.Kind, days int, mode report.Mode) (files []string, queued bool, err error)
}

// Machine drives one user's dialogue: the recording flow, the recent
// browser, undo and report requests. Safe for concurrent users; events for
// a single user are handled sequentially by the transport loop.
type Machine struct {
	repo       Repository
	categories *taxonomy.Directory
	sessions   *session.Store
	reports    ReportDispatcher

	pageSize   int
	undoWindow time.Duration
}

func NewMachine(repo Repository, categories *taxonomy.Directory, sessions *session.Store, reports ReportDispatcher, pageSize int, undoWindow time.Duration) *Machine {
	return &Machine{
		repo:       repo,
		categories: categories,
		sessions:   sessions,
		reports:    reports,
		pageSize:   pageSize,
		undoWindow: undoWindow,
	}
}

// Handle processes one event for the user and returns what to show.
func (m *Machine) Handle(ctx context.Context, userID, chatID int64, ev Event) (Response, error) {
	sess := m.sessions.Get(userID)
	sess.UserID = userID
	sess.ChatID = chatID

	switch e := ev.(type) {
	case MainMenu:
		sess.Clear()
		return m.menu(), nil
	case Cancel:
		sess.Clear()
		r := m.menu()
		r.Text = "Отменено.\n\n" + r.Text
		return r, nil
	case StartTransaction:
		return m.handleStart(sess, e)
	case SelectCategory:
		return m.handleCategory(sess, e)
	case SelectSubcategory:
		return m.handleSubcategory(sess, e)
	case SubmitComment:
		return m.handleComment(sess, e)
	case SubmitAmount:
		return m.handleAmount(sess, e)
	case Confirm:
		return m.handleConfirm(ctx, sess)
	case RequestRecent:
		return m.handleRecent(ctx, sess, e)
	case RequestDelete:
		return m.handleDeletePrompt(ctx, sess, e)
	case ConfirmDelete:
		return m.handleDeleteConfirm(ctx, sess, e)
	case RequestUndo:
		return m.handleUndo(ctx, sess)
	case OpenReportMenu:
		return m.reportMenu(), nil
	case RequestReport:
		return m.handleReport(ctx, sess, e)
	}
	return Response{}, fmt.Errorf("unhandled event %T", ev)
}

func (m *Machine) menu() Response {
	return Response{
		Text: "Что записываем?",
		Choices: [][]Choice{
			{
				{Label: "💸 Расход", Token: TokenStart(core.KindExpense)},
				{Label: "🍯 Продажа", Token: TokenStart(core.KindIncome)},
			},
			{
				{Label: "📋 Недавние", Token: TokenRecent("", 0)},
				{Label: "📊 Отчёт", Token: TokenReportMenu()},
			},
			{
				{Label: "↩️ Отменить последнюю", Token: TokenUndo()},
			},
		},
		EditInPlace: true,
	}
}

// reportMenu offers every aggregation for both kinds over the default
// window. Section reports exist for expenses only.
func (m *Machine) reportMenu() Response {
	days := report.DefaultWindowDays
	return Response{
		Text: "Какой отчёт построить?",
		Choices: [][]Choice{
			{
				{Label: "Траты 30д", Token: TokenReport(core.KindExpense, days, report.ModeDetail)},
				{Label: "Продажи 30д", Token: TokenReport(core.KindIncome, days, report.ModeDetail)},
			},
			{
				{Label: "Траты: кат.", Token: TokenReport(core.KindExpense, days, report.ModeByCategory)},
				{Label: "Продажи: кат.", Token: TokenReport(core.KindIncome, days, report.ModeByCategory)},
			},
			{
				{Label: "Траты: подкат.", Token: TokenReport(core.KindExpense, days, report.ModeBySubcategory)},
				{Label: "Продажи: подкат.", Token: TokenReport(core.KindIncome, days, report.ModeBySubcategory)},
			},
			{
				{Label: "Траты: секции", Token: TokenReport(core.KindExpense, days, report.ModeCategorySections)},
				{Label: "Траты: итого", Token: TokenReport(core.KindExpense, days, report.ModeOverall)},
			},
			{
				{Label: "Продажи: итого", Token: TokenReport(core.KindIncome, days, report.ModeOverall)},
			},
			{
				{Label: "🏠 Меню", Token: TokenMenu()},
			},
		},
		EditInPlace: true,
	}
}

func (m *Machine) handleStart(sess *session.Session, e StartTransaction) (Response, error) {
	if !e.Kind.Valid() {
		return Response{}, core.ErrUnknownKind
	}
	next, ok := Next(sess.Step, e, false)
	if !ok {
		// Mid-flow restart counts as cancel plus a fresh start.
		sess.Clear()
		next = session.StepCategory
	}
	sess.Step = next
	sess.Draft = session.Draft{Kind: e.Kind}

	// Quick picks lead the list; they jump straight to the comment step.
	var rows [][]Choice
	for _, c := range m.categories.QuickPicks(e.Kind) {
		rows = append(rows, []Choice{{Label: "⚡ " + c.Name, Token: TokenCategory(c.ID)}})
	}
	for _, c := range m.categories.RootsByKind(e.Kind) {
		if c.Quick {
			continue
		}
		rows = append(rows, []Choice{{Label: c.Name, Token: TokenCategory(c.ID)}})
	}
	rows = append(rows, []Choice{{Label: "Отмена", Token: TokenCancel()}})

	title := "Категория расхода:"
	if e.Kind == core.KindIncome {
		title = "Что продали?"
	}
	return Response{Text: title, Choices: rows, EditInPlace: true}, nil
}

func (m *Machine) handleCategory(sess *session.Session, e SelectCategory) (Response, error) {
	cat, found := m.categories.ByID(e.ID)
	if !found || !cat.IsRoot() || cat.Kind != sess.Draft.Kind {
		return Response{}, core.ErrCategoryNotFound
	}
	hasChildren := m.categories.HasChildren(e.ID)
	next, ok := Next(sess.Step, e, hasChildren)
	if !ok {
		return m.stepMismatch(sess), nil
	}
	sess.Step = next
	sess.Draft.CategoryID = cat.ID
	sess.Draft.CategoryName = cat.Name

	if next == session.StepSubcategory {
		var rows [][]Choice
		for _, c := range m.categories.ChildrenOf(cat.ID) {
			rows = append(rows, []Choice{{Label: c.Name, Token: TokenSubcategory(c.ID)}})
		}
		rows = append(rows, []Choice{{Label: "Отмена", Token: TokenCancel()}})
		return Response{Text: "Уточните:", Choices: rows, EditInPlace: true}, nil
	}
	return commentPrompt(), nil
}

func (m *Machine) handleSubcategory(sess *session.Session, e SelectSubcategory) (Response, error) {
	sub, found := m.categories.ByID(e.ID)
	if !found || sub.ParentID != sess.Draft.CategoryID {
		return Response{}, core.ErrCategoryNotFound
	}
	next, ok := Next(sess.Step, e, false)
	if !ok {
		return m.stepMismatch(sess), nil
	}
	sess.Step = next
	sess.Draft.SubcategoryID = sub.ID
	sess.Draft.SubcategoryName = sub.Name
	return commentPrompt(), nil
}

func commentPrompt() Response {
	return Response{
		Text: "Комментарий? Напишите текст или пропустите.",
		Choices: [][]Choice{
			{{Label: "Пропустить", Token: TokenSkip()}},
			{{Label: "Отмена", Token: TokenCancel()}},
		},
		EditInPlace: true,
	}
}

func (m *Machine) handleComment(sess *session.Session, e SubmitComment) (Response, error) {
	next, ok := Next(sess.Step, e, false)
	if !ok {
		return m.stepMismatch(sess), nil
	}
	sess.Step = next
	if e.Text != SkipSentinel {
		sess.Draft.Comment = e.Text
		sess.Draft.HasComment = true
	}
	return Response{
		Text:    "Сумма?",
		Choices: [][]Choice{{{Label: "Отмена", Token: TokenCancel()}}},
	}, nil
}

func (m *Machine) handleAmount(sess *session.Session, e SubmitAmount) (Response, error) {
	if sess.Step != session.StepAmount {
		return m.stepMismatch(sess), nil
	}

	amount, err := core.ParseAmount(e.Text)
	if err != nil {
		// Parse failure and non-positive value re-prompt identically.
		return Response{
			Text:    "Не понял сумму. Напишите число, например 1500 или 99,90.",
			Choices: [][]Choice{{{Label: "Отмена", Token: TokenCancel()}}},
		}, nil
	}

	next, _ := Next(sess.Step, e, false)
	sess.Step = next
	sess.Draft.Amount = amount

	kindLabel := "Расход"
	if sess.Draft.Kind == core.KindIncome {
		kindLabel = "Продажа"
	}
	text := fmt.Sprintf("%s: %s\n%s ₽", kindLabel, sess.Draft.CategoryPath(), core.FormatAmountDisplay(amount))
	if sess.Draft.HasComment {
		text += "\n" + sess.Draft.Comment
	}
	text += "\n\nЗаписать?"

	return Response{
		Text: text,
		Choices: [][]Choice{{
			{Label: "✅ Да", Token: TokenConfirm()},
			{Label: "❌ Нет", Token: TokenCancel()},
		}},
	}, nil
}

func (m *Machine) handleConfirm(ctx context.Context, sess *session.Session) (Response, error) {
	if sess.Step != session.StepConfirm {
		return m.stepMismatch(sess), nil
	}

	draft := sess.Draft
	saved, err := m.repo.Create(ctx, core.Transaction{
		UserID:        sess.UserID,
		Kind:          draft.Kind,
		CategoryID:    draft.CategoryID,
		SubcategoryID: draft.SubcategoryID,
		Amount:        draft.Amount,
		Comment:       draft.Comment,
	})
	sess.Clear()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save transaction",
			applog.FieldComponent, applog.ComponentDialog,
			applog.FieldOperation, applog.OpCreate,
			applog.FieldUserID, sess.UserID,
			applog.FieldError, err)
		r := m.menu()
		r.Text = "Не получилось сохранить, попробуйте ещё раз.\n\n" + r.Text
		return r, nil
	}

	r := m.menu()
	r.Text = fmt.Sprintf("Записано ✅ (№%d)\n\n%s", saved.ID, r.Text)
	return r, nil
}

func (m *Machine) handleReport(ctx context.Context, sess *session.Session, e RequestReport) (Response, error) {
	files, queued, err := m.reports.Dispatch(ctx, sess.ChatID, sess.UserID, e.Kind, e.Days, e.Mode)
	if err != nil {
		if errors.Is(err, report.ErrWindowTooWide) {
			return Response{Text: "Слишком длинный период для отчёта.", EditInPlace: true, Choices: menuRow()}, nil
		}
		slog.ErrorContext(ctx, "Report request failed",
			applog.FieldComponent, applog.ComponentDialog,
			applog.FieldUserID, sess.UserID,
			applog.FieldMode, e.Mode.String(),
			applog.FieldError, err)
		return Response{Text: "Не получилось построить отчёт.", EditInPlace: true, Choices: menuRow()}, nil
	}
	if queued {
		return Response{Text: "Отчёт готовится, пришлю файлы сюда.", EditInPlace: true, Choices: menuRow()}, nil
	}
	return Response{Text: "Готово, отчёт во вложении.", Files: files, Choices: menuRow()}, nil
}

func (m *Machine) stepMismatch(sess *session.Session) Response {
	slog.Warn("Event does not fit the dialogue step",
		applog.FieldComponent, applog.ComponentDialog,
		applog.FieldUserID, sess.UserID,
		applog.FieldStep, sess.Step.String())
	sess.Clear()
	r := m.menu()
	r.Text = "Давайте сначала.\n\n" + r.Text
	return r
}

func menuRow() [][]Choice {
	return [][]Choice{{{Label: "🏠 Меню", Token: TokenMenu()}}}
}
