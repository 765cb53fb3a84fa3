package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/session"
)

// handleRecent renders one page of the user's transactions, newest first.
// It fetches one row past the page size to learn whether a next page exists.
func (m *Machine) handleRecent(ctx context.Context, sess *session.Session, e RequestRecent) (Response, error) {
	txs, err := m.repo.List(ctx, core.TransactionFilter{
		UserID:      sess.UserID,
		Kind:        e.Kind,
		NewestFirst: true,
		Offset:      e.Offset,
		Limit:       m.pageSize + 1,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list transactions",
			applog.FieldComponent, applog.ComponentDialog,
			applog.FieldOperation, applog.OpList,
			applog.FieldUserID, sess.UserID,
			applog.FieldOffset, e.Offset,
			applog.FieldError, err)
		return Response{Text: "Не получилось загрузить список.", EditInPlace: true, Choices: menuRow()}, nil
	}

	hasMore := len(txs) > m.pageSize
	if hasMore {
		txs = txs[:m.pageSize]
	}

	filter := []Choice{
		{Label: "Траты", Token: TokenRecent(core.KindExpense, 0)},
		{Label: "Продажи", Token: TokenRecent(core.KindIncome, 0)},
		{Label: "Все", Token: TokenRecent("", 0)},
	}

	if len(txs) == 0 && e.Offset == 0 {
		return Response{
			Text:        "Записей пока нет.",
			EditInPlace: true,
			Choices:     append([][]Choice{filter}, menuRow()...),
		}, nil
	}

	title := "Недавние записи"
	switch e.Kind {
	case core.KindExpense:
		title = "Недавние траты"
	case core.KindIncome:
		title = "Недавние продажи"
	}
	text := title + ":\n"
	rows := [][]Choice{filter}
	for i, tx := range txs {
		mark := "💸"
		if tx.Kind == core.KindIncome {
			mark = "🍯"
		}
		line := fmt.Sprintf("%d. %s %s  %s ₽  %s",
			e.Offset+i+1,
			mark,
			tx.EffectiveAt.Format("02.01 15:04"),
			core.FormatAmountDisplay(tx.Amount),
			m.categories.Name(tx.CategoryID))
		if tx.Comment != "" {
			line += " · " + tx.Comment
		}
		text += "\n" + line
		rows = append(rows, []Choice{{
			Label: fmt.Sprintf("🗑 удалить №%d", e.Offset+i+1),
			Token: TokenDelete(tx.ID, e.Kind, e.Offset),
		}})
	}

	var nav []Choice
	if e.Offset > 0 {
		prev := e.Offset - m.pageSize
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, Choice{Label: "⬅️ Назад", Token: TokenRecent(e.Kind, prev)})
	}
	if hasMore {
		nav = append(nav, Choice{Label: "Вперёд ➡️", Token: TokenRecent(e.Kind, e.Offset+m.pageSize)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, menuRow()...)

	return Response{Text: text, Choices: rows, EditInPlace: true}, nil
}

// handleDeletePrompt asks for confirmation. Ownership is checked only at
// the actual delete; the prompt itself carries no transaction details for
// ids the user does not own.
func (m *Machine) handleDeletePrompt(ctx context.Context, sess *session.Session, e RequestDelete) (Response, error) {
	return Response{
		Text: "Удалить запись? Это навсегда.",
		Choices: [][]Choice{{
			{Label: "🗑 Удалить", Token: TokenConfirmDelete(e.TxID, e.Kind, e.Offset)},
			{Label: "Оставить", Token: TokenRecent(e.Kind, e.Offset)},
		}},
		EditInPlace: true,
	}, nil
}

func (m *Machine) handleDeleteConfirm(ctx context.Context, sess *session.Session, e ConfirmDelete) (Response, error) {
	ok, err := m.repo.DeleteByID(ctx, sess.UserID, e.TxID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete transaction",
			applog.FieldComponent, applog.ComponentDialog,
			applog.FieldOperation, applog.OpDelete,
			applog.FieldUserID, sess.UserID,
			applog.FieldTxID, e.TxID,
			applog.FieldError, err)
		return Response{Text: "Не получилось удалить.", EditInPlace: true, Choices: menuRow()}, nil
	}

	// Re-render the page the delete was started from either way; an unknown
	// or foreign id reads as already gone.
	page, pageErr := m.handleRecent(ctx, sess, RequestRecent{Kind: e.Kind, Offset: e.Offset})
	if pageErr != nil {
		return page, pageErr
	}
	if ok {
		page.Text = "Удалено 🗑\n\n" + page.Text
	} else {
		page.Text = "Запись не найдена.\n\n" + page.Text
	}
	return page, nil
}

// handleUndo removes the newest transaction created inside the undo window.
func (m *Machine) handleUndo(ctx context.Context, sess *session.Session) (Response, error) {
	since := time.Now().UTC().Add(-m.undoWindow)
	deleted, err := m.repo.DeleteMostRecentSince(ctx, sess.UserID, since)
	if err != nil {
		slog.ErrorContext(ctx, "Undo failed",
			applog.FieldComponent, applog.ComponentDialog,
			applog.FieldOperation, applog.OpUndo,
			applog.FieldUserID, sess.UserID,
			applog.FieldError, err)
		return Response{Text: "Не получилось отменить.", EditInPlace: true, Choices: menuRow()}, nil
	}
	if deleted == nil {
		return Response{Text: "Нечего отменять: недавних записей нет.", EditInPlace: true, Choices: menuRow()}, nil
	}

	text := fmt.Sprintf("Отменил запись: %s, %s ₽.",
		m.categories.Name(deleted.CategoryID),
		core.FormatAmountDisplay(deleted.Amount))
	return Response{Text: text, EditInPlace: true, Choices: menuRow()}, nil
}
