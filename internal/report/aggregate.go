package report

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// CategoryNamer resolves category and subcategory ids to display names.
type CategoryNamer interface {
	Name(id int64) string
}

// Table is an in-memory tabular projection of transactions or their
// aggregation, produced fresh per report request.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Summary is computed over the unaggregated filtered set, so it reflects the
// true total regardless of aggregation mode.
type Summary struct {
	Kind  core.Kind
	Total decimal.Decimal
	Count int
}

// Result holds everything the renderers need. For ModeCategorySections the
// per-category tables live in Sections and Table is empty; for every other
// mode Sections is nil.
type Result struct {
	Mode         Mode
	Kind         core.Kind
	Start        time.Time
	End          time.Time
	GeneratedAt  time.Time
	Table        Table
	Sections     []Table
	Summary      Summary
	Transactions []core.Transaction
}

var (
	detailColumns        = []string{"Дата", "Категория", "Подкатегория", "Комментарий", "Сумма"}
	byCategoryColumns    = []string{"Категория", "Операций", "Сумма"}
	bySubcategoryColumns = []string{"Категория", "Подкатегория", "Сумма"}
	overallColumns       = []string{"Показатель", "Значение"}
	sectionColumns       = []string{"Подкатегория", "Сумма"}
)

// Aggregate builds the tables for the given mode. Transactions are expected
// pre-filtered; an empty slice yields well-formed empty tables, never an
// error.
func Aggregate(txs []core.Transaction, kind core.Kind, mode Mode, names CategoryNamer) Result {
	res := Result{
		Mode:         mode,
		Kind:         kind,
		GeneratedAt:  time.Now().UTC(),
		Summary:      summarize(txs, kind),
		Transactions: txs,
	}

	switch mode {
	case ModeDetail:
		res.Table = detailTable(txs, names)
	case ModeByCategory:
		res.Table = byCategoryTable(txs, names)
	case ModeBySubcategory:
		res.Table = bySubcategoryTable(txs, names)
	case ModeOverall:
		res.Table = overallTable(res.Summary)
	case ModeCategorySections:
		res.Sections = categorySections(txs, names)
	}
	return res
}

func summarize(txs []core.Transaction, kind core.Kind) Summary {
	s := Summary{Kind: kind, Count: len(txs)}
	for _, t := range txs {
		s.Total = s.Total.Add(t.Amount)
	}
	return s
}

func detailTable(txs []core.Transaction, names CategoryNamer) Table {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EffectiveAt.Equal(sorted[j].EffectiveAt) {
			return sorted[i].EffectiveAt.Before(sorted[j].EffectiveAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	t := Table{Title: "Операции", Columns: detailColumns}
	for _, tx := range sorted {
		sub := ""
		if tx.HasSubcategory() {
			sub = names.Name(tx.SubcategoryID)
		}
		t.Rows = append(t.Rows, []string{
			tx.EffectiveAt.Format("02.01.2006"),
			names.Name(tx.CategoryID),
			sub,
			tx.Comment,
			core.FormatAmountDisplay(tx.Amount),
		})
	}
	return t
}

type group struct {
	key   int64
	sum   decimal.Decimal
	count int
}

// groupBy sums amounts per key and returns the groups sorted by sum
// descending, with the resolved name as a deterministic tiebreaker.
func groupBy(txs []core.Transaction, key func(core.Transaction) int64, names CategoryNamer) []group {
	sums := make(map[int64]*group)
	var order []int64
	for _, tx := range txs {
		k := key(tx)
		g, ok := sums[k]
		if !ok {
			g = &group{key: k}
			sums[k] = g
			order = append(order, k)
		}
		g.sum = g.sum.Add(tx.Amount)
		g.count++
	}

	out := make([]group, 0, len(order))
	for _, k := range order {
		out = append(out, *sums[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].sum.Equal(out[j].sum) {
			return out[i].sum.GreaterThan(out[j].sum)
		}
		return names.Name(out[i].key) < names.Name(out[j].key)
	})
	return out
}

func byCategoryTable(txs []core.Transaction, names CategoryNamer) Table {
	t := Table{Title: "По категориям", Columns: byCategoryColumns}
	for _, g := range groupBy(txs, func(tx core.Transaction) int64 { return tx.CategoryID }, names) {
		t.Rows = append(t.Rows, []string{
			names.Name(g.key),
			itoa(g.count),
			core.FormatAmountDisplay(g.sum),
		})
	}
	return t
}

func bySubcategoryTable(txs []core.Transaction, names CategoryNamer) Table {
	type pair struct {
		category    int64
		subcategory int64
	}
	sums := make(map[pair]decimal.Decimal)
	var order []pair
	for _, tx := range txs {
		p := pair{tx.CategoryID, tx.SubcategoryID}
		if _, ok := sums[p]; !ok {
			order = append(order, p)
		}
		sums[p] = sums[p].Add(tx.Amount)
	}
	sort.SliceStable(order, func(i, j int) bool {
		if !sums[order[i]].Equal(sums[order[j]]) {
			return sums[order[i]].GreaterThan(sums[order[j]])
		}
		if order[i].category != order[j].category {
			return names.Name(order[i].category) < names.Name(order[j].category)
		}
		return names.Name(order[i].subcategory) < names.Name(order[j].subcategory)
	})

	t := Table{Title: "По подкатегориям", Columns: bySubcategoryColumns}
	for _, p := range order {
		sub := ""
		if p.subcategory != 0 {
			sub = names.Name(p.subcategory)
		}
		t.Rows = append(t.Rows, []string{
			names.Name(p.category),
			sub,
			core.FormatAmountDisplay(sums[p]),
		})
	}
	return t
}

func overallTable(s Summary) Table {
	return Table{
		Title:   "Итого",
		Columns: overallColumns,
		Rows: [][]string{
			{"Сумма", core.FormatAmountDisplay(s.Total)},
			{"Операций", itoa(s.Count)},
		},
	}
}

// categorySections builds one sub-table per category, categories ordered by
// their total sum descending, rows within each grouped by subcategory.
func categorySections(txs []core.Transaction, names CategoryNamer) []Table {
	byCat := make(map[int64][]core.Transaction)
	for _, tx := range txs {
		byCat[tx.CategoryID] = append(byCat[tx.CategoryID], tx)
	}

	categories := groupBy(txs, func(tx core.Transaction) int64 { return tx.CategoryID }, names)

	sections := make([]Table, 0, len(categories))
	for _, cat := range categories {
		section := Table{Title: names.Name(cat.key), Columns: sectionColumns}
		for _, g := range groupBy(byCat[cat.key], func(tx core.Transaction) int64 { return tx.SubcategoryID }, names) {
			name := names.Name(g.key)
			if g.key == 0 {
				name = "Без подкатегории"
			}
			section.Rows = append(section.Rows, []string{name, core.FormatAmountDisplay(g.sum)})
		}
		sections = append(sections, section)
	}
	return sections
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
